// internal/jesd/reconfig.go
package jesd

import (
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/poll"
	"github.com/tamzrod/dboard-bringup/internal/rate"
)

// DefaultQPLLLock bounds the wait for the QPLL to relock after Init.
var DefaultQPLLLock = poll.Config{Interval: time.Millisecond, Timeout: 100 * time.Millisecond}

// Reconfigurator reprograms the QPLL and GTX attributes over DRP so the
// FPGA transceivers run at a new lane rate.
type Reconfigurator struct {
	core     Core
	bus      sync.Locker
	lockWait poll.Config

	current atomic.Int32

	// dirty is set when a reconfiguration failed part way through. The
	// hardware no longer matches current, so the next call reprograms.
	dirty bool
}

// NewReconfigurator starts with an unknown current rate.
func NewReconfigurator(core Core, bus sync.Locker, lockWait poll.Config) *Reconfigurator {
	if lockWait.Interval <= 0 {
		lockWait = DefaultQPLLLock
	}
	return &Reconfigurator{core: core, bus: bus, lockWait: lockWait}
}

// Current returns the lane rate the transceivers are known to run at.
func (r *Reconfigurator) Current() rate.LaneRate {
	return rate.LaneRate(r.current.Load())
}

// SetRate moves the transceivers to target. Without force, a target that
// is compatible with the current rate only relocks the QPLL.
// The current rate is updated only after every step succeeded.
func (r *Reconfigurator) SetRate(target rate.LaneRate, force bool) error {
	const op = "jesd.SetRate"

	p, ok := rate.ParamsFor(target)
	if !ok {
		return fault.New(fault.Validation, op, "unsupported lane rate %v", target)
	}

	r.bus.Lock()
	defer r.bus.Unlock()

	cur := r.Current()
	skip := !force && !r.dirty && rate.Compatible(cur, target)
	if skip {
		log.Printf("info", "lane rate %v compatible with %v, relock only", target, cur)
	} else {
		log.Printf("info", "reconfiguring transceivers %v -> %v", cur, target)
		r.dirty = true
		if err := r.writeQPLL(p); err != nil {
			return r.abort(op, err)
		}
	}

	if err := r.relock(); err != nil {
		return r.abort(op, err)
	}

	if !skip {
		for lane := 0; lane < p.LaneCount; lane++ {
			if err := r.writeLane(lane, p); err != nil {
				return r.abort(op, fmt.Errorf("lane %d: %w", lane, err))
			}
		}
		if err := r.core.DeselectDRP(); err != nil {
			return r.abort(op, err)
		}
	}

	r.dirty = false
	r.current.Store(int32(target))
	return nil
}

func (r *Reconfigurator) abort(op string, err error) error {
	if derr := r.core.DeselectDRP(); derr != nil {
		log.Print("err", "DRP deselect after failure: ", derr)
	}
	log.Print("err", "lane rate reconfiguration failed: ", err)
	return fault.Wrap(fault.Hardware, op, err)
}

func (r *Reconfigurator) relock() error {
	if err := r.core.Init(); err != nil {
		return fmt.Errorf("QPLL reset: %w", err)
	}
	err := poll.Until(r.lockWait, r.core.QPLLLocked)
	if errors.Is(err, poll.ErrTimeout) {
		return fault.New(fault.LockTimeout, "jesd.relock", "QPLL did not lock within %v", r.lockWait.Timeout)
	}
	return err
}

func (r *Reconfigurator) writeQPLL(p rate.Params) error {
	if err := r.core.SelectDRP(DomainQPLL, 0); err != nil {
		return err
	}
	if err := r.core.WriteDRP(drpQPLLCfgLo, uint16(p.QPLLCfg)); err != nil {
		return err
	}
	if err := r.rmw(drpQPLLCfgHi, qpllCfgHiKeep, uint16(p.QPLLCfg>>16)&0x7FF); err != nil {
		return err
	}
	return r.rmw(drpQPLLFbDiv, qpllFbDivKeep, p.QPLLFbDiv&0x3FF)
}

func (r *Reconfigurator) writeLane(lane int, p rate.Params) error {
	c := r.core
	if err := c.SelectDRP(DomainMGT, lane); err != nil {
		return err
	}
	if err := c.WriteDRP(drpPMARsvLo, uint16(p.PMARsv)); err != nil {
		return err
	}
	if err := c.WriteDRP(drpPMARsvHi, uint16(p.PMARsv>>16)); err != nil {
		return err
	}
	rx := (uint16(p.RxClk25Div-1) & clk25FieldMask) << rxClk25FieldPos
	if err := r.rmw(drpRxClk25, rxClk25Keep, rx); err != nil {
		return err
	}
	tx := uint16(p.TxClk25Div-1) & clk25FieldMask
	if err := r.rmw(drpTxClk25, txClk25Keep, tx); err != nil {
		return err
	}
	for i, w := range p.RxCDRCfg {
		if err := c.WriteDRP(drpRxCDRBase+uint16(i), w); err != nil {
			return err
		}
	}
	return c.WriteDRP(drpOutDiv, outDivWord(p.RxOutDiv, p.TxOutDiv))
}

// rmw keeps the bits in keep and ORs in v.
func (r *Reconfigurator) rmw(addr, keep, v uint16) error {
	old, err := r.core.ReadDRP(addr)
	if err != nil {
		return err
	}
	return r.core.WriteDRP(addr, (old&keep)|v)
}

func outDivWord(rx, tx uint8) uint16 {
	return uint16(log2(rx)&7) | uint16(log2(tx)&7)<<4
}

func log2(v uint8) int {
	if v == 0 {
		return 0
	}
	return bits.Len8(v) - 1
}
