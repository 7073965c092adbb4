// internal/dboard/dboard.go
package dboard

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/clocking"
	"github.com/tamzrod/dboard-bringup/internal/cpld"
	"github.com/tamzrod/dboard-bringup/internal/eeprom"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/poll"
	"github.com/tamzrod/dboard-bringup/internal/power"
	"github.com/tamzrod/dboard-bringup/internal/rate"
	"github.com/tamzrod/dboard-bringup/internal/regs"
)

// Hardware is everything a daughterboard talks to.
type Hardware struct {
	CPLD     regs.Regs16
	PhaseDAC regs.Regs16
	Ctrl     regs.Regs32 // dboard control registers (MMCM, JESD core)

	Core  jesd.Core
	ASIC  asic.Commander
	Rails power.Rails

	// EEPROM may be nil when the board has no user data region.
	EEPROM eeprom.Device

	Synthesizer  clocking.SynthesizerFactory
	Synchronizer clocking.SynchronizerFactory
}

type options struct {
	revision  int
	timing    jesd.Timing
	mmcmLock  poll.Config
	qpllLock  poll.Config
	synthLock poll.Config
}

// Option configures a Dboard.
type Option func(*options)

// WithRevision sets the board revision used for the EEPROM layout lookup.
func WithRevision(rev int) Option { return func(o *options) { o.revision = rev } }

// WithTiming overrides the link training margins.
func WithTiming(t jesd.Timing) Option { return func(o *options) { o.timing = t } }

// WithLockPolls overrides the MMCM, QPLL and synthesizer lock waits.
// Zero configs keep the defaults.
func WithLockPolls(mmcm, qpll, synth poll.Config) Option {
	return func(o *options) {
		if mmcm.Interval > 0 {
			o.mmcmLock = mmcm
		}
		if qpll.Interval > 0 {
			o.qpllLock = qpll
		}
		if synth.Interval > 0 {
			o.synthLock = synth
		}
	}
}

// Dboard is one attached daughterboard.
type Dboard struct {
	slot int
	hw   Hardware
	opts options

	bus     regs.BusLock
	clk     *clocking.Control
	reconf  *jesd.Reconfigurator
	trainer *jesd.Trainer

	cpld *cpld.CPLD
	user *eeprom.UserData

	ready   atomic.Bool
	trained atomic.Bool
	busy    atomic.Bool

	mu       sync.RWMutex
	cc       *ClockConfig
	initOpts InitOptions
	synth    clocking.Synthesizer
	lastErr  error
}

// New attaches the board in slot. Peripheral failures are logged and
// leave the board attached but not ready.
func New(slot int, hw Hardware, opts ...Option) *Dboard {
	o := options{
		revision:  2,
		timing:    jesd.DefaultTiming(),
		mmcmLock:  clocking.DefaultMMCMLock,
		qpllLock:  jesd.DefaultQPLLLock,
		synthLock: clocking.DefaultSynthLock,
	}
	for _, fn := range opts {
		fn(&o)
	}

	d := &Dboard{slot: slot, hw: hw, opts: o}
	d.clk = clocking.NewControl(hw.Ctrl, o.mmcmLock)
	d.reconf = jesd.NewReconfigurator(hw.Core, &d.bus, o.qpllLock)

	if err := d.initPeripherals(); err != nil {
		log.Printf("err", "slot %d: failed to initialize peripherals: %v", slot, err)
		d.setErr(err)
		return d
	}
	d.trainer = jesd.NewTrainer(hw.Core, hw.ASIC, d.cpld, d.reconf, o.timing)
	d.ready.Store(true)
	return d
}

func (d *Dboard) initPeripherals() error {
	if err := power.On(d.hw.Rails, d.slot); err != nil {
		return err
	}
	c, err := cpld.New(d.hw.CPLD)
	if err != nil {
		return err
	}
	d.cpld = c
	if d.hw.EEPROM != nil {
		u, err := eeprom.Open(d.hw.EEPROM, d.opts.revision)
		if err != nil {
			return fmt.Errorf("user eeprom: %w", err)
		}
		d.user = u
	}
	return nil
}

func (d *Dboard) Slot() int { return d.slot }

// Ready reports whether the peripherals came up.
func (d *Dboard) Ready() bool { return d.ready.Load() }

// LinkTrained reports whether the last bring-up completed.
func (d *Dboard) LinkTrained() bool { return d.trained.Load() }

// LaneRate returns the rate the transceivers are known to run at.
func (d *Dboard) LaneRate() rate.LaneRate { return d.reconf.Current() }

// ClockConfig returns the configuration of the last successful bring-up.
func (d *Dboard) ClockConfig() (ClockConfig, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.cc == nil {
		return ClockConfig{}, false
	}
	return *d.cc, true
}

// TrainerState returns the last state the link trainer reached.
func (d *Dboard) TrainerState() jesd.State {
	if d.trainer == nil {
		return jesd.StateReset
	}
	return d.trainer.State()
}

// LastError returns the error of the last failed operation, nil after a
// successful bring-up.
func (d *Dboard) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

func (d *Dboard) setErr(err error) {
	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}

// PowerOff removes power from the board. It must be attached again to use it.
func (d *Dboard) PowerOff() error {
	d.trained.Store(false)
	d.ready.Store(false)
	if err := power.Off(d.hw.Rails, d.slot); err != nil {
		d.setErr(err)
		return err
	}
	return nil
}

func (d *Dboard) notReady(op string) error {
	log.Printf("err", "slot %d: %s: peripherals are not initialized", d.slot, op)
	return fault.New(fault.NotReady, op, "peripherals are not initialized")
}
