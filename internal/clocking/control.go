// internal/clocking/control.go
package clocking

import (
	"errors"
	"fmt"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/poll"
	"github.com/tamzrod/dboard-bringup/internal/regs"
)

// FPGA clock control registers.
const (
	RegRadioClkMMCM   uint32 = 0x20
	RegRadioClkEnable uint32 = 0x28
	RegMGTRefClk      uint32 = 0x30
)

const (
	mmcmReset     uint32 = 0x1
	mmcmEnable    uint32 = 0x2
	mmcmLocked    uint32 = 0x10
	radioClksOn   uint32 = 0x011
	radioClksOff  uint32 = 0x0
	mgtRefClkGood uint32 = 0x1
)

// DefaultMMCMLock polls every 10 ms for up to 500 ms.
var DefaultMMCMLock = poll.Config{Interval: 10 * time.Millisecond, Timeout: 500 * time.Millisecond}

// Control drives the radio clock MMCM in the FPGA.
type Control struct {
	r    regs.Regs32
	lock poll.Config
}

func NewControl(r regs.Regs32, lock poll.Config) *Control {
	if lock.Interval <= 0 {
		lock = DefaultMMCMLock
	}
	return &Control{r: r, lock: lock}
}

// ResetMMCM gates the radio clocks and holds the MMCM in reset.
func (c *Control) ResetMMCM() error {
	const op = "clocking.ResetMMCM"
	log.Print("debug", "disabling radio clocks, resetting MMCM")
	if err := c.r.Poke32(RegRadioClkEnable, radioClksOff); err != nil {
		return fault.Wrap(fault.Transport, op, err)
	}
	if err := c.r.Poke32(RegRadioClkMMCM, mmcmReset); err != nil {
		return fault.Wrap(fault.Transport, op, err)
	}
	return nil
}

// EnableMMCM releases the MMCM, waits for lock and ungates the radio clocks.
func (c *Control) EnableMMCM() error {
	const op = "clocking.EnableMMCM"
	if err := c.r.Poke32(RegRadioClkMMCM, mmcmEnable); err != nil {
		return fault.Wrap(fault.Transport, op, err)
	}
	err := poll.Until(c.lock, func() (bool, error) {
		v, err := c.r.Peek32(RegRadioClkMMCM)
		return v&mmcmLocked != 0, err
	})
	switch {
	case errors.Is(err, poll.ErrTimeout):
		log.Print("err", "radio clock MMCM failed to lock")
		return fault.New(fault.LockTimeout, op, "MMCM not locked after %v", c.lock.Timeout)
	case err != nil:
		return fault.Wrap(fault.Transport, op, err)
	}
	if err := c.r.Poke32(RegRadioClkEnable, radioClksOn); err != nil {
		return fault.Wrap(fault.Transport, op, err)
	}
	log.Print("debug", "radio clock MMCM locked, clocks enabled")
	return nil
}

// MMCMLocked reports the current lock bit.
func (c *Control) MMCMLocked() (bool, error) {
	v, err := c.r.Peek32(RegRadioClkMMCM)
	if err != nil {
		return false, fault.Wrap(fault.Transport, "clocking.MMCMLocked", err)
	}
	return v&mmcmLocked != 0, nil
}

// CheckRefClk reports whether the MGT reference clock is running.
func (c *Control) CheckRefClk() (bool, error) {
	v, err := c.r.Peek32(RegMGTRefClk)
	if err != nil {
		return false, fault.Wrap(fault.Transport, "clocking.CheckRefClk", err)
	}
	return v&mgtRefClkGood != 0, nil
}

// PhaseDACInitWord centers the reference clock phase DAC before the
// synthesizer is programmed.
const PhaseDACInitWord uint16 = 31000

// InitPhaseDAC writes the initial DAC word.
func InitPhaseDAC(dac regs.Regs16) error {
	if err := dac.Poke16(0, PhaseDACInitWord); err != nil {
		return fault.Wrap(fault.Transport, "clocking.InitPhaseDAC", fmt.Errorf("phase DAC: %w", err))
	}
	return nil
}
