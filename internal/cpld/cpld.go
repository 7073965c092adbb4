// internal/cpld/cpld.go
package cpld

import (
	"fmt"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/regs"
)

const (
	Signature     uint16 = 0xCAFE
	CompatibleRev uint16 = 4
)

// Register map.
const (
	RegSignature    uint32 = 0x0000
	RegRevision     uint32 = 0x0001
	RegOldestCompat uint32 = 0x0002
	RegBuildCodeLSB uint32 = 0x0003
	RegBuildCodeMSB uint32 = 0x0004
	RegScratch      uint32 = 0x0005
	RegCPLDCtrl     uint32 = 0x0010
	RegLMKCtrl      uint32 = 0x0011
	RegLOStatus     uint32 = 0x0012
	RegMYKCtrl      uint32 = 0x0013
)

const (
	lmkPDACExclusive uint16 = 1 << 4
	loLockedTX       uint16 = 1 << 4
	loLockedRX       uint16 = 1 << 0
)

// Info is what the CPLD reports about itself.
type Info struct {
	Signature    uint16
	Revision     uint16
	OldestCompat uint16
	BuildCode    uint32
}

func (i Info) String() string {
	return fmt.Sprintf("signature=%#x revision=%#04x oldest_compat=%#04x build=%#08x",
		i.Signature, i.Revision, i.OldestCompat, i.BuildCode)
}

// CPLD is the daughterboard control CPLD.
type CPLD struct {
	r    regs.Regs16
	info Info
}

// New checks the signature and the oldest compatible revision.
func New(r regs.Regs16) (*CPLD, error) {
	const op = "cpld.New"
	c := &CPLD{r: r}
	var err error
	read := func(addr uint32) uint16 {
		if err != nil {
			return 0
		}
		var v uint16
		v, err = r.Peek16(addr)
		return v
	}

	c.info.Signature = read(RegSignature)
	c.info.Revision = read(RegRevision)
	c.info.OldestCompat = read(RegOldestCompat)
	lsb := read(RegBuildCodeLSB)
	msb := read(RegBuildCodeMSB)
	if err != nil {
		return nil, fault.Wrap(fault.Transport, op, err)
	}
	c.info.BuildCode = uint32(lsb) | uint32(msb)<<16

	if c.info.Signature != Signature {
		log.Printf("err", "CPLD signature mismatch: expected %#04x got %#04x", Signature, c.info.Signature)
		return nil, fault.New(fault.Hardware, op, "signature %#04x, want %#04x", c.info.Signature, Signature)
	}
	if c.info.OldestCompat != CompatibleRev {
		log.Printf("err", "CPLD revision compat mismatch: expected %d got %d", CompatibleRev, c.info.OldestCompat)
		return nil, fault.New(fault.Hardware, op, "oldest compatible revision %d, want %d",
			c.info.OldestCompat, CompatibleRev)
	}
	log.Print("debug", "CPLD ", c.info)
	return c, nil
}

func (c *CPLD) Info() Info { return c.info }

func (c *CPLD) SetScratch(v uint16) error {
	return c.poke("cpld.SetScratch", RegScratch, v)
}

func (c *CPLD) Scratch() (uint16, error) {
	v, err := c.r.Peek16(RegScratch)
	return v, fault.Wrap(fault.Transport, "cpld.Scratch", err)
}

// Reset resets the whole CPLD.
func (c *CPLD) Reset() error {
	if err := c.poke("cpld.Reset", RegCPLDCtrl, 0x1); err != nil {
		return err
	}
	return c.poke("cpld.Reset", RegCPLDCtrl, 0x0)
}

// SetPDACControl gives the phase DAC exclusive control over the VCXO
// voltage when enable is set.
func (c *CPLD) SetPDACControl(enable bool) error {
	var v uint16
	if enable {
		v = lmkPDACExclusive
	}
	return c.poke("cpld.SetPDACControl", RegLMKCtrl, v)
}

// LOLocked reports the lowband LO lock bit for one direction.
func (c *CPLD) LOLocked(d asic.Direction) (bool, error) {
	mask := loLockedRX
	if d == asic.TX {
		mask = loLockedTX
	}
	v, err := c.r.Peek16(RegLOStatus)
	if err != nil {
		return false, fault.Wrap(fault.Transport, "cpld.LOLocked", err)
	}
	return v&mask != 0, nil
}

// ResetASIC pulses the ASIC hard reset line.
func (c *CPLD) ResetASIC(hold time.Duration) error {
	log.Print("debug", "resetting ASIC")
	if err := c.poke("cpld.ResetASIC", RegMYKCtrl, 0x1); err != nil {
		return err
	}
	time.Sleep(hold)
	if err := c.poke("cpld.ResetASIC", RegMYKCtrl, 0x0); err != nil {
		return err
	}
	time.Sleep(hold)
	return nil
}

func (c *CPLD) poke(op string, addr uint32, v uint16) error {
	return fault.Wrap(fault.Transport, op, c.r.Poke16(addr, v))
}
