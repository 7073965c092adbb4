// internal/dboard/debug.go
package dboard

import (
	"fmt"
	"io"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/cpld"
	"github.com/tamzrod/dboard-bringup/internal/fault"
)

// JESD core register window shown by DumpCore.
const (
	coreDumpStart uint32 = 0x2000
	coreDumpEnd   uint32 = 0x2100 // inclusive row
)

// UserData returns the blobs stored in the user EEPROM region.
func (d *Dboard) UserData() (map[string][]byte, error) {
	if d.user == nil {
		return nil, d.notReady("dboard.UserData")
	}
	return d.user.Blobs(), nil
}

// SetUserData updates the user blobs. The stored copy changes at once; the
// EEPROM is written in the background.
func (d *Dboard) SetUserData(blobs map[string][]byte) error {
	if d.user == nil {
		return d.notReady("dboard.SetUserData")
	}
	return d.user.Set(blobs)
}

// WaitUserData blocks until a running EEPROM write-back is done.
func (d *Dboard) WaitUserData() error {
	if d.user == nil {
		return nil
	}
	return d.user.Wait()
}

// CPLDPeek reads a CPLD register.
func (d *Dboard) CPLDPeek(addr uint32) (uint16, error) {
	v, err := d.hw.CPLD.Peek16(addr)
	return v, fault.Wrap(fault.Transport, "dboard.CPLDPeek", err)
}

// CPLDPoke writes a CPLD register and returns the read back value.
func (d *Dboard) CPLDPoke(addr uint32, v uint16) (uint16, error) {
	if err := d.hw.CPLD.Poke16(addr, v); err != nil {
		return 0, fault.Wrap(fault.Transport, "dboard.CPLDPoke", err)
	}
	return d.CPLDPeek(addr)
}

// CorePeek reads a dboard control register.
func (d *Dboard) CorePeek(addr uint32) (uint32, error) {
	d.bus.Lock()
	defer d.bus.Unlock()
	v, err := d.hw.Ctrl.Peek32(addr)
	if err != nil {
		return 0, fault.Wrap(fault.Transport, "dboard.CorePeek", err)
	}
	log.Printf("debug", "DB core register %#04x: %#08x", addr, v)
	return v, nil
}

// CorePoke writes a dboard control register.
func (d *Dboard) CorePoke(addr, v uint32) error {
	d.bus.Lock()
	defer d.bus.Unlock()
	log.Printf("debug", "writing DB core register %#04x with %#08x", addr, v)
	return fault.Wrap(fault.Transport, "dboard.CorePoke", d.hw.Ctrl.Poke32(addr, v))
}

// DumpCore prints the JESD core registers, four words per row.
func (d *Dboard) DumpCore(w io.Writer) error {
	d.bus.Lock()
	defer d.bus.Unlock()
	for row := coreDumpStart; row <= coreDumpEnd; row += 0x10 {
		fmt.Fprintf(w, "0x%04X ", row)
		for off := uint32(0); off < 0x10; off += 4 {
			v, err := d.hw.Ctrl.Peek32(row + off)
			if err != nil {
				return fault.Wrap(fault.Transport, "dboard.DumpCore", err)
			}
			fmt.Fprintf(w, " %08X", v)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// CPLDInfo returns what the CPLD reported at attach.
func (d *Dboard) CPLDInfo() (cpld.Info, error) {
	if d.cpld == nil {
		return cpld.Info{}, d.notReady("dboard.CPLDInfo")
	}
	return d.cpld.Info(), nil
}

// CPLDScratch writes v to the CPLD scratch register and reads it back.
func (d *Dboard) CPLDScratch(v uint16) (uint16, error) {
	if d.cpld == nil {
		return 0, d.notReady("dboard.CPLDScratch")
	}
	if err := d.cpld.SetScratch(v); err != nil {
		return 0, err
	}
	return d.cpld.Scratch()
}

// ResetCPLD resets the whole CPLD. The link must be trained again.
func (d *Dboard) ResetCPLD() error {
	if d.cpld == nil {
		return d.notReady("dboard.ResetCPLD")
	}
	d.trained.Store(false)
	return d.cpld.Reset()
}

// SetPDACControl gives the phase DAC exclusive control over the VCXO.
func (d *Dboard) SetPDACControl(exclusive bool) error {
	if d.cpld == nil {
		return d.notReady("dboard.SetPDACControl")
	}
	log.Printf("debug", "slot %d: phase DAC exclusive control %v", d.slot, exclusive)
	return d.cpld.SetPDACControl(exclusive)
}
