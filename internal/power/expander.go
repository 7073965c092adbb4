// internal/power/expander.go
package power

import (
	"fmt"
	"sync"

	"github.com/platinasystems/i2c"
)

// TCA6408 registers.
const (
	tcaInput  uint8 = 0x00
	tcaOutput uint8 = 0x01
	tcaConfig uint8 = 0x03
)

// Odd pins are enables (outputs), even pins are power-good inputs.
const tcaOutputs uint8 = 0xAA

// BusForSlot maps a daughterboard slot to its I2C adapter.
var BusForSlot = map[int]int{0: 9, 1: 10}

// Expander drives the TCA6408 power expander over SMBus.
type Expander struct {
	Bus  int
	Addr int
}

// busMu serializes expander transactions; a Set is a read followed by a
// write of the same output register.
var busMu sync.Mutex

func (e *Expander) do(rw i2c.RW, reg uint8, data *i2c.SMBusData) error {
	return i2c.Do(e.Bus, e.Addr, func(bus *i2c.Bus) error {
		return bus.Do(rw, reg, i2c.ByteData, data)
	})
}

func (e *Expander) read(reg uint8) (uint8, error) {
	var data i2c.SMBusData
	if err := e.do(i2c.Read, reg, &data); err != nil {
		return 0, fmt.Errorf("tca6408 %d-%#02x read %#02x: %w", e.Bus, e.Addr, reg, err)
	}
	return data[0], nil
}

func (e *Expander) write(reg, v uint8) error {
	var data i2c.SMBusData
	data[0] = v
	if err := e.do(i2c.Write, reg, &data); err != nil {
		return fmt.Errorf("tca6408 %d-%#02x write %#02x: %w", e.Bus, e.Addr, reg, err)
	}
	return nil
}

// Configure sets the pin directions. A set config bit is an input.
func (e *Expander) Configure() error {
	busMu.Lock()
	defer busMu.Unlock()
	return e.write(tcaConfig, ^tcaOutputs)
}

func (e *Expander) Set(name string, v bool) error {
	pin, ok := PinIndex(name)
	if !ok || tcaOutputs&(1<<pin) == 0 {
		return fmt.Errorf("tca6408: %q is not an output", name)
	}
	busMu.Lock()
	defer busMu.Unlock()
	out, err := e.read(tcaOutput)
	if err != nil {
		return err
	}
	if v {
		out |= 1 << pin
	} else {
		out &^= 1 << pin
	}
	return e.write(tcaOutput, out)
}

func (e *Expander) Get(name string) (bool, error) {
	pin, ok := PinIndex(name)
	if !ok {
		return false, fmt.Errorf("tca6408: unknown pin %q", name)
	}
	busMu.Lock()
	defer busMu.Unlock()
	in, err := e.read(tcaInput)
	if err != nil {
		return false, err
	}
	return in&(1<<pin) != 0, nil
}
