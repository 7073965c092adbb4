// internal/power/power.go
package power

import (
	"fmt"
	"strings"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
)

// Pin names of the daughterboard port expander, in pin order.
var Pins = [8]string{
	"PWR-GOOD-3.6V",
	"PWR-EN-3.6V",
	"PWR-GOOD-1.5V",
	"PWR-EN-1.5V",
	"PWR-GOOD-5.5V",
	"PWR-EN-5.5V",
	"6",
	"LED",
}

// sequence is the order rails are enabled in; power off uses the same order.
var sequence = []string{"PWR-EN-3.6V", "PWR-EN-1.5V", "PWR-EN-5.5V", "LED"}

// PinIndex returns the expander pin number for name.
func PinIndex(name string) (int, bool) {
	for i, p := range Pins {
		if p == name {
			return i, true
		}
	}
	return 0, false
}

// Rails sets and reads power control pins by name.
type Rails interface {
	Set(name string, v bool) error
	Get(name string) (bool, error)
}

// On enables the supply rails and the LED.
func On(r Rails, slot int) error {
	log.Printf("debug", "powering on slot %d", slot)
	return drive(r, true)
}

// Off disables the supply rails and the LED.
func Off(r Rails, slot int) error {
	log.Printf("debug", "powering off slot %d", slot)
	return drive(r, false)
}

func drive(r Rails, v bool) error {
	for _, name := range sequence {
		if err := r.Set(name, v); err != nil {
			return fault.Wrap(fault.Hardware, "power", fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

// GoodPins are the power-good inputs, one per rail.
var GoodPins = []string{"PWR-GOOD-3.6V", "PWR-GOOD-1.5V", "PWR-GOOD-5.5V"}

// Good reports the power-good pin of every rail.
func Good(r Rails) (map[string]bool, error) {
	out := make(map[string]bool, len(GoodPins))
	for _, name := range GoodPins {
		v, err := r.Get(name)
		if err != nil {
			return nil, fault.Wrap(fault.Hardware, "power.Good", fmt.Errorf("%s: %w", name, err))
		}
		out[name] = v
	}
	return out, nil
}

// Mem is an in-memory Rails used by the simulator. Driving an enable pin
// drives the matching power-good pin with it.
type Mem struct {
	Pins map[string]bool
	Fail map[string]bool
}

func NewMem() *Mem {
	return &Mem{Pins: make(map[string]bool), Fail: make(map[string]bool)}
}

func (m *Mem) Set(name string, v bool) error {
	if m.Fail[name] {
		return fmt.Errorf("power mem: %s failed", name)
	}
	if _, ok := PinIndex(name); !ok {
		return fmt.Errorf("power mem: unknown pin %q", name)
	}
	m.Pins[name] = v
	if rail, ok := strings.CutPrefix(name, "PWR-EN-"); ok {
		m.Pins["PWR-GOOD-"+rail] = v
	}
	return nil
}

func (m *Mem) Get(name string) (bool, error) {
	if m.Fail[name] {
		return false, fmt.Errorf("power mem: %s failed", name)
	}
	return m.Pins[name], nil
}
