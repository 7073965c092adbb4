// internal/power/gpio.go
package power

import (
	"fmt"

	"github.com/platinasystems/gpio"
)

// GPIORails drives the power pins through the kernel GPIO map. Pin names
// are looked up with a per-slot prefix, e.g. "DB0-PWR-EN-3.6V".
type GPIORails struct {
	Prefix string
	Pins   gpio.PinMap
}

// NewGPIORails uses the process-wide pin map.
func NewGPIORails(slot int) *GPIORails {
	return &GPIORails{Prefix: fmt.Sprintf("DB%d-", slot), Pins: gpio.Pins}
}

func (g *GPIORails) pin(name string) (gpio.Pin, error) {
	pin, found := g.Pins[g.Prefix+name]
	if !found {
		return pin, fmt.Errorf("gpio: pin %s%s not found", g.Prefix, name)
	}
	return pin, nil
}

func (g *GPIORails) Set(name string, v bool) error {
	pin, err := g.pin(name)
	if err != nil {
		return err
	}
	return pin.SetValue(v)
}

func (g *GPIORails) Get(name string) (bool, error) {
	pin, err := g.pin(name)
	if err != nil {
		return false, err
	}
	return pin.Value()
}
