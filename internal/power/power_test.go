// internal/power/power_test.go
package power

import (
	"errors"
	"testing"

	"github.com/tamzrod/dboard-bringup/internal/fault"
)

func TestOnOff(t *testing.T) {
	m := NewMem()
	if err := On(m, 0); err != nil {
		t.Fatalf("On: %v", err)
	}
	for _, name := range []string{"PWR-EN-3.6V", "PWR-EN-1.5V", "PWR-EN-5.5V", "LED"} {
		if !m.Pins[name] {
			t.Fatalf("%s not set", name)
		}
	}
	if !m.Pins["PWR-GOOD-3.6V"] || m.Pins["6"] {
		t.Fatalf("power-good not following enable: %v", m.Pins)
	}

	if err := Off(m, 0); err != nil {
		t.Fatalf("Off: %v", err)
	}
	for name, v := range m.Pins {
		if v {
			t.Fatalf("%s still set after power off", name)
		}
	}
}

func TestOn_Failure(t *testing.T) {
	m := NewMem()
	m.Fail["PWR-EN-1.5V"] = true
	err := On(m, 1)
	if !errors.Is(err, fault.Hardware) {
		t.Fatalf("err=%v want Hardware", err)
	}
	if m.Pins["PWR-EN-5.5V"] {
		t.Fatalf("sequence continued past failure")
	}
}

func TestSequencePinsAreExpanderOutputs(t *testing.T) {
	for _, name := range sequence {
		pin, ok := PinIndex(name)
		if !ok {
			t.Fatalf("%s not an expander pin", name)
		}
		if tcaOutputs&(1<<pin) == 0 {
			t.Fatalf("%s (pin %d) is not configured as output", name, pin)
		}
	}
	for _, name := range []string{"PWR-GOOD-3.6V", "PWR-GOOD-1.5V", "PWR-GOOD-5.5V"} {
		pin, _ := PinIndex(name)
		if tcaOutputs&(1<<pin) != 0 {
			t.Fatalf("%s (pin %d) configured as output", name, pin)
		}
	}
}

func TestGood(t *testing.T) {
	m := NewMem()
	m.Pins["PWR-GOOD-1.5V"] = true
	g, err := Good(m)
	if err != nil {
		t.Fatalf("Good: %v", err)
	}
	if !g["PWR-GOOD-1.5V"] || g["PWR-GOOD-3.6V"] {
		t.Fatalf("good=%v", g)
	}
}

func TestGPIORails_MissingPin(t *testing.T) {
	g := &GPIORails{Prefix: "DB0-"}
	if err := g.Set("PWR-EN-3.6V", true); err == nil {
		t.Fatalf("expected missing pin error")
	}
}

func TestExpander_PinChecks(t *testing.T) {
	e := &Expander{Bus: 1 << 20, Addr: 0x20}
	if err := e.Set("PWR-GOOD-3.6V", true); err == nil {
		t.Fatalf("expected error driving an input pin")
	}
	if _, err := e.Get("PWR-EN-9V"); err == nil {
		t.Fatalf("expected error for unknown pin")
	}
	// No adapter with that number exists.
	if _, err := e.Get("PWR-GOOD-3.6V"); err == nil {
		t.Fatalf("expected error reading a missing bus")
	}
}
