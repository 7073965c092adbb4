// internal/cpld/cpld_test.go
package cpld

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/regs"
)

func goodCPLD() *regs.Mem {
	m := regs.NewMem()
	m.Set(RegSignature, 0xCAFE)
	m.Set(RegRevision, 5)
	m.Set(RegOldestCompat, 4)
	m.Set(RegBuildCodeLSB, 0x0102)
	m.Set(RegBuildCodeMSB, 0x1718)
	return m
}

func TestNew(t *testing.T) {
	c, err := New(goodCPLD())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Info().BuildCode != 0x17180102 || c.Info().Revision != 5 {
		t.Fatalf("info=%+v", c.Info())
	}
}

func TestNew_Rejects(t *testing.T) {
	cases := map[string]func(*regs.Mem){
		"signature": func(m *regs.Mem) { m.Set(RegSignature, 0xBEEF) },
		"compat":    func(m *regs.Mem) { m.Set(RegOldestCompat, 3) },
	}
	for name, mutate := range cases {
		m := goodCPLD()
		mutate(m)
		if _, err := New(m); !errors.Is(err, fault.Hardware) {
			t.Fatalf("%s: err=%v want Hardware", name, err)
		}
	}

	m := goodCPLD()
	m.FailAddr = map[uint32]bool{RegRevision: true}
	if _, err := New(m); !errors.Is(err, fault.Transport) {
		t.Fatalf("read failure: err=%v want Transport", err)
	}
}

func TestLOLocked(t *testing.T) {
	m := goodCPLD()
	c, _ := New(m)

	m.Set(RegLOStatus, 0x10)
	if tx, _ := c.LOLocked(asic.TX); !tx {
		t.Fatalf("tx not locked")
	}
	if rx, _ := c.LOLocked(asic.RX); rx {
		t.Fatalf("rx locked with only tx bit set")
	}
	m.Set(RegLOStatus, 0x01)
	if rx, _ := c.LOLocked(asic.RX); !rx {
		t.Fatalf("rx not locked")
	}
}

func TestResetASIC(t *testing.T) {
	m := goodCPLD()
	c, _ := New(m)
	start := time.Now()
	if err := c.ResetASIC(time.Millisecond); err != nil {
		t.Fatalf("ResetASIC: %v", err)
	}
	if el := time.Since(start); el < 2*time.Millisecond {
		t.Fatalf("pulse took %v, want >= 2ms", el)
	}
	w := m.Writes()
	if len(w) != 2 || w[0] != (regs.Write{Addr: RegMYKCtrl, Value: 1}) || w[1] != (regs.Write{Addr: RegMYKCtrl, Value: 0}) {
		t.Fatalf("writes=%v", w)
	}
}

func TestControlRegisters(t *testing.T) {
	m := goodCPLD()
	c, _ := New(m)
	_ = c.SetPDACControl(true)
	if m.Get(RegLMKCtrl) != 0x10 {
		t.Fatalf("lmk ctrl=%#x", m.Get(RegLMKCtrl))
	}
	_ = c.SetPDACControl(false)
	if m.Get(RegLMKCtrl) != 0 {
		t.Fatalf("lmk ctrl=%#x", m.Get(RegLMKCtrl))
	}
	_ = c.SetScratch(0xA5A5)
	if v, _ := c.Scratch(); v != 0xA5A5 {
		t.Fatalf("scratch=%#x", v)
	}
	_ = c.Reset()
	if w := m.Writes(); w[len(w)-1] != (regs.Write{Addr: RegCPLDCtrl, Value: 0}) {
		t.Fatalf("reset did not release: %v", w)
	}
}
