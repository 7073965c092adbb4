// internal/sim/sim_test.go
package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/clocking"
	"github.com/tamzrod/dboard-bringup/internal/cpld"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/poll"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

var (
	_ asic.Commander             = (*ASIC)(nil)
	_ jesd.Core                  = (*Core)(nil)
	_ clocking.Synthesizer       = (*Synth)(nil)
	_ clocking.PhaseSynchronizer = (*Sync)(nil)
)

func TestBoard_CPLDAttaches(t *testing.T) {
	b := NewBoard()
	c, err := cpld.New(b.CPLD)
	if err != nil {
		t.Fatalf("cpld.New: %v", err)
	}
	if ok, _ := c.LOLocked(asic.RX); !ok {
		t.Fatalf("rx lowband LO not locked")
	}
}

func TestBoard_MMCMLock(t *testing.T) {
	b := NewBoard()
	ctl := clocking.NewControl(b.Ctrl, poll.Config{Interval: time.Millisecond, Timeout: 3 * time.Millisecond})
	if err := ctl.EnableMMCM(); err != nil {
		t.Fatalf("EnableMMCM: %v", err)
	}

	b.SetMMCMLocks(false)
	_ = ctl.ResetMMCM()
	if err := ctl.EnableMMCM(); err == nil {
		t.Fatalf("expected lock timeout")
	}
}

func TestASIC_DefaultWordsDecodeGood(t *testing.T) {
	a := NewASIC()
	fw, _ := a.FramerStatus()
	dw, _ := a.DeframerStatus()
	mc, _ := a.MultichipSyncStatus()
	if !status.DecodeFramer(fw).OK || !status.DecodeDeframer(dw).OK || !status.MultichipSynced(mc) {
		t.Fatalf("default status not good: %#x %#x %#x", fw, dw, mc)
	}
}

func TestASIC_Fail(t *testing.T) {
	a := NewASIC()
	boom := errors.New("boom")
	a.Fail["StartRadio"] = boom
	if err := a.StartRadio(); !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if a.Count("StartRadio") != 1 {
		t.Fatalf("count=%d", a.Count("StartRadio"))
	}
}

func TestCore_DRPNeedsTarget(t *testing.T) {
	c := NewCore()
	if err := c.WriteDRP(0x32, 1); err == nil {
		t.Fatalf("expected error without target")
	}
	_ = c.SelectDRP(jesd.DomainQPLL, 0)
	_ = c.WriteDRP(0x32, 0x181)
	if c.DRP(jesd.DomainQPLL, 0, 0x32) != 0x181 || c.DRPWrites() != 1 {
		t.Fatalf("drp=%#x writes=%d", c.DRP(jesd.DomainQPLL, 0, 0x32), c.DRPWrites())
	}
}
