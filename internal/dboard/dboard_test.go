// internal/dboard/dboard_test.go
package dboard

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/clocking"
	"github.com/tamzrod/dboard-bringup/internal/cpld"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/poll"
	"github.com/tamzrod/dboard-bringup/internal/rate"
	"github.com/tamzrod/dboard-bringup/internal/sim"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

var (
	fastPoll   = poll.Config{Interval: time.Millisecond, Timeout: 5 * time.Millisecond}
	fastTiming = jesd.Timing{
		ResetHold:     10 * time.Microsecond,
		SysrefSpacing: 20 * time.Microsecond,
		SysrefSettle:  10 * time.Microsecond,
		LinkSettle:    10 * time.Microsecond,
	}
	cc125 = ClockConfig{RefClockHz: 10e6, MasterClockHz: 125e6}
)

func attach(b *sim.Board) *Dboard {
	return attachHW(SimHardware(b))
}

func attachHW(hw Hardware) *Dboard {
	return New(0, hw, WithTiming(fastTiming), WithLockPolls(fastPoll, fastPoll, fastPoll))
}

func TestInitialize_Success(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)
	if !d.Ready() {
		t.Fatalf("board not ready: %v", d.LastError())
	}

	if err := d.Initialize(cc125, InitOptions{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !d.LinkTrained() {
		t.Fatalf("link not trained")
	}
	if n := b.ASIC.Count("StartRadio"); n != 1 {
		t.Fatalf("StartRadio called %d times", n)
	}
	if d.LaneRate() != rate.Rate2500M {
		t.Fatalf("lane rate=%v", d.LaneRate())
	}
	if got, ok := d.ClockConfig(); !ok || got != cc125 {
		t.Fatalf("clock config=%v,%v", got, ok)
	}
	if b.PhaseDAC.Get(0) != uint32(clocking.PhaseDACInitWord) {
		t.Fatalf("phase dac=%d", b.PhaseDAC.Get(0))
	}
	if b.ASIC.MasterClockRate() != 125e6 {
		t.Fatalf("mcr=%v", b.ASIC.MasterClockRate())
	}
	if s := b.LastSync(); s.Params.TargetNs != 128 || len(s.Passes) != 2 {
		t.Fatalf("sync=%+v", s)
	}
	if i, tr, to := b.ASIC.Cal(); i != asic.DefaultInitCalsMask || tr != asic.DefaultTrackingCalsMask || to != asic.DefaultInitCalsTimeout {
		t.Fatalf("cal=%#x %#x %d", i, tr, to)
	}
	if d.TrainerState() != jesd.StateVerified {
		t.Fatalf("trainer state=%v", d.TrainerState())
	}
	if d.LastError() != nil {
		t.Fatalf("last error=%v", d.LastError())
	}
}

func TestInitialize_MultichipFailure(t *testing.T) {
	b := sim.NewBoard()
	b.ASIC.SetStatus(sim.GoodFramerWord, sim.GoodDeframerWord, 0x3)
	d := attach(b)

	err := d.Initialize(cc125, InitOptions{})
	if !errors.Is(err, fault.LinkVerification) {
		t.Fatalf("err=%v want LinkVerification", err)
	}
	var f *fault.Fault
	if !errors.As(err, &f) || len(f.Checks) != 1 || f.Checks[0] != jesd.CheckMultichip {
		t.Fatalf("checks=%v", f)
	}
	if b.ASIC.Count("StartRadio") != 0 {
		t.Fatalf("StartRadio called after failed training")
	}
	if d.LinkTrained() {
		t.Fatalf("link trained after failure")
	}
	if d.Snapshot().LastErrorCode != uint16(fault.LinkVerification) {
		t.Fatalf("snapshot=%+v", d.Snapshot())
	}
}

func TestInitialize_ValidationTouchesNoHardware(t *testing.T) {
	for _, cc := range []ClockConfig{
		{RefClockHz: 12e6, MasterClockHz: 125e6},
		{RefClockHz: 10e6, MasterClockHz: 100e6},
	} {
		b := sim.NewBoard()
		d := attach(b)
		if err := d.Initialize(cc, InitOptions{}); !errors.Is(err, fault.Validation) {
			t.Fatalf("%v: err=%v want Validation", cc, err)
		}
		if len(b.Ctrl.Writes()) != 0 || len(b.Core.Calls()) != 0 || len(b.ASIC.Calls()) != 0 {
			t.Fatalf("%v: hardware touched", cc)
		}
	}
}

func TestInitialize_NotReady(t *testing.T) {
	b := sim.NewBoard()
	b.CPLD.Set(cpld.RegSignature, 0xDEAD)
	d := attach(b)
	if d.Ready() {
		t.Fatalf("board ready with bad CPLD")
	}
	if err := d.Initialize(cc125, InitOptions{}); !errors.Is(err, fault.NotReady) {
		t.Fatalf("err=%v want NotReady", err)
	}
	if len(b.Core.Calls()) != 0 {
		t.Fatalf("core touched: %v", b.Core.Calls())
	}
	if d.Snapshot().Health != status.HealthDisabled {
		t.Fatalf("health=%d", d.Snapshot().Health)
	}
}

func TestInitialize_MMCMLockTimeout(t *testing.T) {
	b := sim.NewBoard()
	b.SetMMCMLocks(false)
	d := attach(b)
	if err := d.Initialize(cc125, InitOptions{}); !errors.Is(err, fault.LockTimeout) {
		t.Fatalf("err=%v want LockTimeout", err)
	}
	if d.LinkTrained() || b.ASIC.Count("SetMasterClockRate") != 0 {
		t.Fatalf("sequence continued after lock timeout")
	}
}

func TestInitialize_ResidualOffset(t *testing.T) {
	b := sim.NewBoard()
	b.Residual = 250e-12
	d := attach(b)
	if err := d.Initialize(cc125, InitOptions{}); !errors.Is(err, fault.ResidualOffset) {
		t.Fatalf("err=%v want ResidualOffset", err)
	}
	if b.ASIC.Count("StartRadio") != 0 {
		t.Fatalf("radio started")
	}
}

func TestUpdateRate_ConcurrentRejected(t *testing.T) {
	b := sim.NewBoard()
	hw := SimHardware(b)
	entered := make(chan struct{})
	release := make(chan struct{})
	hw.Synthesizer = func(ref, mcr float64) (clocking.Synthesizer, error) {
		close(entered)
		<-release
		return b.SynthesizerFactory(ref, mcr)
	}
	d := attachHW(hw)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = d.Initialize(cc125, InitOptions{})
	}()

	<-entered
	err := d.UpdateRate(ClockConfig{RefClockHz: 10e6, MasterClockHz: 153.6e6})
	if !errors.Is(err, fault.Busy) {
		t.Fatalf("err=%v want Busy", err)
	}
	if n := b.Core.Count("Reset"); n != 1 {
		t.Fatalf("second bring-up interleaved: core resets=%d", n)
	}

	close(release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first bring-up: %v", firstErr)
	}
	if d.LaneRate() != rate.Rate2500M || b.ASIC.Count("StartRadio") != 1 {
		t.Fatalf("rate=%v radio=%d", d.LaneRate(), b.ASIC.Count("StartRadio"))
	}
}

func TestUpdateRate_Reconfigures(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)
	opts := InitOptions{RxLOSource: asic.LOExternal}
	if err := d.Initialize(cc125, opts); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first := b.Core.DRPWrites()

	// 122.88 MHz runs at 2457.6 Mbps, compatible with 2500
	if err := d.UpdateRate(ClockConfig{RefClockHz: 10e6, MasterClockHz: 122.88e6}); err != nil {
		t.Fatalf("UpdateRate: %v", err)
	}
	if b.Core.DRPWrites() != first {
		t.Fatalf("compatible rate rewrote DRP")
	}
	if d.LaneRate() != rate.Rate2457M6 {
		t.Fatalf("lane rate=%v", d.LaneRate())
	}
	if lo, _ := b.ASIC.LOSource(asic.RX); lo != asic.LOExternal {
		t.Fatalf("update lost init options: rx lo=%v", lo)
	}

	if err := d.UpdateRate(ClockConfig{RefClockHz: 25e6, MasterClockHz: 153.6e6}); err != nil {
		t.Fatalf("UpdateRate: %v", err)
	}
	if b.Core.DRPWrites() == first {
		t.Fatalf("incompatible rate did not rewrite DRP")
	}
	if d.LaneRate() != rate.Rate3072M || b.LastSync().Params.TargetNs != 122 {
		t.Fatalf("rate=%v target=%v", d.LaneRate(), b.LastSync().Params.TargetNs)
	}
	if b.ASIC.Count("StartRadio") != 3 {
		t.Fatalf("StartRadio=%d want 3", b.ASIC.Count("StartRadio"))
	}
}

func TestSensors_PerDirection(t *testing.T) {
	b := sim.NewBoard()
	b.CPLD.Set(cpld.RegLOStatus, 0x10) // TX lowband only
	b.ASIC.LOLock[asic.RX] = false
	d := attach(b)

	rx, err := d.Sensors(asic.RX)
	if err != nil {
		t.Fatalf("Sensors: %v", err)
	}
	tx, _ := d.Sensors(asic.TX)
	if rx[0].Value != "false" || tx[0].Value != "true" {
		t.Fatalf("lowband rx=%+v tx=%+v", rx[0], tx[0])
	}
	if rx[1].Name != SensorASICLO || rx[1].Value != "false" || rx[1].Unit != "unlocked" || tx[1].Value != "true" {
		t.Fatalf("asic rx=%+v tx=%+v", rx[1], tx[1])
	}
	if _, err := d.Sensor(asic.RX, "temperature"); !errors.Is(err, fault.Validation) {
		t.Fatalf("err=%v want Validation", err)
	}

	bs, err := d.BoardSensors()
	if err != nil {
		t.Fatalf("BoardSensors: %v", err)
	}
	if len(bs) != 4 || bs[0].Name != SensorRefLocked || bs[0].Value != "false" {
		t.Fatalf("board sensors before init=%+v", bs)
	}
	if bs[2].Name != SensorMMCM || bs[2].Value != "false" || bs[3].Unit != "running" {
		t.Fatalf("clock sensors before init=%+v", bs[2:])
	}

	d = attach(sim.NewBoard())
	if err := d.Initialize(cc125, InitOptions{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	bs, _ = d.BoardSensors()
	if bs[0].Value != "true" || bs[1].Unit != "trained" || bs[2].Unit != "locked" {
		t.Fatalf("board sensors after init=%+v", bs)
	}
}

func TestPowerGood(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)
	pg, err := d.PowerGood()
	if err != nil {
		t.Fatalf("PowerGood: %v", err)
	}
	if len(pg) != 3 {
		t.Fatalf("power good=%+v", pg)
	}
	for _, s := range pg {
		if s.Value != "true" {
			t.Fatalf("rail %s not good after attach", s.Name)
		}
	}
	_ = d.PowerOff()
	pg, _ = d.PowerGood()
	if pg[0].Value != "false" || pg[0].Unit != "bad" {
		t.Fatalf("rail still good after power off: %+v", pg[0])
	}
}

func TestCPLDControl(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)

	info, err := d.CPLDInfo()
	if err != nil || info.Signature != cpld.Signature || info.BuildCode != 0x18010B17 {
		t.Fatalf("info=%+v err=%v", info, err)
	}
	if v, err := d.CPLDScratch(0xBEEF); err != nil || v != 0xBEEF {
		t.Fatalf("scratch=%#x err=%v", v, err)
	}
	if err := d.SetPDACControl(true); err != nil || b.CPLD.Get(cpld.RegLMKCtrl) != 1<<4 {
		t.Fatalf("pdac=%#x err=%v", b.CPLD.Get(cpld.RegLMKCtrl), err)
	}

	_ = d.Initialize(cc125, InitOptions{})
	if err := d.ResetCPLD(); err != nil {
		t.Fatalf("ResetCPLD: %v", err)
	}
	if d.LinkTrained() {
		t.Fatalf("link still trained after CPLD reset")
	}
	w := b.CPLD.Writes()
	if last := w[len(w)-1]; last.Addr != cpld.RegCPLDCtrl || last.Value != 0 {
		t.Fatalf("last write=%+v", last)
	}
}

func TestUserData(t *testing.T) {
	b := sim.NewBoard()
	b.EEPROM.Gate = make(chan struct{})
	d := attach(b)

	if err := d.SetUserData(map[string][]byte{"serial": []byte("31A")}); err != nil {
		t.Fatalf("SetUserData: %v", err)
	}
	if err := d.SetUserData(map[string][]byte{"x": {1}}); !errors.Is(err, fault.Busy) {
		t.Fatalf("err=%v want Busy", err)
	}
	data, _ := d.UserData()
	if string(data["serial"]) != "31A" {
		t.Fatalf("user data=%v", data)
	}
	close(b.EEPROM.Gate)
	if err := d.WaitUserData(); err != nil {
		t.Fatalf("write-back: %v", err)
	}
}

func TestDebugAccess(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)

	if v, err := d.CPLDPoke(cpld.RegScratch, 0x1234); err != nil || v != 0x1234 {
		t.Fatalf("CPLDPoke=%#x,%v", v, err)
	}
	if err := d.CorePoke(0x2004, 0xABCD); err != nil {
		t.Fatalf("CorePoke: %v", err)
	}
	if v, _ := d.CorePeek(0x2004); v != 0xABCD {
		t.Fatalf("CorePeek=%#x", v)
	}

	var buf bytes.Buffer
	if err := d.DumpCore(&buf); err != nil {
		t.Fatalf("DumpCore: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 17 {
		t.Fatalf("dump rows=%d want 17", len(lines))
	}
	if !strings.HasPrefix(lines[0], "0x2000") || !strings.Contains(lines[0], "4A455344") || !strings.Contains(lines[0], "0000ABCD") {
		t.Fatalf("first row=%q", lines[0])
	}
}

func TestPowerOff(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)
	if !b.Rails.Pins["PWR-EN-3.6V"] || !b.Rails.Pins["LED"] {
		t.Fatalf("rails not powered on attach")
	}
	_ = d.Initialize(cc125, InitOptions{})

	if err := d.PowerOff(); err != nil {
		t.Fatalf("PowerOff: %v", err)
	}
	if b.Rails.Pins["PWR-EN-5.5V"] || d.Ready() || d.LinkTrained() {
		t.Fatalf("board still powered")
	}
	if err := d.Initialize(cc125, InitOptions{}); !errors.Is(err, fault.NotReady) {
		t.Fatalf("err=%v want NotReady", err)
	}
}

func TestSnapshot(t *testing.T) {
	b := sim.NewBoard()
	d := attach(b)
	if s := d.Snapshot(); s.Health != status.HealthUnknown || !s.Has(status.FlagPeripheralsReady) {
		t.Fatalf("before init=%+v", s)
	}
	_ = d.Initialize(cc125, InitOptions{})
	s := d.Snapshot()
	if s.Health != status.HealthOK || s.LaneRateMbps != 2500 {
		t.Fatalf("after init=%+v", s)
	}
	for _, f := range []uint16{status.FlagLinkTrained, status.FlagRefLocked, status.FlagRxLowbandLO, status.FlagTxASICLO} {
		if !s.Has(f) {
			t.Fatalf("flag %#x missing in %#x", f, s.Flags)
		}
	}
}
