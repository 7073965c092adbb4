// internal/jesd/trainer.go
package jesd

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/rate"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// MinSysrefSpacing is the shortest gap the ASIC accepts between the two
// SYSREF pulses of its initialization.
const MinSysrefSpacing = 17 * time.Microsecond

// Timing holds the settle margins of a training run.
type Timing struct {
	ResetHold     time.Duration
	SysrefSpacing time.Duration
	SysrefSettle  time.Duration
	LinkSettle    time.Duration
}

// DefaultTiming returns the margins used when none are configured.
func DefaultTiming() Timing {
	return Timing{
		ResetHold:     time.Millisecond,
		SysrefSpacing: time.Millisecond,
		SysrefSettle:  time.Millisecond,
		LinkSettle:    100 * time.Millisecond,
	}
}

func (t Timing) Validate() error {
	if t.SysrefSpacing < MinSysrefSpacing {
		return fault.New(fault.Validation, "jesd.Timing",
			"sysref spacing %v below minimum %v", t.SysrefSpacing, MinSysrefSpacing)
	}
	if t.ResetHold < 0 || t.SysrefSettle < 0 || t.LinkSettle < 0 {
		return fault.New(fault.Validation, "jesd.Timing", "negative margin")
	}
	return nil
}

// ResetPulser drives the ASIC hard reset line: assert, hold, release, hold.
type ResetPulser interface {
	ResetASIC(hold time.Duration) error
}

// Plan is what one training run configures.
type Plan struct {
	Rate rate.LaneRate
	RxLO asic.LOSource
	TxLO asic.LOSource

	InitCals     uint32
	TrackingCals uint32
	CalTimeoutMs uint32
}

// Check names reported by verification.
const (
	CheckFPGAFramer   = "fpga framer"
	CheckASICDeframer = "asic deframer"
	CheckFPGADeframer = "fpga deframer"
	CheckASICFramer   = "asic framer"
	CheckMultichip    = "multichip sync"
)

// LinkReport is the outcome of the five verification checks.
type LinkReport struct {
	FPGAFramer   bool
	ASICDeframer status.DeframerStatus
	FPGADeframer bool
	ASICFramer   status.FramerStatus
	Multichip    uint8

	Failed []string
	Detail []string
}

func (r LinkReport) OK() bool { return len(r.Failed) == 0 }

// Trainer runs the fixed JESD204B bring-up sequence between the FPGA core
// and the ASIC. It never retries.
type Trainer struct {
	core   Core
	asic   asic.Commander
	reset  ResetPulser
	reconf *Reconfigurator
	timing Timing

	state atomic.Int32

	mu      sync.Mutex
	history []State
}

func NewTrainer(core Core, a asic.Commander, reset ResetPulser, reconf *Reconfigurator, timing Timing) *Trainer {
	return &Trainer{core: core, asic: a, reset: reset, reconf: reconf, timing: timing}
}

// State returns the last state the trainer reached.
func (t *Trainer) State() State { return State(t.state.Load()) }

// History returns the states of the last run in the order they were
// entered.
func (t *Trainer) History() []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]State(nil), t.history...)
}

func (t *Trainer) enter(s State) {
	t.mu.Lock()
	if s == StateReset {
		t.history = t.history[:0]
	}
	t.history = append(t.history, s)
	t.mu.Unlock()
	t.state.Store(int32(s))
	log.Print("debug", "jesd: ", s)
}

// Train runs one full training attempt.
func (t *Trainer) Train(p Plan) error {
	const op = "jesd.Train"
	t.enter(StateReset)

	if err := t.timing.Validate(); err != nil {
		return err
	}
	if err := t.core.CheckCore(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("core check: %w", err))
	}

	if err := t.reset.ResetASIC(t.timing.ResetHold); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("asic reset: %w", err))
	}
	t.enter(StateResetPulsed)

	if err := t.reconf.SetRate(p.Rate, false); err != nil {
		return err
	}
	t.enter(StateRateConfigured)

	if err := t.setupLOs(p); err != nil {
		return fault.Wrap(fault.Hardware, op, err)
	}

	if err := t.initASIC(p); err != nil {
		return fault.Wrap(fault.Hardware, op, err)
	}

	// ASIC -> FPGA first.
	if err := t.core.InitFramer(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("fpga framer: %w", err))
	}
	t.enter(StateFramerStarted)
	if err := t.asic.StartJESDRx(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("asic deframer: %w", err))
	}
	t.enter(StateDeframerStarted)

	if err := t.asic.StartJESDTx(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("asic framer: %w", err))
	}
	if err := t.core.EnableLMFC(true); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("lmfc: %w", err))
	}
	if err := t.core.SendSysref(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("sysref: %w", err))
	}
	t.enter(StateSysrefSent)
	time.Sleep(t.timing.SysrefSettle)
	if err := t.core.InitDeframer(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("fpga deframer: %w", err))
	}

	time.Sleep(t.timing.LinkSettle)

	rep := t.Verify()
	if !rep.OK() {
		t.enter(StateFailed)
		return &fault.Fault{
			Kind:   fault.LinkVerification,
			Op:     op,
			Checks: rep.Failed,
			Detail: rep.Detail,
			Err:    fmt.Errorf("%d of 5 checks failed", len(rep.Failed)),
		}
	}
	t.enter(StateVerified)
	return nil
}

func (t *Trainer) setupLOs(p Plan) error {
	for _, lo := range []struct {
		dir asic.Direction
		src asic.LOSource
	}{{asic.RX, p.RxLO}, {asic.TX, p.TxLO}} {
		if lo.src == "" {
			lo.src = asic.LOInternal
		}
		if err := t.asic.SetLOSource(lo.dir, lo.src); err != nil {
			return fmt.Errorf("%s LO source: %w", lo.dir, err)
		}
		got, err := t.asic.LOSource(lo.dir)
		if err != nil {
			return fmt.Errorf("%s LO source readback: %w", lo.dir, err)
		}
		log.Printf("info", "%s LO source: %s", lo.dir, got)
	}
	return nil
}

func (t *Trainer) initASIC(p Plan) error {
	if err := t.asic.BeginInitialization(); err != nil {
		return fmt.Errorf("begin initialization: %w", err)
	}
	if err := t.core.SendSysref(); err != nil {
		return fmt.Errorf("sysref: %w", err)
	}
	time.Sleep(t.timing.SysrefSpacing)
	if err := t.core.SendSysref(); err != nil {
		return fmt.Errorf("sysref: %w", err)
	}
	t.enter(StateSysrefSent)
	if err := t.asic.FinishInitialization(); err != nil {
		return fmt.Errorf("finish initialization: %w", err)
	}
	log.Printf("info", "calibrations init=%#x tracking=%#x timeout=%dms",
		p.InitCals, p.TrackingCals, p.CalTimeoutMs)
	if err := t.asic.SetupCal(p.InitCals, p.TrackingCals, p.CalTimeoutMs); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	return nil
}

// Verify runs all five link checks and never stops at the first failure.
// A status read that fails counts as a failed check.
func (t *Trainer) Verify() LinkReport {
	var rep LinkReport
	fail := func(name string, fields ...string) {
		rep.Failed = append(rep.Failed, name)
		if len(fields) > 0 {
			rep.Detail = append(rep.Detail, name+": "+strings.Join(fields, " "))
		}
	}

	ok, err := t.core.FramerStatus()
	rep.FPGAFramer = ok && err == nil
	switch {
	case err != nil:
		fail(CheckFPGAFramer, "read="+err.Error())
	case !ok:
		fail(CheckFPGAFramer)
	}

	if w, err := t.asic.DeframerStatus(); err != nil {
		fail(CheckASICDeframer, "read="+err.Error())
	} else {
		rep.ASICDeframer = status.DecodeDeframer(w)
		t.logFields(CheckASICDeframer, rep.ASICDeframer.OK, rep.ASICDeframer.Fields())
		if !rep.ASICDeframer.OK {
			fail(CheckASICDeframer, rep.ASICDeframer.Fields()...)
		}
	}

	ok, err = t.core.DeframerStatus()
	rep.FPGADeframer = ok && err == nil
	switch {
	case err != nil:
		fail(CheckFPGADeframer, "read="+err.Error())
	case !ok:
		fail(CheckFPGADeframer)
	}

	if w, err := t.asic.FramerStatus(); err != nil {
		fail(CheckASICFramer, "read="+err.Error())
	} else {
		rep.ASICFramer = status.DecodeFramer(w)
		t.logFields(CheckASICFramer, rep.ASICFramer.OK, rep.ASICFramer.Fields())
		if !rep.ASICFramer.OK {
			fail(CheckASICFramer, rep.ASICFramer.Fields()...)
		}
	}

	if m, err := t.asic.MultichipSyncStatus(); err != nil {
		fail(CheckMultichip, "read="+err.Error())
	} else {
		rep.Multichip = m
		if !status.MultichipSynced(m) {
			fail(CheckMultichip, fmt.Sprintf("mask=%#x want=%#x", m, status.MultichipSyncMask))
		}
	}

	if rep.OK() {
		log.Print("info", "JESD204B link verified")
	} else {
		log.Print("warn", "JESD204B link verification failed: ", strings.Join(rep.Failed, ", "))
	}
	return rep
}

func (t *Trainer) logFields(name string, ok bool, fields []string) {
	prio := "debug"
	if !ok {
		prio = "warn"
	}
	for _, f := range fields {
		log.Print(prio, name, " ", f)
	}
}
