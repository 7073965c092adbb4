// internal/dboard/init.go
package dboard

import (
	"fmt"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/clocking"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/rate"
)

// ClockConfig selects the reference and sample clocks.
type ClockConfig struct {
	RefClockHz    float64
	MasterClockHz float64
}

var (
	validRefClocks    = []float64{10e6, 20e6, 25e6}
	validMasterClocks = []float64{122.88e6, 125e6, 153.6e6}
)

// Default clocks used when a configuration leaves them out.
const (
	DefaultRefClockHz    = 10e6
	DefaultMasterClockHz = 125e6
)

func contains(list []float64, v float64) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Validate checks both clocks against the supported sets.
func (cc ClockConfig) Validate() error {
	const op = "dboard.ClockConfig"
	if !contains(validRefClocks, cc.RefClockHz) {
		return fault.New(fault.Validation, op, "invalid reference clock %.2f MHz (want 10, 20 or 25)", cc.RefClockHz/1e6)
	}
	if !contains(validMasterClocks, cc.MasterClockHz) {
		return fault.New(fault.Validation, op, "invalid master clock rate %.2f MHz (want 122.88, 125 or 153.6)", cc.MasterClockHz/1e6)
	}
	return nil
}

func (cc ClockConfig) String() string {
	return fmt.Sprintf("ref=%.2fMHz mcr=%.2fMHz", cc.RefClockHz/1e6, cc.MasterClockHz/1e6)
}

// InitOptions are the per-bring-up ASIC settings.
type InitOptions struct {
	RxLOSource asic.LOSource
	TxLOSource asic.LOSource

	InitCals        uint32
	TrackingCals    uint32
	InitCalsTimeout uint32 // ms
}

// DefaultInitOptions returns internal LOs and the default calibrations.
func DefaultInitOptions() InitOptions {
	return InitOptions{
		RxLOSource:      asic.LOInternal,
		TxLOSource:      asic.LOInternal,
		InitCals:        asic.DefaultInitCalsMask,
		TrackingCals:    asic.DefaultTrackingCalsMask,
		InitCalsTimeout: asic.DefaultInitCalsTimeout,
	}
}

func (o InitOptions) withDefaults() InitOptions {
	def := DefaultInitOptions()
	if o.RxLOSource == "" {
		o.RxLOSource = def.RxLOSource
	}
	if o.TxLOSource == "" {
		o.TxLOSource = def.TxLOSource
	}
	if o.InitCals == 0 {
		o.InitCals = def.InitCals
	}
	if o.TrackingCals == 0 {
		o.TrackingCals = def.TrackingCals
	}
	if o.InitCalsTimeout == 0 {
		o.InitCalsTimeout = def.InitCalsTimeout
	}
	return o
}

// Initialize brings the board up: clocks, phase sync, link training and
// radio start. Concurrent bring-ups of one board are rejected.
func (d *Dboard) Initialize(cc ClockConfig, opts InitOptions) error {
	const op = "dboard.Initialize"
	if !d.busy.CompareAndSwap(false, true) {
		return fault.New(fault.Busy, op, "bring-up already in progress on slot %d", d.slot)
	}
	defer d.busy.Store(false)

	log.Printf("info", "slot %d: init %s rx_lo=%s tx_lo=%s", d.slot, cc, opts.RxLOSource, opts.TxLOSource)
	if err := cc.Validate(); err != nil {
		log.Print("err", err)
		return err
	}
	if err := d.opts.timing.Validate(); err != nil {
		log.Print("err", err)
		return err
	}
	if !d.Ready() {
		return d.notReady(op)
	}

	opts = opts.withDefaults()
	d.mu.Lock()
	d.initOpts = opts
	d.mu.Unlock()

	err := d.bringUp(cc, opts)
	if err != nil {
		log.Printf("err", "slot %d: bring-up failed: %v", d.slot, err)
		d.setErr(err)
		return err
	}

	d.mu.Lock()
	d.cc = &cc
	d.lastErr = nil
	d.mu.Unlock()
	return nil
}

// UpdateRate repeats the full bring-up with new clocks and the options
// of the last Initialize.
func (d *Dboard) UpdateRate(cc ClockConfig) error {
	d.mu.RLock()
	opts := d.initOpts
	d.mu.RUnlock()
	return d.Initialize(cc, opts)
}

func (d *Dboard) bringUp(cc ClockConfig, opts InitOptions) error {
	const op = "dboard.bringUp"
	d.trained.Store(false)

	lane, err := rate.ForMasterClock(cc.MasterClockHz)
	if err != nil {
		return fault.Wrap(fault.Validation, op, err)
	}

	log.Printf("debug", "slot %d: resetting clocking and JESD204B core", d.slot)
	if err := d.clk.ResetMMCM(); err != nil {
		return err
	}
	if err := d.hw.Core.Reset(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("core reset: %w", err))
	}

	if err := clocking.InitPhaseDAC(d.hw.PhaseDAC); err != nil {
		return err
	}
	synth, err := clocking.SetupSynthesizer(d.hw.Synthesizer, cc.RefClockHz, cc.MasterClockHz, d.opts.synthLock)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.synth = synth
	d.mu.Unlock()

	if err := d.clk.EnableMMCM(); err != nil {
		return err
	}
	log.Printf("info", "slot %d: sample clocks and phase DAC configured", d.slot)

	if _, err := clocking.SyncClock(d.hw.Synchronizer, cc.RefClockHz, cc.MasterClockHz); err != nil {
		return err
	}
	log.Printf("info", "slot %d: sample clock synchronization complete", d.slot)

	if err := d.hw.ASIC.SetMasterClockRate(cc.MasterClockHz); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("master clock rate: %w", err))
	}

	log.Printf("debug", "slot %d: lane rate %v", d.slot, lane)
	err = d.trainer.Train(jesd.Plan{
		Rate:         lane,
		RxLO:         opts.RxLOSource,
		TxLO:         opts.TxLOSource,
		InitCals:     opts.InitCals,
		TrackingCals: opts.TrackingCals,
		CalTimeoutMs: opts.InitCalsTimeout,
	})
	if err != nil {
		return err
	}
	log.Printf("info", "slot %d: JESD204B link initialization and training complete", d.slot)

	if err := d.hw.ASIC.StartRadio(); err != nil {
		return fault.Wrap(fault.Hardware, op, fmt.Errorf("start radio: %w", err))
	}
	d.trained.Store(true)
	return nil
}
