// internal/clocking/sync.go
package clocking

import (
	"errors"
	"math"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/poll"
)

// Synthesizer is the board clock synthesizer.
type Synthesizer interface {
	PLLsLocked() (bool, error)
}

// SynthesizerFactory programs a synthesizer for the given clocks.
type SynthesizerFactory func(refHz, mcrHz float64) (Synthesizer, error)

// PhaseSynchronizer aligns the reference clock against the PPS edge.
// RunSync returns the residual offset in seconds.
type PhaseSynchronizer interface {
	RunSync(measurementOnly bool) (float64, error)
}

// SyncParams are handed to a SynchronizerFactory.
type SyncParams struct {
	RefClockHz    float64
	MasterClockHz float64
	TargetNs      float64
}

type SynchronizerFactory func(p SyncParams) (PhaseSynchronizer, error)

// MaxResidual is the largest residual offset accepted after sync.
const MaxResidual = 100e-12

// DefaultSynthLock bounds the wait for the synthesizer PLLs.
var DefaultSynthLock = poll.Config{Interval: 10 * time.Millisecond, Timeout: 100 * time.Millisecond}

var syncTargets = map[float64]float64{
	122.88e6: 128,
	125e6:    128,
	153.6e6:  122,
}

// SyncTarget returns the phase sync target in ns for a master clock rate.
func SyncTarget(mcrHz float64) (float64, bool) {
	v, ok := syncTargets[mcrHz]
	return v, ok
}

// SetupSynthesizer builds the synthesizer and waits for its PLLs.
func SetupSynthesizer(f SynthesizerFactory, refHz, mcrHz float64, lock poll.Config) (Synthesizer, error) {
	const op = "clocking.SetupSynthesizer"
	s, err := f(refHz, mcrHz)
	if err != nil {
		return nil, fault.Wrap(fault.Hardware, op, err)
	}
	if lock.Interval <= 0 {
		lock = DefaultSynthLock
	}
	err = poll.Until(lock, s.PLLsLocked)
	switch {
	case errors.Is(err, poll.ErrTimeout):
		return nil, fault.New(fault.LockTimeout, op, "synthesizer PLLs not locked (ref %.2f MHz, mcr %.2f MHz)",
			refHz/1e6, mcrHz/1e6)
	case err != nil:
		return nil, fault.Wrap(fault.Hardware, op, err)
	}
	log.Printf("info", "synthesizer locked: ref %.2f MHz, mcr %.2f MHz", refHz/1e6, mcrHz/1e6)
	return s, nil
}

// SyncClock runs a correcting pass and then a measurement pass, and fails
// if the measured residual exceeds MaxResidual.
func SyncClock(f SynchronizerFactory, refHz, mcrHz float64) (float64, error) {
	const op = "clocking.SyncClock"
	target, ok := SyncTarget(mcrHz)
	if !ok {
		return 0, fault.New(fault.Validation, op, "no phase sync target for %.2f MHz", mcrHz/1e6)
	}
	s, err := f(SyncParams{RefClockHz: refHz, MasterClockHz: mcrHz, TargetNs: target})
	if err != nil {
		return 0, fault.Wrap(fault.Hardware, op, err)
	}
	if _, err := s.RunSync(false); err != nil {
		return 0, fault.Wrap(fault.Hardware, op, err)
	}
	offset, err := s.RunSync(true)
	if err != nil {
		return 0, fault.Wrap(fault.Hardware, op, err)
	}
	if math.Abs(offset) > MaxResidual {
		log.Printf("err", "residual clock offset %.1f ps exceeds %.0f ps", offset*1e12, MaxResidual*1e12)
		return offset, fault.New(fault.ResidualOffset, op, "residual %.1f ps > %.0f ps",
			offset*1e12, MaxResidual*1e12)
	}
	log.Printf("info", "phase sync residual %.1f ps", offset*1e12)
	return offset, nil
}
