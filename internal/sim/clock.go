// internal/sim/clock.go
package sim

import (
	"sync"

	"github.com/tamzrod/dboard-bringup/internal/clocking"
)

// Synth is a simulated clock synthesizer.
type Synth struct {
	mu     sync.Mutex
	Locked bool
	RefHz  float64
	MCRHz  float64
}

func (s *Synth) PLLsLocked() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Locked, nil
}

// SetLocked changes the lock indicator.
func (s *Synth) SetLocked(v bool) {
	s.mu.Lock()
	s.Locked = v
	s.mu.Unlock()
}

// Sync is a simulated phase synchronizer. The correcting pass leaves
// Residual behind; the measurement pass reports it.
type Sync struct {
	mu       sync.Mutex
	Residual float64
	Params   clocking.SyncParams
	Passes   []bool
}

func (s *Sync) RunSync(measurementOnly bool) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Passes = append(s.Passes, measurementOnly)
	return s.Residual, nil
}
