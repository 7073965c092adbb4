// internal/monitor/sampler.go
package monitor

import (
	"errors"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
)

// Sampler is a dumb, clock-driven sensor reader for one board.
type Sampler struct {
	interval time.Duration
	board    Board
}

// New creates a sampler with an immutable interval.
func New(board Board, interval time.Duration) (*Sampler, error) {
	if board == nil {
		return nil, errors.New("monitor: board required")
	}
	if interval <= 0 {
		return nil, errors.New("monitor: interval must be > 0")
	}
	return &Sampler{interval: interval, board: board}, nil
}

// SampleOnce performs exactly one sampling cycle.
// All-or-nothing: any sensor failure drops every reading of the cycle.
func (s *Sampler) SampleOnce() Sample {
	res := Sample{
		Slot:     s.board.Slot(),
		At:       time.Now(),
		Snapshot: s.board.Snapshot(),
	}

	sensors := map[string][]dboard.Sensor{}

	bs, err := s.board.BoardSensors()
	if err != nil {
		res.Err = err
		return res
	}
	sensors[""] = bs

	for _, dir := range []asic.Direction{asic.RX, asic.TX} {
		ds, err := s.board.Sensors(dir)
		if err != nil {
			res.Err = err
			return res
		}
		sensors[string(dir)] = ds
	}

	// Commit only if all reads succeeded
	res.Sensors = sensors
	return res
}
