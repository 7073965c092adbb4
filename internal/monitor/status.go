// internal/monitor/status.go
package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// tracker owns a board's status snapshot between samples. It carries
// SecondsInError, which only the 1 Hz tick advances.
type tracker struct {
	snap status.Snapshot
}

func newTracker() *tracker {
	// Default snapshot state on start.
	return &tracker{snap: status.Snapshot{Health: status.HealthUnknown}}
}

// apply folds a sample into the snapshot and reports whether it changed.
func (t *tracker) apply(res Sample) bool {
	next := res.Snapshot
	next.SecondsInError = t.snap.SecondsInError

	if res.Err != nil {
		next.Health = status.HealthError
		next.LastErrorCode = dboard.ErrorCode(res.Err)
	}

	// Reset seconds-in-error on recovery.
	if next.Health == status.HealthOK {
		next.SecondsInError = 0
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// tick advances SecondsInError while not OK. It never wraps.
func (t *tracker) tick() bool {
	if t.snap.Health == status.HealthOK || t.snap.SecondsInError == 65535 {
		return false
	}
	t.snap.SecondsInError++
	return true
}

// Supervise consumes samples of one board until ctx is done. Status is
// written in full on start, then only on change and on the 1 Hz tick while
// the board is not OK. sw and pub may be nil.
func Supervise(ctx context.Context, slot int, in <-chan Sample, sw StatusWriter, pub SensorPublisher) {
	t := newTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	write := func(why string) {
		if sw == nil {
			return
		}
		if err := sw.WriteStatus(t.snap); err != nil {
			log.Printf("err", "status write failed%s (slot=%d): %v", why, slot, err)
		}
	}

	// Full block write on start (identity re-assert).
	write(" on start")

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-in:
			if res.Err != nil {
				log.Printf("warn", "sensor read failed (slot=%d): %v", slot, res.Err)
			}
			if t.apply(res) {
				write("")
			}
			publish(slot, pub, res)

		case <-secTicker.C:
			if t.tick() {
				write(" on seconds tick")
			}
		}
	}
}

func publish(slot int, pub SensorPublisher, res Sample) {
	if pub == nil || res.Err != nil {
		return
	}
	dirs := make([]string, 0, len(res.Sensors))
	for dir := range res.Sensors {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		if err := pub.PublishSensors(dir, res.Sensors[dir]); err != nil {
			log.Printf("err", "sensor publish failed (slot=%d): %v", slot, err)
		}
	}
}

// Start runs the sampler and its supervisor for one board. Both
// goroutines exit when ctx is done.
func Start(ctx context.Context, s *Sampler, sw StatusWriter, pub SensorPublisher) {
	out := make(chan Sample)
	go Supervise(ctx, s.board.Slot(), out, sw, pub)
	go s.Run(ctx, out)
}
