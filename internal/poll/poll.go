// internal/poll/poll.go
package poll

import (
	"errors"
	"time"
)

// ErrTimeout is returned when the condition never became true.
var ErrTimeout = errors.New("poll: timed out")

// Cond is one probe of a hardware indicator.
type Cond func() (bool, error)

// Config bounds a poll. Attempts = Timeout / Interval, at least one.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Attempts returns the number of probes the config allows.
func (c Config) Attempts() int {
	if c.Interval <= 0 || c.Timeout <= c.Interval {
		return 1
	}
	return int(c.Timeout / c.Interval)
}

// Until probes cond every Interval until it reports true, the attempt budget
// is spent, or a probe fails. No retries beyond the budget.
// A probe error aborts immediately and is returned as-is.
func Until(cfg Config, cond Cond) error {
	n := cfg.Attempts()
	for i := 0; i < n; i++ {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i < n-1 {
			time.Sleep(cfg.Interval)
		}
	}
	return ErrTimeout
}
