// internal/config/dboard.go
package config

import (
	"strconv"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/poll"
)

// ClockConfig returns the bring-up clocks.
func (d DboardConfig) ClockConfig() dboard.ClockConfig {
	return dboard.ClockConfig{RefClockHz: d.Clock.RefClockHz, MasterClockHz: d.Clock.MasterClockHz}
}

// InitOptions returns the LO sources and calibration settings. If any
// calibration value does not parse, all three fall back to the defaults
// with a warning.
func (d DboardConfig) InitOptions() dboard.InitOptions {
	o := dboard.DefaultInitOptions()
	if src, err := asic.ParseLOSource(d.LO.RxSource); err == nil {
		o.RxLOSource = src
	}
	if src, err := asic.ParseLOSource(d.LO.TxSource); err == nil {
		o.TxLOSource = src
	}

	var vals [3]uint32
	for i, f := range []struct {
		key, s string
		def    uint32
	}{
		{"init_cals", d.Cal.InitCals, o.InitCals},
		{"tracking_cals", d.Cal.TrackingCals, o.TrackingCals},
		{"init_cals_timeout", d.Cal.InitCalsTimeout, o.InitCalsTimeout},
	} {
		v, err := parseCal(f.s, f.def)
		if err != nil {
			log.Printf("warn", "failed to parse %s %q, using default calibration settings", f.key, f.s)
			return o
		}
		vals[i] = v
	}
	o.InitCals, o.TrackingCals, o.InitCalsTimeout = vals[0], vals[1], vals[2]
	return o
}

func parseCal(s string, def uint32) (uint32, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

// JESDTiming returns the training margins.
func (t TimingConfig) JESDTiming() jesd.Timing {
	return jesd.Timing{
		ResetHold:     time.Duration(t.ResetHoldUs) * time.Microsecond,
		SysrefSpacing: time.Duration(t.SysrefSpacingUs) * time.Microsecond,
		SysrefSettle:  time.Duration(t.SysrefSettleUs) * time.Microsecond,
		LinkSettle:    time.Duration(t.LinkSettleMs) * time.Millisecond,
	}
}

// MMCMLock returns the MMCM lock wait.
func (t TimingConfig) MMCMLock() poll.Config {
	return poll.Config{
		Interval: time.Duration(t.MMCMPollMs) * time.Millisecond,
		Timeout:  time.Duration(t.MMCMTimeoutMs) * time.Millisecond,
	}
}

// QPLLLock returns the QPLL relock wait.
func (t TimingConfig) QPLLLock() poll.Config {
	return poll.Config{
		Interval: time.Millisecond,
		Timeout:  time.Duration(t.QPLLTimeoutMs) * time.Millisecond,
	}
}

// Options returns the dboard options for this board.
func (d DboardConfig) Options() []dboard.Option {
	return []dboard.Option{
		dboard.WithRevision(d.Revision),
		dboard.WithTiming(d.Timing.JESDTiming()),
		dboard.WithLockPolls(d.Timing.MMCMLock(), d.Timing.QPLLLock(), poll.Config{}),
	}
}

// Interval returns the monitor period.
func (m MonitorConfig) Interval() time.Duration {
	return time.Duration(m.IntervalMs) * time.Millisecond
}
