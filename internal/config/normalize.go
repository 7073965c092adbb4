// internal/config/normalize.go
package config

import (
	"fmt"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/power"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// Defaults applied by Normalize.
const (
	DefaultRevision          = 2
	DefaultExpanderAddr      = 0x20
	DefaultTransportTimeout  = 1000 // ms
	DefaultMonitorIntervalMs = 1000

	defaultResetHoldUs     = 1000
	defaultSysrefSpacingUs = 1000
	defaultSysrefSettleUs  = 1000
	defaultLinkSettleMs    = 100
	defaultMMCMPollMs      = 10
	defaultMMCMTimeoutMs   = 500
	defaultQPLLTimeoutMs   = 100
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	for i := range cfg.Dboards {
		d := &cfg.Dboards[i]

		if d.Revision == 0 {
			d.Revision = DefaultRevision
		}

		// Truncate the name to what fits the status block.
		if d.Name == "" {
			d.Name = fmt.Sprintf("mg-slot%d", d.Slot)
		}
		if len(d.Name) > status.DeviceNameMaxChars {
			d.Name = d.Name[:status.DeviceNameMaxChars]
		}

		if d.Transport.Kind == "" {
			d.Transport.Kind = TransportSim
		}
		if d.Transport.TimeoutMs == 0 {
			d.Transport.TimeoutMs = DefaultTransportTimeout
		}

		if d.Power.Kind == "" {
			d.Power.Kind = PowerSim
		}
		if d.Power.Kind == PowerExpander {
			if d.Power.I2CBus == nil {
				if bus, ok := power.BusForSlot[d.Slot]; ok {
					d.Power.I2CBus = &bus
				}
			}
			if d.Power.I2CAddr == 0 {
				d.Power.I2CAddr = DefaultExpanderAddr
			}
		}

		if d.Clock.RefClockHz == 0 {
			d.Clock.RefClockHz = dboard.DefaultRefClockHz
		}
		if d.Clock.MasterClockHz == 0 {
			d.Clock.MasterClockHz = dboard.DefaultMasterClockHz
		}

		if d.LO.RxSource == "" {
			d.LO.RxSource = string(asic.LOInternal)
		}
		if d.LO.TxSource == "" {
			d.LO.TxSource = string(asic.LOInternal)
		}

		setDefault(&d.Timing.ResetHoldUs, defaultResetHoldUs)
		setDefault(&d.Timing.SysrefSpacingUs, defaultSysrefSpacingUs)
		setDefault(&d.Timing.SysrefSettleUs, defaultSysrefSettleUs)
		setDefault(&d.Timing.LinkSettleMs, defaultLinkSettleMs)
		setDefault(&d.Timing.MMCMPollMs, defaultMMCMPollMs)
		setDefault(&d.Timing.MMCMTimeoutMs, defaultMMCMTimeoutMs)
		setDefault(&d.Timing.QPLLTimeoutMs, defaultQPLLTimeoutMs)

		setDefault(&d.Monitor.IntervalMs, DefaultMonitorIntervalMs)

		if d.Status != nil && d.Status.TimeoutMs == 0 {
			d.Status.TimeoutMs = DefaultTransportTimeout
		}
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
