// internal/config/validate.go
package config

import (
	"fmt"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/jesd"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil || len(cfg.Dboards) == 0 {
		return fmt.Errorf("no dboards configured")
	}

	slotOwner := make(map[int]string)

	// key = endpoint | unit_id | base_slot
	statusOwner := make(map[string]string)

	for i, d := range cfg.Dboards {
		id := d.Name
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}

		if d.Slot < 0 {
			return fmt.Errorf("dboard %q: invalid slot %d", id, d.Slot)
		}
		if prev, exists := slotOwner[d.Slot]; exists {
			return fmt.Errorf("slot collision: slot=%d used by dboards %q and %q", d.Slot, prev, id)
		}
		slotOwner[d.Slot] = id

		// name sanity (ASCII only)
		for j := 0; j < len(d.Name); j++ {
			if d.Name[j] > 0x7F {
				return fmt.Errorf("dboard %q: name must contain ASCII characters only", id)
			}
		}

		if err := validateTransport(id, d.Transport); err != nil {
			return err
		}
		if err := validatePower(id, d.Power); err != nil {
			return err
		}
		if err := validateClock(id, d.Clock); err != nil {
			return err
		}
		if err := validateLO(id, d.LO); err != nil {
			return err
		}
		if err := validateTiming(id, d.Timing); err != nil {
			return err
		}
		if d.Monitor.IntervalMs < 0 {
			return fmt.Errorf("dboard %q: negative monitor interval", id)
		}

		// status is opt-in
		if d.Status == nil {
			continue
		}
		s := d.Status
		if s.Endpoint == "" && !s.Redis {
			return fmt.Errorf("dboard %q: status needs an endpoint or redis", id)
		}
		if s.Endpoint == "" {
			continue
		}
		if (uint32(s.BaseSlot)+1)*status.SlotsPerDevice > 0x10000 {
			return fmt.Errorf("dboard %q: status base_slot %d overflows the register space", id, s.BaseSlot)
		}

		key := fmt.Sprintf("%s|%d|%d", s.Endpoint, s.UnitID, s.BaseSlot)
		if prev, exists := statusOwner[key]; exists {
			return fmt.Errorf(
				"status_slot collision: endpoint=%s unit_id=%d base_slot=%d used by dboards %q and %q",
				s.Endpoint, s.UnitID, s.BaseSlot, prev, id,
			)
		}
		statusOwner[key] = id
	}

	return nil
}

func validateTransport(id string, t TransportConfig) error {
	switch t.Kind {
	case "", TransportSim:
		return nil
	case TransportModbus:
		if t.Endpoint == "" {
			return fmt.Errorf("dboard %q: modbus transport requires an endpoint", id)
		}
		if t.CPLDUnitID == t.CoreUnitID || t.CPLDUnitID == t.DACUnitID || t.DACUnitID == t.CoreUnitID {
			return fmt.Errorf("dboard %q: cpld, dac and core unit ids must differ", id)
		}
		if t.TimeoutMs < 0 {
			return fmt.Errorf("dboard %q: negative transport timeout", id)
		}
		return nil
	}
	return fmt.Errorf("dboard %q: unknown transport kind %q", id, t.Kind)
}

func validatePower(id string, p PowerConfig) error {
	switch p.Kind {
	case "", PowerSim, PowerGPIO:
		return nil
	case PowerExpander:
		if p.I2CAddr < 0 || p.I2CAddr > 0x7F {
			return fmt.Errorf("dboard %q: invalid i2c address %#x", id, p.I2CAddr)
		}
		if p.I2CBus != nil && *p.I2CBus < 0 {
			return fmt.Errorf("dboard %q: invalid i2c bus %d", id, *p.I2CBus)
		}
		return nil
	}
	return fmt.Errorf("dboard %q: unknown power kind %q", id, p.Kind)
}

// validateClock accepts zero values, which Normalize fills in.
func validateClock(id string, c ClockConfig) error {
	cc := dboard.ClockConfig{RefClockHz: c.RefClockHz, MasterClockHz: c.MasterClockHz}
	if cc.RefClockHz == 0 {
		cc.RefClockHz = dboard.DefaultRefClockHz
	}
	if cc.MasterClockHz == 0 {
		cc.MasterClockHz = dboard.DefaultMasterClockHz
	}
	if err := cc.Validate(); err != nil {
		return fmt.Errorf("dboard %q: %w", id, err)
	}
	return nil
}

func validateLO(id string, lo LOConfig) error {
	for _, s := range []string{lo.RxSource, lo.TxSource} {
		if s == "" {
			continue
		}
		if _, err := asic.ParseLOSource(s); err != nil {
			return fmt.Errorf("dboard %q: %w", id, err)
		}
	}
	return nil
}

func validateTiming(id string, t TimingConfig) error {
	for _, v := range []int{
		t.ResetHoldUs, t.SysrefSpacingUs, t.SysrefSettleUs, t.LinkSettleMs,
		t.MMCMPollMs, t.MMCMTimeoutMs, t.QPLLTimeoutMs,
	} {
		if v < 0 {
			return fmt.Errorf("dboard %q: negative timing margin", id)
		}
	}
	if t.SysrefSpacingUs != 0 && time.Duration(t.SysrefSpacingUs)*time.Microsecond < jesd.MinSysrefSpacing {
		return fmt.Errorf("dboard %q: sysref_spacing_us %d below minimum %v", id, t.SysrefSpacingUs, jesd.MinSysrefSpacing)
	}
	if t.MMCMPollMs != 0 && t.MMCMTimeoutMs != 0 && t.MMCMPollMs > t.MMCMTimeoutMs {
		return fmt.Errorf("dboard %q: mmcm_poll_ms exceeds mmcm_timeout_ms", id)
	}
	return nil
}
