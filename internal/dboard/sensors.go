// internal/dboard/sensors.go
package dboard

import (
	"errors"
	"strconv"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/fault"
	"github.com/tamzrod/dboard-bringup/internal/power"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// Sensor is one named reading.
type Sensor struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Unit  string `json:"unit"`
	Value string `json:"value"`
}

// Per-direction sensor names.
const (
	SensorLowbandLO = "lowband_lo_locked"
	SensorASICLO    = "ad9371_lo_locked"
	SensorRefLocked = "ref_locked"
	SensorLink      = "link_trained"
	SensorMMCM      = "radio_clk_locked"
	SensorMGTRefClk = "mgt_ref_clk"
)

// SensorNames lists the per-direction sensors.
var SensorNames = []string{SensorLowbandLO, SensorASICLO}

func boolSensor(name string, v bool, yes, no string) Sensor {
	unit := no
	if v {
		unit = yes
	}
	return Sensor{Name: name, Type: "BOOLEAN", Unit: unit, Value: strconv.FormatBool(v)}
}

func lockSensor(name string, v bool) Sensor {
	return boolSensor(name, v, "locked", "unlocked")
}

// RefLocked reports the synthesizer PLL lock. Before the first bring-up
// there is no synthesizer and the reference counts as unlocked.
func (d *Dboard) RefLocked() (bool, error) {
	d.mu.RLock()
	s := d.synth
	d.mu.RUnlock()
	if s == nil {
		log.Print("debug", "synthesizer not initialized, reporting ref unlocked")
		return false, nil
	}
	ok, err := s.PLLsLocked()
	return ok, fault.Wrap(fault.Hardware, "dboard.RefLocked", err)
}

// LowbandLOLocked reports the lowband LO lock of one direction.
func (d *Dboard) LowbandLOLocked(dir asic.Direction) (bool, error) {
	if d.cpld == nil {
		return false, d.notReady("dboard.LowbandLOLocked")
	}
	return d.cpld.LOLocked(dir)
}

// ASICLOLocked reports the ASIC LO lock of one direction.
func (d *Dboard) ASICLOLocked(dir asic.Direction) (bool, error) {
	if !d.Ready() {
		return false, d.notReady("dboard.ASICLOLocked")
	}
	ok, err := d.hw.ASIC.LOLocked(dir)
	return ok, fault.Wrap(fault.Hardware, "dboard.ASICLOLocked", err)
}

// Sensor reads one per-direction sensor.
func (d *Dboard) Sensor(dir asic.Direction, name string) (Sensor, error) {
	var (
		ok  bool
		err error
	)
	switch name {
	case SensorLowbandLO:
		ok, err = d.LowbandLOLocked(dir)
	case SensorASICLO:
		ok, err = d.ASICLOLocked(dir)
	default:
		return Sensor{}, fault.New(fault.Validation, "dboard.Sensor", "unknown %s sensor %q", dir, name)
	}
	if err != nil {
		return Sensor{}, err
	}
	log.Printf("debug", "slot %d: %s %s: %v", d.slot, dir, name, ok)
	return lockSensor(name, ok), nil
}

// Sensors reads every per-direction sensor.
func (d *Dboard) Sensors(dir asic.Direction) ([]Sensor, error) {
	out := make([]Sensor, 0, len(SensorNames))
	for _, name := range SensorNames {
		s, err := d.Sensor(dir, name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// BoardSensors reads the board level sensors.
func (d *Dboard) BoardSensors() ([]Sensor, error) {
	ref, err := d.RefLocked()
	if err != nil {
		return nil, err
	}
	mmcm, err := d.clk.MMCMLocked()
	if err != nil {
		return nil, err
	}
	refclk, err := d.clk.CheckRefClk()
	if err != nil {
		return nil, err
	}
	return []Sensor{
		lockSensor(SensorRefLocked, ref),
		boolSensor(SensorLink, d.LinkTrained(), "trained", "untrained"),
		lockSensor(SensorMMCM, mmcm),
		boolSensor(SensorMGTRefClk, refclk, "running", "stopped"),
	}, nil
}

// PowerGood reads the power-good pin of every rail.
func (d *Dboard) PowerGood() ([]Sensor, error) {
	g, err := power.Good(d.hw.Rails)
	if err != nil {
		return nil, err
	}
	out := make([]Sensor, 0, len(g))
	for _, name := range power.GoodPins {
		out = append(out, boolSensor(name, g[name], "good", "bad"))
	}
	return out, nil
}

// Snapshot summarizes the board for the status block. SecondsInError is
// left to the caller, which owns the clock.
func (d *Dboard) Snapshot() status.Snapshot {
	var s status.Snapshot
	s.LaneRateMbps = d.LaneRate().Mbps()

	err := d.LastError()
	switch {
	case !d.Ready():
		s.Health = status.HealthDisabled
	case err != nil:
		s.Health = status.HealthError
	case d.LinkTrained():
		s.Health = status.HealthOK
	default:
		s.Health = status.HealthUnknown
	}
	if err != nil {
		s.LastErrorCode = ErrorCode(err)
	}

	if d.Ready() {
		s.Flags |= status.FlagPeripheralsReady
	}
	if d.LinkTrained() {
		s.Flags |= status.FlagLinkTrained
	}
	if ok, _ := d.RefLocked(); ok {
		s.Flags |= status.FlagRefLocked
	}
	if !d.Ready() {
		return s
	}
	flags := map[asic.Direction][2]uint16{
		asic.TX: {status.FlagTxLowbandLO, status.FlagTxASICLO},
		asic.RX: {status.FlagRxLowbandLO, status.FlagRxASICLO},
	}
	for dir, f := range flags {
		if ok, _ := d.LowbandLOLocked(dir); ok {
			s.Flags |= f[0]
		}
		if ok, _ := d.ASICLOLocked(dir); ok {
			s.Flags |= f[1]
		}
	}
	return s
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming
// concrete types. Errors that expose no code map to the hardware fault code.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return uint16(fault.Hardware)
}
