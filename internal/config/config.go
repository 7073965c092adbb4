// internal/config/config.go
package config

type Config struct {
	Dboards []DboardConfig `yaml:"dboards"`
}

// ---- DBOARD ----

type DboardConfig struct {
	Slot     int    `yaml:"slot"`
	Revision int    `yaml:"revision"`
	Name     string `yaml:"name"`

	Transport TransportConfig `yaml:"transport"`
	Power     PowerConfig     `yaml:"power"`
	Clock     ClockConfig     `yaml:"clock"`
	Cal       CalConfig       `yaml:"cal"`
	LO        LOConfig        `yaml:"lo"`
	Timing    TimingConfig    `yaml:"timing"`
	EEPROM    EEPROMConfig    `yaml:"eeprom"`
	Status    *StatusConfig   `yaml:"status"` // optional, opt-in
	Monitor   MonitorConfig   `yaml:"monitor"`
}

// ---- TRANSPORT ----

const (
	TransportSim    = "sim"
	TransportModbus = "modbus"
)

type TransportConfig struct {
	Kind       string `yaml:"kind"`
	Endpoint   string `yaml:"endpoint"`
	CPLDUnitID uint8  `yaml:"cpld_unit_id"`
	DACUnitID  uint8  `yaml:"dac_unit_id"`
	CoreUnitID uint8  `yaml:"core_unit_id"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- POWER ----

const (
	PowerSim      = "sim"
	PowerExpander = "expander"
	PowerGPIO     = "gpio"
)

type PowerConfig struct {
	Kind    string `yaml:"kind"`
	I2CBus  *int   `yaml:"i2c_bus"` // default: per-slot adapter
	I2CAddr int    `yaml:"i2c_addr"`
}

// ---- CLOCKS ----

type ClockConfig struct {
	RefClockHz    float64 `yaml:"ref_clk_freq"`
	MasterClockHz float64 `yaml:"master_clock_rate"`
}

// ---- ASIC ----

// CalConfig holds calibration masks as written by the operator, e.g.
// "0x4DFF". Unparsable masks fall back to the defaults.
type CalConfig struct {
	InitCals        string `yaml:"init_cals"`
	TrackingCals    string `yaml:"tracking_cals"`
	InitCalsTimeout string `yaml:"init_cals_timeout"`
}

type LOConfig struct {
	RxSource string `yaml:"rx_lo_source"`
	TxSource string `yaml:"tx_lo_source"`
}

// ---- TIMING ----

// TimingConfig holds the training margins. Zero means default.
type TimingConfig struct {
	ResetHoldUs     int `yaml:"reset_hold_us"`
	SysrefSpacingUs int `yaml:"sysref_spacing_us"`
	SysrefSettleUs  int `yaml:"sysref_settle_us"`
	LinkSettleMs    int `yaml:"link_settle_ms"`

	MMCMPollMs    int `yaml:"mmcm_poll_ms"`
	MMCMTimeoutMs int `yaml:"mmcm_timeout_ms"`
	QPLLTimeoutMs int `yaml:"qpll_timeout_ms"`
}

// ---- EEPROM ----

type EEPROMConfig struct {
	Path string `yaml:"path"` // empty: in-memory on sim, none otherwise
}

// ---- STATUS DELIVERY ----

type StatusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Redis     bool   `yaml:"redis"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
