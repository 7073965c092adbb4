// internal/asic/asic.go
package asic

import (
	"fmt"
	"strings"
)

// Direction selects the RX or TX half of the transceiver.
type Direction string

const (
	RX Direction = "RX"
	TX Direction = "TX"
)

// ParseDirection accepts "rx"/"tx" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(s)) {
	case RX:
		return RX, nil
	case TX:
		return TX, nil
	}
	return "", fmt.Errorf("asic: invalid direction %q (want rx or tx)", s)
}

// LOSource is where a direction's local oscillator comes from.
type LOSource string

const (
	LOInternal LOSource = "internal"
	LOExternal LOSource = "external"
)

func ParseLOSource(s string) (LOSource, error) {
	switch LOSource(strings.ToLower(s)) {
	case LOInternal:
		return LOInternal, nil
	case LOExternal:
		return LOExternal, nil
	}
	return "", fmt.Errorf("asic: invalid LO source %q (want internal or external)", s)
}

// Calibration defaults used when no masks are configured.
const (
	DefaultInitCalsMask     uint32 = 0x4DFF
	DefaultTrackingCalsMask uint32 = 0xC3
	DefaultInitCalsTimeout  uint32 = 60000 // ms
)

// Commander is the command surface of the transceiver ASIC driver.
// Every call may fail with a hardware fault.
type Commander interface {
	SetMasterClockRate(hz float64) error
	SetLOSource(d Direction, src LOSource) error
	LOSource(d Direction) (LOSource, error)

	BeginInitialization() error
	FinishInitialization() error
	SetupCal(initMask, trackingMask, timeoutMs uint32) error

	StartJESDRx() error // ASIC deframer
	StartJESDTx() error // ASIC framer
	StartRadio() error

	FramerStatus() (uint16, error)
	DeframerStatus() (uint16, error)
	MultichipSyncStatus() (uint8, error)

	LOLocked(d Direction) (bool, error)
}
