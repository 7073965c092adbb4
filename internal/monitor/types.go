// internal/monitor/types.go
package monitor

import (
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// Board is the read-only surface the monitor samples.
type Board interface {
	Slot() int
	Snapshot() status.Snapshot
	Sensors(dir asic.Direction) ([]dboard.Sensor, error)
	BoardSensors() ([]dboard.Sensor, error)
}

// Sample is what one sampling cycle produced.
type Sample struct {
	Slot int
	At   time.Time

	Snapshot status.Snapshot

	// Sensors by direction; board level sensors are under "".
	Sensors map[string][]dboard.Sensor

	Err error // non-nil means the sensor reads failed
}

// StatusWriter delivers status snapshots.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// SensorPublisher delivers sensor readings.
type SensorPublisher interface {
	PublishSensors(dir string, sensors []dboard.Sensor) error
}
