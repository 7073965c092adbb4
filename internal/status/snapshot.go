// internal/status/snapshot.go
package status

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	Flags          uint16
	LaneRateMbps   uint16
}

// Has reports whether all bits of flag are set.
func (s Snapshot) Has(flag uint16) bool { return s.Flags&flag == flag }
