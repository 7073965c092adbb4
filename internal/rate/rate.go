// internal/rate/rate.go
package rate

import (
	"fmt"
	"math"
)

// LaneRate is a supported JESD204B per-lane bit rate.
type LaneRate int

const (
	Unknown LaneRate = iota
	Rate2457M6
	Rate2500M
	Rate3072M
)

// Fixed link parameters (LMFS + N). Only the master clock rate varies.
const (
	LinkL = 4
	LinkM = 4
	LinkF = 2
	LinkS = 1
	LinkN = 16

	// Lanes is the number of transceivers reprogrammed per rate change.
	Lanes = LinkL
)

var bps = map[LaneRate]float64{
	Rate2457M6: 2457.6e6,
	Rate2500M:  2500e6,
	Rate3072M:  3072e6,
}

// All lists the supported rates in ascending order.
var All = []LaneRate{Rate2457M6, Rate2500M, Rate3072M}

// BitsPerSecond returns the line rate, 0 for Unknown.
func (r LaneRate) BitsPerSecond() float64 { return bps[r] }

// Mbps returns the line rate rounded to whole Mbps, 0 for Unknown.
func (r LaneRate) Mbps() uint16 { return uint16(math.Round(bps[r] / 1e6)) }

func (r LaneRate) String() string {
	if r == Unknown {
		return "unknown"
	}
	return fmt.Sprintf("%g Gbps", bps[r]/1e9)
}

// ForMasterClock returns the lane rate implied by a master clock rate.
func ForMasterClock(mcrHz float64) (LaneRate, error) {
	line := mcrHz * LinkM * LinkN * (10.0 / 8) / LinkL / LinkS
	for _, r := range All {
		if math.Abs(bps[r]-line) < 1 {
			return r, nil
		}
	}
	return Unknown, fmt.Errorf("rate: no lane rate for master clock %.2f MHz (line rate %.1f Mbps)",
		mcrHz/1e6, line/1e6)
}
