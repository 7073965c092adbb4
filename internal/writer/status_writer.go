// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/dboard-bringup/internal/status"
)

// deviceStatusWriter writes one board's status block.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     status.Snapshot
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer for plan. It returns false
// when plan is nil (status disabled).
func NewDeviceStatusWriter(plan *StatusPlan, clients map[string]endpointClient) (StatusWriter, bool) {
	if plan == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan,
		cli:      clients[plan.Endpoint],
		needFull: true, // full re-assert on first successful write
		last: status.Snapshot{
			Health: status.HealthUnknown,
		},
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, true
}

// slotWrite describes one incrementally written live slot.
type slotWrite struct {
	slot  uint16
	name  string
	value func(s *status.Snapshot) *uint16
}

var liveSlots = []slotWrite{
	{status.SlotHealthCode, "health", func(s *status.Snapshot) *uint16 { return &s.Health }},
	{status.SlotLastErrorCode, "last_error", func(s *status.Snapshot) *uint16 { return &s.LastErrorCode }},
	{status.SlotSecondsInError, "seconds", func(s *status.Snapshot) *uint16 { return &s.SecondsInError }},
	{status.SlotLinkFlags, "link_flags", func(s *status.Snapshot) *uint16 { return &s.Flags }},
	{status.SlotLaneRate, "lane_rate", func(s *status.Snapshot) *uint16 { return &s.LaneRateMbps }},
}

// WriteStatus delivers a device status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(unitID, baseAddr, sw.fullBlockRegs(s)); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = s
		return nil
	}

	var errs []string

	for _, w := range liveSlots {
		want := *w.value(&s)
		have := w.value(&sw.last)
		if *have == want {
			continue
		}
		if err := sw.cli.WriteRegisters(unitID, baseAddr+w.slot, []uint16{want}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", w.slot, w.name, err))
			continue
		}
		*have = want
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt, re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each device owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

func (sw *deviceStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	// Live slots; reserved slots stay zero.
	regs := status.Encode(s)

	// Device name always lives at the end of the block
	for i := 0; i < status.SlotDeviceNameSlots && i < len(sw.nameRegs); i++ {
		regs[status.SlotDeviceNameStart+i] = sw.nameRegs[i]
	}

	return regs
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
