// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/dboard-bringup/internal/status"
)

func newTestStatusWriter(t *testing.T, cli *fakeEndpointClient, base uint16) (StatusWriter, *StatusPlan) {
	t.Helper()

	plan := &StatusPlan{
		Endpoint:   "status-endpoint",
		UnitID:     1,
		BaseSlot:   base,
		DeviceName: "DEV-01",
	}

	clients := map[string]endpointClient{
		"status-endpoint": cli,
	}

	sw, enabled := NewDeviceStatusWriter(plan, clients)
	if !enabled {
		t.Fatalf("status writer should be enabled")
	}
	return sw, plan
}

func TestStatusWriter_DisabledWithoutPlan(t *testing.T) {
	if _, enabled := NewDeviceStatusWriter(nil, nil); enabled {
		t.Fatalf("status writer should be disabled")
	}
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, plan := newTestStatusWriter(t, cli, 0)

	// ---- first write: FULL ASSERT ----
	first := status.Snapshot{
		Health:       status.HealthOK,
		Flags:        status.FlagPeripheralsReady | status.FlagLinkTrained,
		LaneRateMbps: 2500,
	}

	if err := sw.WriteStatus(first); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	// Expect full block
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf(
			"expected full block write (%d regs), got %d",
			status.SlotsPerDevice,
			len(cli.lastRegs),
		)
	}
	if cli.lastRegs[status.SlotLinkFlags] != first.Flags || cli.lastRegs[status.SlotLaneRate] != 2500 {
		t.Fatalf("live slots not in full block: %v", cli.lastRegs[:5])
	}

	// Verify device name encoding EXACTLY
	expectedNameRegs := encodeDeviceNameRegs(plan.DeviceName)

	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if cli.lastRegs[slot] != expectedNameRegs[i] {
			t.Fatalf(
				"device name slot %d mismatch: got=%d want=%d",
				slot,
				cli.lastRegs[slot],
				expectedNameRegs[i],
			)
		}
	}

	// ---- second write: INCREMENTAL ONLY ----
	second := first
	second.Health = status.HealthError
	second.LastErrorCode = 7

	before := len(cli.writes)
	if err := sw.WriteStatus(second); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	// Incremental update must NOT re-write full block
	if len(cli.lastRegs) == status.SlotsPerDevice {
		t.Fatalf("device name should not be rewritten on incremental update")
	}
	if n := len(cli.writes) - before; n != 2 {
		t.Fatalf("expected 2 slot writes, got %d", n)
	}
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, plan := newTestStatusWriter(t, cli, 2)

	// simulate ERROR
	errSnap := status.Snapshot{
		Health:         status.HealthOK,
		LastErrorCode:  0,
		SecondsInError: 3,
	}

	if err := sw.WriteStatus(errSnap); err != nil {
		t.Fatalf("error snapshot write failed: %v", err)
	}

	// simulate recovery
	okSnap := status.Snapshot{
		Health:         status.HealthOK,
		LastErrorCode:  0,
		SecondsInError: 0,
	}

	if err := sw.WriteStatus(okSnap); err != nil {
		t.Fatalf("recovery snapshot write failed: %v", err)
	}

	expectedAddr := plan.BaseSlot*status.SlotsPerDevice + status.SlotSecondsInError

	if cli.lastRegsAddr != expectedAddr {
		t.Fatalf("unexpected write addr: got=%d want=%d", cli.lastRegsAddr, expectedAddr)
	}

	if len(cli.lastRegs) != 1 {
		t.Fatalf("expected 1 register write, got %d", len(cli.lastRegs))
	}

	if cli.lastRegs[0] != 0 {
		t.Fatalf("seconds_in_error not reset: got=%d want=0", cli.lastRegs[0])
	}
}

func TestLaneRateChangeWritesSingleSlot(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := newTestStatusWriter(t, cli, 0)

	_ = sw.WriteStatus(status.Snapshot{Health: status.HealthOK, LaneRateMbps: 2500})
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, LaneRateMbps: 3072}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if cli.lastRegsAddr != status.SlotLaneRate || len(cli.lastRegs) != 1 || cli.lastRegs[0] != 3072 {
		t.Fatalf("addr=%d regs=%v", cli.lastRegsAddr, cli.lastRegs)
	}
}

func TestFailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw, _ := newTestStatusWriter(t, cli, 0)

	_ = sw.WriteStatus(status.Snapshot{Health: status.HealthOK})

	cli.fail = errors.New("link down")
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError}); err == nil {
		t.Fatalf("expected write error")
	}

	cli.fail = nil
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(cli.lastRegs) != status.SlotsPerDevice {
		t.Fatalf("expected full re-assert after failure, got %d regs", len(cli.lastRegs))
	}
}

func TestEncodeDeviceNameRegs_Sanitizes(t *testing.T) {
	regs := encodeDeviceNameRegs("A\x01")
	if regs[0] != uint16('A')<<8|uint16('?') {
		t.Fatalf("regs[0]=%#x", regs[0])
	}
	for _, r := range regs[1:] {
		if r != 0 {
			t.Fatalf("padding not zero: %v", regs)
		}
	}
}
