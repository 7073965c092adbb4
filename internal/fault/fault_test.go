// internal/fault/fault_test.go
package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFault_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("bring-up: %w", New(LockTimeout, "mmcm", "bit 0x10 never set"))

	if !errors.Is(err, LockTimeout) {
		t.Fatalf("expected errors.Is(err, LockTimeout)")
	}
	if errors.Is(err, Transport) {
		t.Fatalf("lock timeout must not match Transport")
	}
	if KindOf(err) != LockTimeout {
		t.Fatalf("KindOf=%v want %v", KindOf(err), LockTimeout)
	}
}

func TestWrap_KeepsInnerKind(t *testing.T) {
	inner := New(Transport, "peek16", "timeout")
	err := Wrap(Hardware, "cpld", inner)

	if KindOf(err) != Transport {
		t.Fatalf("KindOf=%v want %v", KindOf(err), Transport)
	}
	if Wrap(Hardware, "x", nil) != nil {
		t.Fatalf("Wrap(nil) must be nil")
	}
}

func TestFault_ErrorListsChecks(t *testing.T) {
	f := &Fault{
		Kind:   LinkVerification,
		Op:     "jesd verify",
		Checks: []string{"asic framer", "multichip sync"},
	}
	msg := f.Error()
	for _, want := range []string{"jesd verify", "asic framer", "multichip sync"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %q", msg, want)
		}
	}
	if f.Code() != uint16(LinkVerification) {
		t.Fatalf("code=%d want %d", f.Code(), LinkVerification)
	}
}
