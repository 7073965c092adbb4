// internal/asic/asic_test.go
package asic

import "testing"

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{"rx": RX, "TX": TX, "Rx": RX} {
		got, err := ParseDirection(in)
		if err != nil || got != want {
			t.Fatalf("ParseDirection(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseDirection("both"); err == nil {
		t.Fatalf("expected error for invalid direction")
	}
}

func TestParseLOSource(t *testing.T) {
	if s, err := ParseLOSource("External"); err != nil || s != LOExternal {
		t.Fatalf("ParseLOSource=%q,%v", s, err)
	}
	if _, err := ParseLOSource("pll"); err == nil {
		t.Fatalf("expected error for invalid LO source")
	}
}
