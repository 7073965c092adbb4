// internal/regs/regs_test.go
package regs

import (
	"sync"
	"testing"
)

func TestMem_FailAddr(t *testing.T) {
	m := NewMem()
	m.FailAddr = map[uint32]bool{0x11: true}

	if _, err := m.Peek32(0x11); err == nil {
		t.Fatalf("expected read error")
	}
	if err := m.Poke16(0x11, 0x100); err == nil {
		t.Fatalf("expected write error")
	}
	if len(m.Writes()) != 0 {
		t.Fatalf("failed write logged: %v", m.Writes())
	}
	if err := m.Poke32(0x12, 1); err != nil || m.Get(0x12) != 1 {
		t.Fatalf("other address: err=%v val=%d", err, m.Get(0x12))
	}
}

func TestMem_OnPokeHook(t *testing.T) {
	m := NewMem()
	var seen []uint32
	m.OnPoke = func(addr, v uint32) {
		seen = append(seen, addr)
		if addr == 0x20 && v == 0x2 {
			m.Set(0x20, v|0x10)
		}
	}

	if err := m.Poke32(0x20, 0x2); err != nil {
		t.Fatalf("Poke32 err=%v", err)
	}
	v, _ := m.Peek32(0x20)
	if v != 0x12 {
		t.Fatalf("reg=0x%x want 0x12", v)
	}
	if len(seen) != 1 || seen[0] != 0x20 {
		t.Fatalf("hook calls=%v", seen)
	}
}

func TestBusLock_SerializesTransactions(t *testing.T) {
	var (
		lock BusLock
		m    = NewMem()
		wg   sync.WaitGroup
	)

	// Two writers each perform a two-register transaction.
	for w := uint32(1); w <= 2; w++ {
		wg.Add(1)
		go func(w uint32) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				lock.Lock()
				_ = m.Poke32(0x32, w)
				_ = m.Poke32(0x33, w)
				lock.Unlock()
			}
		}(w)
	}
	wg.Wait()

	writes := m.Writes()
	for i := 0; i < len(writes); i += 2 {
		if writes[i].Value != writes[i+1].Value {
			t.Fatalf("interleaved transaction at %d: %v %v", i, writes[i], writes[i+1])
		}
	}
}

func TestPackRegisters32_HighWordFirst(t *testing.T) {
	b := packRegisters32(0x11223344)
	want := []byte{0x11, 0x22, 0x33, 0x44}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = 0x%02x want 0x%02x", i, b[i], want[i])
		}
	}
}
