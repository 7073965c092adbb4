// internal/regs/mem.go
package regs

import (
	"fmt"
	"sync"
)

// Mem is an in-memory register file implementing Regs16 and Regs32.
// Hooks let a simulator react to writes (self-clearing bits, lock flags).
type Mem struct {
	mu   sync.Mutex
	vals map[uint32]uint32

	// OnPoke runs after every write with the lock released.
	OnPoke func(addr, v uint32)

	// FailAddr makes every access to the listed addresses fail.
	FailAddr map[uint32]bool

	writes []Write
}

// Write records one register write.
type Write struct {
	Addr  uint32
	Value uint32
}

func NewMem() *Mem {
	return &Mem{vals: make(map[uint32]uint32)}
}

// Set stores v without recording a write or running hooks.
func (m *Mem) Set(addr, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[addr] = v
}

// Get returns the stored value without recording a read.
func (m *Mem) Get(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals[addr]
}

// Writes returns a copy of the write log.
func (m *Mem) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Write(nil), m.writes...)
}

func (m *Mem) peek(addr uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAddr[addr] {
		return 0, fmt.Errorf("regs mem: read 0x%04x failed", addr)
	}
	return m.vals[addr], nil
}

func (m *Mem) poke(addr, v uint32) error {
	m.mu.Lock()
	if m.FailAddr[addr] {
		m.mu.Unlock()
		return fmt.Errorf("regs mem: write 0x%04x failed", addr)
	}
	m.vals[addr] = v
	m.writes = append(m.writes, Write{Addr: addr, Value: v})
	hook := m.OnPoke
	m.mu.Unlock()

	if hook != nil {
		hook(addr, v)
	}
	return nil
}

func (m *Mem) Peek16(addr uint32) (uint16, error) {
	v, err := m.peek(addr)
	return uint16(v), err
}

func (m *Mem) Poke16(addr uint32, v uint16) error { return m.poke(addr, uint32(v)) }

func (m *Mem) Peek32(addr uint32) (uint32, error) { return m.peek(addr) }

func (m *Mem) Poke32(addr uint32, v uint32) error { return m.poke(addr, v) }
