// internal/regs/regs.go
package regs

import (
	"sync"
)

// Regs16 is the control-plane register space (CPLD, phase DAC).
type Regs16 interface {
	Peek16(addr uint32) (uint16, error)
	Poke16(addr uint32, v uint16) error
}

// Regs32 is the clock/FPGA-core register space.
type Regs32 interface {
	Peek32(addr uint32) (uint32, error)
	Poke32(addr uint32, v uint32) error
}

// BusLock is the advisory lock scoped to one device's register bus.
// Sub-components that issue multi-register transactions hold it for the
// whole transaction.
type BusLock struct {
	mu sync.Mutex
}

func (l *BusLock) Lock()   { l.mu.Lock() }
func (l *BusLock) Unlock() { l.mu.Unlock() }
