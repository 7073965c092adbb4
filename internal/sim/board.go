// internal/sim/board.go
package sim

import (
	"sync"

	"github.com/tamzrod/dboard-bringup/internal/clocking"
	"github.com/tamzrod/dboard-bringup/internal/cpld"
	"github.com/tamzrod/dboard-bringup/internal/eeprom"
	"github.com/tamzrod/dboard-bringup/internal/power"
	"github.com/tamzrod/dboard-bringup/internal/regs"
)

// CoreVersionAddr holds a fixed word so core dumps show something.
const CoreVersionAddr uint32 = 0x2000

// Board is a complete simulated daughterboard: register files, ASIC,
// JESD core, clocking chips, power expander and EEPROM.
type Board struct {
	CPLD     *regs.Mem
	PhaseDAC *regs.Mem
	Ctrl     *regs.Mem // dboard control registers: MMCM and core
	Core     *Core
	ASIC     *ASIC
	Rails    *power.Mem
	EEPROM   *eeprom.MemDevice

	// MMCMLocks controls whether enabling the MMCM sets the lock bit.
	MMCMLocks bool
	// SynthLocks is copied into each synthesizer the factory builds.
	SynthLocks bool
	// Residual is copied into each phase synchronizer.
	Residual float64

	mu    sync.Mutex
	synth *Synth
	phase *Sync
}

// NewBoard returns a healthy board at CPLD compat revision 4.
func NewBoard() *Board {
	b := &Board{
		CPLD:       regs.NewMem(),
		PhaseDAC:   regs.NewMem(),
		Ctrl:       regs.NewMem(),
		Core:       NewCore(),
		ASIC:       NewASIC(),
		Rails:      power.NewMem(),
		EEPROM:     eeprom.NewMemDevice(32 * 1024),
		MMCMLocks:  true,
		SynthLocks: true,
		Residual:   25e-12,
	}
	b.CPLD.Set(cpld.RegSignature, uint32(cpld.Signature))
	b.CPLD.Set(cpld.RegRevision, 5)
	b.CPLD.Set(cpld.RegOldestCompat, uint32(cpld.CompatibleRev))
	b.CPLD.Set(cpld.RegBuildCodeLSB, 0x0B17)
	b.CPLD.Set(cpld.RegBuildCodeMSB, 0x1801)
	b.CPLD.Set(cpld.RegLOStatus, 0x11)

	b.Ctrl.Set(clocking.RegMGTRefClk, 0x1)
	b.Ctrl.Set(CoreVersionAddr, 0x4A455344)
	b.Ctrl.OnPoke = b.onCtrlPoke
	return b
}

func (b *Board) onCtrlPoke(addr, v uint32) {
	if addr != clocking.RegRadioClkMMCM {
		return
	}
	b.mu.Lock()
	lock := b.MMCMLocks
	b.mu.Unlock()
	if v&0x2 != 0 && lock {
		b.Ctrl.Set(addr, v|0x10)
	}
}

// SetMMCMLocks changes MMCM behavior for later enables.
func (b *Board) SetMMCMLocks(v bool) {
	b.mu.Lock()
	b.MMCMLocks = v
	b.mu.Unlock()
}

// SynthesizerFactory builds simulated synthesizers.
func (b *Board) SynthesizerFactory(refHz, mcrHz float64) (clocking.Synthesizer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.synth = &Synth{Locked: b.SynthLocks, RefHz: refHz, MCRHz: mcrHz}
	return b.synth, nil
}

// SynchronizerFactory builds simulated phase synchronizers.
func (b *Board) SynchronizerFactory(p clocking.SyncParams) (clocking.PhaseSynchronizer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.phase = &Sync{Residual: b.Residual, Params: p}
	return b.phase, nil
}

// LastSynth returns the most recently built synthesizer.
func (b *Board) LastSynth() *Synth {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.synth
}

// LastSync returns the most recently built phase synchronizer.
func (b *Board) LastSync() *Sync {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}
