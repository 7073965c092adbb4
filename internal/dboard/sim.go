// internal/dboard/sim.go
package dboard

import "github.com/tamzrod/dboard-bringup/internal/sim"

// SimHardware wires a simulated board into a Hardware set.
func SimHardware(b *sim.Board) Hardware {
	return Hardware{
		CPLD:         b.CPLD,
		PhaseDAC:     b.PhaseDAC,
		Ctrl:         b.Ctrl,
		Core:         b.Core,
		ASIC:         b.ASIC,
		Rails:        b.Rails,
		EEPROM:       b.EEPROM,
		Synthesizer:  b.SynthesizerFactory,
		Synchronizer: b.SynchronizerFactory,
	}
}
