// internal/sim/asic.go
package sim

import (
	"fmt"
	"sync"

	"github.com/tamzrod/dboard-bringup/internal/asic"
)

// Good status words of a trained link.
const (
	GoodFramerWord   uint16 = 0x3E // ADC data, ILAS complete, SYSREF received
	GoodDeframerWord uint16 = 0x28 // checksum valid, SYSREF received
	GoodMultichip    uint8  = 0xB
)

// ASIC is a simulated transceiver. Status words are good by default;
// set the exported fields to inject link faults.
type ASIC struct {
	mu sync.Mutex

	FramerWord   uint16
	DeframerWord uint16
	Multichip    uint8
	LOLock       map[asic.Direction]bool

	// Fail makes the named command return an error.
	Fail map[string]error

	calls []string
	mcr   float64
	lo    map[asic.Direction]asic.LOSource
	cal   [3]uint32
}

func NewASIC() *ASIC {
	return &ASIC{
		FramerWord:   GoodFramerWord,
		DeframerWord: GoodDeframerWord,
		Multichip:    GoodMultichip,
		LOLock:       map[asic.Direction]bool{asic.RX: true, asic.TX: true},
		Fail:         map[string]error{},
		lo:           map[asic.Direction]asic.LOSource{},
	}
}

func (a *ASIC) do(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, name)
	if err := a.Fail[name]; err != nil {
		return fmt.Errorf("sim asic %s: %w", name, err)
	}
	return nil
}

// Calls returns the command log.
func (a *ASIC) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

// Count returns how often name was called.
func (a *ASIC) Count(name string) int {
	n := 0
	for _, c := range a.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

// MasterClockRate returns the last programmed rate.
func (a *ASIC) MasterClockRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mcr
}

// Cal returns the last calibration setup.
func (a *ASIC) Cal() (initMask, trackingMask, timeoutMs uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cal[0], a.cal[1], a.cal[2]
}

func (a *ASIC) SetMasterClockRate(hz float64) error {
	if err := a.do("SetMasterClockRate"); err != nil {
		return err
	}
	a.mu.Lock()
	a.mcr = hz
	a.mu.Unlock()
	return nil
}

func (a *ASIC) SetLOSource(d asic.Direction, src asic.LOSource) error {
	if err := a.do("SetLOSource"); err != nil {
		return err
	}
	a.mu.Lock()
	a.lo[d] = src
	a.mu.Unlock()
	return nil
}

func (a *ASIC) LOSource(d asic.Direction) (asic.LOSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lo[d], nil
}

func (a *ASIC) BeginInitialization() error  { return a.do("BeginInitialization") }
func (a *ASIC) FinishInitialization() error { return a.do("FinishInitialization") }

func (a *ASIC) SetupCal(initMask, trackingMask, timeoutMs uint32) error {
	if err := a.do("SetupCal"); err != nil {
		return err
	}
	a.mu.Lock()
	a.cal = [3]uint32{initMask, trackingMask, timeoutMs}
	a.mu.Unlock()
	return nil
}

func (a *ASIC) StartJESDRx() error { return a.do("StartJESDRx") }
func (a *ASIC) StartJESDTx() error { return a.do("StartJESDTx") }
func (a *ASIC) StartRadio() error  { return a.do("StartRadio") }

func (a *ASIC) FramerStatus() (uint16, error) {
	if err := a.do("FramerStatus"); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.FramerWord, nil
}

func (a *ASIC) DeframerStatus() (uint16, error) {
	if err := a.do("DeframerStatus"); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.DeframerWord, nil
}

func (a *ASIC) MultichipSyncStatus() (uint8, error) {
	if err := a.do("MultichipSyncStatus"); err != nil {
		return 0, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Multichip, nil
}

func (a *ASIC) LOLocked(d asic.Direction) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.LOLock[d], nil
}

// SetStatus replaces the status words under the lock.
func (a *ASIC) SetStatus(framer, deframer uint16, multichip uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.FramerWord, a.DeframerWord, a.Multichip = framer, deframer, multichip
}
