// internal/jesd/fake_test.go
package jesd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tamzrod/dboard-bringup/internal/asic"
)

var errInjected = errors.New("injected")

type drpWrite struct {
	domain DRPDomain
	index  int
	addr   uint16
	value  uint16
}

// fakeCore records every call in order and keeps one DRP register file
// per domain and index.
type fakeCore struct {
	mu sync.Mutex

	calls   []string
	writes  []drpWrite
	drp     map[string]uint16
	domain  DRPDomain
	index   int
	sysrefs []time.Time

	failWriteN int // fail the nth WriteDRP (1-based), 0 = never
	failInit   bool
	neverLock  bool

	framerOK   bool
	deframerOK bool
}

func newFakeCore() *fakeCore {
	return &fakeCore{drp: map[string]uint16{}, framerOK: true, deframerOK: true}
}

func (c *fakeCore) call(name string) {
	c.mu.Lock()
	c.calls = append(c.calls, name)
	c.mu.Unlock()
}

func (c *fakeCore) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.calls {
		if s == name {
			n++
		}
	}
	return n
}

func (c *fakeCore) key(addr uint16) string {
	return fmt.Sprintf("%s/%d/%#x", c.domain, c.index, addr)
}

func (c *fakeCore) Reset() error            { c.call("Reset"); return nil }
func (c *fakeCore) CheckCore() error        { c.call("CheckCore"); return nil }
func (c *fakeCore) InitFramer() error       { c.call("InitFramer"); return nil }
func (c *fakeCore) InitDeframer() error     { c.call("InitDeframer"); return nil }
func (c *fakeCore) EnableLMFC(b bool) error { c.call("EnableLMFC"); return nil }

func (c *fakeCore) SendSysref() error {
	c.mu.Lock()
	c.sysrefs = append(c.sysrefs, time.Now())
	c.mu.Unlock()
	c.call("SendSysref")
	return nil
}

func (c *fakeCore) FramerStatus() (bool, error)   { return c.framerOK, nil }
func (c *fakeCore) DeframerStatus() (bool, error) { return c.deframerOK, nil }

func (c *fakeCore) Init() error {
	c.call("Init")
	if c.failInit {
		return errInjected
	}
	return nil
}

func (c *fakeCore) QPLLLocked() (bool, error) { return !c.neverLock, nil }

func (c *fakeCore) SelectDRP(d DRPDomain, index int) error {
	c.call("SelectDRP")
	c.domain, c.index = d, index
	return nil
}

func (c *fakeCore) ReadDRP(addr uint16) (uint16, error) {
	c.call("ReadDRP")
	return c.drp[c.key(addr)], nil
}

func (c *fakeCore) WriteDRP(addr, v uint16) error {
	c.call("WriteDRP")
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWriteN > 0 && len(c.writes)+1 == c.failWriteN {
		return errInjected
	}
	c.writes = append(c.writes, drpWrite{c.domain, c.index, addr, v})
	c.drp[c.key(addr)] = v
	return nil
}

func (c *fakeCore) DeselectDRP() error { c.call("DeselectDRP"); return nil }

// fakeASIC records the command sequence and serves fixed status words.
type fakeASIC struct {
	mu    sync.Mutex
	calls []string
	lo    map[asic.Direction]asic.LOSource

	framer    uint16
	deframer  uint16
	multichip uint8
}

func newFakeASIC() *fakeASIC {
	return &fakeASIC{
		lo:        map[asic.Direction]asic.LOSource{},
		framer:    0x3E, // ADC data, ILAS complete, SYSREF received
		deframer:  0x28, // checksum valid, SYSREF received
		multichip: 0xB,
	}
}

func (a *fakeASIC) call(name string) error {
	a.mu.Lock()
	a.calls = append(a.calls, name)
	a.mu.Unlock()
	return nil
}

func (a *fakeASIC) SetMasterClockRate(float64) error { return a.call("SetMasterClockRate") }
func (a *fakeASIC) SetLOSource(d asic.Direction, s asic.LOSource) error {
	a.lo[d] = s
	return a.call("SetLOSource")
}
func (a *fakeASIC) LOSource(d asic.Direction) (asic.LOSource, error) { return a.lo[d], nil }
func (a *fakeASIC) BeginInitialization() error                       { return a.call("BeginInitialization") }
func (a *fakeASIC) FinishInitialization() error                      { return a.call("FinishInitialization") }
func (a *fakeASIC) SetupCal(i, t, to uint32) error                   { return a.call("SetupCal") }
func (a *fakeASIC) StartJESDRx() error                               { return a.call("StartJESDRx") }
func (a *fakeASIC) StartJESDTx() error                               { return a.call("StartJESDTx") }
func (a *fakeASIC) StartRadio() error                                { return a.call("StartRadio") }
func (a *fakeASIC) FramerStatus() (uint16, error)                    { return a.framer, nil }
func (a *fakeASIC) DeframerStatus() (uint16, error)                  { return a.deframer, nil }
func (a *fakeASIC) MultichipSyncStatus() (uint8, error)              { return a.multichip, nil }
func (a *fakeASIC) LOLocked(asic.Direction) (bool, error)            { return true, nil }

type fakePulser struct {
	pulses int
	hold   time.Duration
}

func (p *fakePulser) ResetASIC(hold time.Duration) error {
	p.pulses++
	p.hold = hold
	return nil
}
