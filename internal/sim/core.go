// internal/sim/core.go
package sim

import (
	"fmt"
	"sync"

	"github.com/tamzrod/dboard-bringup/internal/jesd"
)

type drpKey struct {
	domain jesd.DRPDomain
	index  int
	addr   uint16
}

// Core is a simulated FPGA JESD204B core with DRP-addressable transceivers.
type Core struct {
	mu sync.Mutex

	FramerSynced   bool
	DeframerSynced bool
	QPLLLocks      bool

	Fail map[string]error

	calls    []string
	drp      map[drpKey]uint16
	target   *drpKey
	drpWrite int
}

func NewCore() *Core {
	return &Core{
		FramerSynced:   true,
		DeframerSynced: true,
		QPLLLocks:      true,
		Fail:           map[string]error{},
		drp:            map[drpKey]uint16{},
	}
}

func (c *Core) do(name string) error {
	c.calls = append(c.calls, name)
	if err := c.Fail[name]; err != nil {
		return fmt.Errorf("sim core %s: %w", name, err)
	}
	return nil
}

func (c *Core) op(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.do(name)
}

func (c *Core) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *Core) Count(name string) int {
	n := 0
	for _, s := range c.Calls() {
		if s == name {
			n++
		}
	}
	return n
}

// DRPWrites returns the number of DRP writes so far.
func (c *Core) DRPWrites() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drpWrite
}

// DRP returns a transceiver register value.
func (c *Core) DRP(d jesd.DRPDomain, index int, addr uint16) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drp[drpKey{d, index, addr}]
}

func (c *Core) Reset() error          { return c.op("Reset") }
func (c *Core) CheckCore() error      { return c.op("CheckCore") }
func (c *Core) InitFramer() error     { return c.op("InitFramer") }
func (c *Core) InitDeframer() error   { return c.op("InitDeframer") }
func (c *Core) EnableLMFC(bool) error { return c.op("EnableLMFC") }
func (c *Core) SendSysref() error     { return c.op("SendSysref") }
func (c *Core) Init() error           { return c.op("Init") }

func (c *Core) DeselectDRP() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = nil
	return c.do("DeselectDRP")
}

func (c *Core) FramerStatus() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.do("FramerStatus"); err != nil {
		return false, err
	}
	return c.FramerSynced, nil
}

func (c *Core) DeframerStatus() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.do("DeframerStatus"); err != nil {
		return false, err
	}
	return c.DeframerSynced, nil
}

func (c *Core) QPLLLocked() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.QPLLLocks, nil
}

func (c *Core) SelectDRP(d jesd.DRPDomain, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.do("SelectDRP"); err != nil {
		return err
	}
	c.target = &drpKey{domain: d, index: index}
	return nil
}

func (c *Core) ReadDRP(addr uint16) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return 0, fmt.Errorf("sim core: DRP read %#x without target", addr)
	}
	return c.drp[drpKey{c.target.domain, c.target.index, addr}], nil
}

func (c *Core) WriteDRP(addr, v uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.do("WriteDRP"); err != nil {
		return err
	}
	if c.target == nil {
		return fmt.Errorf("sim core: DRP write %#x without target", addr)
	}
	c.drp[drpKey{c.target.domain, c.target.index, addr}] = v
	c.drpWrite++
	return nil
}
