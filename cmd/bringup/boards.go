// cmd/bringup/boards.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/config"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/power"
	"github.com/tamzrod/dboard-bringup/internal/regs"
	"github.com/tamzrod/dboard-bringup/internal/sim"
)

// board is one attached daughterboard with its configuration.
type board struct {
	cfg config.DboardConfig
	db  *dboard.Dboard
}

// loadConfig reads, validates and normalizes the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

// attachBoards attaches every selected board. The returned func releases
// transports and files.
func attachBoards() ([]board, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	var (
		boards  []board
		closers []func() error
	)
	closeAll := func() {
		for _, fn := range closers {
			if err := fn(); err != nil {
				log.Print("warn", "close: ", err)
			}
		}
	}

	for _, d := range cfg.Dboards {
		if slotSel >= 0 && d.Slot != slotSel {
			continue
		}
		hw, closeHW, err := buildHardware(d)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("slot %d: %w", d.Slot, err)
		}
		closers = append(closers, closeHW)
		boards = append(boards, board{cfg: d, db: dboard.New(d.Slot, hw, d.Options()...)})
	}
	if len(boards) == 0 {
		closeAll()
		return nil, nil, fmt.Errorf("no configured dboard in slot %d", slotSel)
	}
	return boards, closeAll, nil
}

// attachOne attaches exactly one board, the selected or the only one.
func attachOne() (board, func(), error) {
	boards, closeAll, err := attachBoards()
	if err != nil {
		return board{}, nil, err
	}
	if len(boards) > 1 {
		closeAll()
		return board{}, nil, fmt.Errorf("%d dboards configured, select one with --slot", len(boards))
	}
	return boards[0], closeAll, nil
}

// buildHardware assembles the collaborators of one board. The ASIC driver,
// JESD core, synthesizer and phase synchronizer are simulated; register
// spaces move to the Modbus register bridge with the modbus transport.
func buildHardware(d config.DboardConfig) (dboard.Hardware, func() error, error) {
	b := sim.NewBoard()
	hw := dboard.SimHardware(b)

	var closers []func() error
	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}
	fail := func(err error) (dboard.Hardware, func() error, error) {
		_ = closeAll()
		return hw, nil, err
	}

	if d.Transport.Kind == config.TransportModbus {
		bridge, err := regs.NewModbusBridge(regs.ModbusConfig{
			Endpoint: d.Transport.Endpoint,
			Timeout:  time.Duration(d.Transport.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return fail(err)
		}
		closers = append(closers, bridge.Close)
		hw.CPLD = bridge.Space16(d.Transport.CPLDUnitID)
		hw.PhaseDAC = bridge.Space16(d.Transport.DACUnitID)
		hw.Ctrl = bridge.Space32(d.Transport.CoreUnitID)
		hw.EEPROM = nil
	}

	switch d.Power.Kind {
	case config.PowerExpander:
		if d.Power.I2CBus == nil {
			return fail(fmt.Errorf("no i2c bus for slot %d", d.Slot))
		}
		e := &power.Expander{Bus: *d.Power.I2CBus, Addr: d.Power.I2CAddr}
		if err := e.Configure(); err != nil {
			return fail(err)
		}
		hw.Rails = e
	case config.PowerGPIO:
		hw.Rails = power.NewGPIORails(d.Slot)
	}

	if d.EEPROM.Path != "" {
		f, err := os.OpenFile(d.EEPROM.Path, os.O_RDWR, 0)
		if err != nil {
			return fail(fmt.Errorf("user eeprom: %w", err))
		}
		closers = append(closers, f.Close)
		hw.EEPROM = f
	}

	return hw, closeAll, nil
}

// initialize runs the configured bring-up on b.
func initialize(b board) error {
	cc := b.cfg.ClockConfig()
	if err := b.db.Initialize(cc, b.cfg.InitOptions()); err != nil {
		return fmt.Errorf("slot %d: %w", b.cfg.Slot, err)
	}
	fmt.Printf("slot %d: link trained, %s, lane rate %v\n", b.cfg.Slot, cc, b.db.LaneRate())
	return nil
}
