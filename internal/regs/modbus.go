// internal/regs/modbus.go
package regs

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ModbusBridge reaches a board's registers through a Modbus TCP register
// bridge. Each register space lives behind its own unit id; a 16-bit
// register is one holding register, a 32-bit register is two consecutive
// holding registers, high word first.
//
// Requests are serialized because SlaveId is switched per request.
type ModbusBridge struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// ModbusConfig is the minimal transport config.
type ModbusConfig struct {
	Endpoint string
	Timeout  time.Duration
}

func NewModbusBridge(cfg ModbusConfig) (*ModbusBridge, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("regs modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("regs modbus: connect %s: %w", cfg.Endpoint, err)
	}

	return &ModbusBridge{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func (b *ModbusBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handler.Close()
}

// Space16 returns the 16-bit register space behind unitID.
func (b *ModbusBridge) Space16(unitID uint8) Regs16 { return &modbusSpace{b: b, unitID: unitID} }

// Space32 returns the 32-bit register space behind unitID.
func (b *ModbusBridge) Space32(unitID uint8) Regs32 { return &modbusSpace{b: b, unitID: unitID} }

type modbusSpace struct {
	b      *ModbusBridge
	unitID uint8
}

func holding(addr uint32) (uint16, error) {
	if addr > 0xFFFE {
		return 0, fmt.Errorf("regs modbus: address 0x%x out of range", addr)
	}
	return uint16(addr), nil
}

func (s *modbusSpace) read(addr uint32, qty uint16) ([]byte, error) {
	a, err := holding(addr)
	if err != nil {
		return nil, err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	s.b.handler.SlaveId = s.unitID
	res, err := s.b.client.ReadHoldingRegisters(a, qty)
	if err != nil {
		return nil, fmt.Errorf("regs modbus: unit=%d read 0x%04x: %w", s.unitID, a, err)
	}
	if len(res) != int(qty)*2 {
		return nil, fmt.Errorf("regs modbus: unit=%d read 0x%04x: short payload %d", s.unitID, a, len(res))
	}
	return res, nil
}

func (s *modbusSpace) write(addr uint32, payload []byte) error {
	a, err := holding(addr)
	if err != nil {
		return err
	}

	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	s.b.handler.SlaveId = s.unitID
	qty := uint16(len(payload) / 2)
	if qty == 1 {
		_, err = s.b.client.WriteSingleRegister(a, binary.BigEndian.Uint16(payload))
	} else {
		_, err = s.b.client.WriteMultipleRegisters(a, qty, payload)
	}
	if err != nil {
		return fmt.Errorf("regs modbus: unit=%d write 0x%04x: %w", s.unitID, a, err)
	}
	return nil
}

func (s *modbusSpace) Peek16(addr uint32) (uint16, error) {
	res, err := s.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(res), nil
}

func (s *modbusSpace) Poke16(addr uint32, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return s.write(addr, b[:])
}

func (s *modbusSpace) Peek32(addr uint32) (uint32, error) {
	res, err := s.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(res), nil
}

func (s *modbusSpace) Poke32(addr uint32, v uint32) error {
	return s.write(addr, packRegisters32(v))
}

// packRegisters32 splits v into two big-endian holding registers, high word first.
func packRegisters32(v uint32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out
}
