// internal/eeprom/writeback.go
package eeprom

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
)

// Device is the raw EEPROM (the nvmem file or an in-memory image).
type Device interface {
	io.ReaderAt
	io.WriterAt
}

// ReadImage reads the user region described by l.
func ReadImage(d Device, l Layout) ([]byte, error) {
	buf := make([]byte, l.MaxSize)
	n, err := d.ReadAt(buf, l.Offset)
	if err != nil && err != io.EOF {
		return nil, fault.Wrap(fault.Hardware, "eeprom.ReadImage", err)
	}
	return buf[:n], nil
}

// Writer copies images to the device in the background. At most one copy
// runs at a time.
type Writer struct {
	dev    Device
	offset int64

	busy atomic.Bool
	wg   sync.WaitGroup

	mu   sync.Mutex
	last error
}

func NewWriter(d Device, l Layout) *Writer {
	return &Writer{dev: d, offset: l.Offset}
}

// TryAcquire claims the writer. It must be followed by Start or Release.
func (w *Writer) TryAcquire() error {
	if !w.busy.CompareAndSwap(false, true) {
		log.Print("warn", "another EEPROM write-back is already active")
		return fault.New(fault.Busy, "eeprom.Write", "write-back in progress")
	}
	return nil
}

// Release gives up a claim that did not start a copy.
func (w *Writer) Release() { w.busy.Store(false) }

// Start copies image in a new goroutine. The writer must be acquired.
func (w *Writer) Start(image []byte) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.busy.Store(false)

		log.Printf("debug", "writing %d bytes of user data at offset %d", len(image), w.offset)
		_, err := w.dev.WriteAt(image, w.offset)
		if err != nil {
			err = fmt.Errorf("eeprom write-back: %w", err)
			log.Print("err", err)
		} else {
			log.Print("debug", "EEPROM write complete")
		}
		w.mu.Lock()
		w.last = err
		w.mu.Unlock()
	}()
}

// Busy reports whether a copy is in flight.
func (w *Writer) Busy() bool { return w.busy.Load() }

// Wait blocks until the running copy finishes and returns its result.
func (w *Writer) Wait() error {
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// MemDevice is an in-memory EEPROM. Gate, when set, blocks every write
// until it is closed.
type MemDevice struct {
	mu   sync.Mutex
	Data []byte
	Gate chan struct{}
}

func NewMemDevice(size int) *MemDevice {
	d := &MemDevice{Data: make([]byte, size)}
	for i := range d.Data {
		d.Data[i] = 0xFF
	}
	return d
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if off >= int64(len(d.Data)) {
		return 0, io.EOF
	}
	n := copy(p, d.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	if d.Gate != nil {
		<-d.Gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if off+int64(len(p)) > int64(len(d.Data)) {
		return 0, fmt.Errorf("mem eeprom: write past end (%d+%d > %d)", off, len(p), len(d.Data))
	}
	return copy(d.Data[off:], p), nil
}
