// internal/eeprom/userdata.go
package eeprom

import (
	"github.com/platinasystems/log"

	"github.com/tamzrod/dboard-bringup/internal/fault"
)

// UserData is the user region of one board's EEPROM.
type UserData struct {
	Layout Layout
	store  *Store
	writer *Writer
}

// Open finds the layout for the board revision and loads the stored blobs.
func Open(d Device, rev int) (*UserData, error) {
	const op = "eeprom.Open"
	l, err := LayoutFor(rev)
	if err != nil {
		return nil, err
	}
	image, err := ReadImage(d, l)
	if err != nil {
		return nil, err
	}
	s, err := Load(l, image)
	if err != nil {
		return nil, fault.Wrap(fault.Hardware, op, err)
	}
	log.Printf("debug", "user EEPROM: %d blobs, offset %d, max %d bytes", len(s.blobs), l.Offset, l.MaxSize)
	return &UserData{Layout: l, store: s, writer: NewWriter(d, l)}, nil
}

// Blobs returns the current blobs, including ones not yet written back.
func (u *UserData) Blobs() map[string][]byte { return u.store.Blobs() }

// Set updates the blobs and starts a background write-back. It fails with
// fault.Busy while a previous write-back is still running.
func (u *UserData) Set(blobs map[string][]byte) error {
	const op = "eeprom.Set"
	if err := u.writer.TryAcquire(); err != nil {
		return err
	}
	image, err := u.store.Update(blobs)
	if err != nil {
		u.writer.Release()
		return fault.Wrap(fault.Validation, op, err)
	}
	u.writer.Start(image)
	return nil
}

// Writing reports whether a write-back is in flight.
func (u *UserData) Writing() bool { return u.writer.Busy() }

// Wait blocks until the last write-back finished.
func (u *UserData) Wait() error { return u.writer.Wait() }
