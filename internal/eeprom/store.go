// internal/eeprom/store.go
package eeprom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sort"
	"sync"
)

// On-EEPROM image:
//
//	magic[4] version[1] count[2] crc32[4] entries...
//	entry: idlen[1] id[idlen] bloblen[4] blob[bloblen]
//
// The image is zero padded to a multiple of the layout alignment.
var magic = [4]byte{'M', 'G', 'U', 'D'}

const (
	version    = 1
	headerSize = 4 + 1 + 2 + 4
	maxIDLen   = 255
)

var (
	ErrCorrupt  = errors.New("eeprom: corrupt user data")
	ErrTooLarge = errors.New("eeprom: user data exceeds EEPROM space")
)

// Store is the in-memory copy of the user data blobs.
type Store struct {
	mu     sync.RWMutex
	layout Layout
	blobs  map[string][]byte
}

func NewStore(l Layout) *Store {
	return &Store{layout: l, blobs: make(map[string][]byte)}
}

// Load parses an EEPROM image. An erased or never written image gives an
// empty store.
func Load(l Layout, image []byte) (*Store, error) {
	s := NewStore(l)
	if blank(image) {
		return s, nil
	}
	blobs, err := decode(image)
	if err != nil {
		return nil, err
	}
	s.blobs = blobs
	return s, nil
}

// Blobs returns a copy of every blob.
func (s *Store) Blobs() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(s.blobs))
	for k, v := range s.blobs {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

// Update merges blobs into the store and returns the new image. Nothing
// changes if the result does not fit.
func (s *Store) Update(blobs map[string][]byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string][]byte, len(s.blobs)+len(blobs))
	for k, v := range s.blobs {
		next[k] = v
	}
	for k, v := range blobs {
		next[k] = append([]byte(nil), v...)
	}
	image, err := encode(next, s.layout)
	if err != nil {
		return nil, err
	}
	s.blobs = next
	return image, nil
}

// Image encodes the current contents.
func (s *Store) Image() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return encode(s.blobs, s.layout)
}

func encode(blobs map[string][]byte, l Layout) ([]byte, error) {
	ids := make([]string, 0, len(blobs))
	for id := range blobs {
		if len(id) == 0 || len(id) > maxIDLen {
			return nil, fmt.Errorf("eeprom: invalid blob id %q", id)
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var body bytes.Buffer
	for _, id := range ids {
		body.WriteByte(byte(len(id)))
		body.WriteString(id)
		binary.Write(&body, binary.LittleEndian, uint32(len(blobs[id])))
		body.Write(blobs[id])
	}

	var out bytes.Buffer
	out.Write(magic[:])
	out.WriteByte(version)
	binary.Write(&out, binary.LittleEndian, uint16(len(ids)))
	binary.Write(&out, binary.LittleEndian, crc32.ChecksumIEEE(body.Bytes()))
	out.Write(body.Bytes())

	n := out.Len()
	if a := l.Alignment; a > 0 && n%a != 0 {
		n += a - n%a
	}
	if l.MaxSize > 0 && n > l.MaxSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, n, l.MaxSize)
	}
	image := make([]byte, n)
	copy(image, out.Bytes())
	return image, nil
}

func decode(image []byte) (map[string][]byte, error) {
	if len(image) < headerSize || !bytes.Equal(image[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if image[4] != version {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, image[4])
	}
	count := int(binary.LittleEndian.Uint16(image[5:]))
	sum := binary.LittleEndian.Uint32(image[7:])

	blobs := make(map[string][]byte, count)
	p := image[headerSize:]
	start := p
	for i := 0; i < count; i++ {
		if len(p) < 1 {
			return nil, fmt.Errorf("%w: truncated entry %d", ErrCorrupt, i)
		}
		idLen := int(p[0])
		if len(p) < 1+idLen+4 {
			return nil, fmt.Errorf("%w: truncated entry %d", ErrCorrupt, i)
		}
		id := string(p[1 : 1+idLen])
		n := int(binary.LittleEndian.Uint32(p[1+idLen:]))
		p = p[1+idLen+4:]
		if n > len(p) {
			return nil, fmt.Errorf("%w: blob %q truncated", ErrCorrupt, id)
		}
		blobs[id] = append([]byte(nil), p[:n]...)
		p = p[n:]
	}
	if crc32.ChecksumIEEE(start[:len(start)-len(p)]) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return blobs, nil
}

func blank(image []byte) bool {
	if len(image) < 4 {
		return true
	}
	for _, b := range image[:4] {
		if b != 0xFF && b != 0x00 {
			return false
		}
	}
	return true
}
