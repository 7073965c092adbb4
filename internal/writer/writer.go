// internal/writer/writer.go
package writer

import (
	"errors"
	"strings"

	"github.com/tamzrod/dboard-bringup/internal/status"
)

// fanout delivers every snapshot to all of its writers and reports the
// failures together.
type fanout []StatusWriter

// New combines writers. Nil writers are skipped; New returns nil when no
// writer remains.
func New(writers ...StatusWriter) StatusWriter {
	var f fanout
	for _, w := range writers {
		if w != nil {
			f = append(f, w)
		}
	}
	switch len(f) {
	case 0:
		return nil
	case 1:
		return f[0]
	}
	return f
}

func (f fanout) WriteStatus(s status.Snapshot) error {
	var errs []string
	for _, w := range f {
		if err := w.WriteStatus(s); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
