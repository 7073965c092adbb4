// internal/fault/fault.go
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a bring-up failure.
// Every Kind is terminal for the attempt that produced it.
type Kind uint16

const (
	// Hardware is a collaborator failure that fits no narrower kind.
	Hardware Kind = iota + 1
	Validation
	NotReady
	LockTimeout
	LinkVerification
	ResidualOffset
	Transport
	Busy
)

var kindNames = map[Kind]string{
	Hardware:         "hardware fault",
	Validation:       "validation fault",
	NotReady:         "not ready",
	LockTimeout:      "lock timeout",
	LinkVerification: "link verification failed",
	ResidualOffset:   "residual offset too large",
	Transport:        "transport fault",
	Busy:             "busy",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("fault(%d)", uint16(k))
}

// Error lets a bare Kind act as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Fault is the structured error returned by every bring-up operation.
type Fault struct {
	Kind Kind
	Op   string

	// Checks names the failed verification checks (LinkVerification only).
	Checks []string

	// Detail holds decoded diagnostic fields, e.g. status bits.
	Detail []string

	Err error
}

func (f *Fault) Error() string {
	var b strings.Builder
	if f.Op != "" {
		b.WriteString(f.Op)
		b.WriteString(": ")
	}
	b.WriteString(f.Kind.String())
	if len(f.Checks) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(f.Checks, ", "))
		b.WriteString("]")
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Fault) Unwrap() error { return f.Err }

// Is matches a Fault against its Kind.
func (f *Fault) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == f.Kind
}

// Code is the numeric code published in the device status block.
func (f *Fault) Code() uint16 { return uint16(f.Kind) }

// New builds a Fault with a formatted cause.
func New(kind Kind, op string, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err stays nil.
// An err that already carries a Fault keeps its original kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return err
	}
	return &Fault{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind carried by err, or 0 if there is none.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
