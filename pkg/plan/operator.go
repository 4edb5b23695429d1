// Package plan implements the pull-based operator trees queries execute
// as. An operator produces rows on demand: Open prepares it, each Next
// yields one row until the operator reports exhaustion, Close releases
// whatever Open acquired.
package plan

import (
	"errors"
	"fmt"

	"github.com/quarrydb/quarry/pkg/database"
)

// ErrPrecondition is returned when the open/next/close protocol is
// violated: Next before Open, a second Open, or any use after Close.
var ErrPrecondition = errors.New("operator protocol violation")

// Operator is one node of an executable plan.
//
// The protocol is Open once, Next until it returns (nil, nil), then
// Close once. Exhaustion is sticky: once an operator reports it, every
// further Next reports it again. An Open that fails closes whatever it
// had already opened. Close is idempotent, works on operators that were
// never opened, and is terminal; a closed operator cannot be reopened.
type Operator interface {
	Open() error
	// Next returns the next row, or (nil, nil) when the operator is
	// exhausted.
	Next() (database.Row, error)
	Close() error
	// Schema describes the rows Next produces. It is valid before Open.
	Schema() *database.Schema
	Children() []Operator
	Explain() string
}

// lifecycle tracks where an operator is in the open/next/close protocol.
// Operators embed one and call the check helpers at their entry points.
type lifecycle struct {
	opened bool
	closed bool
	done   bool
}

func (l *lifecycle) canOpen(name string) error {
	if l.closed {
		return fmt.Errorf("%w: %s cannot be reopened after close", ErrPrecondition, name)
	}
	if l.opened {
		return fmt.Errorf("%w: %s is already open", ErrPrecondition, name)
	}
	return nil
}

func (l *lifecycle) markOpen() { l.opened = true }

func (l *lifecycle) requireOpen(name string) error {
	if !l.opened || l.closed {
		return fmt.Errorf("%w: %s is not open", ErrPrecondition, name)
	}
	return nil
}

func (l *lifecycle) exhausted() bool { return l.done }

func (l *lifecycle) markDone() { l.done = true }

// markClosed marks the operator closed and reports whether it already
// was, so Close can bail out without releasing anything twice.
func (l *lifecycle) markClosed() bool {
	if l.closed {
		return true
	}
	l.closed = true
	return false
}
