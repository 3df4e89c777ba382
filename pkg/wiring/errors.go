package wiring

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPlacement is returned when a wire or component would use a
	// negative coordinate, a zero length, or an occupied origin. Nothing is
	// mutated when it is returned.
	ErrInvalidPlacement = errors.New("wiring: invalid placement")

	// ErrCannotMove is returned by Finalize when the dragged elements cannot
	// be dropped at their current position. The elements are restored to
	// where the drag started.
	ErrCannotMove = errors.New("wiring: cannot move elements here")

	// ErrSessionClosed is returned when a finalized MoveSession is used.
	ErrSessionClosed = errors.New("wiring: move session closed")

	// ErrUnknownComponent is returned when an operation names a component
	// that is not on the board.
	ErrUnknownComponent = errors.New("wiring: component not on board")
)

// WidthMismatchError reports a Link whose ports disagree on bit width. The
// Link stays intact and is listed by Board.BadLinks.
type WidthMismatchError struct {
	Link   int
	Widths []int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("wiring: link %d joins incompatible bit widths %v", e.Link, e.Widths)
}

// InvariantError is a programming-logic failure. It is raised with panic
// and never returned.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("wiring: invariant violated in %s: %s", e.Op, e.Detail)
}

func invariant(op, format string, args ...any) {
	panic(&InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)})
}
