package store

import (
	"errors"
	"fmt"
)

// Kind classifies store and export failures.
type Kind int

const (
	// InvalidArgument is an out-of-enum stage value; it can only come from a corrupted control.
	InvalidArgument Kind = iota + 1
	// IndexOutOfRange is a stale or invalid position (or id) reference.
	IndexOutOfRange
	// CapacityExceeded is an insert beyond MaxRecords. It is user-facing.
	CapacityExceeded
	// ClipboardUnavailable is an export write failure. It is non-fatal.
	ClipboardUnavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case IndexOutOfRange:
		return "index out of range"
	case CapacityExceeded:
		return "capacity exceeded"
	case ClipboardUnavailable:
		return "clipboard unavailable"
	default:
		return "unknown"
	}
}

// Defensive reports whether the kind indicates a view/model synchronization bug
// rather than a user mistake.
func (k Kind) Defensive() bool {
	return k == InvalidArgument || k == IndexOutOfRange
}

var (
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

func (k Kind) sentinel() error {
	switch k {
	case InvalidArgument:
		return ErrInvalidArgument
	case IndexOutOfRange:
		return ErrIndexOutOfRange
	case CapacityExceeded:
		return ErrCapacityExceeded
	case ClipboardUnavailable:
		return ErrClipboardUnavailable
	default:
		return nil
	}
}

// Error is returned by the partial store operations.
type Error struct {
	Kind Kind
	Op   string
	// Pos is the offending position, or -1 when the operation is not position-addressed.
	Pos int
	ID  string
	Err error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	switch {
	case e.ID != "":
		msg += fmt.Sprintf(" (id %s)", e.ID)
	case e.Pos >= 0:
		msg += fmt.Sprintf(" (position %d)", e.Pos)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels, so errors.Is(err, ErrCapacityExceeded) works.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of err, or 0 when err is not a store error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func errAt(op string, k Kind, pos int) error {
	return &Error{Kind: k, Op: op, Pos: pos}
}

func errID(op string, k Kind, id string) error {
	return &Error{Kind: k, Op: op, Pos: -1, ID: id}
}
