// Package fault defines the two non-diagnostic failure kinds of the
// descriptor layer.
//
// A PreconditionError means the graph was built in the wrong order
// (initialized twice, parameter index mismatch, accessor copied on its own).
// It is an internal error: it never describes a problem in the analysed
// declarations and is raised by panicking.
//
// An UnsupportedError marks operations kept for old call sites that are
// deliberately not implemented for some descriptor kinds.
//
// Problems in user declarations go through internal/diag instead.
package fault

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/xerrors"
)

// InternalError is an implementation error. It must propagate up the call
// stack and is never turned into a diagnostic.
type InternalError interface {
	error
	IsInternalError()
}

// PreconditionError reports a construction-order bug.
type PreconditionError struct {
	Message string
	Stack   []byte
	frame   xerrors.Frame
}

var _ InternalError = &PreconditionError{}

func (e *PreconditionError) Error() string {
	return "precondition violated: " + e.Message
}

func (e *PreconditionError) IsInternalError() {}

func (e *PreconditionError) FormatError(p xerrors.Printer) error {
	p.Print(e.Error())
	e.frame.Format(p)
	return nil
}

func (e *PreconditionError) Format(s fmt.State, v rune) { xerrors.FormatError(e, s, v) }

// Precondition builds a PreconditionError that records the caller.
func Precondition(format string, args ...any) *PreconditionError {
	return &PreconditionError{
		Message: fmt.Sprintf(format, args...),
		Stack:   debug.Stack(),
		frame:   xerrors.Caller(1),
	}
}

// Check panics with a PreconditionError when cond is false.
func Check(cond bool, format string, args ...any) {
	if cond {
		return
	}
	err := &PreconditionError{
		Message: fmt.Sprintf(format, args...),
		Stack:   debug.Stack(),
		frame:   xerrors.Caller(1),
	}
	panic(err)
}

// UnsupportedError marks an operation that is intentionally not implemented
// for the receiver it was called on.
type UnsupportedError struct {
	Operation string
	Reason    string
	frame     xerrors.Frame
}

func (e *UnsupportedError) Error() string {
	if e.Reason == "" {
		return "unsupported operation: " + e.Operation
	}
	return fmt.Sprintf("unsupported operation: %s: %s", e.Operation, e.Reason)
}

// IsUnsupported lets callers tell "not implemented here" apart from other
// failures without importing this package's concrete types.
func (e *UnsupportedError) IsUnsupported() {}

func (e *UnsupportedError) FormatError(p xerrors.Printer) error {
	p.Print(e.Error())
	e.frame.Format(p)
	return nil
}

func (e *UnsupportedError) Format(s fmt.State, v rune) { xerrors.FormatError(e, s, v) }

// Unsupported builds an UnsupportedError that records the caller.
func Unsupported(operation, reason string) *UnsupportedError {
	return &UnsupportedError{
		Operation: operation,
		Reason:    reason,
		frame:     xerrors.Caller(1),
	}
}

// IsInternal reports whether err or anything it wraps is an InternalError.
func IsInternal(err error) bool {
	switch err := err.(type) {
	case InternalError:
		return true
	case xerrors.Wrapper:
		return IsInternal(err.Unwrap())
	default:
		return false
	}
}

// IsUnsupported reports whether err or anything it wraps is an UnsupportedError.
func IsUnsupported(err error) bool {
	switch err := err.(type) {
	case interface{ IsUnsupported() }:
		return true
	case xerrors.Wrapper:
		return IsUnsupported(err.Unwrap())
	default:
		return false
	}
}

// Catch runs fn and converts a panic carrying a PreconditionError or an
// UnsupportedError into a returned error. Any other panic is re-raised.
func Catch(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch e := r.(type) {
		case *PreconditionError:
			err = e
		case *UnsupportedError:
			err = e
		default:
			panic(r)
		}
	}()
	fn()
	return nil
}
