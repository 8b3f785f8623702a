// Package errcode defines the structured error taxonomy shared across the
// module. It lives under internal so that both the root package and the
// internal/ leaf packages (paramstore, bufring, ...) can construct and
// compare errors without an import cycle back to the root package.
package errcode

import "fmt"

// Code enumerates the result codes the original's operations return in
// place of POSIX errno values (Invalid=-EINVAL, NotSupported=-ENOTSUP, and
// so on), named after their meaning rather than kept as bare negative ints.
type Code int

const (
	OK Code = iota
	Invalid
	NotSupported
	Busy
	Pipe // EPIPE: queue is empty/closed at the wrong time
	IO
	Timeout
	Exist
	NotFound
	Again
	Async // operation accepted, completion pending (seq-numbered)
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case Invalid:
		return "Invalid"
	case NotSupported:
		return "NotSupported"
	case Busy:
		return "Busy"
	case Pipe:
		return "Pipe"
	case IO:
		return "IO"
	case Timeout:
		return "Timeout"
	case Exist:
		return "Exist"
	case NotFound:
		return "NotFound"
	case Again:
		return "Again"
	case Async:
		return "Async"
	default:
		return "Unknown"
	}
}

// Error is the structured error type threaded through the scheduler, param
// store, and client APIs: an operation name, a Code, and an optional
// wrapped cause.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
	}
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Code, so callers can
// write errors.Is(err, errcode.New("", errcode.Invalid, "")) or compare via
// errcode.HasCode(err, errcode.Invalid).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New constructs an *Error.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// Wrap constructs an *Error with an underlying cause.
func Wrap(op string, code Code, inner error) *Error {
	return &Error{Op: op, Code: code, Inner: inner}
}

// HasCode reports whether err is (or wraps) an *Error with the given Code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
