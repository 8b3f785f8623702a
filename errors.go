package mediagraph

import (
	"errors"

	"github.com/graphkit/mediagraph/internal/errcode"
)

// Code re-exports the internal result-code taxonomy (spec.md §7) so callers
// outside the module can compare against it without reaching into
// internal/errcode.
type Code = errcode.Code

const (
	CodeOK           = errcode.OK
	CodeInvalid      = errcode.Invalid
	CodeNotSupported = errcode.NotSupported
	CodeBusy         = errcode.Busy
	CodePipe         = errcode.Pipe
	CodeIO           = errcode.IO
	CodeTimeout      = errcode.Timeout
	CodeExist        = errcode.Exist
	CodeNotFound     = errcode.NotFound
	CodeAgain        = errcode.Again
	CodeAsync        = errcode.Async
)

// Error is a structured graph-operation error: an operation name, a node
// or port id where applicable, a Code, and an optional wrapped cause.
type Error struct {
	Op     string
	NodeID NodeID
	PortID PortID
	Code   Code
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	inner := e.Msg
	if inner == "" && e.Inner != nil {
		inner = e.Inner.Error()
	}
	s := e.Op + ": " + e.Code.String()
	if e.NodeID != InvalidNodeID {
		s += " node=" + e.NodeID.String()
	}
	if e.PortID != InvalidPortID {
		s += " port=" + e.PortID.String()
	}
	if inner != "" {
		s += ": " + inner
	}
	return s
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError constructs an *Error with no node/port context.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg, NodeID: InvalidNodeID, PortID: InvalidPortID}
}

// NewNodeError constructs an *Error scoped to a node.
func NewNodeError(op string, id NodeID, code Code, msg string) *Error {
	return &Error{Op: op, NodeID: id, PortID: InvalidPortID, Code: code, Msg: msg}
}

// NewPortError constructs an *Error scoped to a port.
func NewPortError(op string, node NodeID, port PortID, code Code, msg string) *Error {
	return &Error{Op: op, NodeID: node, PortID: port, Code: code, Msg: msg}
}

// WrapError wraps inner under op, preserving its Code if it is already a
// structured *Error or an internal/errcode *Error; anything else becomes
// CodeIO.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if e, ok := inner.(*Error); ok {
		return &Error{Op: op, NodeID: e.NodeID, PortID: e.PortID, Code: e.Code, Msg: e.Msg, Inner: e.Inner}
	}
	if e, ok := inner.(*errcode.Error); ok {
		return &Error{Op: op, NodeID: InvalidNodeID, PortID: InvalidPortID, Code: e.Code, Msg: e.Msg, Inner: inner}
	}
	return &Error{Op: op, NodeID: InvalidNodeID, PortID: InvalidPortID, Code: CodeIO, Inner: inner}
}

// HasCode reports whether err is (or wraps) an *Error with the given Code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return errcode.HasCode(err, code)
}

var (
	// ErrEmpty mirrors internal/bufring.ErrEmpty for callers that only see
	// the root package (e.g. Stream.DequeueBuffer on an empty queue).
	ErrEmpty = NewError("queue", CodePipe, "ring is empty")
)
