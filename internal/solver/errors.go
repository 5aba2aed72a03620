package solver

import (
	"errors"
	"fmt"
)

// Sentinel errors used to classify adapter failures. Match with
// errors.Is; the concrete error in the chain is usually an *Error
// carrying backend and operation context.
var (
	// ErrUnavailable means the backend cannot run at all: missing or
	// non-executable binary. It is fatal for a whole sweep, unlike a
	// transient StatusError outcome on a single call.
	ErrUnavailable = errors.New("solver unavailable")
	// ErrUnknownBackend means Open was called with an unregistered name.
	ErrUnknownBackend = errors.New("unknown solver backend")
)

// Error is an adapter error with backend and operation context.
type Error struct {
	// Message describes the failure.
	Message string
	// Op is the operation that failed, e.g. "Open" or "Solve".
	Op string
	// Backend names the backend involved, if any.
	Backend string
	// Err is the underlying error, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Backend != "" && e.Op != "":
		prefix = fmt.Sprintf("solver %s: %s", e.Backend, e.Op)
	case e.Backend != "":
		prefix = "solver " + e.Backend
	case e.Op != "":
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOp adds operation context to the error.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// WithBackend adds backend context to the error.
func (e *Error) WithBackend(backend string) *Error {
	e.Backend = backend
	return e
}

// NewErrorf creates a new adapter error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapErrorf wraps an existing error with formatted context.
// If err is nil, WrapErrorf returns nil.
func WrapErrorf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
