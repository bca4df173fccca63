package collection

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code and a message.
// Two *Error values match with errors.Is when their codes are equal, so
// callers can test against the sentinels below regardless of the message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("CollectionError (code %s): %s", e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinels for errors.Is
var (
	ErrIndexOutOfRange = NewError(RetCIndexOutOfRange, "index out of range")
	ErrTypeMismatch    = NewError(RetCTypeMismatch, "element type mismatch")
	ErrNotFound        = NewError(RetCNotFound, "element not found")
)

func errIndexOutOfRange(index, length int) *Error {
	return NewError(RetCIndexOutOfRange, fmt.Sprintf("index %d out of range [0, %d]", index, length))
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Operation applied.
	RetCIndexOutOfRange                // 1: Index outside the valid range of the storage.
	RetCTypeMismatch                   // 2: Value of the wrong dynamic type (untyped adapter).
	RetCNotFound                       // 3: Element not found.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCIndexOutOfRange:
		return "IndexOutOfRange"
	case RetCTypeMismatch:
		return "TypeMismatch"
	case RetCNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Listener failures
// --------------------------------------------------------------------------

// ListenerError describes a listener that panicked during notification.
// It is only ever handed to the handler set with WithErrorHandler.
type ListenerError struct {
	List     string // name of the list that fired
	Listener uint64 // subscription id
	Value    any    // value passed to panic
	Stack    []byte
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("list %s: listener %d panicked: %v", e.List, e.Listener, e.Value)
}
