package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for the transport layer.
type Code string

const (
	// CodeNotFound indicates an unknown word, question, match or duel question.
	CodeNotFound Code = "NOT_FOUND"
	// CodeAlreadyDone indicates a lost race that the user should be told about.
	CodeAlreadyDone Code = "ALREADY_DONE"
	// CodeConflict indicates a request that the current state does not allow.
	CodeConflict Code = "CONFLICT"
	// CodeInvalidArgument indicates malformed input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeUnavailable indicates a soft failure of an external collaborator.
	CodeUnavailable Code = "UNAVAILABLE"
	// CodeInternal indicates a broken invariant.
	CodeInternal Code = "INTERNAL"
)

// Error is a coded error carrying an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code and message, so package level
// sentinels work with errors.Is even after Wrap.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates an error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a cause to a sentinel without mutating it.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Cause: cause}
}

// NotFound creates a not-found error.
func NotFound(what string) *Error {
	return New(CodeNotFound, what+" not found")
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries code.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
