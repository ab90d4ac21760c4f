package errors

import "fmt"

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrIllegalTransition
	ErrNotActive
	ErrOutOfWindow
	ErrInvalidSelection
	ErrUnauthorized
	ErrPermissionDenied
)

// Error is an application-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func IllegalTransition(msg string) *Error {
	return &Error{Kind: ErrIllegalTransition, Message: msg}
}

func IllegalTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrIllegalTransition, Message: fmt.Sprintf(format, args...)}
}

func NotActive(msg string) *Error {
	return &Error{Kind: ErrNotActive, Message: msg}
}

func OutOfWindow(msg string) *Error {
	return &Error{Kind: ErrOutOfWindow, Message: msg}
}

func InvalidSelection(msg string) *Error {
	return &Error{Kind: ErrInvalidSelection, Message: msg}
}

func InvalidSelectionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidSelection, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

func PermissionDenied(msg string) *Error {
	return &Error{Kind: ErrPermissionDenied, Message: msg}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the Kind of err if it is an application Error,
// and ErrInternal otherwise.
func KindOf(err error) Kind {
	if appErr, ok := err.(*Error); ok {
		return appErr.Kind
	}
	return ErrInternal
}
