// Package errclass defines stable, machine-readable error classes.
package errclass

import "fmt"

// Error is a coded error. Two errors match with errors.Is when their codes match.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return e.Code
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a new Error with the same Code carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

var (
	ErrInspectionNotFound = &Error{Code: "E_INSPECTION_NOT_FOUND"}
	ErrSignaturesMissing  = &Error{Code: "E_SIGNATURES_MISSING"}
	ErrRecordInvalid      = &Error{Code: "E_RECORD_INVALID"}
	ErrLinkNotFound       = &Error{Code: "E_LINK_NOT_FOUND"}
	ErrInvalidArgument    = &Error{Code: "E_INVALID_ARGUMENT"}
	// ErrUnavailable marks transient collaborator failures. Callers may retry.
	ErrUnavailable      = &Error{Code: "E_UNAVAILABLE"}
	ErrGenerationFailed = &Error{Code: "E_GENERATION_FAILED"}
)
