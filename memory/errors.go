package memory

import "errors"

// ErrorType represents the category of a store error.
type ErrorType string

const (
	ErrorTypeNotInitialized     ErrorType = "not_initialized"
	ErrorTypeBusy               ErrorType = "busy"
	ErrorTypeSchemaIncompatible ErrorType = "schema_incompatible"
	ErrorTypeMigration          ErrorType = "migration"
	ErrorTypeIO                 ErrorType = "io"
	ErrorTypeInvalid            ErrorType = "invalid"
)

// Error is a store-neutral categorized error.
type Error struct {
	Type      ErrorType
	Message   string
	Retryable bool
	Err       error // original underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(typ ErrorType, msg string, err error) *Error {
	return &Error{Type: typ, Message: msg, Err: err}
}

// errNotInitialized is returned by every data operation invoked before
// Initialize or after Close.
func errNotInitialized(scope Scope) *Error {
	return &Error{
		Type:    ErrorTypeNotInitialized,
		Message: "memory store (" + string(scope) + ") is not initialized",
	}
}

// IsNotInitialized checks whether the error is a lifecycle violation.
func IsNotInitialized(err error) bool {
	return isType(err, ErrorTypeNotInitialized)
}

// IsBusy checks whether the error is retryable lock contention.
func IsBusy(err error) bool {
	return isType(err, ErrorTypeBusy)
}

// IsSchemaIncompatible checks whether the on-disk schema is newer than this
// build understands.
func IsSchemaIncompatible(err error) bool {
	return isType(err, ErrorTypeSchemaIncompatible)
}

func isType(err error, typ ErrorType) bool {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Type == typ
	}
	return false
}
