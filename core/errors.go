package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// TransientError marks a backend fault (network, connection, timeout) that a
// caller may retry. Non-idempotent operations must either retry or surface it;
// swallowing it silently is a correctness bug.
type TransientError struct {
	Err error
}

func NewTransientError(err error, msg string) error {
	return &TransientError{Err: errors.Wrap(err, msg)}
}

func (err TransientError) Error() string {
	return err.Err.Error()
}

func (err TransientError) Unwrap() error { return err.Err }

func IsTransient(err error) bool {
	_, ok := errors.Cause(err).(*TransientError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
