// Package errors provides domain-specific error types for the provisioning
// workflow and helpers to classify failures.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of provisioning failure
type Code int

const (
	// ErrUnknown is the zero value for unclassified errors
	ErrUnknown Code = iota

	// ErrConfiguration indicates missing or invalid configuration input
	ErrConfiguration

	// ErrTransport indicates a remote session could not be established
	ErrTransport

	// ErrRemoteExec indicates a remote shell exited non-zero
	ErrRemoteExec

	// ErrRetryExhausted indicates a retried procedure ran out of attempts
	ErrRetryExhausted

	// ErrBackend indicates an external provisioning tool exited non-zero
	ErrBackend
)

// Error is a provisioning error with classification and context
type Error struct {
	// Code identifies the error class
	Code Code

	// Message provides human-readable error details
	Message string

	// Op names the workflow step that failed
	Op string

	// Cause is the underlying error that triggered this one
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Op != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface; two Errors match on Code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a code and message
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithOp attaches a workflow step name to an error
func WithOp(err error, op string) error {
	if err == nil {
		return nil
	}

	e, ok := err.(*Error)
	if !ok {
		return &Error{
			Code:    ErrUnknown,
			Message: err.Error(),
			Op:      op,
			Cause:   err,
		}
	}

	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Op:      op,
		Cause:   e.Cause,
	}
}

// GetCode returns the error code from an error chain
func GetCode(err error) Code {
	if err == nil {
		return ErrUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// IsConfiguration returns true if the error is a configuration error
func IsConfiguration(err error) bool {
	return GetCode(err) == ErrConfiguration
}

// IsBackend returns true if the error came from an external tool
func IsBackend(err error) bool {
	return GetCode(err) == ErrBackend
}

// IsRetryExhausted returns true if a retried procedure gave up
func IsRetryExhausted(err error) bool {
	return GetCode(err) == ErrRetryExhausted
}

// IsRetryable returns true if the error class is worth another attempt
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	code := GetCode(err)
	return code == ErrTransport || code == ErrRemoteExec
}
