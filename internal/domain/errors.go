/**
 * @description
 * Error taxonomy shared by the service and API layers. Each error carries a
 * kind (which the API layer maps to an HTTP status) and a step label naming
 * the operation stage that failed, so handlers can log a structured
 * step/message pair.
 */
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure for HTTP status mapping.
type ErrorKind string

const (
	// ErrInvalidArgument is malformed or missing required input.
	ErrInvalidArgument ErrorKind = "invalid_argument"
	// ErrUnauthenticated is a missing or invalid bearer credential.
	ErrUnauthenticated ErrorKind = "unauthenticated"
	// ErrUnauthorized is a valid identity with insufficient role.
	ErrUnauthorized ErrorKind = "unauthorized"
	// ErrUpstream is a failed payment, identity, or email provider call.
	ErrUpstream ErrorKind = "upstream"
	// ErrPersistence is a failed storage read or write.
	ErrPersistence ErrorKind = "persistence"
)

// Error is a classified service error with a step label.
type Error struct {
	Kind    ErrorKind
	Step    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E creates a classified error without an underlying cause.
func E(kind ErrorKind, step, message string) *Error {
	return &Error{Kind: kind, Step: step, Message: message}
}

// WrapE creates a classified error wrapping an underlying cause.
func WrapE(kind ErrorKind, step, message string, err error) *Error {
	return &Error{Kind: kind, Step: step, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// treated as upstream failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUpstream
}

// StepOf extracts the step label from an error chain, or "unknown".
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return "unknown"
}
