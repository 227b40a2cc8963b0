// Package domain provides the canonical error taxonomy for the pack.
// Errors are classified at the boundary where a remote call returns, so
// downstream code can switch on concrete types instead of duck-typing
// status fields out of opaque error values.
package domain

import (
	"fmt"
	"net/http"
)

// ValidationError reports a bad invocation rejected before any network
// call is made. Validation failures are always safe to show to the user.
type ValidationError struct {
	// Message is the human-readable rejection reason.
	Message string

	// Param is the parameter that caused the rejection, if known.
	Param string
}

func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
	}
	return e.Message
}

// ErrValidation creates a validation error.
func ErrValidation(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// WithParam attaches the offending parameter name.
func (e *ValidationError) WithParam(param string) *ValidationError {
	e.Param = param
	return e
}

// RemoteError is a non-2xx response from the remote API whose body carried
// a parseable error object.
type RemoteError struct {
	// Status is the HTTP status code of the failed response.
	Status int

	// Type is the API's error type string (e.g. "invalid_request_error").
	Type string

	// Code is the API's machine-readable error code (e.g. "insufficient_quota").
	Code string

	// Message is the API's error message, verbatim.
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Message)
}

// NetworkError is a transport-level failure: the request never produced a
// response with a status code. It always propagates unchanged.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UserVisibleError carries a message that the host may render directly in a
// document cell. Everything else is surfaced through the host's generic
// error-reporting path.
type UserVisibleError struct {
	// Message is shown to the user verbatim.
	Message string

	// Status is the HTTP status the harness responds with. Defaults to 400
	// when zero.
	Status int

	// Err is the underlying classified error, if any.
	Err error
}

func (e *UserVisibleError) Error() string {
	return e.Message
}

func (e *UserVisibleError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status to respond with for this error.
func (e *UserVisibleError) HTTPStatusCode() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusBadRequest
}
