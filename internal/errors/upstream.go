package errors

import (
	stdErrors "errors"
	"fmt"
)

// UpstreamError represents an unreachable or failing upstream API
type UpstreamError struct {
	Service    string
	StatusCode int    // 0 for transport failures
	Message    string // Error message from the upstream API if available
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s unavailable", e.Service)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		return msg + ": " + e.Message
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamStatusError creates an UpstreamError for a non-success HTTP response
func NewUpstreamStatusError(service string, statusCode int, message string) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode, Message: message}
}

// NewUpstreamTransportError creates an UpstreamError for a failed round trip
func NewUpstreamTransportError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

// IsUpstreamError reports whether err is an UpstreamError (even when wrapped).
func IsUpstreamError(err error) bool {
	var upErr *UpstreamError
	return stdErrors.As(err, &upErr)
}

// SchemaMismatchError is returned when the document database rejects a property
type SchemaMismatchError struct {
	Property string // empty when the upstream message does not name one
	Message  string
}

func (e *SchemaMismatchError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("schema mismatch on property %q: %s", e.Property, e.Message)
	}
	return "schema mismatch: " + e.Message
}

// NewSchemaMismatchError creates a new SchemaMismatchError
func NewSchemaMismatchError(property, message string) *SchemaMismatchError {
	return &SchemaMismatchError{Property: property, Message: message}
}

// IsSchemaMismatchError reports whether err is a SchemaMismatchError (even when wrapped).
func IsSchemaMismatchError(err error) bool {
	var smErr *SchemaMismatchError
	return stdErrors.As(err, &smErr)
}
