package errors

import (
	stdErrors "errors"
	"fmt"
	"time"
)

// RateLimitError represents a rate limit error, either our own request budget
// or a throttling signal from an upstream API
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
	// Upstream names the throttling service; empty for the local budget
	Upstream string
}

func (e *RateLimitError) Error() string {
	msg := e.Message
	if e.Upstream != "" {
		msg = fmt.Sprintf("%s: %s", e.Upstream, msg)
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	return msg
}

// NewRateLimitError creates a new RateLimitError with the given message
func NewRateLimitError(message string) *RateLimitError {
	return &RateLimitError{Message: message}
}

// NewRateLimitErrorWithRetry creates a RateLimitError carrying a retry hint
func NewRateLimitErrorWithRetry(message string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{Message: message, RetryAfter: retryAfter}
}

// NewUpstreamRateLimitError creates a RateLimitError for a throttled upstream service
func NewUpstreamRateLimitError(service, message string) *RateLimitError {
	return &RateLimitError{Message: message, Upstream: service}
}

// IsRateLimitError reports whether err is a RateLimitError (even when wrapped).
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return stdErrors.As(err, &rlErr)
}

// IsUpstreamRateLimited reports whether err is a RateLimitError raised by an upstream API.
func IsUpstreamRateLimited(err error) bool {
	var rlErr *RateLimitError
	return stdErrors.As(err, &rlErr) && rlErr.Upstream != ""
}
