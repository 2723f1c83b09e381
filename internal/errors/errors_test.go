package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("slow down")

	if err.Error() != "slow down" {
		t.Fatalf("Error message = %q, want %q", err.Error(), "slow down")
	}

	if !IsRateLimitError(err) {
		t.Fatalf("IsRateLimitError returned false for RateLimitError")
	}

	if IsUpstreamRateLimited(err) {
		t.Fatalf("IsUpstreamRateLimited returned true for a local rate limit")
	}

	wrapped := stdErrors.Join(err)
	if !IsRateLimitError(wrapped) {
		t.Fatalf("IsRateLimitError returned false for wrapped RateLimitError")
	}
}

func TestRateLimitErrorWithRetry(t *testing.T) {
	err := NewRateLimitErrorWithRetry("too many requests", 2*time.Minute)

	expected := "too many requests (retry after 2m0s)"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if err.RetryAfter.Minutes() != 2.0 {
		t.Fatalf("RetryAfter = %v, want 2 minutes", err.RetryAfter)
	}
}

func TestRateLimitErrorWithRetry_VariousDurations(t *testing.T) {
	tests := []struct {
		name            string
		duration        time.Duration
		expectedMessage string
	}{
		{
			name:            "zero",
			duration:        0,
			expectedMessage: "rate limited",
		},
		{
			name:            "30 seconds",
			duration:        30 * time.Second,
			expectedMessage: "rate limited (retry after 30s)",
		},
		{
			name:            "1 hour",
			duration:        1 * time.Hour,
			expectedMessage: "rate limited (retry after 1h0m0s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRateLimitErrorWithRetry("rate limited", tt.duration)
			if err.Error() != tt.expectedMessage {
				t.Fatalf("Error message = %q, want %q", err.Error(), tt.expectedMessage)
			}
		})
	}
}

func TestUpstreamRateLimitError(t *testing.T) {
	err := NewUpstreamRateLimitError("Google Books", "quota exceeded")

	if err.Error() != "Google Books: quota exceeded" {
		t.Fatalf("Error message = %q", err.Error())
	}

	wrapped := fmt.Errorf("search: %w", err)
	if !IsUpstreamRateLimited(wrapped) {
		t.Fatalf("IsUpstreamRateLimited returned false for wrapped upstream rate limit")
	}
}

func TestUpstreamError_Status(t *testing.T) {
	err := NewUpstreamStatusError("Google Books", 500, "backend error")

	expected := "Google Books unavailable (HTTP 500): backend error"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if !IsUpstreamError(fmt.Errorf("wrapped: %w", err)) {
		t.Fatalf("IsUpstreamError returned false for wrapped UpstreamError")
	}
}

func TestUpstreamError_Transport(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := NewUpstreamTransportError("Notion", cause)

	expected := "Notion unavailable: connection refused"
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if !stdErrors.Is(err, cause) {
		t.Fatalf("UpstreamError does not unwrap to its cause")
	}
}

func TestSchemaMismatchError(t *testing.T) {
	err := NewSchemaMismatchError("Total Pages", "expected number")

	expected := `schema mismatch on property "Total Pages": expected number`
	if err.Error() != expected {
		t.Fatalf("Error message = %q, want %q", err.Error(), expected)
	}

	if !IsSchemaMismatchError(stdErrors.Join(err, stdErrors.New("context"))) {
		t.Fatalf("IsSchemaMismatchError returned false for joined error")
	}

	anonymous := NewSchemaMismatchError("", "body failed validation")
	if anonymous.Error() != "schema mismatch: body failed validation" {
		t.Fatalf("Error message = %q", anonymous.Error())
	}
}

func TestRequestErrors(t *testing.T) {
	if !IsBadRequestError(NewBadRequestError("missing q")) {
		t.Fatalf("IsBadRequestError returned false")
	}
	if !IsUnauthorizedError(NewUnauthorizedError("Invalid API key")) {
		t.Fatalf("IsUnauthorizedError returned false")
	}
	if IsBadRequestError(NewUnauthorizedError("nope")) {
		t.Fatalf("IsBadRequestError matched an UnauthorizedError")
	}
}
