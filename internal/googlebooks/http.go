package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

// apiError matches the Google APIs error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		err := c.doJSONRequest(ctx, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(ctx, err) || attempt == c.retryAttempts {
			break
		}
		slog.Debug("Retrying Google Books request", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return apperrors.NewUpstreamTransportError(serviceName, ctx.Err())
		case <-time.After(c.retryDelay):
		}
	}
	return lastErr
}

func (c *Client) doJSONRequest(ctx context.Context, endpoint string, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return apperrors.NewUpstreamTransportError(serviceName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstreamTransportError(serviceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return statusError(resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &apperrors.UpstreamError{
			Service:    serviceName,
			StatusCode: resp.StatusCode,
			Message:    "malformed response",
			Err:        err,
		}
	}
	return nil
}

// statusError classifies a non-200 response as throttling or unavailability.
func statusError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	if status == http.StatusTooManyRequests {
		return apperrors.NewUpstreamRateLimitError(serviceName, nonEmpty(message, "rate limit exceeded"))
	}
	if status == http.StatusForbidden {
		for _, e := range envelope.Error.Errors {
			switch e.Reason {
			case "rateLimitExceeded", "userRateLimitExceeded", "dailyLimitExceeded", "quotaExceeded":
				return apperrors.NewUpstreamRateLimitError(serviceName, nonEmpty(message, e.Reason))
			}
		}
	}

	return apperrors.NewUpstreamStatusError(serviceName, status, message)
}

// isRetryable reports transport failures that are worth one more attempt.
// Responses with a status code and caller cancellation are final.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var upErr *apperrors.UpstreamError
	if !errors.As(err, &upErr) {
		return false
	}
	return upErr.StatusCode == 0 && upErr.Err != nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
