package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case apperrors.IsBadRequestError(err), apperrors.IsSchemaMismatchError(err):
		return http.StatusBadRequest
	case apperrors.IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case apperrors.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case apperrors.IsUpstreamError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var rlErr *apperrors.RateLimitError
	if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rlErr.RetryAfter)))
	}

	detail := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		slog.Error("Request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r), "error", err)
		detail = "Internal server error"
	case status >= 500 || apperrors.IsUpstreamRateLimited(err) || apperrors.IsSchemaMismatchError(err):
		slog.Warn("Upstream request failed", "path", r.URL.Path, "request_id", RequestIDFrom(r), "error", err)
	default:
		slog.Debug("Request rejected", "path", r.URL.Path, "status", status, "request_id", RequestIDFrom(r), "error", err)
	}

	writeDetail(w, status, detail)
}
