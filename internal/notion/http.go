package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

// apiError is the Notion error object.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var propertyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.+?) is not a property that exists`),
	regexp.MustCompile(`^(.+?) is expected to be `),
	regexp.MustCompile(`body\.properties\.(.+?)\.[a-z_]+\b`),
}

const propertyPath = "body.properties."

func (c *Client) doJSON(ctx context.Context, method, path string, payload, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return apperrors.NewUpstreamTransportError(serviceName, err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", APIVersion)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewUpstreamTransportError(serviceName, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return c.decodeError(resp.StatusCode, resp.Header.Get("Retry-After"), raw)
	}

	if target == nil {
		return nil
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

// decodeError maps a Notion error response onto the shared error taxonomy.
func (c *Client) decodeError(status int, retryAfter string, raw []byte) error {
	var apiErr apiError
	message := strings.TrimSpace(string(raw))
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Message != "" {
		message = apiErr.Message
	}

	switch {
	case status == http.StatusBadRequest && apiErr.Code == "validation_error":
		return apperrors.NewSchemaMismatchError(c.propertyFromMessage(message), message)
	case status == http.StatusTooManyRequests:
		rlErr := apperrors.NewUpstreamRateLimitError(serviceName, nonEmpty(message, "rate limited"))
		if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs > 0 {
			rlErr.RetryAfter = time.Duration(secs) * time.Second
		}
		return rlErr
	default:
		return apperrors.NewUpstreamStatusError(serviceName, status, message)
	}
}

// propertyFromMessage extracts the offending property name from a validation
// message, falling back to any mapped property the message mentions.
// Mapped names win over pattern matches since property names may hold spaces.
func (c *Client) propertyFromMessage(message string) string {
	if i := strings.Index(message, propertyPath); i >= 0 {
		rest := message[i+len(propertyPath):]
		best := ""
		for _, name := range c.mappedProperties() {
			if len(name) > len(best) && strings.HasPrefix(rest, name+".") {
				best = name
			}
		}
		if best != "" {
			return best
		}
	}

	for _, re := range propertyPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	best := ""
	for _, name := range c.mappedProperties() {
		if len(name) > len(best) && strings.Contains(message, name) {
			best = name
		}
	}
	return best
}

func (c *Client) mappedProperties() []string {
	f := c.fields
	names := []string{
		f.Title, f.Author, f.AuthorRelation, f.Status, f.Genres, f.TotalPages,
		f.ISBN, f.Published, f.GoogleBooksID, f.Publisher, f.Summary,
		f.MainCategory, f.PublishedText, f.Notes,
	}
	out := names[:0]
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
