// Package googlebooks provides a search client for the Google Books API.
package googlebooks

import (
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/notion-books/internal/cache"
	"github.com/lepinkainen/notion-books/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://www.googleapis.com/books/v1"
	defaultMaxAttempts   = 2 // one transparent retry on transport failure
	defaultMaxResults    = 10
	maxResultsCap        = 40 // Google Books rejects larger pages
	defaultRatePerSecond = 5

	serviceName = "Google Books"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a Google Books API client.
type Client struct {
	apiKey        string
	baseURL       string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	cache         *cache.CacheDB
	cacheTTL      time.Duration
	retryAttempts int
	retryDelay    time.Duration
}

// NewClient creates a new Google Books client. apiKey may be empty; the
// API serves anonymous requests with a lower quota.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		rateLimiter:   ratelimit.New("GoogleBooks", defaultRatePerSecond),
		retryAttempts: defaultMaxAttempts,
		retryDelay:    500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom base URL for the Google Books API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRateLimiter sets the outbound limiter. A nil limiter disables throttling.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
	}
}

// WithRetryAttempts sets the total number of attempts for transport failures.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(client *Client) {
		if d >= 0 {
			client.retryDelay = d
		}
	}
}

// WithCache enables the search response cache. A nil cache or a
// non-positive ttl leaves caching off.
func WithCache(c *cache.CacheDB, ttl time.Duration) Option {
	return func(client *Client) {
		client.cache = c
		client.cacheTTL = ttl
	}
}
