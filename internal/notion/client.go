// Package notion writes book rows (and optionally linked author rows) into a
// Notion database through the public REST API.
package notion

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lepinkainen/notion-books/internal/config"
	"github.com/lepinkainen/notion-books/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.notion.com"
	// APIVersion is sent as the Notion-Version header on every request.
	APIVersion = "2022-06-28"
	// Notion allows an average of three requests per second per integration.
	defaultRatePerSecond = 3

	serviceName = "Notion"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client creates pages in a book database. It is safe for concurrent use.
type Client struct {
	token       string
	databaseID  string
	authorDBID  string
	fields      config.FieldMapping
	baseURL     string
	httpClient  HTTPDoer
	rateLimiter *ratelimit.Limiter

	mu         sync.Mutex
	titleProps map[string]string // database id -> title property name
}

// NewClient creates a client for the book database using the given field mapping.
func NewClient(token, databaseID string, fields config.FieldMapping, opts ...Option) *Client {
	client := &Client{
		token:       token,
		databaseID:  databaseID,
		fields:      fields,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		rateLimiter: ratelimit.New("Notion", defaultRatePerSecond),
		titleProps:  make(map[string]string),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewFromConfig builds a client from the resolved configuration.
func NewFromConfig(cfg config.Config, opts ...Option) *Client {
	base := []Option{WithAuthorDatabase(cfg.NotionAuthorDBID)}
	return NewClient(cfg.NotionToken, cfg.NotionDatabaseID, cfg.Fields, append(base, opts...)...)
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

// WithBaseURL sets a custom API root (without the /v1 suffix).
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

// WithAuthorDatabase sets the author database used in relation mode.
func WithAuthorDatabase(id string) Option {
	return func(client *Client) {
		client.authorDBID = strings.TrimSpace(id)
	}
}

// RelationMode reports whether authors are linked as pages in the author database.
func (c *Client) RelationMode() bool {
	return c.authorDBID != "" && c.fields.AuthorRelation != ""
}
