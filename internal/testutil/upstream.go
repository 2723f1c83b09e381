package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request captured by an UpstreamServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// UpstreamServer is an httptest server that records every request it serves.
type UpstreamServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewUpstreamServer starts a recording server in front of handler and
// closes it when the test completes.
func NewUpstreamServer(t *testing.T, handler http.Handler) *UpstreamServer {
	t.Helper()

	u := &UpstreamServer{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.requests = append(u.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		u.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(u.Close)

	return u
}

// Requests returns a copy of the recorded requests.
func (u *UpstreamServer) Requests() []RecordedRequest {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]RecordedRequest(nil), u.requests...)
}

// Count returns how many requests matched method and path.
func (u *UpstreamServer) Count(method, path string) int {
	n := 0
	for _, r := range u.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}
