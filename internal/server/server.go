// Package server exposes book search and add over HTTP and serves the
// browser client.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/lepinkainen/notion-books/internal/book"
	"github.com/lepinkainen/notion-books/internal/config"
	"github.com/lepinkainen/notion-books/internal/notion"
	"github.com/lepinkainen/notion-books/internal/ratelimit"
)

const (
	maxBodyBytes    = 64 << 10
	maxSearchResult = 20
	shutdownTimeout = 10 * time.Second
)

// Searcher finds books in the upstream catalog.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]book.Record, error)
}

// Adder stores a chosen book in the document database.
type Adder interface {
	AddBook(ctx context.Context, r book.Record) (notion.Confirmation, error)
}

// Server wires configuration, upstream clients and the request budget into
// an http.Handler.
type Server struct {
	cfg      config.Config
	searcher Searcher
	adder    Adder
	counter  *ratelimit.MinuteCounter
	static   fs.FS

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithStatic serves fsys at / for the browser client.
func WithStatic(fsys fs.FS) Option {
	return func(s *Server) {
		s.static = fsys
	}
}

// New builds a Server. adder may be nil when Notion is not configured, in
// which case /add answers 500. counter may be nil to disable rate limiting.
func New(cfg config.Config, searcher Searcher, adder Adder, counter *ratelimit.MinuteCounter, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		searcher: searcher,
		adder:    adder,
		counter:  counter,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /search", s.requireQuery(s.requireAPIKey(s.rateLimit(http.HandlerFunc(s.handleSearch)))))
	mux.Handle("POST /add", s.requireAPIKey(s.rateLimit(http.HandlerFunc(s.handleAdd))))
	if s.static != nil {
		mux.Handle("GET /", http.FileServerFS(s.static))
	}

	var h http.Handler = mux
	h = corsMiddleware(s.cfg.CORSOrigins)(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	h = recoveryMiddleware(h)
	return h
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Adds with many new authors make several sequential upstream calls.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", ln.Addr().String(), "rate_limit_per_min", s.counter.Limit())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
