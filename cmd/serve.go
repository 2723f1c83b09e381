package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lepinkainen/notion-books/internal/config"
	"github.com/lepinkainen/notion-books/internal/ratelimit"
	"github.com/lepinkainen/notion-books/internal/server"
	"github.com/lepinkainen/notion-books/web"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides listen_addr)"`
}

func (s *ServeCmd) Run(cfg *config.Config) error {
	settings := *cfg
	if s.Addr != "" {
		settings.ListenAddr = s.Addr
	}

	db := openCache(settings)
	defer closeCache(db)

	// a nil interface, not a typed nil, so the server can tell it is missing
	var adder server.Adder
	if settings.NotionConfigured() {
		adder = newNotion(settings)
	} else {
		slog.Warn("Notion is not configured; /add will fail until NOTION_TOKEN and NOTION_DATABASE_ID are set")
	}

	srv := server.New(
		settings,
		newSearcher(settings, db),
		adder,
		ratelimit.NewMinuteCounter(settings.RateLimitPerMin),
		server.WithStatic(web.Static()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting notion-books",
		"addr", settings.ListenAddr,
		"api_key_required", settings.APIKey != "",
		"author_relation", settings.RelationMode(),
		"cache_ttl", settings.CacheTTL,
	)
	return srv.Run(ctx)
}
