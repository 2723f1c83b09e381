package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/notion-books/internal/cache"
	"github.com/lepinkainen/notion-books/internal/config"
)

// CheckCmd compares the Notion database with the field mapping.
type CheckCmd struct{}

func (c *CheckCmd) Run(cfg *config.Config) error {
	if !cfg.NotionConfigured() {
		return fmt.Errorf("notion is not configured: set NOTION_TOKEN and NOTION_DATABASE_ID")
	}

	mismatches, err := newNotion(*cfg).CheckSchema(context.Background())
	if err != nil {
		return err
	}
	if len(mismatches) == 0 {
		_, err := fmt.Fprintln(stdout, "Notion schema matches the field mapping")
		return err
	}

	for _, m := range mismatches {
		if _, err := fmt.Fprintf(stdout, "%s: %s\n", m.Property, m.Message); err != nil {
			return err
		}
	}
	return fmt.Errorf("%d schema mismatch(es)", len(mismatches))
}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(cfg *config.Config) error {
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg.Redacted()); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// CacheCmd groups the cache maintenance subcommands.
type CacheCmd struct {
	Invalidate InvalidateCacheCmd `cmd:"" help:"Delete every cached search response"`
	Prune      PruneCacheCmd      `cmd:"" help:"Delete cached search responses older than cache_ttl"`
}

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct{}

func (i *InvalidateCacheCmd) Run(cfg *config.Config) error {
	slog.Info("Invalidating cache", "database", cfg.CacheDBFile)

	db, err := cache.Open(cfg.CacheDBFile)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer closeCache(db)

	rowsDeleted, err := db.InvalidateSource(cache.SearchTable)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "rows_deleted", rowsDeleted)
	_, err = fmt.Fprintf(stdout, "Removed %d cached searches from %s\n", rowsDeleted, db.Path())
	return err
}

// PruneCacheCmd drops expired entries only.
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run(cfg *config.Config) error {
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl is 0; caching is disabled")
	}

	db, err := cache.Open(cfg.CacheDBFile)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer closeCache(db)

	rowsDeleted, err := db.ClearExpired(cache.SearchTable, cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	_, err = fmt.Fprintf(stdout, "Removed %d expired searches from %s\n", rowsDeleted, db.Path())
	return err
}
