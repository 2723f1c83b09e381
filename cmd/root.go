package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/notion-books/internal/cache"
	"github.com/lepinkainen/notion-books/internal/config"
	apperrors "github.com/lepinkainen/notion-books/internal/errors"
	"github.com/lepinkainen/notion-books/internal/googlebooks"
	"github.com/lepinkainen/notion-books/internal/notion"
	"github.com/lepinkainen/notion-books/internal/server"
	"github.com/lepinkainen/notion-books/internal/tui"
)

// notionClient is the part of the Notion client the commands use.
type notionClient interface {
	server.Adder
	CheckSchema(ctx context.Context) ([]*apperrors.SchemaMismatchError, error)
}

var (
	stdout io.Writer = os.Stdout

	newSearcher = func(cfg config.Config, db *cache.CacheDB) server.Searcher {
		return googlebooks.NewClient(cfg.GoogleBooksAPIKey, googlebooks.WithCache(db, cfg.CacheTTL))
	}
	newNotion = func(cfg config.Config) notionClient {
		return notion.NewFromConfig(cfg)
	}
	selectBook = tui.Select
)

// CLI represents the complete command structure for the notion-books application
type CLI struct {
	Config    string `help:"Path to a YAML config file (default ./config.yaml if present)" type:"path"`
	EnvFile   string `help:"Path to a .env file to load before reading the environment" default:".env"`
	LogLevel  string `help:"Override log level (debug, info, warn, error)"`
	LogFormat string `help:"Override log format (human, json)"`

	Serve  ServeCmd  `cmd:"" default:"withargs" help:"Run the HTTP API and browser client"`
	Search SearchCmd `cmd:"" help:"Search Google Books from the terminal"`
	Add    AddCmd    `cmd:"" help:"Search, pick a result and add it to Notion"`
	Check  CheckCmd  `cmd:"" help:"Verify the Notion database matches the field mapping"`
	Show   ConfigCmd `cmd:"" name:"config" help:"Print the effective configuration with secrets redacted"`
	Cache  CacheCmd  `cmd:"" help:"Manage the search response cache"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("notion-books"),
		kong.Description("Search Google Books and add the chosen book to a Notion database."),
		kong.UsageOnError(),
	)

	if err := run(ctx, &cli); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx *kong.Context, cli *CLI) error {
	cfg, err := initConfig(viper.GetViper(), cli)
	if err != nil {
		// logging is not configured yet
		initLogging("info", "human", os.Stderr)
		return err
	}
	initLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	return ctx.Run(&cfg)
}

// initConfig layers defaults, .env, environment and the optional config file
// into an immutable Config. CLI overrides win over everything else.
func initConfig(v *viper.Viper, cli *CLI) (config.Config, error) {
	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("loading %s: %w", cli.EnvFile, err)
		}
	}

	config.SetDefaults(v)
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if cli.Config != "" {
		v.SetConfigFile(cli.Config)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cli.Config != "" || !errors.As(err, &notFound) {
			return config.Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	if cli.LogLevel != "" {
		v.Set("log_level", cli.LogLevel)
	}
	if cli.LogFormat != "" {
		v.Set("log_format", cli.LogFormat)
	}

	return config.Load(v)
}

func initLogging(level, format string, w io.Writer) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = humanlog.NewHandler(w, &humanlog.Options{Level: lvl})
	}

	slog.SetDefault(slog.New(handler))
}

// openCache opens the search cache, or returns nil when caching is off or
// the file cannot be opened.
func openCache(cfg config.Config) *cache.CacheDB {
	if cfg.CacheTTL <= 0 || cfg.CacheDBFile == "" {
		return nil
	}
	db, err := cache.Open(cfg.CacheDBFile)
	if err != nil {
		slog.Warn("Search cache disabled", "path", cfg.CacheDBFile, "error", err)
		return nil
	}
	slog.Debug("Search cache enabled", "path", db.Path(), "ttl", cfg.CacheTTL)
	return db
}

func closeCache(db *cache.CacheDB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Warn("Failed to close cache", "error", err)
	}
}
