// Package config resolves the process-wide configuration once at startup.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Rate-limit keying modes
const (
	RateLimitKeyGlobal = "global"
	RateLimitKeyIP     = "ip"
	RateLimitKeyAPIKey = "api_key"
)

const redacted = "********"

// FieldMapping maps logical book fields to Notion property names.
// An empty name disables writing that field.
type FieldMapping struct {
	Title          string `yaml:"title"`
	Author         string `yaml:"author"`
	AuthorRelation string `yaml:"author_relation"`
	Status         string `yaml:"status"`
	Genres         string `yaml:"genres"`
	TotalPages     string `yaml:"total_pages"`
	ISBN           string `yaml:"isbn"`
	Published      string `yaml:"published"`
	GoogleBooksID  string `yaml:"google_books_id"`
	Publisher      string `yaml:"publisher"`
	Summary        string `yaml:"summary"`
	MainCategory   string `yaml:"main_category"`
	PublishedText  string `yaml:"published_text"`
	Notes          string `yaml:"notes"`
}

// Config is immutable after Load.
type Config struct {
	ListenAddr      string   `yaml:"listen_addr"`
	APIKey          string   `yaml:"api_key"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	RateLimitKey    string   `yaml:"rate_limit_key"`
	CORSOrigins     []string `yaml:"cors_origins"`

	GoogleBooksAPIKey string `yaml:"google_books_api_key"`
	SearchMaxResults  int    `yaml:"search_max_results"`

	NotionToken      string       `yaml:"notion_token"`
	NotionDatabaseID string       `yaml:"notion_database_id"`
	NotionAuthorDBID string       `yaml:"notion_author_db_id"`
	Fields           FieldMapping `yaml:"fields"`

	CacheDBFile string        `yaml:"cache_dbfile"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// SetDefaults registers default values. Keys double as environment variable
// names once AutomaticEnv is enabled.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("rate_limit_per_min", 60)
	v.SetDefault("rate_limit_key", RateLimitKeyGlobal)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("search_max_results", 10)
	v.SetDefault("cache_dbfile", "./cache.db")
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "human")

	v.SetDefault("notion_prop_title", "Title")
	v.SetDefault("notion_prop_author", "Author")
	v.SetDefault("notion_prop_author_relation", "Author")
	v.SetDefault("notion_prop_status", "Status")
	v.SetDefault("notion_prop_genres", "Genres")
	v.SetDefault("notion_prop_total_pages", "Total Pages")
	v.SetDefault("notion_prop_isbn", "")
	v.SetDefault("notion_prop_published", "")
	v.SetDefault("notion_prop_google_books_id", "")
	v.SetDefault("notion_prop_publisher", "")
	v.SetDefault("notion_prop_summary", "")
	v.SetDefault("notion_prop_genre", "")
	v.SetDefault("notion_prop_published_text", "")
	v.SetDefault("notion_prop_notes", "")
}

// Load resolves a Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		ListenAddr:      strings.TrimSpace(v.GetString("listen_addr")),
		APIKey:          strings.TrimSpace(v.GetString("api_key")),
		RateLimitPerMin: v.GetInt("rate_limit_per_min"),
		RateLimitKey:    strings.ToLower(strings.TrimSpace(v.GetString("rate_limit_key"))),
		CORSOrigins:     splitList(v.GetStringSlice("cors_origins")),

		GoogleBooksAPIKey: strings.TrimSpace(v.GetString("google_books_api_key")),
		SearchMaxResults:  v.GetInt("search_max_results"),

		NotionToken:      strings.TrimSpace(v.GetString("notion_token")),
		NotionDatabaseID: strings.TrimSpace(v.GetString("notion_database_id")),
		NotionAuthorDBID: strings.TrimSpace(v.GetString("notion_author_db_id")),
		Fields: FieldMapping{
			Title:          strings.TrimSpace(v.GetString("notion_prop_title")),
			Author:         strings.TrimSpace(v.GetString("notion_prop_author")),
			AuthorRelation: strings.TrimSpace(v.GetString("notion_prop_author_relation")),
			Status:         strings.TrimSpace(v.GetString("notion_prop_status")),
			Genres:         strings.TrimSpace(v.GetString("notion_prop_genres")),
			TotalPages:     strings.TrimSpace(v.GetString("notion_prop_total_pages")),
			ISBN:           strings.TrimSpace(v.GetString("notion_prop_isbn")),
			Published:      strings.TrimSpace(v.GetString("notion_prop_published")),
			GoogleBooksID:  strings.TrimSpace(v.GetString("notion_prop_google_books_id")),
			Publisher:      strings.TrimSpace(v.GetString("notion_prop_publisher")),
			Summary:        strings.TrimSpace(v.GetString("notion_prop_summary")),
			MainCategory:   strings.TrimSpace(v.GetString("notion_prop_genre")),
			PublishedText:  strings.TrimSpace(v.GetString("notion_prop_published_text")),
			Notes:          strings.TrimSpace(v.GetString("notion_prop_notes")),
		},

		CacheDBFile: strings.TrimSpace(v.GetString("cache_dbfile")),

		LogLevel:  strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat: strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
	}

	ttl, err := parseTTL(v.GetString("cache_ttl"))
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL = ttl

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.RateLimitKey {
	case RateLimitKeyGlobal, RateLimitKeyIP, RateLimitKeyAPIKey:
	default:
		return fmt.Errorf("invalid rate_limit_key %q (want global, ip or api_key)", c.RateLimitKey)
	}
	switch c.LogFormat {
	case "human", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want human or json)", c.LogFormat)
	}
	if c.SearchMaxResults < 1 || c.SearchMaxResults > 20 {
		return fmt.Errorf("search_max_results must be between 1 and 20, got %d", c.SearchMaxResults)
	}
	return nil
}

// RelationMode reports whether authors are written as links to the author database.
func (c Config) RelationMode() bool {
	return c.NotionAuthorDBID != "" && c.Fields.AuthorRelation != ""
}

// NotionConfigured reports whether book pages can be created at all.
func (c Config) NotionConfigured() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	out := c
	out.CORSOrigins = append([]string(nil), c.CORSOrigins...)
	for _, secret := range []*string{&out.APIKey, &out.NotionToken, &out.GoogleBooksAPIKey} {
		if *secret != "" {
			*secret = redacted
		}
	}
	return out
}

func parseTTL(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid cache_ttl %q: %w", raw, err)
	}
	if ttl < 0 {
		return 0, fmt.Errorf("invalid cache_ttl %q: must not be negative", raw)
	}
	return ttl, nil
}

// splitList flattens comma and whitespace separated entries.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
