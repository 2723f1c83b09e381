package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lepinkainen/notion-books/internal/book"
	"github.com/lepinkainen/notion-books/internal/config"
	"github.com/lepinkainen/notion-books/internal/tui"
)

// SearchCmd prints Google Books results.
type SearchCmd struct {
	Query []string `arg:"" help:"Search terms"`
	Max   int      `short:"n" help:"Maximum number of results (1-20, default search_max_results)"`
	JSON  bool     `help:"Print results as JSON"`
}

func (s *SearchCmd) Run(cfg *config.Config) error {
	query := strings.TrimSpace(strings.Join(s.Query, " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	results, err := search(*cfg, query, s.Max)
	if err != nil {
		return err
	}

	if s.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(stdout, "No matches")
		return err
	}
	for i, r := range results {
		if _, err := fmt.Fprintf(stdout, "%2d. %s\n", i+1, describe(r)); err != nil {
			return err
		}
	}
	return nil
}

// AddCmd searches and adds the chosen result to Notion.
type AddCmd struct {
	Query  []string `arg:"" help:"Search terms"`
	First  bool     `help:"Add the first result without the interactive picker"`
	Status string   `help:"Reading status for the new row" default:"Want to Read"`
	Notes  string   `help:"Free-form notes stored with the book"`
}

func (a *AddCmd) Run(cfg *config.Config) error {
	if !cfg.NotionConfigured() {
		return fmt.Errorf("notion is not configured: set NOTION_TOKEN and NOTION_DATABASE_ID")
	}
	query := strings.TrimSpace(strings.Join(a.Query, " "))
	if query == "" {
		return fmt.Errorf("search query is required")
	}

	results, err := search(*cfg, query, 0)
	if err != nil {
		return err
	}

	chosen, err := a.pick(query, results)
	if err != nil || chosen == nil {
		return err
	}
	chosen.Status = a.Status
	if notes := strings.TrimSpace(a.Notes); notes != "" {
		chosen.Notes = &notes
	}

	conf, err := newNotion(*cfg).AddBook(context.Background(), *chosen)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "Added %q to Notion (%s)", chosen.Title, conf.NotionID)
	if err == nil && conf.URL != "" {
		_, err = fmt.Fprintf(stdout, " %s", conf.URL)
	}
	if err == nil {
		_, err = fmt.Fprintln(stdout)
	}
	return err
}

func (a *AddCmd) pick(query string, results []book.Record) (*book.Record, error) {
	if a.First {
		for i := range results {
			if results[i].Title != "" {
				return &results[i], nil
			}
		}
		_, err := fmt.Fprintln(stdout, "No matches")
		return nil, err
	}

	selection, err := selectBook(query, results)
	if err != nil {
		return nil, fmt.Errorf("selection failed: %w", err)
	}
	if selection.Action != tui.ActionSelected || selection.Selection == nil {
		_, err := fmt.Fprintln(stdout, "Nothing added")
		return nil, err
	}
	return selection.Selection, nil
}

func search(cfg config.Config, query string, limit int) ([]book.Record, error) {
	if limit <= 0 {
		limit = cfg.SearchMaxResults
	}
	limit = min(limit, 20)

	db := openCache(cfg)
	defer closeCache(db)

	return newSearcher(cfg, db).Search(context.Background(), query, limit)
}

func describe(r book.Record) string {
	title := r.Title
	if title == "" {
		title = "(untitled)"
	}
	var b strings.Builder
	b.WriteString(title)
	if year := r.Year(); year != "" {
		fmt.Fprintf(&b, " (%s)", year)
	}
	if len(r.Authors) > 0 {
		fmt.Fprintf(&b, " by %s", r.AuthorLine())
	}
	if isbn := book.Value(r.ISBN); isbn != "" {
		fmt.Fprintf(&b, " [ISBN %s]", isbn)
	}
	return b.String()
}
