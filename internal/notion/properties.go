package notion

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lepinkainen/notion-books/internal/book"
)

const (
	summaryLimit = 1800
	ellipsis     = "..."
)

var (
	yearOnly  = regexp.MustCompile(`^\d{4}$`)
	yearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)
	fullDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type textContent struct {
	Content string `json:"content"`
}

type richTextItem struct {
	Text textContent `json:"text"`
}

type namedOption struct {
	Name string `json:"name"`
}

type pageRef struct {
	ID string `json:"id"`
}

type dateValue struct {
	Start string `json:"start"`
}

type externalFile struct {
	URL string `json:"url"`
}

type pageCover struct {
	Type     string       `json:"type"`
	External externalFile `json:"external"`
}

type databaseParent struct {
	DatabaseID string `json:"database_id"`
}

// createPageRequest is the body of POST /v1/pages.
type createPageRequest struct {
	Parent     databaseParent `json:"parent"`
	Properties map[string]any `json:"properties"`
	Cover      *pageCover     `json:"cover,omitempty"`
}

func titleValue(s string) map[string]any {
	return map[string]any{"title": []richTextItem{{Text: textContent{Content: s}}}}
}

func richTextValue(s string) map[string]any {
	return map[string]any{"rich_text": []richTextItem{{Text: textContent{Content: s}}}}
}

func selectValue(s string) map[string]any {
	return map[string]any{"select": namedOption{Name: s}}
}

func multiSelectValue(values []string) map[string]any {
	opts := make([]namedOption, 0, len(values))
	for _, v := range values {
		// Notion rejects commas in select option names.
		opts = append(opts, namedOption{Name: strings.ReplaceAll(v, ",", " ")})
	}
	return map[string]any{"multi_select": opts}
}

func numberValue(n int) map[string]any {
	return map[string]any{"number": n}
}

func dateProperty(start string) map[string]any {
	return map[string]any{"date": dateValue{Start: start}}
}

func relationValue(ids []string) map[string]any {
	refs := make([]pageRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, pageRef{ID: id})
	}
	return map[string]any{"relation": refs}
}

// bookProperties maps a record onto the configured property names. Empty
// mappings and empty values are skipped. authorIDs is non-nil in relation mode.
func (c *Client) bookProperties(titleProp string, r book.Record, authorIDs []string) map[string]any {
	f := c.fields
	props := map[string]any{
		titleProp: titleValue(r.Title),
	}

	set := func(name string, value map[string]any) {
		if name != "" && name != titleProp {
			props[name] = value
		}
	}

	if authorIDs != nil {
		set(f.AuthorRelation, relationValue(authorIDs))
	}
	if len(r.Authors) > 0 && (authorIDs == nil || f.Author != f.AuthorRelation) {
		set(f.Author, richTextValue(r.AuthorLine()))
	}
	if r.Status != "" {
		set(f.Status, selectValue(r.Status))
	}
	if len(r.Categories) > 0 {
		set(f.Genres, multiSelectValue(r.Categories))
	}
	if r.PageCount != nil {
		set(f.TotalPages, numberValue(*r.PageCount))
	}
	if v := book.Value(r.ISBN); v != "" {
		set(f.ISBN, richTextValue(v))
	}
	if v := book.Value(r.MainCategory); v != "" {
		set(f.MainCategory, richTextValue(v))
	}
	if published := book.Value(r.Published); published != "" {
		if start := NormalizeDate(published); start != "" {
			set(f.Published, dateProperty(start))
		}
		// Raw value, so dates like "circa 1900" still land here.
		set(f.PublishedText, richTextValue(published))
	}
	if r.GoogleBooksID != "" {
		set(f.GoogleBooksID, richTextValue(r.GoogleBooksID))
	}
	if v := book.Value(r.Publisher); v != "" {
		set(f.Publisher, richTextValue(v))
	}
	if v := TruncateSummary(book.Value(r.Description)); v != "" {
		set(f.Summary, richTextValue(v))
	}
	if v := TruncateSummary(book.Value(r.Notes)); v != "" {
		set(f.Notes, richTextValue(v))
	}

	return props
}

func coverFor(r book.Record) *pageCover {
	u := book.Value(r.CoverURL)
	if u == "" {
		return nil
	}
	return &pageCover{Type: "external", External: externalFile{URL: u}}
}

// NormalizeDate turns a partial publication date into a Notion date start.
// YYYY and YYYY-MM are padded to the first day; anything else unparseable
// returns "".
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case yearOnly.MatchString(value):
		return value + "-01-01"
	case yearMonth.MatchString(value):
		return value + "-01"
	case fullDate.MatchString(value):
		return value
	}
	return ""
}

// TruncateSummary trims s and caps it at the summary limit, counted in runes.
func TruncateSummary(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= summaryLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:summaryLimit-len(ellipsis)]) + ellipsis
}
