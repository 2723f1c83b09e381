// Package book defines the normalized book record passed between search and add.
package book

import "strings"

// DefaultStatus is the reading status given to every newly added book.
const DefaultStatus = "Want to Read"

// Record is a normalized search result and the payload for adding a book.
// Optional scalar fields are pointers so they serialize as null when absent.
type Record struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	ISBN          *string  `json:"isbn"`
	Published     *string  `json:"published"`
	CoverURL      *string  `json:"cover_url"`
	GoogleBooksID string   `json:"google_books_id"`
	Categories    []string `json:"categories"`
	PageCount     *int     `json:"page_count"`
	Status        string   `json:"status,omitempty"`

	Description  *string `json:"description,omitempty"`
	Publisher    *string `json:"publisher,omitempty"`
	MainCategory *string `json:"main_category,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// Normalize trims text fields, drops blank list entries, makes lists non-nil
// and applies the default status.
func (r *Record) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Authors = compact(r.Authors)
	r.Categories = compact(r.Categories)
	r.Status = strings.TrimSpace(r.Status)
	if r.Status == "" {
		r.Status = DefaultStatus
	}
	r.ISBN = trimOptional(r.ISBN)
	r.Published = trimOptional(r.Published)
	r.CoverURL = trimOptional(r.CoverURL)
	r.Description = trimOptional(r.Description)
	r.Publisher = trimOptional(r.Publisher)
	r.MainCategory = trimOptional(r.MainCategory)
	r.Notes = trimOptional(r.Notes)
	if r.PageCount != nil && *r.PageCount <= 0 {
		r.PageCount = nil
	}
}

// Year returns the leading four-digit year of Published, or "" if unknown.
func (r Record) Year() string {
	if r.Published == nil || len(*r.Published) < 4 {
		return ""
	}
	year := (*r.Published)[:4]
	for _, c := range year {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return year
}

// AuthorLine joins the authors for display.
func (r Record) AuthorLine() string {
	return strings.Join(r.Authors, ", ")
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional string.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	return StringPtr(strings.TrimSpace(*s))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
