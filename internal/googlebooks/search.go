package googlebooks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/lepinkainen/notion-books/internal/book"
	"github.com/lepinkainen/notion-books/internal/cache"
)

// volumesResponse matches the Google Books volumes list response.
type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	MainCategory        string               `json:"mainCategory"`
	ImageLinks          struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// Search queries Google Books and returns normalized records in API order.
// maxResults <= 0 uses the default page size.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]book.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	maxResults = clampResults(maxResults)

	key := cacheKey(query, maxResults)
	records, fromCache, err := cache.GetOrFetch(c.cache, cache.SearchTable, key, c.cacheTTL, func() ([]book.Record, error) {
		return c.fetch(ctx, query, maxResults)
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("Google Books search complete", "query", query, "results", len(records), "from_cache", fromCache)
	return records, nil
}

func (c *Client) fetch(ctx context.Context, query string, maxResults int) ([]book.Record, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())

	var response volumesResponse
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	records := make([]book.Record, 0, len(response.Items))
	for _, item := range response.Items {
		records = append(records, normalizeVolume(item))
	}
	return records, nil
}

// normalizeVolume maps an upstream volume to a Record. Missing upstream
// fields stay empty; nothing is invented.
func normalizeVolume(v volume) book.Record {
	info := v.VolumeInfo

	record := book.Record{
		Title:         info.Title,
		Authors:       info.Authors,
		ISBN:          book.StringPtr(bestISBN(info.IndustryIdentifiers)),
		Published:     book.StringPtr(info.PublishedDate),
		CoverURL:      book.StringPtr(coverURL(info.ImageLinks.Thumbnail, info.ImageLinks.SmallThumbnail)),
		GoogleBooksID: v.ID,
		Categories:    info.Categories,
		Description:   book.StringPtr(info.Description),
		Publisher:     book.StringPtr(info.Publisher),
		MainCategory:  book.StringPtr(info.MainCategory),
	}
	if info.PageCount > 0 {
		pages := info.PageCount
		record.PageCount = &pages
	}

	record.Normalize()
	return record
}

// bestISBN prefers ISBN-13, then ISBN-10, then whatever identifier comes first.
func bestISBN(ids []industryIdentifier) string {
	if len(ids) == 0 {
		return ""
	}
	for _, kind := range []string{"ISBN_13", "ISBN_10"} {
		for _, id := range ids {
			if id.Type == kind && id.Identifier != "" {
				return id.Identifier
			}
		}
	}
	return ids[0].Identifier
}

// coverURL prefers the larger thumbnail and upgrades it to https.
func coverURL(thumbnail, small string) string {
	cover := thumbnail
	if cover == "" {
		cover = small
	}
	if strings.HasPrefix(cover, "http://") {
		cover = "https://" + strings.TrimPrefix(cover, "http://")
	}
	return cover
}

func clampResults(n int) int {
	if n <= 0 {
		return defaultMaxResults
	}
	if n > maxResultsCap {
		return maxResultsCap
	}
	return n
}

func cacheKey(query string, maxResults int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%s|%d", normalized, maxResults)
}
