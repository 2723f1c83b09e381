package notion

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/notion-books/internal/book"
	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

// Confirmation is returned after a book page has been created.
type Confirmation struct {
	OK             bool   `json:"ok"`
	Status         string `json:"status"`
	NotionID       string `json:"notion_id"`
	URL            string `json:"url,omitempty"`
	AuthorsCreated int    `json:"authors_created"`
}

// AddBook creates one page in the book database for r. In relation mode the
// authors are resolved first; if that fails no book page is created.
func (c *Client) AddBook(ctx context.Context, r book.Record) (Confirmation, error) {
	r.Normalize()
	if r.Title == "" {
		return Confirmation{}, apperrors.NewBadRequestError("title is required")
	}

	titleProp := c.fields.Title
	if titleProp == "" {
		var err error
		if titleProp, err = c.titleProperty(ctx, c.databaseID); err != nil {
			return Confirmation{}, err
		}
	}

	var (
		authorIDs []string
		created   int
	)
	if c.RelationMode() && len(r.Authors) > 0 {
		var err error
		authorIDs, created, err = c.resolveAuthors(ctx, r.Authors)
		if err != nil {
			slog.Warn("Author linking failed, book not added", "title", r.Title, "authors_created", created, "error", err)
			return Confirmation{}, err
		}
	}

	req := createPageRequest{
		Parent:     databaseParent{DatabaseID: c.databaseID},
		Properties: c.bookProperties(titleProp, r, authorIDs),
		Cover:      coverFor(r),
	}

	var page pageResponse
	if err := c.doJSON(ctx, "POST", "/v1/pages", req, &page); err != nil {
		return Confirmation{}, err
	}

	slog.Info("Added book to Notion", "title", r.Title, "id", page.ID, "authors_created", created)
	return Confirmation{
		OK:             true,
		Status:         "added",
		NotionID:       page.ID,
		URL:            page.URL,
		AuthorsCreated: created,
	}, nil
}
