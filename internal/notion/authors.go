package notion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/lepinkainen/notion-books/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type databaseResponse struct {
	ID         string                    `json:"id"`
	Properties map[string]propertySchema `json:"properties"`
}

type propertySchema struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type queryRequest struct {
	Filter   titleFilter `json:"filter"`
	PageSize int         `json:"page_size"`
}

type titleFilter struct {
	Property string         `json:"property"`
	Title    equalsCondition `json:"title"`
}

type equalsCondition struct {
	Equals string `json:"equals"`
}

type queryResponse struct {
	Results []pageResponse `json:"results"`
}

type pageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) retrieveDatabase(ctx context.Context, id string) (databaseResponse, error) {
	var db databaseResponse
	if err := c.doJSON(ctx, "GET", "/v1/databases/"+id, nil, &db); err != nil {
		return databaseResponse{}, err
	}
	return db, nil
}

// titleProperty returns the name of the title-typed property of a database.
// The answer is cached for the life of the client.
func (c *Client) titleProperty(ctx context.Context, databaseID string) (string, error) {
	c.mu.Lock()
	name, ok := c.titleProps[databaseID]
	c.mu.Unlock()
	if ok {
		return name, nil
	}

	db, err := c.retrieveDatabase(ctx, databaseID)
	if err != nil {
		return "", err
	}
	for propName, prop := range db.Properties {
		if prop.Type == "title" {
			c.mu.Lock()
			c.titleProps[databaseID] = propName
			c.mu.Unlock()
			return propName, nil
		}
	}
	return "", apperrors.NewSchemaMismatchError("", fmt.Sprintf("database %s has no title property", databaseID))
}

// resolveAuthors finds or creates one author page per distinct name and
// returns their ids in first-seen order along with how many were created.
// Any failure aborts; pages created before the failure are kept.
func (c *Client) resolveAuthors(ctx context.Context, names []string) ([]string, int, error) {
	titleProp, err := c.titleProperty(ctx, c.authorDBID)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving author title property: %w", err)
	}

	ids := make([]string, 0, len(names))
	created := 0
	for _, name := range dedupNames(names) {
		id, isNew, err := c.findOrCreateAuthor(ctx, titleProp, name)
		if err != nil {
			return nil, created, fmt.Errorf("author %q: %w", name, err)
		}
		if isNew {
			created++
		}
		ids = append(ids, id)
	}
	return ids, created, nil
}

// findOrCreateAuthor looks the name up before creating it. Two concurrent
// adds for a new author can still both create a page.
func (c *Client) findOrCreateAuthor(ctx context.Context, titleProp, name string) (string, bool, error) {
	query := queryRequest{
		Filter: titleFilter{
			Property: titleProp,
			Title:    equalsCondition{Equals: name},
		},
		PageSize: 1,
	}
	var found queryResponse
	if err := c.doJSON(ctx, "POST", "/v1/databases/"+c.authorDBID+"/query", query, &found); err != nil {
		return "", false, err
	}
	if len(found.Results) > 0 {
		slog.Debug("Reusing author page", "author", name, "id", found.Results[0].ID)
		return found.Results[0].ID, false, nil
	}

	create := createPageRequest{
		Parent:     databaseParent{DatabaseID: c.authorDBID},
		Properties: map[string]any{titleProp: titleValue(name)},
	}
	var page pageResponse
	if err := c.doJSON(ctx, "POST", "/v1/pages", create, &page); err != nil {
		return "", false, err
	}
	slog.Info("Created author page", "author", name, "id", page.ID)
	return page.ID, true, nil
}

// dedupNames drops blank names and case-insensitive repeats, keeping the
// first spelling seen.
func dedupNames(names []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := fold.String(norm.NFC.String(name))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}
