package notion

import (
	"context"
	"fmt"
	"sort"

	apperrors "github.com/lepinkainen/notion-books/internal/errors"
)

type expectation struct {
	property string
	typ      string
}

// CheckSchema compares the book database against the field mapping and
// returns one SchemaMismatchError per missing or wrongly typed property.
// A nil slice means the mapping matches.
func (c *Client) CheckSchema(ctx context.Context) ([]*apperrors.SchemaMismatchError, error) {
	db, err := c.retrieveDatabase(ctx, c.databaseID)
	if err != nil {
		return nil, err
	}

	var mismatches []*apperrors.SchemaMismatchError
	for _, exp := range c.expectations() {
		prop, ok := db.Properties[exp.property]
		if !ok {
			mismatches = append(mismatches, apperrors.NewSchemaMismatchError(exp.property, "property does not exist"))
			continue
		}
		if prop.Type != exp.typ {
			mismatches = append(mismatches, apperrors.NewSchemaMismatchError(
				exp.property,
				fmt.Sprintf("expected type %s, found %s", exp.typ, prop.Type),
			))
		}
	}

	if c.RelationMode() {
		if _, err := c.retrieveDatabase(ctx, c.authorDBID); err != nil {
			return mismatches, fmt.Errorf("author database: %w", err)
		}
	}

	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Property < mismatches[j].Property })
	return mismatches, nil
}

func (c *Client) expectations() []expectation {
	f := c.fields
	var out []expectation
	add := func(name, typ string) {
		if name != "" {
			out = append(out, expectation{property: name, typ: typ})
		}
	}

	add(f.Title, "title")
	if c.RelationMode() {
		add(f.AuthorRelation, "relation")
		if f.Author != f.AuthorRelation {
			add(f.Author, "rich_text")
		}
	} else {
		add(f.Author, "rich_text")
	}
	add(f.Status, "select")
	add(f.Genres, "multi_select")
	add(f.TotalPages, "number")
	add(f.ISBN, "rich_text")
	add(f.Published, "date")
	add(f.GoogleBooksID, "rich_text")
	add(f.Publisher, "rich_text")
	add(f.Summary, "rich_text")
	add(f.MainCategory, "rich_text")
	add(f.PublishedText, "rich_text")
	add(f.Notes, "rich_text")
	return out
}
