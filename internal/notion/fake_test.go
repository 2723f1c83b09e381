package notion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/lepinkainen/notion-books/internal/config"
	"github.com/lepinkainen/notion-books/internal/testutil"
)

const (
	bookDB   = "book-db"
	authorDB = "author-db"
)

// fakeNotion is an in-memory stand-in for the subset of the Notion API the
// client uses.
type fakeNotion struct {
	mu sync.Mutex

	schemas map[string]map[string]string // database id -> property -> type
	authors map[string]string            // author name -> page id
	books   []map[string]any             // create-page bodies for the book database

	// failCreateAuthor makes page creation in the author database fail for this name.
	failCreateAuthor string
	// pageStatus and pageBody, when set, replace the book page response.
	pageStatus int
	pageBody   string

	nextID int
}

func newFakeNotion() *fakeNotion {
	return &fakeNotion{
		schemas: map[string]map[string]string{
			bookDB: {
				"Title":       "title",
				"Author":      "rich_text",
				"Status":      "select",
				"Genres":      "multi_select",
				"Total Pages": "number",
			},
			authorDB: {"Name": "title"},
		},
		authors: map[string]string{},
	}
}

func (f *fakeNotion) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/v1/databases/"):
		id := strings.TrimPrefix(path, "/v1/databases/")
		schema, ok := f.schemas[id]
		if !ok {
			writeNotionError(w, http.StatusNotFound, "object_not_found", "Could not find database with ID: "+id)
			return
		}
		props := map[string]any{}
		for name, typ := range schema {
			props[name] = map[string]string{"id": name, "type": typ}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "database", "id": id, "properties": props})

	case r.Method == http.MethodPost && path == "/v1/databases/"+authorDB+"/query":
		var q queryRequest
		_ = json.NewDecoder(r.Body).Decode(&q)
		results := []pageResponse{}
		if id, ok := f.authors[q.Filter.Title.Equals]; ok {
			results = append(results, pageResponse{ID: id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "results": results})

	case r.Method == http.MethodPost && path == "/v1/pages":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		parent, _ := body["parent"].(map[string]any)
		switch parent["database_id"] {
		case authorDB:
			name := firstTitle(body["properties"])
			if name == f.failCreateAuthor {
				writeNotionError(w, http.StatusInternalServerError, "internal_server_error", "boom")
				return
			}
			f.nextID++
			id := fmt.Sprintf("author-%d", f.nextID)
			f.authors[name] = id
			_ = json.NewEncoder(w).Encode(pageResponse{ID: id})
		case bookDB:
			if f.pageStatus != 0 {
				w.WriteHeader(f.pageStatus)
				_, _ = w.Write([]byte(f.pageBody))
				return
			}
			f.books = append(f.books, body)
			f.nextID++
			id := fmt.Sprintf("book-%d", f.nextID)
			_ = json.NewEncoder(w).Encode(pageResponse{ID: id, URL: "https://www.notion.so/" + id})
		default:
			writeNotionError(w, http.StatusNotFound, "object_not_found", "unknown parent")
		}

	default:
		writeNotionError(w, http.StatusNotFound, "invalid_request_url", "unknown route "+path)
	}
}

func (f *fakeNotion) bookPages() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.books...)
}

func (f *fakeNotion) authorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.authors)
}

func firstTitle(props any) string {
	m, _ := props.(map[string]any)
	for _, v := range m {
		prop, _ := v.(map[string]any)
		items, _ := prop["title"].([]any)
		if len(items) == 0 {
			continue
		}
		item, _ := items[0].(map[string]any)
		text, _ := item["text"].(map[string]any)
		s, _ := text["content"].(string)
		return s
	}
	return ""
}

func writeNotionError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Object: "error", Status: status, Code: code, Message: message})
}

func defaultFields() config.FieldMapping {
	return config.FieldMapping{
		Title:          "Title",
		Author:         "Author",
		AuthorRelation: "Author",
		Status:         "Status",
		Genres:         "Genres",
		TotalPages:     "Total Pages",
	}
}

func newFakeClient(t *testing.T, fake *fakeNotion, fields config.FieldMapping, opts ...Option) (*Client, *testutil.UpstreamServer) {
	t.Helper()
	server := testutil.NewUpstreamServer(t, fake)
	base := []Option{WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithRateLimiter(nil)}
	return NewClient("secret-token", bookDB, fields, append(base, opts...)...), server
}
