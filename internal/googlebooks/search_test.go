package googlebooks

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/notion-books/internal/book"
	"github.com/lepinkainen/notion-books/internal/cache"
	apperrors "github.com/lepinkainen/notion-books/internal/errors"
	"github.com/lepinkainen/notion-books/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duneResponse = `{
  "totalItems": 2,
  "items": [
    {
      "id": "B1hSG45JCX4C",
      "volumeInfo": {
        "title": "Dune",
        "authors": ["Frank Herbert"],
        "publisher": "Penguin",
        "publishedDate": "1965",
        "description": "  A desert planet.  ",
        "industryIdentifiers": [
          {"type": "ISBN_10", "identifier": "0441172717"},
          {"type": "ISBN_13", "identifier": "9780441172719"}
        ],
        "pageCount": 412,
        "categories": ["Fiction"],
        "imageLinks": {
          "smallThumbnail": "http://books.google.com/small",
          "thumbnail": "http://books.google.com/thumb"
        }
      }
    },
    {
      "id": "noinfo",
      "volumeInfo": {"pageCount": 0}
    }
  ]
}`

func googleBooksServer(t *testing.T, body string) *testutil.UpstreamServer {
	t.Helper()
	return testutil.NewUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestSearchNormalizesVolumes(t *testing.T) {
	server := googleBooksServer(t, duneResponse)
	client := newTestClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	results, err := client.Search(context.Background(), "  dune  ", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	dune := results[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, []string{"Frank Herbert"}, dune.Authors)
	assert.Equal(t, "9780441172719", book.Value(dune.ISBN))
	assert.Equal(t, "1965", book.Value(dune.Published))
	assert.Equal(t, "https://books.google.com/thumb", book.Value(dune.CoverURL))
	assert.Equal(t, "B1hSG45JCX4C", dune.GoogleBooksID)
	assert.Equal(t, []string{"Fiction"}, dune.Categories)
	require.NotNil(t, dune.PageCount)
	assert.Equal(t, 412, *dune.PageCount)
	assert.Equal(t, "A desert planet.", book.Value(dune.Description))
	assert.Equal(t, "Penguin", book.Value(dune.Publisher))

	empty := results[1]
	assert.Equal(t, "", empty.Title)
	assert.NotNil(t, empty.Authors)
	assert.Empty(t, empty.Authors)
	assert.NotNil(t, empty.Categories)
	assert.Nil(t, empty.ISBN)
	assert.Nil(t, empty.Published)
	assert.Nil(t, empty.CoverURL)
	assert.Nil(t, empty.PageCount)

	requests := server.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "/volumes", requests[0].Path)
	query, err := url.ParseQuery(requests[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "dune", query.Get("q"))
	assert.Equal(t, "5", query.Get("maxResults"))
	assert.False(t, query.Has("key"))
}

func TestSearchSendsAPIKey(t *testing.T) {
	server := googleBooksServer(t, `{"totalItems":0}`)
	client := NewClient("secret", WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithRateLimiter(nil))

	results, err := client.Search(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	query, err := url.ParseQuery(server.Requests()[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "secret", query.Get("key"))
	assert.Equal(t, "10", query.Get("maxResults"))
}

func TestSearchClampsMaxResults(t *testing.T) {
	server := googleBooksServer(t, `{"totalItems":0}`)
	client := newTestClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := client.Search(context.Background(), "dune", 500)
	require.NoError(t, err)

	query, err := url.ParseQuery(server.Requests()[0].Query)
	require.NoError(t, err)
	assert.Equal(t, "40", query.Get("maxResults"))
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	client := newTestClient()
	_, err := client.Search(context.Background(), "   ", 10)
	require.Error(t, err)
}

func TestSearchMalformedJSONIsUnavailable(t *testing.T) {
	server := googleBooksServer(t, `{"items": [`)
	client := newTestClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := client.Search(context.Background(), "dune", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamError(err))
	assert.Equal(t, 1, server.Count(http.MethodGet, "/volumes"))
}

func TestSearchUpstreamThrottled(t *testing.T) {
	server := testutil.NewUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	client := newTestClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := client.Search(context.Background(), "dune", 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstreamRateLimited(err))
	assert.Equal(t, 1, server.Count(http.MethodGet, "/volumes"))
}

func TestSearchCacheHitSkipsUpstream(t *testing.T) {
	env := testutil.NewTestEnv(t)
	db, err := cache.Open(env.Path("cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	server := googleBooksServer(t, duneResponse)
	client := newTestClient(
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()),
		WithCache(db, time.Hour),
	)

	first, err := client.Search(context.Background(), "Dune", 5)
	require.NoError(t, err)
	second, err := client.Search(context.Background(), "  dune ", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, server.Count(http.MethodGet, "/volumes"))

	// A different page size is a different cache entry.
	_, err = client.Search(context.Background(), "dune", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, server.Count(http.MethodGet, "/volumes"))
}

func TestSearchErrorsAreNotCached(t *testing.T) {
	env := testutil.NewTestEnv(t)
	db, err := cache.Open(env.Path("cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var calls atomic.Int32
	server := testutil.NewUpstreamServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, duneResponse)
	}))
	client := newTestClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithCache(db, time.Hour))

	_, err = client.Search(context.Background(), "dune", 10)
	require.Error(t, err)

	results, err := client.Search(context.Background(), "dune", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestBestISBN(t *testing.T) {
	tests := []struct {
		name string
		ids  []industryIdentifier
		want string
	}{
		{"none", nil, ""},
		{"prefers 13", []industryIdentifier{{"ISBN_10", "10"}, {"ISBN_13", "13"}}, "13"},
		{"falls back to 10", []industryIdentifier{{"OTHER", "x"}, {"ISBN_10", "10"}}, "10"},
		{"falls back to first", []industryIdentifier{{"OTHER", "x"}, {"ISSN", "y"}}, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bestISBN(tt.ids))
		})
	}
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t, "https://a/thumb", coverURL("http://a/thumb", "http://a/small"))
	assert.Equal(t, "https://a/small", coverURL("", "http://a/small"))
	assert.Equal(t, "https://a/secure", coverURL("https://a/secure", ""))
	assert.Equal(t, "", coverURL("", ""))
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, cacheKey("The  Hobbit", 10), cacheKey(" the hobbit ", 10))
	assert.NotEqual(t, cacheKey("hobbit", 10), cacheKey("hobbit", 20))
}
