package cache

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lepinkainen/notion-books/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestData struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	env := testutil.NewTestEnv(t)
	cache, err := Open(filepath.Join(env.RootDir(), "test_cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	return cache
}

func cached(t *testing.T, c *CacheDB, table, key string) bool {
	t.Helper()
	_, ok, err := c.Get(table, key, 24*time.Hour)
	return err == nil && ok
}

func TestGetOrFetch_CacheMissThenHit(t *testing.T) {
	cache := setupTestCache(t)

	fetchCalled := 0
	fetchFunc := func() (TestData, error) {
		fetchCalled++
		return TestData{ID: 2, Name: "Fetched"}, nil
	}

	result, fromCache, err := GetOrFetch(cache, SearchTable, "dune|10", time.Hour, fetchFunc)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, fetchCalled)
	assert.Equal(t, "Fetched", result.Name)
	assert.True(t, cached(t, cache, SearchTable, "dune|10"))

	result, fromCache, err = GetOrFetch(cache, SearchTable, "dune|10", time.Hour, fetchFunc)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, 1, fetchCalled, "second call must be served from cache")
	assert.Equal(t, 2, result.ID)
}

func TestGetOrFetch_RespectsTTLExpiration(t *testing.T) {
	cache := setupTestCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	require.NoError(t, cache.Set(SearchTable, "k", `{"id":1,"name":"stale"}`))

	cache.now = func() time.Time { return base.Add(2 * time.Hour) }

	result, fromCache, err := GetOrFetch(cache, SearchTable, "k", time.Hour, func() (TestData, error) {
		return TestData{ID: 2, Name: "Fresh"}, nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, "Fresh", result.Name)
}

func TestGetOrFetch_FetchErrorNotCached(t *testing.T) {
	cache := setupTestCache(t)

	_, _, err := GetOrFetch(cache, SearchTable, "broken", time.Hour, func() (TestData, error) {
		return TestData{}, errors.New("upstream down")
	})
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.Error())
	assert.False(t, cached(t, cache, SearchTable, "broken"))
}

func TestGetOrFetch_DisabledCache(t *testing.T) {
	calls := 0
	fetch := func() (TestData, error) {
		calls++
		return TestData{ID: calls}, nil
	}

	_, fromCache, err := GetOrFetch[TestData](nil, SearchTable, "k", time.Hour, fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)

	cache := setupTestCache(t)
	_, _, _ = GetOrFetch(cache, SearchTable, "k", 0, fetch)
	_, fromCache, _ = GetOrFetch(cache, SearchTable, "k", 0, fetch)
	assert.False(t, fromCache)
	assert.Equal(t, 3, calls)
}

func TestGetOrFetch_StorageFailureFallsBackToFetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT data, cached_at").WithArgs("k").WillReturnError(errors.New("database is locked"))
	mock.ExpectExec("INSERT OR REPLACE INTO googlebooks_search_cache").WillReturnError(errors.New("disk full"))

	cache := newCacheDB(db, "mock")
	result, fromCache, err := GetOrFetch(cache, SearchTable, "k", time.Hour, func() (TestData, error) {
		return TestData{ID: 7, Name: "direct"}, nil
	})

	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 7, result.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheDB_ClearExpired(t *testing.T) {
	cache := setupTestCache(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }
	require.NoError(t, cache.Set(SearchTable, "old", `{}`))

	cache.now = func() time.Time { return base.Add(90 * time.Minute) }
	require.NoError(t, cache.Set(SearchTable, "new", `{}`))

	rows, err := cache.ClearExpired(SearchTable, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.False(t, cached(t, cache, SearchTable, "old"))
	assert.True(t, cached(t, cache, SearchTable, "new"))
}

func TestCacheDB_InvalidateSource(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set(SearchTable, "a", `{}`))
	require.NoError(t, cache.Set(SearchTable, "b", `{}`))

	rows, err := cache.InvalidateSource(SearchTable)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
	assert.False(t, cached(t, cache, SearchTable, "a"))
}

func TestCacheDB_RejectsUnknownTable(t *testing.T) {
	cache := setupTestCache(t)

	_, err := cache.InvalidateSource("users; DROP TABLE x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache table name")

	assert.Error(t, cache.Set("nope", "k", "v"))
	_, _, err = cache.Get("nope", "k", time.Hour)
	assert.Error(t, err)
	assert.False(t, cached(t, cache, "nope", "k"))
}
