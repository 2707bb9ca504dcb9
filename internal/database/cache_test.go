package database

import (
	"context"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kioskcache/internal/domain"
)

func key(url string) domain.CacheKey {
	return domain.CacheKey{Method: http.MethodGet, URL: url}
}

func response(status int, body string) *domain.CachedResponse {
	return &domain.CachedResponse{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}
}

func TestCacheRepo_PutAndMatch(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Put(ctx, "v1-shell", key("https://kiosk.test/app.js"), response(200, "console.log(1)")))

	got, err := repo.Match(ctx, []string{"v1-shell"}, key("https://kiosk.test/app.js"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, "console.log(1)", string(got.Body))
	assert.Equal(t, "text/plain", got.Header.Get("Content-Type"))
	assert.False(t, got.CachedAt.IsZero())

	miss, err := repo.Match(ctx, []string{"v1-shell"}, key("https://kiosk.test/missing.js"))
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCacheRepo_PutReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Put(ctx, "v1-runtime", key("https://kiosk.test/a"), response(200, "old")))
	require.NoError(t, repo.Put(ctx, "v1-runtime", key("https://kiosk.test/a"), response(404, "new")))

	got, err := repo.Match(ctx, []string{"v1-runtime"}, key("https://kiosk.test/a"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 404, got.Status)
	assert.Equal(t, "new", string(got.Body))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].Entries)
}

func TestCacheRepo_MatchPartitionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Put(ctx, "v1-shell", key("https://kiosk.test/x"), response(200, "shell")))
	require.NoError(t, repo.Put(ctx, "v1-runtime", key("https://kiosk.test/x"), response(200, "runtime")))

	got, err := repo.Match(ctx, []string{"v1-shell", "v1-runtime"}, key("https://kiosk.test/x"))
	require.NoError(t, err)
	assert.Equal(t, "shell", string(got.Body))

	got, err = repo.Match(ctx, []string{"v1-runtime", "v1-shell"}, key("https://kiosk.test/x"))
	require.NoError(t, err)
	assert.Equal(t, "runtime", string(got.Body))

	// Partitions outside the list are never consulted
	got, err = repo.Match(ctx, []string{"v2-shell"}, key("https://kiosk.test/x"))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Match(ctx, nil, key("https://kiosk.test/x"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCacheRepo_MatchIn(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Put(ctx, "v1-runtime", key("https://kiosk.test/a"), response(200, "runtime")))

	got, err := repo.MatchIn(ctx, "v1-runtime", key("https://kiosk.test/a"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "runtime", string(got.Body))

	miss, err := repo.MatchIn(ctx, "v1-shell", key("https://kiosk.test/a"))
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestCacheRepo_PutAll(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	entries := []domain.CacheEntry{
		{Key: key("https://kiosk.test/"), Response: response(200, "<html>")},
		{Key: key("https://kiosk.test/index.html"), Response: response(200, "<html>")},
		{Key: key("https://kiosk.test/styles.css"), Response: response(200, "body{}")},
	}
	require.NoError(t, repo.PutAll(ctx, "v1-shell", entries))

	for _, e := range entries {
		got, err := repo.Match(ctx, []string{"v1-shell"}, e.Key)
		require.NoError(t, err)
		assert.NotNil(t, got, e.Key.URL)
	}

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.PartitionStats{Name: "v1-shell", Entries: 3, Bytes: 18}, stats[0])
}

func TestCacheRepo_PutAllCancelled(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	ctxCancelled, cancel := context.WithCancel(ctx)
	cancel()

	err := repo.PutAll(ctxCancelled, "v1-shell", []domain.CacheEntry{
		{Key: key("https://kiosk.test/"), Response: response(200, "<html>")},
	})
	require.Error(t, err)

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestCacheRepo_KeysAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Put(ctx, "v1-shell", key("https://kiosk.test/"), response(200, "a")))
	require.NoError(t, repo.Open(ctx, "v1-runtime"))
	require.NoError(t, repo.Open(ctx, "v1-runtime"))

	keys, err := repo.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1-shell", "v1-runtime"}, keys)

	ok, err := repo.Delete(ctx, "v1-shell")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "v1-shell")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Match(ctx, []string{"v1-shell"}, key("https://kiosk.test/"))
	require.NoError(t, err)
	assert.Nil(t, got)

	keys, err = repo.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1-runtime"}, keys)
}

func TestCacheRepo_StatsEmptyPartition(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepo(zerolog.Nop(), setupTestDB(t))

	require.NoError(t, repo.Open(ctx, "v1-runtime"))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.PartitionStats{Name: "v1-runtime"}, stats[0])
}
