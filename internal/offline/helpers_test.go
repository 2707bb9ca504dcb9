package offline

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/kioskcache/internal/database"
	"github.com/varoOP/kioskcache/internal/domain"
)

const testOrigin = "https://kiosk.test/"

var errNetworkDown = errors.New("network down")

// fakeFetcher serves canned responses and records every call
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*domain.CachedResponse
	down      bool
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]*domain.CachedResponse{}}
}

func (f *fakeFetcher) set(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = &domain.CachedResponse{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}
}

func (f *fakeFetcher) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeFetcher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *domain.Request) (*domain.CachedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := req.URL.String()
	f.calls = append(f.calls, u)
	if f.down {
		return nil, errNetworkDown
	}
	resp, ok := f.responses[u]
	if !ok {
		return &domain.CachedResponse{Status: http.StatusNotFound, Header: http.Header{}}, nil
	}
	return resp.Clone(), nil
}

// flakyStorage fails Delete for the listed partitions
type flakyStorage struct {
	domain.CacheStorage
	failDelete map[string]bool
}

func (s *flakyStorage) Delete(ctx context.Context, partition string) (bool, error) {
	if s.failDelete[partition] {
		return false, errors.Errorf("cannot delete %s", partition)
	}
	return s.CacheStorage.Delete(ctx, partition)
}

func newTestStorage(t *testing.T) *database.CacheRepo {
	t.Helper()

	db, err := database.NewDB(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewCacheRepo(zerolog.Nop(), db)
}

func testConfig(t *testing.T, generation string, shell ...string) Config {
	t.Helper()

	cfg, err := NewConfig(&domain.Config{
		Generation:   generation,
		ShellFiles:   shell,
		Origin:       testOrigin,
		ContentHosts: domain.DefaultContentHosts,
	})
	require.NoError(t, err)
	return cfg
}

func get(t *testing.T, rawURL string, mode domain.RequestMode) *domain.Request {
	t.Helper()

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &domain.Request{Method: http.MethodGet, URL: u, Mode: mode, Header: http.Header{}}
}

// recordingController records lifecycle signals
type recordingController struct {
	skipped []string
	claimed []string
}

func (c *recordingController) SkipWaiting(m *Manager) {
	c.skipped = append(c.skipped, m.Generation())
}

func (c *recordingController) Claim(m *Manager) {
	c.claimed = append(c.claimed, m.Generation())
}

// activeManager installs and activates a generation
func activeManager(t *testing.T, storage domain.CacheStorage, fetcher domain.Fetcher, cfg Config) *Manager {
	t.Helper()

	m := NewManager(zerolog.Nop(), cfg, storage, fetcher, nil)
	require.NoError(t, m.OnInstall(context.Background()))
	_, err := m.OnActivate(context.Background())
	require.NoError(t, err)
	return m
}
