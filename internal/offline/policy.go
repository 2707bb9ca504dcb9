package offline

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/varoOP/kioskcache/internal/domain"
)

func (m *Manager) partitions() []string {
	return []string{m.ShellPartition(), m.RuntimePartition()}
}

func (m *Manager) match(ctx context.Context, key domain.CacheKey) (*domain.CachedResponse, error) {
	resp, err := m.storage.Match(ctx, m.partitions(), key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to match %s", key.URL)
	}
	return resp, nil
}

// cacheFirst serves a cached copy when present and only falls through to the
// network on a miss
func (m *Manager) cacheFirst(ctx context.Context, req *domain.Request, class domain.RequestClass) (*domain.CachedResponse, error) {
	cached, err := m.match(ctx, req.Key())
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	resp, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	m.store(ctx, req, resp, class)
	return resp, nil
}

// networkFirst always tries the network and falls back to the exact cached
// request, then to the root document for navigations
func (m *Manager) networkFirst(ctx context.Context, req *domain.Request, class domain.RequestClass) (*domain.CachedResponse, error) {
	resp, fetchErr := m.fetcher.Fetch(ctx, req)
	if fetchErr == nil {
		m.store(ctx, req, resp, class)
		return resp, nil
	}

	cached, err := m.match(ctx, req.Key())
	if err != nil {
		m.log.Warn().Err(err).Str("url", req.URL.String()).Msg("cache lookup failed after network failure")
	}
	if cached != nil {
		return cached, nil
	}

	if req.IsNavigation() {
		root, err := m.Resolve(RootDocument)
		if err != nil {
			return nil, fetchErr
		}
		fallback, err := m.match(ctx, domain.CacheKey{Method: http.MethodGet, URL: root.String()})
		if err != nil {
			m.log.Warn().Err(err).Msg("root document lookup failed")
		}
		if fallback != nil {
			return fallback, nil
		}
	}

	return nil, fetchErr
}

// store writes a copy of resp into the runtime partition. Partial content and
// 304 Not Modified are never cached. A failed write does not fail the request.
func (m *Manager) store(ctx context.Context, req *domain.Request, resp *domain.CachedResponse, class domain.RequestClass) {
	if resp.Status == http.StatusPartialContent || resp.Status == http.StatusNotModified {
		return
	}
	if err := m.storage.Put(ctx, m.RuntimePartition(), req.Key(), resp.Clone()); err != nil {
		m.log.Warn().Err(err).Str("url", req.URL.String()).Str("class", class.String()).Msg("failed to store runtime copy")
	}
}
