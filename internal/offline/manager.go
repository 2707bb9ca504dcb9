// Package offline implements the kiosk's offline cache manager: it installs a
// generation's shell into a versioned partition, evicts older generations on
// activation, and answers intercepted GET requests from cache or network.
package offline

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
)

// RootDocument is served to navigations when both the network and the exact
// cache entry are unavailable
const RootDocument = "./index.html"

// Worker is the event surface the host drives
type Worker interface {
	OnInstall(ctx context.Context) error
	OnActivate(ctx context.Context) ([]string, error)
	OnIntercept(ctx context.Context, req *domain.Request) (*domain.CachedResponse, error)
}

// Controller receives the lifecycle signals a manager raises
type Controller interface {
	// SkipWaiting asks to activate m without waiting for open pages to close
	SkipWaiting(m *Manager)
	// Claim asks to route every open page through m immediately
	Claim(m *Manager)
}

// Config holds everything a single generation needs
type Config struct {
	Generation   string
	ShellFiles   []string
	Origin       *url.URL
	ContentHosts []string
}

// NewConfig validates cfg and parses its origin
func NewConfig(cfg *domain.Config) (Config, error) {
	if cfg.Generation == "" {
		return Config{}, errors.New("generation is required")
	}

	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid origin %q", cfg.Origin)
	}
	if !origin.IsAbs() || origin.Host == "" {
		return Config{}, errors.Errorf("origin must be an absolute URL, got %q", cfg.Origin)
	}
	if origin.Path == "" {
		origin.Path = "/"
	}

	return Config{
		Generation:   cfg.Generation,
		ShellFiles:   append([]string(nil), cfg.ShellFiles...),
		Origin:       origin,
		ContentHosts: append([]string(nil), cfg.ContentHosts...),
	}, nil
}

// Manager is one generation's offline cache manager
type Manager struct {
	log        zerolog.Logger
	cfg        Config
	storage    domain.CacheStorage
	fetcher    domain.Fetcher
	controller Controller

	mu    sync.RWMutex
	state domain.WorkerState
}

var _ Worker = (*Manager)(nil)

// NewManager creates a manager in the installing state. controller may be nil.
func NewManager(log zerolog.Logger, cfg Config, storage domain.CacheStorage, fetcher domain.Fetcher, controller Controller) *Manager {
	return &Manager{
		log:        log.With().Str("module", "offline").Str("generation", cfg.Generation).Logger(),
		cfg:        cfg,
		storage:    storage,
		fetcher:    fetcher,
		controller: controller,
		state:      domain.StateInstalling,
	}
}

func (m *Manager) Generation() string {
	return m.cfg.Generation
}

func (m *Manager) Config() Config {
	return m.cfg
}

func (m *Manager) ShellPartition() string {
	return domain.ShellPartitionName(m.cfg.Generation)
}

func (m *Manager) RuntimePartition() string {
	return domain.RuntimePartitionName(m.cfg.Generation)
}

func (m *Manager) State() domain.WorkerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Manager) setState(s domain.WorkerState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// MarkActivated restores a manager whose generation was activated in an
// earlier process, without repeating install or eviction
func (m *Manager) MarkActivated() {
	m.setState(domain.StateActivated)
}

// MarkRedundant retires the manager once a newer generation took over
func (m *Manager) MarkRedundant() {
	m.setState(domain.StateRedundant)
}

// Resolve turns a shell path such as "./app.js" into an absolute URL
func (m *Manager) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", path)
	}
	return m.cfg.Origin.ResolveReference(ref), nil
}

// OnInstall fetches every shell file and stores them together. Nothing is
// written unless every file was fetched with a 2xx status.
func (m *Manager) OnInstall(ctx context.Context) error {
	m.setState(domain.StateInstalling)

	entries := make([]domain.CacheEntry, 0, len(m.cfg.ShellFiles))
	for _, p := range m.cfg.ShellFiles {
		u, err := m.Resolve(p)
		if err != nil {
			return m.failInstall(&InstallError{Generation: m.cfg.Generation, Path: p, Err: err})
		}

		req := &domain.Request{Method: http.MethodGet, URL: u, Mode: domain.ModeSubresource}
		resp, err := m.fetcher.Fetch(ctx, req)
		if err != nil {
			return m.failInstall(&InstallError{Generation: m.cfg.Generation, Path: p, Err: err})
		}
		if !resp.OK() {
			return m.failInstall(&InstallError{Generation: m.cfg.Generation, Path: p, Status: resp.Status})
		}

		entries = append(entries, domain.CacheEntry{Key: req.Key(), Response: resp})
	}

	if err := m.storage.PutAll(ctx, m.ShellPartition(), entries); err != nil {
		return m.failInstall(&InstallError{Generation: m.cfg.Generation, Path: m.ShellPartition(), Err: err})
	}
	if err := m.storage.Open(ctx, m.RuntimePartition()); err != nil {
		return m.failInstall(&InstallError{Generation: m.cfg.Generation, Path: m.RuntimePartition(), Err: err})
	}

	m.setState(domain.StateInstalled)
	m.log.Debug().Int("shell_files", len(entries)).Msg("installed")

	if m.controller != nil {
		m.controller.SkipWaiting(m)
	}
	return nil
}

func (m *Manager) failInstall(err error) error {
	m.setState(domain.StateRedundant)
	return err
}

// OnActivate deletes every partition that does not belong to this generation
// and claims open pages. A partition that cannot be deleted is logged and
// skipped; listing the partitions must succeed.
func (m *Manager) OnActivate(ctx context.Context) ([]string, error) {
	m.setState(domain.StateActivating)

	keys, err := m.storage.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cache partitions")
	}

	var deleted []string
	for _, k := range keys {
		if strings.HasPrefix(k, m.cfg.Generation) {
			continue
		}
		ok, err := m.storage.Delete(ctx, k)
		if err != nil {
			m.log.Warn().Err(err).Str("partition", k).Msg("failed to delete stale partition")
			continue
		}
		if ok {
			deleted = append(deleted, k)
		}
	}

	m.setState(domain.StateActivated)
	m.log.Debug().Strs("deleted", deleted).Msg("activated")

	if m.controller != nil {
		m.controller.Claim(m)
	}
	return deleted, nil
}

// OnIntercept answers a single intercepted request
func (m *Manager) OnIntercept(ctx context.Context, req *domain.Request) (*domain.CachedResponse, error) {
	if req.Method != http.MethodGet {
		return nil, ErrPassThrough
	}

	switch m.State() {
	case domain.StateActivating, domain.StateActivated:
	default:
		return nil, ErrNotActive
	}

	if !req.URL.IsAbs() {
		r := *req
		r.URL = m.cfg.Origin.ResolveReference(req.URL)
		req = &r
	}

	class := m.Classify(req.URL)
	switch class {
	case domain.ClassSameOrigin:
		return m.cacheFirst(ctx, req, class)
	default:
		return m.networkFirst(ctx, req, class)
	}
}
