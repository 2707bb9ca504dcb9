// Package host drives offline managers through their lifecycle, keeps track
// of which generation is in control, and hands intercepted requests to it.
package host

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/domain"
	"github.com/varoOP/kioskcache/internal/offline"
)

type controlled struct {
	manager *offline.Manager
	reg     *domain.Registration
}

// Host owns the cache storage and routes requests to the active manager
type Host struct {
	log           zerolog.Logger
	origin        *url.URL
	storage       domain.CacheStorage
	registrations domain.RegistrationRepo
	fetcher       domain.Fetcher
	network       http.RoundTripper
	notifier      domain.NotificationService

	mu     sync.Mutex
	active atomic.Pointer[controlled]
	regs   map[*offline.Manager]*domain.Registration
}

// Options configures a Host. Network and Notifier are optional.
type Options struct {
	Origin        *url.URL
	Storage       domain.CacheStorage
	Registrations domain.RegistrationRepo
	Fetcher       domain.Fetcher
	Network       http.RoundTripper
	Notifier      domain.NotificationService
}

func New(log zerolog.Logger, opts Options) *Host {
	network := opts.Network
	if network == nil {
		network = http.DefaultTransport
	}
	return &Host{
		log:           log.With().Str("module", "host").Logger(),
		origin:        opts.Origin,
		storage:       opts.Storage,
		registrations: opts.Registrations,
		fetcher:       opts.Fetcher,
		network:       network,
		notifier:      opts.Notifier,
		regs:          make(map[*offline.Manager]*domain.Registration),
	}
}

var _ offline.Controller = (*Host)(nil)

// SkipWaiting is raised by a manager right after a successful install
func (h *Host) SkipWaiting(m *offline.Manager) {
	h.log.Debug().Str("generation", m.Generation()).Msg("skip waiting requested")
}

// Claim puts m in control of every subsequent intercepted request
func (h *Host) Claim(m *offline.Manager) {
	h.active.Store(&controlled{manager: m, reg: h.regs[m]})
	h.log.Debug().Str("generation", m.Generation()).Msg("claimed clients")
}

// Active returns the manager in control, or nil
func (h *Host) Active() *offline.Manager {
	if c := h.active.Load(); c != nil {
		return c.manager
	}
	return nil
}

// ActiveRegistration returns the registration record of the manager in control
func (h *Host) ActiveRegistration() *domain.Registration {
	if c := h.active.Load(); c != nil {
		return c.reg
	}
	return nil
}

func (h *Host) Origin() *url.URL {
	if m := h.Active(); m != nil {
		return m.Config().Origin
	}
	return h.origin
}

// Resume restores the generation that was active when the host last ran.
// When that generation is the configured one cfg is used as is; otherwise the
// stored generation is restored with cfg's content hosts. Returns nil when
// nothing was ever activated.
func (h *Host) Resume(ctx context.Context, cfg offline.Config) (*offline.Manager, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg, err := h.registrations.Active(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load active registration")
	}
	if reg == nil {
		return nil, nil
	}

	if reg.Generation != cfg.Generation {
		origin, err := url.Parse(reg.Origin)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid stored origin %q", reg.Origin)
		}
		cfg = offline.Config{
			Generation:   reg.Generation,
			Origin:       origin,
			ContentHosts: cfg.ContentHosts,
		}
	}

	m := offline.NewManager(h.log, cfg, h.storage, h.fetcher, h)
	m.MarkActivated()
	h.regs[m] = reg
	h.Claim(m)

	h.log.Info().Str("generation", reg.Generation).Str("install_id", reg.InstallID).Msg("resumed active generation")
	return m, nil
}

// Register installs and activates a generation. If it is already the active
// generation nothing happens. A failed install leaves the previous generation
// in control.
func (h *Host) Register(ctx context.Context, cfg offline.Config) (*offline.Manager, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur := h.active.Load(); cur != nil && cur.manager.Generation() == cfg.Generation {
		h.log.Debug().Str("generation", cfg.Generation).Msg("generation already active")
		return cur.manager, nil
	}

	reg := &domain.Registration{
		InstallID:  ulid.Make().String(),
		Generation: cfg.Generation,
		Origin:     cfg.Origin.String(),
		State:      domain.StateInstalling,
		CreatedAt:  time.Now(),
	}
	if err := h.registrations.Create(ctx, reg); err != nil {
		return nil, errors.Wrap(err, "failed to record registration")
	}

	m := offline.NewManager(h.log, cfg, h.storage, h.fetcher, h)
	h.regs[m] = reg

	h.log.Info().Str("generation", cfg.Generation).Str("install_id", reg.InstallID).Int("shell_files", len(cfg.ShellFiles)).Msg("installing generation")

	if err := m.OnInstall(ctx); err != nil {
		h.retire(ctx, m)
		h.log.Error().Err(err).Str("generation", cfg.Generation).Msg("install failed, keeping previous generation")
		if h.notifier != nil {
			if notifyErr := h.notifier.SendInstallFailed(ctx, cfg.Generation, err); notifyErr != nil {
				h.log.Warn().Err(notifyErr).Msg("Failed to send install failure notification")
			}
		}
		return nil, err
	}
	h.setState(ctx, reg, domain.StateInstalled)

	return m, h.activate(ctx, m, reg)
}

func (h *Host) activate(ctx context.Context, m *offline.Manager, reg *domain.Registration) error {
	prev := h.active.Load()

	h.setState(ctx, reg, domain.StateActivating)
	deleted, err := m.OnActivate(ctx)
	if err != nil {
		h.retire(ctx, m)
		if prev != nil {
			h.active.Store(prev)
		}
		return errors.Wrapf(err, "failed to activate %s", m.Generation())
	}
	h.setState(ctx, reg, domain.StateActivated)

	event := domain.RolloutEvent{
		Generation:        m.Generation(),
		InstallID:         reg.InstallID,
		ShellFiles:        len(m.Config().ShellFiles),
		DeletedPartitions: deleted,
		ActivatedAt:       time.Now(),
	}
	if prev != nil && prev.manager != m {
		event.PreviousGeneration = prev.manager.Generation()
		h.retire(ctx, prev.manager)
	}

	h.log.Info().
		Str("generation", event.Generation).
		Str("previous", event.PreviousGeneration).
		Strs("deleted_partitions", deleted).
		Msg("generation activated")

	if h.notifier != nil {
		if err := h.notifier.SendActivated(ctx, event); err != nil {
			h.log.Warn().Err(err).Msg("Failed to send activation notification")
		}
	}
	return nil
}

func (h *Host) retire(ctx context.Context, m *offline.Manager) {
	m.MarkRedundant()
	if reg, ok := h.regs[m]; ok {
		h.setState(ctx, reg, domain.StateRedundant)
		delete(h.regs, m)
	}
}

// setState persists a state change. The in-memory lifecycle stays
// authoritative, so a failed write is only logged.
func (h *Host) setState(ctx context.Context, reg *domain.Registration, state domain.WorkerState) {
	if reg == nil {
		return
	}
	reg.State = state
	if err := h.registrations.UpdateState(ctx, reg.InstallID, state); err != nil {
		h.log.Warn().Err(err).Str("install_id", reg.InstallID).Str("state", string(state)).Msg("failed to persist registration state")
	}
}

// Intercept hands req to the active manager. Without an active manager the
// page is uncontrolled and the request goes straight to the network.
func (h *Host) Intercept(ctx context.Context, req *domain.Request) (*domain.CachedResponse, error) {
	c := h.active.Load()
	if c == nil {
		return h.fetcher.Fetch(ctx, req)
	}

	resp, err := c.manager.OnIntercept(ctx, req)
	if errors.Is(err, offline.ErrNotActive) {
		// c was retired while the request was being routed
		if next := h.active.Load(); next != nil && next != c {
			resp, err = next.manager.OnIntercept(ctx, req)
		}
	}
	if err != nil && !errors.Is(err, offline.ErrPassThrough) {
		h.log.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("intercept failed")
	}
	return resp, err
}
