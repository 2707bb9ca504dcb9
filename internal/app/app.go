package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/kioskcache/internal/config"
	"github.com/varoOP/kioskcache/internal/content"
	"github.com/varoOP/kioskcache/internal/database"
	"github.com/varoOP/kioskcache/internal/domain"
	"github.com/varoOP/kioskcache/internal/fetch"
	"github.com/varoOP/kioskcache/internal/host"
	"github.com/varoOP/kioskcache/internal/logger"
	"github.com/varoOP/kioskcache/internal/notification"
	"github.com/varoOP/kioskcache/internal/offline"
	"github.com/varoOP/kioskcache/internal/repository"
	"github.com/varoOP/kioskcache/internal/shell"
)

const shutdownTimeout = 10 * time.Second

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	offline             offline.Config
	db                  *database.DB
	cacheRepo           *database.CacheRepo
	registrationRepo    domain.RegistrationRepo
	manifestRepo        domain.ManifestRepository
	host                *host.Host
	contentService      content.Service
	auditService        shell.Service
	notificationService domain.NotificationService
}

// NewApp creates a new application instance from the Viper configuration
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return New(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat), cfg)
}

// New wires every service for cfg. The caller must Close the app.
func New(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	manifestRepo := repository.NewFileRepository(log)
	if cfg.ShellManifest != "" {
		m, err := manifestRepo.Get(context.Background(), cfg.ShellManifest)
		if err != nil {
			return nil, fmt.Errorf("failed to read shell manifest: %w", err)
		}
		config.ApplyManifest(cfg, m)
		log.Debug().Str("manifest", cfg.ShellManifest).Str("generation", cfg.Generation).Msg("applied shell manifest")
	}

	offlineCfg, err := offline.NewConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid offline config: %w", err)
	}

	db, err := database.NewDB(cfg.DatabaseDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cacheRepo := database.NewCacheRepo(log, db)
	registrationRepo := database.NewRegistrationRepo(log, db)
	notificationService := notification.NewService(log, cfg.DiscordWebhookURL)

	h := host.New(log, host.Options{
		Origin:        offlineCfg.Origin,
		Storage:       cacheRepo,
		Registrations: registrationRepo,
		Fetcher:       fetch.NewFetcher(log, cfg.FetchTimeout),
		Notifier:      notificationService,
	})

	// Content requests go through the host so they are intercepted like any
	// other request the page makes.
	contentClient := &http.Client{Transport: h, Timeout: cfg.FetchTimeout}

	return &App{
		log:                 log,
		config:              cfg,
		offline:             offlineCfg,
		db:                  db,
		cacheRepo:           cacheRepo,
		registrationRepo:    registrationRepo,
		manifestRepo:        manifestRepo,
		host:                h,
		contentService:      content.NewService(log, contentClient, cfg.ContentEndpoint),
		auditService:        shell.NewService(log, cacheRepo),
		notificationService: notificationService,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) Host() *host.Host {
	return a.host
}

// Start resumes the previously active generation and then registers the
// configured one. A failed install is not fatal while an older generation
// can keep serving.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.host.Resume(ctx, a.offline); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}

	if _, err := a.host.Register(ctx, a.offline); err != nil {
		if a.host.Active() == nil {
			a.log.Warn().Err(err).Msg("no generation installed, requests go straight to the network")
			return nil
		}
		a.log.Warn().Err(err).Str("generation", a.host.Active().Generation()).Msg("serving previous generation")
	}
	return nil
}

// Serve runs the kiosk proxy until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.config.ListenAddr,
		Handler:           host.NewHandler(a.host),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.config.ListenAddr).Str("origin", a.offline.Origin.String()).Msg("kiosk proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Install registers the configured generation and returns its record
func (a *App) Install(ctx context.Context) (*domain.Registration, error) {
	if _, err := a.host.Resume(ctx, a.offline); err != nil {
		return nil, fmt.Errorf("failed to resume: %w", err)
	}

	if _, err := a.host.Register(ctx, a.offline); err != nil {
		return nil, fmt.Errorf("install failed: %w", err)
	}
	return a.host.ActiveRegistration(), nil
}

// Content loads the kiosk content and resolves it for lang
func (a *App) Content(ctx context.Context, lang string) (*content.View, error) {
	if _, err := a.host.Resume(ctx, a.offline); err != nil {
		return nil, fmt.Errorf("failed to resume: %w", err)
	}

	c, err := a.contentService.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	return content.Localize(c, content.MatchLanguage(lang)), nil
}

// Statistics summarises the cache store and registration history
type Statistics struct {
	Partitions    []domain.PartitionStats
	Registrations []*domain.Registration
}

func (a *App) Stats(ctx context.Context) (*Statistics, error) {
	partitions, err := a.cacheRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get partition stats: %w", err)
	}

	regs, err := a.registrationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	return &Statistics{Partitions: partitions, Registrations: regs}, nil
}

// Audit checks the active generation's root document against its shell partition
func (a *App) Audit(ctx context.Context) (*shell.Report, error) {
	m, err := a.host.Resume(ctx, a.offline)
	if err != nil {
		return nil, fmt.Errorf("failed to resume: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("no generation has been activated, run install first")
	}

	report, err := a.auditService.Audit(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("audit failed: %w", err)
	}
	return report, nil
}

// WriteManifest stores the configured generation and shell files at path
func (a *App) WriteManifest(ctx context.Context, path string) error {
	m := &domain.Manifest{
		Generation: a.offline.Generation,
		ShellFiles: a.offline.ShellFiles,
	}
	if err := a.manifestRepo.Store(ctx, path, m); err != nil {
		return fmt.Errorf("failed to store manifest: %w", err)
	}
	return nil
}

// Origin is the page origin requests are classified against
func (a *App) Origin() *url.URL {
	return a.offline.Origin
}
