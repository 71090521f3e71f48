// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/lotwatch/internal/cache"
	"github.com/law-makers/lotwatch/internal/config"
	"github.com/law-makers/lotwatch/internal/downloader"
	"github.com/law-makers/lotwatch/internal/engine/batch"
	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/internal/engine/detail"
	"github.com/law-makers/lotwatch/internal/engine/listing"
	"github.com/law-makers/lotwatch/internal/engine/scrape"
	"github.com/law-makers/lotwatch/internal/metrics"
	"github.com/law-makers/lotwatch/internal/proxy"
	"github.com/law-makers/lotwatch/internal/ratelimit"
	"github.com/law-makers/lotwatch/internal/retry"
	"github.com/law-makers/lotwatch/internal/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Store       *cache.Store
	Metrics     *metrics.Metrics
	RateLimiter ratelimit.RateLimiter
	Proxies     *proxy.Pool
	Downloader  *downloader.Downloader
	Images      *downloader.LotImages
	Launcher    *browser.Launcher
	Scraper     *scrape.Scraper
	startTime   time.Time
}

// Option customises New.
type Option func(*options)

type options struct {
	opener    browser.Opener
	backend   store.Store
	logWriter io.Writer
}

// WithOpener replaces the Chrome launcher, mainly for tests.
func WithOpener(o browser.Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// WithStore uses backend instead of opening Config.StoreDSN.
func WithStore(backend store.Store) Option {
	return func(opts *options) { opts.backend = backend }
}

// WithLogWriter sends logs to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(opts *options) { opts.logWriter = w }
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the store named by the DSN and wraps it in the LRU cache
//   - Creates the per-host rate limiter, image downloader and worker pool
//   - Prepares the browser launcher (no browser is started yet)
//   - Wires the paginator, enricher and scraper together with metrics hooks
//
// If any step fails, an error is returned and no resources are left open.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := setupLogger(cfg, o.logWriter)

	backend := o.backend
	if backend == nil {
		var err error
		backend, err = OpenStore(ctx, cfg.StoreDSN)
		if err != nil {
			return nil, err
		}
	}
	cached := cache.New(backend, cfg.CacheSize, cfg.CacheTTL)
	logger.Debug().
		Str("dsn", RedactDSN(cfg.StoreDSN)).
		Int("cache_size", cfg.CacheSize).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Store initialized")

	m := metrics.New()

	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.ImageRetries
	retryCfg.OnRetry = func(attempt int, err error) { m.IncRetry() }

	dl := downloader.NewDownloader(downloader.Config{
		Timeout:   cfg.ImageTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
		Limiter:   rateLimiter,
		Retry:     retryCfg,
	})
	images := &downloader.LotImages{
		Pool: downloader.NewWorkerPool(dl, cfg.ImageConcurrency),
		Dir:  cfg.ImagesDir,
		OnResult: func(r *downloader.DownloadResult) {
			m.IncImage(r.Success)
		},
	}

	var proxies *proxy.Pool
	if len(cfg.Proxies) > 0 {
		proxies = proxy.NewPool(cfg.Proxies, proxy.DefaultCooldown)
	}

	opener := o.opener
	var launcher *browser.Launcher
	if opener == nil {
		launcher = browser.NewLauncher(browser.Options{
			ChromePath:        cfg.ChromePath,
			Headless:          cfg.Headless,
			UserAgent:         cfg.UserAgent,
			NavigationTimeout: cfg.NavigationTimeout,
			Headers:           cfg.Headers,
			Proxies:           proxies,
			Limiter:           rateLimiter,
		})
		opener = launcher
	}

	paginator := listing.NewPaginator(cfg.WaitTimeout)
	paginator.MaxPages = cfg.MaxPages
	paginator.OnPage = func(index, lots int) { m.IncPage() }

	poolSize := cfg.PoolSize
	if poolSize == config.AutoPoolSize {
		poolSize = batch.OptimalPoolSize(config.DefaultMaxPoolSize)
		logger.Debug().Int("pool_size", poolSize).Msg("Browser pool sized automatically")
	}

	scraper := &scrape.Scraper{
		Opener:    opener,
		Paginator: paginator,
		Enricher: &detail.Enricher{
			BaseURL:        cfg.BaseURL,
			WaitTimeout:    cfg.WaitTimeout,
			GalleryTimeout: cfg.GalleryTimeout,
			Images:         images,
		},
		BaseURL:  cfg.BaseURL,
		PageSize: cfg.PageSize,
		PoolSize: poolSize,
	}
	logger.Debug().
		Int("pool_size", poolSize).
		Int("page_size", cfg.PageSize).
		Str("base_url", cfg.BaseURL).
		Msg("Scraper initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Store:       cached,
		Metrics:     m,
		RateLimiter: rateLimiter,
		Proxies:     proxies,
		Downloader:  dl,
		Images:      images,
		Launcher:    launcher,
		Scraper:     scraper,
		startTime:   time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

func setupLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	// info logs only show with -v
	logLevel := zerolog.WarnLevel
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if w == nil {
		w = os.Stderr
	}
	var logWriter io.Writer = w
	if !cfg.JSONLog {
		logWriter = zerolog.ConsoleWriter{Out: w}
	}

	log.Logger = zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return log.Logger
}

// Close gracefully shuts down the application and all its resources.
//
// It performs the following cleanup steps in order:
//   - Closes the shared browser process, if one was started
//   - Writes the metrics textfile when configured
//   - Logs cache statistics and closes the store
//
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	var firstErr error
	if a.Launcher != nil {
		if err := a.Launcher.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser")
			firstErr = err
		}
	}

	if path := a.Config.MetricsFile; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			a.Logger.Warn().Err(err).Str("path", path).Msg("Error writing metrics")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.Store != nil {
		a.Logger.Debug().Fields(a.Store.Stats()).Msg("Cache statistics")
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.Logger.Info().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return firstErr
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
