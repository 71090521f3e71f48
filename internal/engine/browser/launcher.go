package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/proxy"
	"github.com/law-makers/lotwatch/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// Options configures how sessions are launched.
type Options struct {
	ChromePath        string
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	Headers           map[string]string
	// Proxies, when set, gives every session its own browser process routed through
	// the next healthy proxy. Without it all sessions are tabs of one browser.
	Proxies   *proxy.Pool
	Limiter   ratelimit.RateLimiter
	ExtraArgs []chromedp.ExecAllocatorOption
}

// Launcher opens browser sessions and owns the shared browser process.
type Launcher struct {
	opts     Options
	execPath string

	mu          sync.Mutex
	allocCtx    context.Context
	allocCancel context.CancelFunc
	closed      bool
	open        int
}

// NewLauncher prepares a launcher. No browser is started until the first Open.
func NewLauncher(opts Options) *Launcher {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	execPath := FindChrome(opts.ChromePath)
	if e := log.Debug(); e.Enabled() {
		e.Str("path", execPath).
			Str("version", ChromeVersion(execPath)).
			Bool("headless", opts.Headless).
			Msg("Browser launcher configured")
	}

	return &Launcher{opts: opts, execPath: execPath}
}

func (l *Launcher) allocatorOptions(proxyAddr string) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
	}
	if l.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.execPath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(l.execPath)}, allocOpts...)
	}
	if l.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if proxyAddr != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(proxyAddr))
	}
	return append(allocOpts, l.opts.ExtraArgs...)
}

// sharedAllocator returns the allocator used when no proxies are configured.
func (l *Launcher) sharedAllocator() (context.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, engine.ErrSessionClosed
	}
	if l.allocCtx == nil {
		l.allocCtx, l.allocCancel = chromedp.NewExecAllocator(context.Background(), l.allocatorOptions("")...)
	}
	return l.allocCtx, nil
}

// Open starts a new session. The tab is warmed on about:blank so a browser that
// cannot start fails here rather than on the first real navigation.
func (l *Launcher) Open(ctx context.Context) (Page, error) {
	var (
		allocCtx     context.Context
		ownAllocator context.CancelFunc
		proxyAddr    string
	)

	if l.opts.Proxies != nil {
		proxyAddr = l.opts.Proxies.Next()
	}
	if proxyAddr != "" {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil, engine.ErrSessionClosed
		}
		allocCtx, ownAllocator = chromedp.NewExecAllocator(context.Background(), l.allocatorOptions(proxyAddr)...)
	} else {
		shared, err := l.sharedAllocator()
		if err != nil {
			return nil, err
		}
		allocCtx = shared
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run binds the tab to tabCtx, so it must not carry a deadline.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx, l.warmup()...)
	stop()
	if err != nil {
		tabCancel()
		if ownAllocator != nil {
			ownAllocator()
		}
		if proxyAddr != "" {
			l.opts.Proxies.MarkFailed(proxyAddr)
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserLaunch, "starting browser session", err).
			WithDetail("proxy", proxyAddr)
	}
	if proxyAddr != "" {
		l.opts.Proxies.MarkHealthy(proxyAddr)
	}

	l.mu.Lock()
	l.open++
	id := l.open
	l.mu.Unlock()

	log.Debug().Int("session_id", id).Str("proxy", proxyAddr).Msg("Browser session opened")

	return &Session{
		id:         id,
		ctx:        tabCtx,
		cancel:     tabCancel,
		release:    ownAllocator,
		navTimeout: l.opts.NavigationTimeout,
		limiter:    l.opts.Limiter,
	}, nil
}

func (l *Launcher) warmup() []chromedp.Action {
	actions := []chromedp.Action{network.Enable()}
	if len(l.opts.Headers) > 0 {
		headers := make(network.Headers, len(l.opts.Headers))
		for k, v := range l.opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	actions = append(actions,
		emulation.SetEmulatedMedia().WithFeatures([]*emulation.MediaFeature{
			{Name: "prefers-reduced-motion", Value: "reduce"},
		}),
		chromedp.Navigate("about:blank"),
	)
	return actions
}

// Close shuts down the shared browser. Sessions with their own process are
// closed by Session.Close.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.allocCancel != nil {
		l.allocCancel()
	}
	log.Debug().Int("sessions_opened", l.open).Msg("Browser launcher closed")
	return nil
}
