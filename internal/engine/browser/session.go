package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

// Session is a chromedp-backed Page.
type Session struct {
	id         int
	ctx        context.Context
	cancel     context.CancelFunc
	release    context.CancelFunc
	navTimeout time.Duration
	limiter    ratelimit.RateLimiter
	closeOnce  sync.Once
}

var _ Page = (*Session)(nil)

// run executes actions bounded by timeout and by the caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return engine.ErrSessionClosed
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, url); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url)); err != nil {
		return engine.NavigationFailure(url, err)
	}
	log.Debug().Int("session_id", s.id).Str("url", url).Dur("elapsed", time.Since(start)).Msg("Navigated")
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.ExtractionTimeout(selector, err)
	}
	return fmt.Errorf("wait for %q: %w", selector, err)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, s.navTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.ExtractionTimeout(selector, err)
	}
	return fmt.Errorf("click %q: %w", selector, err)
}

func (s *Session) Evaluate(ctx context.Context, script string) error {
	if err := s.run(ctx, s.navTimeout, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("evaluate script: %w", err)
	}
	return nil
}

func (s *Session) PressEscape(ctx context.Context) error {
	if err := s.run(ctx, s.navTimeout, chromedp.KeyEvent(kb.Escape)); err != nil {
		return fmt.Errorf("press escape: %w", err)
	}
	return nil
}

// Close closes the tab, and the browser process too when the session owns one.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.release != nil {
			s.release()
		}
		log.Debug().Int("session_id", s.id).Msg("Browser session closed")
	})
	return nil
}
