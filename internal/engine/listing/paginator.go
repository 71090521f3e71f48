package listing

import (
	"context"
	"time"

	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
)

// Paginator collects candidates from every results page of a search.
type Paginator struct {
	WaitTimeout  time.Duration
	PollInterval time.Duration
	// MaxPages stops pagination early when > 0.
	MaxPages int
	// OnPage is called after each page is parsed.
	OnPage func(index, lots int)
}

// NewPaginator returns a paginator with the given selector wait bound.
func NewPaginator(waitTimeout time.Duration) *Paginator {
	return &Paginator{WaitTimeout: waitTimeout, PollInterval: 250 * time.Millisecond}
}

// Collect loads listingURL on page and returns all candidates in page-then-row order.
func (p *Paginator) Collect(ctx context.Context, page browser.Page, listingURL, searchID string) ([]models.Lot, error) {
	if err := page.Navigate(ctx, listingURL); err != nil {
		return nil, err
	}
	if err := page.WaitVisible(ctx, GridSelector, p.WaitTimeout); err != nil {
		return nil, err
	}

	var all []models.Lot
	for pages := 1; ; pages++ {
		html, err := page.HTML(ctx)
		if err != nil {
			return nil, err
		}
		lots, err := ParseLots(html, searchID)
		if err != nil {
			return nil, err
		}
		all = append(all, lots...)

		active, hasNext, err := PageInfo(html)
		if err != nil {
			return nil, err
		}
		log.Debug().
			Str("search_id", searchID).
			Int("page", active).
			Int("lots", len(lots)).
			Bool("has_next", hasNext).
			Msg("Results page parsed")
		if p.OnPage != nil {
			p.OnPage(active, len(lots))
		}

		if !hasNext || (p.MaxPages > 0 && pages >= p.MaxPages) {
			return all, nil
		}
		if err := p.advance(ctx, page, active+1); err != nil {
			return nil, err
		}
	}
}

// advance clicks the control after the active page and waits until want is active.
func (p *Paginator) advance(ctx context.Context, page browser.Page, want int) error {
	if err := page.Click(ctx, nextLinkSelector); err != nil {
		log.Debug().Err(err).Msg("Next page link not clickable, trying page item")
		if err := page.Click(ctx, nextItemSelector); err != nil {
			return err
		}
	}

	poll := p.PollInterval
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	timeout := p.WaitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deadline := time.Now().Add(timeout)

	for {
		html, err := page.HTML(ctx)
		if err != nil {
			return err
		}
		if active, _, err := PageInfo(html); err == nil && active == want {
			return page.WaitVisible(ctx, GridSelector, timeout)
		}
		if time.Now().After(deadline) {
			return engine.ExtractionTimeout(activePageSelector, context.DeadlineExceeded).
				WithDetail("page", want)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}
