// Package scrape runs one search end to end: paginate, title filter, enrich in a pool.
package scrape

import (
	"context"
	"errors"
	"time"

	"github.com/law-makers/lotwatch/internal/engine/batch"
	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/internal/engine/listing"
	"github.com/law-makers/lotwatch/internal/engine/terms"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultPoolSize is the number of extra sessions opened for enrichment.
const DefaultPoolSize = 3

// Scraper is the entry point for a single search.
type Scraper struct {
	Opener    browser.Opener
	Paginator *listing.Paginator
	Enricher  batch.Enricher

	BaseURL  string
	PageSize int
	// PoolSize sessions are opened on top of the main session, which also works the stack.
	PoolSize int

	OnCandidates func(total, afterTitleFilter int)
	OnOutcome    func(batch.Outcome)
}

// Scrape runs search against the site. Lots enriched successfully are added to known.
// Every session opened is closed before Scrape returns.
func (s *Scraper) Scrape(ctx context.Context, search models.Search, known *batch.KnownRecords) (result *models.ScrapeResult, err error) {
	start := time.Now()
	logger := log.With().Str("search_id", search.ID).Str("query", search.Query).Logger()

	var pages []browser.Page
	defer func() {
		var closeErrs []error
		for _, p := range pages {
			if cerr := p.Close(); cerr != nil {
				closeErrs = append(closeErrs, cerr)
			}
		}
		if len(closeErrs) > 0 {
			logger.Warn().Err(errors.Join(closeErrs...)).Int("sessions", len(pages)).Msg("Failed to close browser sessions")
		}
	}()

	mainPage, err := s.Opener.Open(ctx)
	if err != nil {
		return nil, err
	}
	pages = append(pages, mainPage)

	listingURL := listing.BuildURL(s.BaseURL, search.Query, s.PageSize)
	logger.Info().Str("url", listingURL).Msg("Collecting candidates")

	candidates, err := s.Paginator.Collect(ctx, mainPage, listingURL, search.ID)
	if err != nil {
		return nil, err
	}

	result = &models.ScrapeResult{InitialLotCount: len(candidates)}
	kept := make([]models.Lot, 0, len(candidates))
	for _, lot := range candidates {
		switch terms.Match(lot.Title, search.RequiredTitleTerms, search.IgnoredTitleTerms) {
		case terms.Ignored:
			result.IgnoredCount++
		case terms.MissingRequirements:
			result.MissingRequirementsCount++
		default:
			kept = append(kept, lot)
		}
	}
	if s.OnCandidates != nil {
		s.OnCandidates(len(candidates), len(kept))
	}
	logger.Info().
		Int("candidates", len(candidates)).
		Int("kept", len(kept)).
		Int("ignored", result.IgnoredCount).
		Int("missing_requirements", result.MissingRequirementsCount).
		Msg("Title filter applied")

	if len(kept) > 0 {
		poolSize := s.PoolSize
		if poolSize < 0 {
			poolSize = 0
		}
		// A pool larger than the work only adds idle browsers.
		if poolSize > len(kept)-1 {
			poolSize = len(kept) - 1
		}
		for range poolSize {
			p, err := s.Opener.Open(ctx)
			if err != nil {
				return nil, err
			}
			pages = append(pages, p)
		}

		coord := &batch.Coordinator{Enricher: s.Enricher, OnOutcome: s.OnOutcome}
		tally, err := coord.Run(ctx, pages, batch.NewWorkStack(kept), known, search)
		if err != nil {
			return nil, err
		}

		result.NewLotCount = tally.New
		result.IgnoredCount += tally.Ignored
		result.MissingRequirementsCount += tally.MissingRequirements
		result.LotErrors = tally.Errors
		result.AlreadyKnownCount = tally.AlreadyKnown
		result.Lots = tally.Lots
	}

	result.ExecutionTime = time.Since(start)
	logger.Info().
		Int("initial", result.InitialLotCount).
		Int("new", result.NewLotCount).
		Int("ignored", result.IgnoredCount).
		Int("missing_requirements", result.MissingRequirementsCount).
		Int("errors", result.LotErrors).
		Int("known", result.AlreadyKnownCount).
		Dur("elapsed", result.ExecutionTime).
		Msg("Scrape complete")

	return result, nil
}
