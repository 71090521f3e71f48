package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/law-makers/lotwatch/internal/config"
	"github.com/law-makers/lotwatch/internal/engine/batch"
	"github.com/law-makers/lotwatch/internal/engine/terms"
	"github.com/law-makers/lotwatch/internal/reqctx"
	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
)

// RunHooks observe a search while it runs. Either field may be nil.
type RunHooks struct {
	OnCandidates func(search models.Search, total, kept int)
	OnOutcome    func(search models.Search, o batch.Outcome)
}

// Report is what happened to one search.
type Report struct {
	Search models.Search
	Result *models.ScrapeResult
	Run    models.SearchRun
	Err    error
}

// LoadKnown builds the known-records set from every stored lot.
func (a *Application) LoadKnown(ctx context.Context) (*batch.KnownRecords, error) {
	lots, err := store.KnownRecords(ctx, a.Store)
	if err != nil {
		return nil, fmt.Errorf("load known records: %w", err)
	}
	return batch.NewKnownRecords(lots), nil
}

// RunSearch scrapes one search, saves its new lots and appends the run-audit entry.
// known is updated in place so later searches see what this one found.
func (a *Application) RunSearch(ctx context.Context, search models.Search, known *batch.KnownRecords, hooks RunHooks) Report {
	ctx = reqctx.WithRun(ctx)
	rc := reqctx.GetRunContext(ctx)
	logger := reqctx.Logger(ctx).With().Str("search_id", search.ID).Logger()
	report := Report{Search: search}

	s := *a.Scraper
	if hooks.OnCandidates != nil {
		s.OnCandidates = func(total, kept int) { hooks.OnCandidates(search, total, kept) }
	}
	if hooks.OnOutcome != nil {
		s.OnOutcome = func(o batch.Outcome) { hooks.OnOutcome(search, o) }
	}

	logger.Info().Str("query", search.Query).Msg("Running search")
	res, err := s.Scrape(ctx, search, known)
	if err != nil {
		a.Metrics.IncSearchFailure()
		logger.Error().Err(err).Msg("Search failed")
		report.Err = reqctx.NewRunError(ctx, err)
		return report
	}
	report.Result = res
	a.recordOutcomes(search, res)

	if len(res.Lots) > 0 {
		if err := a.Store.SaveLots(ctx, res.Lots); err != nil {
			a.Metrics.IncSearchFailure()
			logger.Error().Err(err).Int("lots", len(res.Lots)).Msg("Failed to save lots")
			report.Err = reqctx.NewRunError(ctx, fmt.Errorf("save lots: %w", err))
			return report
		}
	}

	report.Run = models.SearchRun{
		ID:                  rc.RunID,
		Date:                rc.StartTime.Format(models.RunDateLayout),
		SearchID:            search.ID,
		ExecutionTimeMs:     res.ExecutionTime.Milliseconds(),
		InitialLotCount:     res.InitialLotCount,
		NewLotCount:         res.NewLotCount,
		Errors:              res.LotErrors,
		Ignored:             res.IgnoredCount,
		MissingRequirements: res.MissingRequirementsCount,
		AlreadyKnown:        res.AlreadyKnownCount,
	}
	if err := a.Store.AppendRun(ctx, report.Run); err != nil {
		logger.Error().Err(err).Msg("Failed to record search run")
		report.Err = reqctx.NewRunError(ctx, fmt.Errorf("append run: %w", err))
		return report
	}

	logger.Info().
		Int("new", res.NewLotCount).
		Dur("elapsed", res.ExecutionTime).
		Msg("Search complete")
	return report
}

func (a *Application) recordOutcomes(search models.Search, res *models.ScrapeResult) {
	a.Metrics.ObserveScrape(search.ID, res.ExecutionTime)
	a.Metrics.AddLots(batch.KindNew.String(), res.NewLotCount)
	a.Metrics.AddLots(batch.KindIgnored.String(), res.IgnoredCount)
	a.Metrics.AddLots(batch.KindMissingRequirements.String(), res.MissingRequirementsCount)
	a.Metrics.AddLots(batch.KindError.String(), res.LotErrors)
	a.Metrics.AddLots(batch.KindAlreadyKnown.String(), res.AlreadyKnownCount)
}

// RunSearches runs searches one after another over a single known-records set.
// A failed search is reported and the next one still runs. The returned error is
// only set when the run could not start or ctx was cancelled.
func (a *Application) RunSearches(ctx context.Context, searches []models.Search, hooks RunHooks) ([]Report, error) {
	known, err := a.LoadKnown(ctx)
	if err != nil {
		return nil, err
	}
	a.Logger.Info().Int("searches", len(searches)).Int("known", known.Len()).Msg("Starting runs")

	start := time.Now()
	reports := make([]Report, 0, len(searches))
	for _, search := range searches {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		reports = append(reports, a.RunSearch(ctx, search, known, hooks))
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	a.Logger.Info().
		Int("searches", len(reports)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Runs complete")
	return reports, ctx.Err()
}

// FailedReports joins the errors of every failed report, or returns nil.
func FailedReports(reports []Report) error {
	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("search %s: %w", r.Search.ID, r.Err))
		}
	}
	return errors.Join(errs...)
}

// ResolveSearch returns the stored search with id arg, or an unsaved ad-hoc search
// whose query is arg.
func (a *Application) ResolveSearch(ctx context.Context, arg string) (models.Search, error) {
	s, err := a.Store.GetSearch(ctx, arg)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Search{}, err
	}
	return NewSearch(models.Search{ID: AdHocID(arg), Query: arg})
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// AdHocID derives a stable search id from a free-text query.
func AdHocID(query string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(query), "-"), "-")
	if slug == "" {
		slug = "query"
	}
	return "q-" + slug
}

// NewSearch cleans the term lists of s, assigns an id when missing and validates it.
func NewSearch(s models.Search) (models.Search, error) {
	s.Query = strings.TrimSpace(s.Query)
	s.Name = strings.TrimSpace(s.Name)
	if s.ID == "" {
		s.ID = reqctx.NewID()
	}
	s.RequiredTitleTerms = cleanTerms(s.RequiredTitleTerms)
	s.RequiredDescTerms = cleanTerms(s.RequiredDescTerms)
	s.IgnoredTitleTerms = cleanTerms(s.IgnoredTitleTerms)
	s.IgnoredDescTerms = cleanTerms(s.IgnoredDescTerms)

	if err := config.ValidateStruct(s); err != nil {
		return models.Search{}, fmt.Errorf("invalid search: %w", err)
	}
	return s, nil
}

func cleanTerms(list []string) []string {
	return terms.Split(strings.Join(list, models.TermDelimiter), models.TermDelimiter)
}
