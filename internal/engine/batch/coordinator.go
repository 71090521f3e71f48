// Package batch fans candidate lots out over a fixed set of browser sessions.
package batch

import (
	"context"
	"time"

	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/internal/engine/terms"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Enricher turns one candidate into an enriched lot on the given page.
type Enricher interface {
	Enrich(ctx context.Context, page browser.Page, lot models.Lot, search models.Search) (models.Lot, terms.Verdict, error)
}

// Kind classifies what happened to a candidate.
type Kind int

const (
	KindNew Kind = iota
	KindIgnored
	KindMissingRequirements
	KindError
	KindAlreadyKnown
)

func (k Kind) String() string {
	switch k {
	case KindNew:
		return "new"
	case KindIgnored:
		return "ignored"
	case KindMissingRequirements:
		return "missing_requirements"
	case KindError:
		return "error"
	case KindAlreadyKnown:
		return "known"
	}
	return "unknown"
}

// Outcome is the result of processing one candidate.
type Outcome struct {
	Worker  int
	Lot     models.Lot
	Kind    Kind
	Err     error
	Elapsed time.Duration
}

// Tally accumulates outcomes.
type Tally struct {
	New                 int
	Ignored             int
	MissingRequirements int
	Errors              int
	AlreadyKnown        int
	Lots                []models.Lot
}

// Add counts one outcome.
func (t *Tally) Add(o Outcome) {
	switch o.Kind {
	case KindNew:
		t.New++
		t.Lots = append(t.Lots, o.Lot)
	case KindIgnored:
		t.Ignored++
	case KindMissingRequirements:
		t.MissingRequirements++
	case KindError:
		t.Errors++
	case KindAlreadyKnown:
		t.AlreadyKnown++
	}
}

// Merge folds other into t.
func (t *Tally) Merge(other Tally) {
	t.New += other.New
	t.Ignored += other.Ignored
	t.MissingRequirements += other.MissingRequirements
	t.Errors += other.Errors
	t.AlreadyKnown += other.AlreadyKnown
	t.Lots = append(t.Lots, other.Lots...)
}

// Total is the number of candidates accounted for.
func (t Tally) Total() int {
	return t.New + t.Ignored + t.MissingRequirements + t.Errors + t.AlreadyKnown
}

// Coordinator runs one worker per page until the stack is drained.
type Coordinator struct {
	Enricher Enricher
	// OnOutcome is called from worker goroutines and must be safe for concurrent use.
	OnOutcome func(Outcome)
}

// Run drains stack using every page concurrently. Enriched lots are recorded in known.
// Per-candidate failures are counted, never returned; the only error is ctx ending.
func (c *Coordinator) Run(ctx context.Context, pages []browser.Page, stack *WorkStack, known *KnownRecords, search models.Search) (Tally, error) {
	tallies := make([]Tally, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			return c.worker(gctx, i, page, stack, known, search, &tallies[i])
		})
	}
	err := g.Wait()

	var total Tally
	for _, t := range tallies {
		total.Merge(t)
	}
	return total, err
}

func (c *Coordinator) worker(ctx context.Context, id int, page browser.Page, stack *WorkStack, known *KnownRecords, search models.Search, tally *Tally) error {
	logger := log.With().Int("worker_id", id).Str("search_id", search.ID).Logger()
	logger.Debug().Msg("Worker started")

	for {
		if err := ctx.Err(); err != nil {
			logger.Debug().Msg("Worker cancelled")
			return err
		}

		lot, ok := stack.Pop()
		if !ok {
			logger.Debug().Msg("Worker finished")
			return nil
		}

		o := c.process(ctx, page, lot, known, search)
		o.Worker = id
		tally.Add(o)
		if c.OnOutcome != nil {
			c.OnOutcome(o)
		}

		ev := logger.Debug()
		if o.Kind == KindError {
			ev = logger.Warn().Err(o.Err)
		}
		ev.Str("lot_id", lot.LotID).
			Str("lot_number", lot.LotNumber).
			Stringer("outcome", o.Kind).
			Dur("elapsed", o.Elapsed).
			Msg("Lot processed")
	}
}

func (c *Coordinator) process(ctx context.Context, page browser.Page, lot models.Lot, known *KnownRecords, search models.Search) Outcome {
	if !known.Reserve(lot.LotID) {
		return Outcome{Lot: lot, Kind: KindAlreadyKnown}
	}

	start := time.Now()
	enriched, verdict, err := c.Enricher.Enrich(ctx, page, lot, search)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		known.Release(lot.LotID)
		return Outcome{Lot: lot, Kind: KindError, Err: err, Elapsed: elapsed}
	case verdict == terms.Ignored:
		known.Release(lot.LotID)
		return Outcome{Lot: lot, Kind: KindIgnored, Elapsed: elapsed}
	case verdict == terms.MissingRequirements:
		known.Release(lot.LotID)
		return Outcome{Lot: lot, Kind: KindMissingRequirements, Elapsed: elapsed}
	}

	known.Put(enriched)
	return Outcome{Lot: enriched, Kind: KindNew, Elapsed: elapsed}
}
