package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/law-makers/lotwatch/internal/engine"
	"github.com/law-makers/lotwatch/internal/engine/browser"
	"github.com/law-makers/lotwatch/internal/engine/browser/browsertest"
	"github.com/law-makers/lotwatch/internal/engine/terms"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lots(ids ...string) []models.Lot {
	out := make([]models.Lot, len(ids))
	for i, id := range ids {
		out[i] = models.Lot{LotID: id, Title: "lot " + id}
	}
	return out
}

func TestWorkStack_LIFO(t *testing.T) {
	in := lots("a", "b", "c")
	s := NewWorkStack(in)
	in[0].LotID = "changed"
	assert.Equal(t, 3, s.Len())

	var order []string
	for {
		l, ok := s.Pop()
		if !ok {
			break
		}
		order = append(order, l.LotID)
	}
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.Zero(t, s.Len())
}

func TestWorkStack_ConcurrentPopHandsOutEachLotOnce(t *testing.T) {
	var ids []string
	for i := range 500 {
		ids = append(ids, fmt.Sprint(i))
	}
	s := NewWorkStack(lots(ids...))

	var (
		mu   sync.Mutex
		seen = map[string]int{}
		wg   sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				l, ok := s.Pop()
				if !ok {
					return
				}
				mu.Lock()
				seen[l.LotID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 500)
	for id, n := range seen {
		assert.Equal(t, 1, n, "lot %s popped %d times", id, n)
	}
}

func TestKnownRecords_Reserve(t *testing.T) {
	k := NewKnownRecords(map[string]models.Lot{"old": {LotID: "old"}})

	assert.False(t, k.Reserve("old"), "stored lots cannot be reserved")
	assert.True(t, k.Reserve("new"))
	assert.False(t, k.Reserve("new"), "in-flight lots cannot be reserved twice")
	assert.Equal(t, 1, k.Len(), "a reservation is not a record")

	k.Release("new")
	assert.True(t, k.Reserve("new"), "released ids can be retried")

	k.Put(models.Lot{LotID: "new", URL: "https://bid.example.com/lot/new"})
	assert.False(t, k.Reserve("new"), "recorded lots cannot be reserved")
	assert.Equal(t, 2, k.Len())
}

func TestKnownRecords_CopiesPreload(t *testing.T) {
	preload := map[string]models.Lot{"a": {LotID: "a"}}
	k := NewKnownRecords(preload)
	k.Put(models.Lot{LotID: "b"})

	assert.Len(t, preload, 1)
	assert.Equal(t, 2, k.Len())
	assert.False(t, k.Reserve("a"))
}

// scriptedEnricher decides each lot's fate by id.
type scriptedEnricher struct {
	ignored map[string]bool
	missing map[string]bool
	failing map[string]bool
	calls   atomic.Int64

	mu    sync.Mutex
	pages map[browser.Page]int
}

func (s *scriptedEnricher) Enrich(ctx context.Context, page browser.Page, lot models.Lot, _ models.Search) (models.Lot, terms.Verdict, error) {
	s.calls.Add(1)
	s.mu.Lock()
	if s.pages == nil {
		s.pages = map[browser.Page]int{}
	}
	s.pages[page]++
	s.mu.Unlock()

	switch {
	case s.failing[lot.LotID]:
		return lot, terms.Accepted, engine.ExtractionTimeout(".item-details", context.DeadlineExceeded)
	case s.ignored[lot.LotID]:
		return lot, terms.Ignored, nil
	case s.missing[lot.LotID]:
		return lot, terms.MissingRequirements, nil
	}
	lot.URL = "https://bid.example.com/lot/" + lot.LotID
	return lot, terms.Accepted, nil
}

func pages(n int) []browser.Page {
	out := make([]browser.Page, n)
	for i := range out {
		out[i] = browsertest.NewPage(nil)
	}
	return out
}

func TestCoordinator_Accounting(t *testing.T) {
	var ids []string
	for i := range 40 {
		ids = append(ids, fmt.Sprintf("L%02d", i))
	}
	enricher := &scriptedEnricher{
		ignored: map[string]bool{"L01": true, "L02": true},
		missing: map[string]bool{"L03": true},
		failing: map[string]bool{"L04": true, "L05": true, "L06": true},
	}
	known := NewKnownRecords(map[string]models.Lot{"L07": {LotID: "L07"}, "L08": {LotID: "L08"}})

	var outcomes atomic.Int64
	c := &Coordinator{
		Enricher:  enricher,
		OnOutcome: func(Outcome) { outcomes.Add(1) },
	}
	tally, err := c.Run(context.Background(), pages(4), NewWorkStack(lots(ids...)), known, models.Search{ID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, 2, tally.Ignored)
	assert.Equal(t, 1, tally.MissingRequirements)
	assert.Equal(t, 3, tally.Errors)
	assert.Equal(t, 2, tally.AlreadyKnown)
	assert.Equal(t, 32, tally.New)
	assert.Len(t, tally.Lots, 32)
	assert.Equal(t, 40, tally.Total())
	assert.EqualValues(t, 40, outcomes.Load())
	assert.EqualValues(t, 38, enricher.calls.Load(), "known lots are never enriched")

	assert.Equal(t, 34, known.Len())
	for _, id := range []string{"L01", "L03", "L04"} {
		assert.True(t, known.Reserve(id), "rejected lot %s must not become known", id)
	}
	for _, l := range tally.Lots {
		assert.NotEmpty(t, l.URL)
	}
}

func TestCoordinator_DuplicateCandidatesEnrichedOnce(t *testing.T) {
	enricher := &scriptedEnricher{}
	c := &Coordinator{Enricher: enricher}

	tally, err := c.Run(context.Background(), pages(3), NewWorkStack(lots("a", "b", "a", "a", "b")), NewKnownRecords(nil), models.Search{})
	require.NoError(t, err)

	assert.Equal(t, 2, tally.New)
	assert.Equal(t, 3, tally.AlreadyKnown)
	assert.EqualValues(t, 2, enricher.calls.Load())
}

func TestCoordinator_EveryPageWorks(t *testing.T) {
	var ids []string
	for i := range 30 {
		ids = append(ids, fmt.Sprint(i))
	}
	enricher := &slowEnricher{release: make(chan struct{})}
	ps := pages(3)

	done := make(chan Tally)
	go func() {
		tally, _ := (&Coordinator{Enricher: enricher}).Run(context.Background(), ps, NewWorkStack(lots(ids...)), NewKnownRecords(nil), models.Search{})
		done <- tally
	}()

	// Every worker blocks inside Enrich until all three have started.
	for range 3 {
		<-enricher.started()
	}
	close(enricher.release)

	tally := <-done
	assert.Equal(t, 30, tally.New)
	enricher.mu.Lock()
	assert.Len(t, enricher.pages, 3)
	enricher.mu.Unlock()
}

type slowEnricher struct {
	release chan struct{}

	once    sync.Once
	startCh chan struct{}
	mu      sync.Mutex
	pages   map[browser.Page]bool
}

func (s *slowEnricher) started() chan struct{} {
	s.once.Do(func() { s.startCh = make(chan struct{}, 64) })
	return s.startCh
}

func (s *slowEnricher) Enrich(ctx context.Context, page browser.Page, lot models.Lot, _ models.Search) (models.Lot, terms.Verdict, error) {
	s.mu.Lock()
	if s.pages == nil {
		s.pages = map[browser.Page]bool{}
	}
	first := !s.pages[page]
	s.pages[page] = true
	s.mu.Unlock()

	if first {
		s.started() <- struct{}{}
		<-s.release
	}
	return lot, terms.Accepted, nil
}

func TestCoordinator_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	enricher := &cancellingEnricher{after: 5, cancel: cancel}

	var ids []string
	for i := range 100 {
		ids = append(ids, fmt.Sprint(i))
	}
	stack := NewWorkStack(lots(ids...))
	_, err := (&Coordinator{Enricher: enricher}).Run(ctx, pages(1), stack, NewKnownRecords(nil), models.Search{})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 95, stack.Len(), "no lot is popped after cancellation")
}

type cancellingEnricher struct {
	after  int
	n      int
	cancel context.CancelFunc
}

func (c *cancellingEnricher) Enrich(_ context.Context, _ browser.Page, lot models.Lot, _ models.Search) (models.Lot, terms.Verdict, error) {
	c.n++
	if c.n == c.after {
		c.cancel()
	}
	return lot, terms.Accepted, nil
}

func TestTally_Merge(t *testing.T) {
	var a, b Tally
	a.Add(Outcome{Kind: KindNew, Lot: models.Lot{LotID: "1"}})
	a.Add(Outcome{Kind: KindError})
	b.Add(Outcome{Kind: KindIgnored})
	b.Add(Outcome{Kind: KindAlreadyKnown})
	b.Add(Outcome{Kind: KindMissingRequirements})

	a.Merge(b)
	assert.Equal(t, 5, a.Total())
	assert.Len(t, a.Lots, 1)
	assert.Equal(t, "missing_requirements", KindMissingRequirements.String())
}

func TestOptimalPoolSize(t *testing.T) {
	assert.Equal(t, 1, OptimalPoolSize(1))
	n := OptimalPoolSize(0)
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, OptimalPoolSize(2), 2)
}
