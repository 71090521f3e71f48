// Package storetest holds behaviour checks shared by every store.Store backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises s. The store must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("searches", func(t *testing.T) { searches(t, s) })
	t.Run("lots", func(t *testing.T) { lots(t, s) })
	t.Run("runs", func(t *testing.T) { runs(t, s) })
}

func searches(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetSearch(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	solar := models.Search{
		ID:                 "solar",
		Query:              "solar panel",
		Name:               "Solar",
		RequiredTitleTerms: []string{"panel"},
		IgnoredDescTerms:   []string{"parts only", "cracked"},
	}
	inverter := models.Search{ID: "inv", Query: "inverter"}
	require.NoError(t, s.SaveSearch(ctx, solar))
	require.NoError(t, s.SaveSearch(ctx, inverter))

	got, err := s.GetSearch(ctx, "solar")
	require.NoError(t, err)
	assert.Equal(t, solar, got)

	solar.Name = "Solar panels"
	solar.RequiredTitleTerms = nil
	require.NoError(t, s.SaveSearch(ctx, solar))

	all, err := s.ListSearches(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "inv", all[0].ID, "searches are ordered by display name")
	assert.Equal(t, "Solar panels", all[1].Name)
	assert.Empty(t, all[1].RequiredTitleTerms)

	require.NoError(t, s.DeleteSearch(ctx, "inv"))
	err = s.DeleteSearch(ctx, "inv")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func lots(t *testing.T, s store.Store) {
	ctx := context.Background()

	batch := []models.Lot{
		{
			LotID: "200", SearchID: "solar", Title: "Solar panel", LotName: "Lot 200", LotNumber: "7001",
			Location: "Warehouse A", Timestamp: 1_700_000_200_000, URL: "https://bid.example.com/lot/200",
			Condition: "Used", Description: "Minor wear",
			ImageURLs:      []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
			ImageFilenames: []string{"lot_200_image_1.jpg"},
			ThumbnailCount: 2,
		},
		{LotID: "100", SearchID: "solar", Title: "Panel mount", Location: "Warehouse B", Timestamp: 1_700_000_100_000},
		{LotID: "300", SearchID: "inv", Title: "Inverter", Location: "Warehouse A", Timestamp: 1_700_000_300_000},
	}
	require.NoError(t, s.SaveLots(ctx, batch))
	require.NoError(t, s.SaveLots(ctx, nil))

	got, err := s.GetLot(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, batch[0], got)

	_, err = s.GetLot(ctx, "999")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

	all, err := s.ListLots(ctx, store.LotFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200", "300"}, ids(all))

	bySearch, err := s.ListLots(ctx, store.LotFilter{SearchID: "solar"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, ids(bySearch))

	byLocation, err := s.ListLots(ctx, store.LotFilter{Location: "Warehouse A", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"200"}, ids(byLocation))

	// Upsert keeps one record per lot id.
	updated := batch[1]
	updated.URL = "https://bid.example.com/lot/100"
	require.NoError(t, s.SaveLots(ctx, []models.Lot{updated}))
	got, err = s.GetLot(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, updated.URL, got.URL)

	known, err := store.KnownRecords(ctx, s)
	require.NoError(t, err)
	assert.Len(t, known, 3)
	assert.Contains(t, known, "300")

	require.NoError(t, s.DeleteLots(ctx, []string{"100", "300", "nope"}))
	all, err = s.ListLots(ctx, store.LotFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"200"}, ids(all))
}

func runs(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := models.SearchRun{
		ID: "run-1", Date: "2026-10-18", SearchID: "solar", ExecutionTimeMs: 1234,
		InitialLotCount: 150, NewLotCount: 122, Errors: 3, Ignored: 10, MissingRequirements: 10, AlreadyKnown: 5,
	}
	second := models.SearchRun{ID: "run-2", Date: "2026-10-19", SearchID: "inv", InitialLotCount: 1}
	third := models.SearchRun{ID: "run-3", Date: "2026-10-19", SearchID: "solar"}
	for _, r := range []models.SearchRun{first, second, third} {
		require.NoError(t, s.AppendRun(ctx, r))
	}

	all, err := s.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, first, all[0])

	solar, err := s.ListRuns(ctx, "solar")
	require.NoError(t, err)
	require.Len(t, solar, 2)
	assert.Equal(t, "run-3", solar[1].ID)
}

func ids(lots []models.Lot) []string {
	out := make([]string, len(lots))
	for i, l := range lots {
		out[i] = l.LotID
	}
	return out
}
