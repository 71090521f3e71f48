package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/internal/store/jsonfile"
	"github.com/law-makers/lotwatch/internal/store/storetest"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how often reads reach the backend.
type countingStore struct {
	store.Store
	lotReads    int
	searchReads int
}

func (c *countingStore) GetLot(ctx context.Context, id string) (models.Lot, error) {
	c.lotReads++
	return c.Store.GetLot(ctx, id)
}

func (c *countingStore) GetSearch(ctx context.Context, id string) (models.Search, error) {
	c.searchReads++
	return c.Store.GetSearch(ctx, id)
}

func newBackend(t *testing.T) *countingStore {
	t.Helper()
	backend, err := jsonfile.New(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return &countingStore{Store: backend}
}

func TestStore_BehavesLikeBackend(t *testing.T) {
	s := New(newBackend(t), 16, time.Minute)
	defer s.Close()
	storetest.Run(t, s)
}

func TestStore_ReadsAreCached(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	s := New(backend, 16, time.Minute)

	require.NoError(t, backend.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "Panel"}}))

	for range 3 {
		lot, err := s.GetLot(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Panel", lot.Title)
	}
	assert.Equal(t, 1, backend.lotReads)

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats["hits"])
	assert.Equal(t, uint64(1), stats["misses"])
}

func TestStore_WritesRefreshCache(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	s := New(backend, 16, time.Minute)

	require.NoError(t, s.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "Old"}}))
	require.NoError(t, s.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "New"}}))
	lot, err := s.GetLot(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "New", lot.Title)
	assert.Zero(t, backend.lotReads, "saved lots are served from cache")

	require.NoError(t, s.DeleteLots(ctx, []string{"1"}))
	_, err = s.GetLot(ctx, "1")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	require.NoError(t, s.SaveSearch(ctx, models.Search{ID: "s", Query: "q"}))
	require.NoError(t, s.DeleteSearch(ctx, "s"))
	_, err = s.GetSearch(ctx, "s")
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.Equal(t, 1, backend.searchReads)
}

func TestStore_Expiry(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	s := New(backend, 16, 20*time.Millisecond)

	require.NoError(t, s.SaveSearch(ctx, models.Search{ID: "s", Query: "q"}))
	time.Sleep(60 * time.Millisecond)

	_, err := s.GetSearch(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.searchReads, "expired entries are re-read")
}

// readDuringDelete reads through the cache while the backend delete is in progress.
type readDuringDelete struct {
	store.Store
	read func()
}

func (r *readDuringDelete) DeleteLots(ctx context.Context, ids []string) error {
	r.read()
	return r.Store.DeleteLots(ctx, ids)
}

func TestStore_DeleteLotsEvictsAfterBackend(t *testing.T) {
	ctx := context.Background()
	backend := &readDuringDelete{Store: newBackend(t)}
	s := New(backend, 16, time.Minute)

	require.NoError(t, backend.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "Panel"}}))
	backend.read = func() {
		_, err := s.GetLot(ctx, "1")
		require.NoError(t, err)
	}

	require.NoError(t, s.DeleteLots(ctx, []string{"1"}))
	_, err := s.GetLot(ctx, "1")
	assert.True(t, errors.Is(err, store.ErrNotFound), "deleted lot must not be served from cache")
}

// failingDelete refuses every delete.
type failingDelete struct {
	store.Store
}

func (failingDelete) DeleteLots(context.Context, []string) error {
	return errors.New("disk full")
}

func TestStore_FailedDeleteKeepsCache(t *testing.T) {
	ctx := context.Background()
	backend := &failingDelete{Store: newBackend(t)}
	s := New(backend, 16, time.Minute)

	require.NoError(t, s.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "Panel"}}))
	require.Error(t, s.DeleteLots(ctx, []string{"1"}))

	lot, err := s.GetLot(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Panel", lot.Title)
}
