// internal/cache/cache.go
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/rs/zerolog/log"
)

// Store wraps a store.Store and keeps single-record reads in expiring LRU caches.
// Writes go through to the backend first and then update or drop the cached copy.
type Store struct {
	store.Store

	lots     *expirable.LRU[string, models.Lot]
	searches *expirable.LRU[string, models.Search]

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ store.Store = (*Store)(nil)

// New wraps backend. size bounds each cache; ttl <= 0 keeps entries until evicted.
func New(backend store.Store, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1024
	}
	return &Store{
		Store:    backend,
		lots:     expirable.NewLRU[string, models.Lot](size, nil, ttl),
		searches: expirable.NewLRU[string, models.Search](size, nil, ttl),
	}
}

func (s *Store) GetLot(ctx context.Context, id string) (models.Lot, error) {
	if lot, ok := s.lots.Get(id); ok {
		s.hits.Add(1)
		log.Debug().Str("lot_id", id).Msg("Cache hit")
		return lot, nil
	}
	s.misses.Add(1)

	lot, err := s.Store.GetLot(ctx, id)
	if err != nil {
		return lot, err
	}
	s.lots.Add(id, lot)
	return lot, nil
}

func (s *Store) SaveLots(ctx context.Context, lots []models.Lot) error {
	if err := s.Store.SaveLots(ctx, lots); err != nil {
		return err
	}
	for _, l := range lots {
		s.lots.Add(l.LotID, l)
	}
	return nil
}

// DeleteLots evicts only after the backend delete, so a read racing the delete
// cannot leave a deleted lot cached.
func (s *Store) DeleteLots(ctx context.Context, ids []string) error {
	if err := s.Store.DeleteLots(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		s.lots.Remove(id)
	}
	return nil
}

func (s *Store) GetSearch(ctx context.Context, id string) (models.Search, error) {
	if search, ok := s.searches.Get(id); ok {
		s.hits.Add(1)
		return search, nil
	}
	s.misses.Add(1)

	search, err := s.Store.GetSearch(ctx, id)
	if err != nil {
		return search, err
	}
	s.searches.Add(id, search)
	return search, nil
}

func (s *Store) SaveSearch(ctx context.Context, search models.Search) error {
	if err := s.Store.SaveSearch(ctx, search); err != nil {
		return err
	}
	s.searches.Add(search.ID, search)
	return nil
}

func (s *Store) DeleteSearch(ctx context.Context, id string) error {
	if err := s.Store.DeleteSearch(ctx, id); err != nil {
		return err
	}
	s.searches.Remove(id)
	return nil
}

// Clear drops every cached record.
func (s *Store) Clear() {
	s.lots.Purge()
	s.searches.Purge()
	log.Debug().Msg("Cache cleared")
}

func (s *Store) Close() error {
	s.Clear()
	return s.Store.Close()
}

// Stats returns cache statistics including hit rate
func (s *Store) Stats() map[string]interface{} {
	hits, misses := s.hits.Load(), s.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return map[string]interface{}{
		"lots":     s.lots.Len(),
		"searches": s.searches.Len(),
		"hits":     hits,
		"misses":   misses,
		"hit_rate": hitRate,
	}
}
