// Package store defines where searches, lots and run-audit entries are persisted.
package store

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/law-makers/lotwatch/pkg/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// LotFilter narrows ListLots. Empty fields match everything.
type LotFilter struct {
	SearchID string
	Location string
	Limit    int
}

// Store is implemented by every persistence backend.
type Store interface {
	ListSearches(ctx context.Context) ([]models.Search, error)
	GetSearch(ctx context.Context, id string) (models.Search, error)
	// SaveSearch inserts or replaces a search by id.
	SaveSearch(ctx context.Context, s models.Search) error
	DeleteSearch(ctx context.Context, id string) error

	ListLots(ctx context.Context, filter LotFilter) ([]models.Lot, error)
	GetLot(ctx context.Context, id string) (models.Lot, error)
	// SaveLots inserts or replaces lots by lot id.
	SaveLots(ctx context.Context, lots []models.Lot) error
	DeleteLots(ctx context.Context, ids []string) error

	AppendRun(ctx context.Context, run models.SearchRun) error
	// ListRuns returns runs oldest first. An empty searchID lists every run.
	ListRuns(ctx context.Context, searchID string) ([]models.SearchRun, error)

	Close() error
}

// KnownRecords loads every stored lot keyed by lot id.
func KnownRecords(ctx context.Context, s Store) (map[string]models.Lot, error) {
	lots, err := s.ListLots(ctx, LotFilter{})
	if err != nil {
		return nil, err
	}
	known := make(map[string]models.Lot, len(lots))
	for _, l := range lots {
		known[l.LotID] = l
	}
	return known, nil
}

// SortSearches orders searches the way they are run: by display name, then id.
func SortSearches(searches []models.Search) {
	slices.SortStableFunc(searches, func(a, b models.Search) int {
		return cmp.Or(cmp.Compare(a.DisplayName(), b.DisplayName()), cmp.Compare(a.ID, b.ID))
	})
}

// SortLots orders lots by auction end, then id.
func SortLots(lots []models.Lot) {
	slices.SortStableFunc(lots, func(a, b models.Lot) int {
		return cmp.Or(cmp.Compare(a.Timestamp, b.Timestamp), cmp.Compare(a.LotID, b.LotID))
	})
}

// Match reports whether lot passes filter, ignoring Limit.
func (f LotFilter) Match(lot models.Lot) bool {
	if f.SearchID != "" && lot.SearchID != f.SearchID {
		return false
	}
	if f.Location != "" && lot.Location != f.Location {
		return false
	}
	return true
}
