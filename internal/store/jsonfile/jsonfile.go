// Package jsonfile stores each collection as a JSON array in its own file under a data directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
)

// Collection file names inside the data directory.
const (
	LotsFile     = "lots.json"
	SearchesFile = "searches.json"
	RunsFile     = "searchRuns.json"
)

// ensure jsonStore implements store.Store
var _ store.Store = (*jsonStore)(nil)

type jsonStore struct {
	mu  sync.Mutex
	dir string
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (store.Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &jsonStore{dir: dir}, nil
}

func read[T any](dir, name string) ([]T, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return items, nil
}

// write replaces the collection file atomically.
func write[T any](dir, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *jsonStore) ListSearches(ctx context.Context) ([]models.Search, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := read[models.Search](s.dir, SearchesFile)
	if err != nil {
		return nil, err
	}
	store.SortSearches(searches)
	return searches, nil
}

func (s *jsonStore) GetSearch(ctx context.Context, id string) (models.Search, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := read[models.Search](s.dir, SearchesFile)
	if err != nil {
		return models.Search{}, err
	}
	i := slices.IndexFunc(searches, func(x models.Search) bool { return x.ID == id })
	if i < 0 {
		return models.Search{}, fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	return searches[i], nil
}

func (s *jsonStore) SaveSearch(ctx context.Context, search models.Search) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := read[models.Search](s.dir, SearchesFile)
	if err != nil {
		return err
	}
	if i := slices.IndexFunc(searches, func(x models.Search) bool { return x.ID == search.ID }); i >= 0 {
		searches[i] = search
	} else {
		searches = append(searches, search)
	}
	return write(s.dir, SearchesFile, searches)
}

func (s *jsonStore) DeleteSearch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	searches, err := read[models.Search](s.dir, SearchesFile)
	if err != nil {
		return err
	}
	n := len(searches)
	searches = slices.DeleteFunc(searches, func(x models.Search) bool { return x.ID == id })
	if len(searches) == n {
		return fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	return write(s.dir, SearchesFile, searches)
}

func (s *jsonStore) ListLots(ctx context.Context, filter store.LotFilter) ([]models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lots, err := read[models.Lot](s.dir, LotsFile)
	if err != nil {
		return nil, err
	}
	lots = slices.DeleteFunc(lots, func(l models.Lot) bool { return !filter.Match(l) })
	store.SortLots(lots)
	if filter.Limit > 0 && len(lots) > filter.Limit {
		lots = lots[:filter.Limit]
	}
	return lots, nil
}

func (s *jsonStore) GetLot(ctx context.Context, id string) (models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lots, err := read[models.Lot](s.dir, LotsFile)
	if err != nil {
		return models.Lot{}, err
	}
	i := slices.IndexFunc(lots, func(l models.Lot) bool { return l.LotID == id })
	if i < 0 {
		return models.Lot{}, fmt.Errorf("lot %q: %w", id, store.ErrNotFound)
	}
	return lots[i], nil
}

func (s *jsonStore) SaveLots(ctx context.Context, incoming []models.Lot) error {
	if len(incoming) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lots, err := read[models.Lot](s.dir, LotsFile)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(lots))
	for i, l := range lots {
		index[l.LotID] = i
	}
	for _, l := range incoming {
		if i, ok := index[l.LotID]; ok {
			lots[i] = l
			continue
		}
		index[l.LotID] = len(lots)
		lots = append(lots, l)
	}
	return write(s.dir, LotsFile, lots)
}

func (s *jsonStore) DeleteLots(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lots, err := read[models.Lot](s.dir, LotsFile)
	if err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	lots = slices.DeleteFunc(lots, func(l models.Lot) bool { return drop[l.LotID] })
	return write(s.dir, LotsFile, lots)
}

func (s *jsonStore) AppendRun(ctx context.Context, run models.SearchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := read[models.SearchRun](s.dir, RunsFile)
	if err != nil {
		return err
	}
	return write(s.dir, RunsFile, append(runs, run))
}

func (s *jsonStore) ListRuns(ctx context.Context, searchID string) ([]models.SearchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runs, err := read[models.SearchRun](s.dir, RunsFile)
	if err != nil {
		return nil, err
	}
	if searchID != "" {
		runs = slices.DeleteFunc(runs, func(r models.SearchRun) bool { return r.SearchID != searchID })
	}
	return runs, nil
}

func (s *jsonStore) Close() error {
	return nil
}
