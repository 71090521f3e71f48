package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
	_ "modernc.org/sqlite"
)

// ensure sqliteStore implements store.Store
var _ store.Store = (*sqliteStore)(nil)

type sqliteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	required_title_terms TEXT NOT NULL DEFAULT '[]',
	required_desc_terms TEXT NOT NULL DEFAULT '[]',
	ignored_title_terms TEXT NOT NULL DEFAULT '[]',
	ignored_desc_terms TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS lots (
	lot_id TEXT PRIMARY KEY,
	search_id TEXT NOT NULL,
	title TEXT NOT NULL,
	lot_name TEXT NOT NULL,
	lot_number TEXT NOT NULL,
	location TEXT NOT NULL,
	ends_at_ms INTEGER NOT NULL,
	url TEXT NOT NULL,
	condition TEXT NOT NULL,
	description TEXT NOT NULL,
	image_urls TEXT NOT NULL DEFAULT '[]',
	image_filenames TEXT NOT NULL DEFAULT '[]',
	thumbnail_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS lots_search_id ON lots (search_id);
CREATE TABLE IF NOT EXISTS search_runs (
	id TEXT PRIMARY KEY,
	run_date TEXT NOT NULL,
	search_id TEXT NOT NULL,
	execution_time_ms INTEGER NOT NULL,
	initial_lot_count INTEGER NOT NULL,
	new_lot_count INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	ignored INTEGER NOT NULL,
	missing_requirements INTEGER NOT NULL,
	already_known INTEGER NOT NULL
);
`

// New opens (creating if needed) a SQLite-backed store.Store.
func New(dsn string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc's driver serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(s string) ([]string, error) {
	var v []string
	if s == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

const searchColumns = `id, query, name, required_title_terms, required_desc_terms, ignored_title_terms, ignored_desc_terms`

func scanSearch(row scanner) (models.Search, error) {
	var (
		s     models.Search
		lists [4]string
		err   error
	)
	if err := row.Scan(&s.ID, &s.Query, &s.Name, &lists[0], &lists[1], &lists[2], &lists[3]); err != nil {
		return s, err
	}
	targets := []*[]string{&s.RequiredTitleTerms, &s.RequiredDescTerms, &s.IgnoredTitleTerms, &s.IgnoredDescTerms}
	for i, raw := range lists {
		if *targets[i], err = decodeList(raw); err != nil {
			return s, fmt.Errorf("decode terms: %w", err)
		}
	}
	return s, nil
}

func (b *sqliteStore) ListSearches(ctx context.Context) ([]models.Search, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT `+searchColumns+` FROM searches`)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var out []models.Search
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	store.SortSearches(out)
	return out, nil
}

func (b *sqliteStore) GetSearch(ctx context.Context, id string) (models.Search, error) {
	row := b.db.QueryRowContext(ctx, `SELECT `+searchColumns+` FROM searches WHERE id = ?`, id)
	s, err := scanSearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s, fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("get search: %w", err)
	}
	return s, nil
}

func (b *sqliteStore) SaveSearch(ctx context.Context, s models.Search) error {
	args := []any{s.ID, s.Query, s.Name}
	for _, list := range [][]string{s.RequiredTitleTerms, s.RequiredDescTerms, s.IgnoredTitleTerms, s.IgnoredDescTerms} {
		enc, err := encodeList(list)
		if err != nil {
			return fmt.Errorf("encode terms: %w", err)
		}
		args = append(args, enc)
	}

	query := `
	INSERT INTO searches (` + searchColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		query = excluded.query,
		name = excluded.name,
		required_title_terms = excluded.required_title_terms,
		required_desc_terms = excluded.required_desc_terms,
		ignored_title_terms = excluded.ignored_title_terms,
		ignored_desc_terms = excluded.ignored_desc_terms
	`
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

func (b *sqliteStore) DeleteSearch(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	return nil
}

const lotColumns = `lot_id, search_id, title, lot_name, lot_number, location, ends_at_ms, url, condition, description, image_urls, image_filenames, thumbnail_count`

func scanLot(row scanner) (models.Lot, error) {
	var (
		l           models.Lot
		urls, files string
		err         error
	)
	if err := row.Scan(&l.LotID, &l.SearchID, &l.Title, &l.LotName, &l.LotNumber, &l.Location,
		&l.Timestamp, &l.URL, &l.Condition, &l.Description, &urls, &files, &l.ThumbnailCount); err != nil {
		return l, err
	}
	if l.ImageURLs, err = decodeList(urls); err != nil {
		return l, fmt.Errorf("decode image urls: %w", err)
	}
	if l.ImageFilenames, err = decodeList(files); err != nil {
		return l, fmt.Errorf("decode image filenames: %w", err)
	}
	return l, nil
}

func (b *sqliteStore) ListLots(ctx context.Context, filter store.LotFilter) ([]models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE 1=1`
	args := []any{}

	if filter.SearchID != "" {
		query += ` AND search_id = ?`
		args = append(args, filter.SearchID)
	}
	if filter.Location != "" {
		query += ` AND location = ?`
		args = append(args, filter.Location)
	}

	query += ` ORDER BY ends_at_ms, lot_id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var out []models.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return out, nil
}

func (b *sqliteStore) GetLot(ctx context.Context, id string) (models.Lot, error) {
	row := b.db.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM lots WHERE lot_id = ?`, id)
	l, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return l, fmt.Errorf("lot %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return l, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

func (b *sqliteStore) SaveLots(ctx context.Context, lots []models.Lot) error {
	if len(lots) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO lots (`+lotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (lot_id) DO UPDATE SET
		search_id = excluded.search_id,
		title = excluded.title,
		lot_name = excluded.lot_name,
		lot_number = excluded.lot_number,
		location = excluded.location,
		ends_at_ms = excluded.ends_at_ms,
		url = excluded.url,
		condition = excluded.condition,
		description = excluded.description,
		image_urls = excluded.image_urls,
		image_filenames = excluded.image_filenames,
		thumbnail_count = excluded.thumbnail_count
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range lots {
		urls, err := encodeList(l.ImageURLs)
		if err != nil {
			return fmt.Errorf("encode image urls: %w", err)
		}
		files, err := encodeList(l.ImageFilenames)
		if err != nil {
			return fmt.Errorf("encode image filenames: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, l.LotID, l.SearchID, l.Title, l.LotName, l.LotNumber, l.Location,
			l.Timestamp, l.URL, l.Condition, l.Description, urls, files, l.ThumbnailCount); err != nil {
			return fmt.Errorf("save lot %q: %w", l.LotID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *sqliteStore) DeleteLots(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM lots WHERE lot_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	return nil
}

func (b *sqliteStore) AppendRun(ctx context.Context, run models.SearchRun) error {
	query := `
	INSERT INTO search_runs (
		id, run_date, search_id, execution_time_ms, initial_lot_count, new_lot_count, errors, ignored, missing_requirements, already_known
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := b.db.ExecContext(ctx, query,
		run.ID,
		run.Date,
		run.SearchID,
		run.ExecutionTimeMs,
		run.InitialLotCount,
		run.NewLotCount,
		run.Errors,
		run.Ignored,
		run.MissingRequirements,
		run.AlreadyKnown,
	)
	if err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

func (b *sqliteStore) ListRuns(ctx context.Context, searchID string) ([]models.SearchRun, error) {
	query := `SELECT id, run_date, search_id, execution_time_ms, initial_lot_count, new_lot_count, errors, ignored, missing_requirements, already_known FROM search_runs`
	args := []any{}
	if searchID != "" {
		query += ` WHERE search_id = ?`
		args = append(args, searchID)
	}
	query += ` ORDER BY rowid`

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.SearchRun
	for rows.Next() {
		var r models.SearchRun
		if err := rows.Scan(&r.ID, &r.Date, &r.SearchID, &r.ExecutionTimeMs, &r.InitialLotCount,
			&r.NewLotCount, &r.Errors, &r.Ignored, &r.MissingRequirements, &r.AlreadyKnown); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}

func (b *sqliteStore) Close() error {
	return b.db.Close()
}
