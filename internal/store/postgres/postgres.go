package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
)

// ensure postgresStore implements store.Store
var _ store.Store = (*postgresStore)(nil)

type postgresStore struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	required_title_terms TEXT[] NOT NULL DEFAULT '{}',
	required_desc_terms TEXT[] NOT NULL DEFAULT '{}',
	ignored_title_terms TEXT[] NOT NULL DEFAULT '{}',
	ignored_desc_terms TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS lots (
	lot_id TEXT PRIMARY KEY,
	search_id TEXT NOT NULL,
	title TEXT NOT NULL,
	lot_name TEXT NOT NULL,
	lot_number TEXT NOT NULL,
	location TEXT NOT NULL,
	ends_at_ms BIGINT NOT NULL,
	url TEXT NOT NULL,
	condition TEXT NOT NULL,
	description TEXT NOT NULL,
	image_urls TEXT[] NOT NULL DEFAULT '{}',
	image_filenames TEXT[] NOT NULL DEFAULT '{}',
	thumbnail_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS lots_search_id ON lots (search_id);
CREATE TABLE IF NOT EXISTS search_runs (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	run_date TEXT NOT NULL,
	search_id TEXT NOT NULL,
	execution_time_ms BIGINT NOT NULL,
	initial_lot_count INTEGER NOT NULL,
	new_lot_count INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	ignored INTEGER NOT NULL,
	missing_requirements INTEGER NOT NULL,
	already_known INTEGER NOT NULL
);
`

// New connects to Postgres and creates the schema if needed.
func New(ctx context.Context, dsn string) (store.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

// list keeps NOT NULL array columns happy and reads empty arrays back as nil.
func list(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func orNil(v []string) []string {
	if len(v) == 0 {
		return nil
	}
	return v
}

const searchColumns = `id, query, name, required_title_terms, required_desc_terms, ignored_title_terms, ignored_desc_terms`

func scanSearch(row pgx.Row) (models.Search, error) {
	var s models.Search
	err := row.Scan(&s.ID, &s.Query, &s.Name, &s.RequiredTitleTerms, &s.RequiredDescTerms, &s.IgnoredTitleTerms, &s.IgnoredDescTerms)
	s.RequiredTitleTerms = orNil(s.RequiredTitleTerms)
	s.RequiredDescTerms = orNil(s.RequiredDescTerms)
	s.IgnoredTitleTerms = orNil(s.IgnoredTitleTerms)
	s.IgnoredDescTerms = orNil(s.IgnoredDescTerms)
	return s, err
}

func (b *postgresStore) ListSearches(ctx context.Context) ([]models.Search, error) {
	rows, err := b.pool.Query(ctx, `SELECT `+searchColumns+` FROM searches`)
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

func (b *postgresStore) GetSearch(ctx context.Context, id string) (models.Search, error) {
	s, err := scanSearch(b.pool.QueryRow(ctx, `SELECT `+searchColumns+` FROM searches WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return s, fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("get search: %w", err)
	}
	return s, nil
}

func (b *postgresStore) SaveSearch(ctx context.Context, s models.Search) error {
	query := `
	INSERT INTO searches (` + searchColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		query = EXCLUDED.query,
		name = EXCLUDED.name,
		required_title_terms = EXCLUDED.required_title_terms,
		required_desc_terms = EXCLUDED.required_desc_terms,
		ignored_title_terms = EXCLUDED.ignored_title_terms,
		ignored_desc_terms = EXCLUDED.ignored_desc_terms
	`
	_, err := b.pool.Exec(ctx, query,
		s.ID,
		s.Query,
		s.Name,
		list(s.RequiredTitleTerms),
		list(s.RequiredDescTerms),
		list(s.IgnoredTitleTerms),
		list(s.IgnoredDescTerms),
	)
	if err != nil {
		return fmt.Errorf("save search: %w", err)
	}
	return nil
}

func (b *postgresStore) DeleteSearch(ctx context.Context, id string) error {
	tag, err := b.pool.Exec(ctx, `DELETE FROM searches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete search: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("search %q: %w", id, store.ErrNotFound)
	}
	return nil
}

const lotColumns = `lot_id, search_id, title, lot_name, lot_number, location, ends_at_ms, url, condition, description, image_urls, image_filenames, thumbnail_count`

func scanLot(row pgx.Row) (models.Lot, error) {
	var l models.Lot
	err := row.Scan(&l.LotID, &l.SearchID, &l.Title, &l.LotName, &l.LotNumber, &l.Location,
		&l.Timestamp, &l.URL, &l.Condition, &l.Description, &l.ImageURLs, &l.ImageFilenames, &l.ThumbnailCount)
	l.ImageURLs = orNil(l.ImageURLs)
	l.ImageFilenames = orNil(l.ImageFilenames)
	return l, err
}

func (b *postgresStore) ListLots(ctx context.Context, filter store.LotFilter) ([]models.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.SearchID != "" {
		query += fmt.Sprintf(` AND search_id = $%d`, paramCount)
		args = append(args, filter.SearchID)
		paramCount++
	}
	if filter.Location != "" {
		query += fmt.Sprintf(` AND location = $%d`, paramCount)
		args = append(args, filter.Location)
		paramCount++
	}

	query += ` ORDER BY ends_at_ms, lot_id`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
	}

	rows, err := b.pool.Query(ctx, query, args...)
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

func (b *postgresStore) GetLot(ctx context.Context, id string) (models.Lot, error) {
	l, err := scanLot(b.pool.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE lot_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return l, fmt.Errorf("lot %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return l, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

const upsertLot = `
INSERT INTO lots (` + lotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (lot_id) DO UPDATE SET
	search_id = EXCLUDED.search_id,
	title = EXCLUDED.title,
	lot_name = EXCLUDED.lot_name,
	lot_number = EXCLUDED.lot_number,
	location = EXCLUDED.location,
	ends_at_ms = EXCLUDED.ends_at_ms,
	url = EXCLUDED.url,
	condition = EXCLUDED.condition,
	description = EXCLUDED.description,
	image_urls = EXCLUDED.image_urls,
	image_filenames = EXCLUDED.image_filenames,
	thumbnail_count = EXCLUDED.thumbnail_count
`

func (b *postgresStore) SaveLots(ctx context.Context, lots []models.Lot) error {
	if len(lots) == 0 {
		return nil
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, l := range lots {
		batch.Queue(upsertLot, l.LotID, l.SearchID, l.Title, l.LotName, l.LotNumber, l.Location,
			l.Timestamp, l.URL, l.Condition, l.Description, list(l.ImageURLs), list(l.ImageFilenames), l.ThumbnailCount)
	}

	br := tx.SendBatch(ctx, batch)
	for _, l := range lots {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("save lot %q: %w", l.LotID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("save lots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *postgresStore) DeleteLots(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := b.pool.Exec(ctx, `DELETE FROM lots WHERE lot_id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("delete lots: %w", err)
	}
	return nil
}

func (b *postgresStore) AppendRun(ctx context.Context, run models.SearchRun) error {
	query := `
	INSERT INTO search_runs (
		id, run_date, search_id, execution_time_ms, initial_lot_count, new_lot_count, errors, ignored, missing_requirements, already_known
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := b.pool.Exec(ctx, query,
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

func (b *postgresStore) ListRuns(ctx context.Context, searchID string) ([]models.SearchRun, error) {
	query := `SELECT id, run_date, search_id, execution_time_ms, initial_lot_count, new_lot_count, errors, ignored, missing_requirements, already_known FROM search_runs`
	args := []any{}
	if searchID != "" {
		query += ` WHERE search_id = $1`
		args = append(args, searchID)
	}
	query += ` ORDER BY seq`

	rows, err := b.pool.Query(ctx, query, args...)
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

func (b *postgresStore) Close() error {
	b.pool.Close()
	return nil
}
