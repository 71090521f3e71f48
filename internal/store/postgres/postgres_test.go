package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/law-makers/lotwatch/internal/store/storetest"
)

func TestPostgresStore(t *testing.T) {
	// Only run this test if LOTWATCH_TEST_PG_DSN is set
	dsn := os.Getenv("LOTWATCH_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres store test: LOTWATCH_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	s, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres store: %v", err)
	}
	defer s.Close()

	pg := s.(*postgresStore)
	if _, err := pg.pool.Exec(ctx, `TRUNCATE searches, lots, search_runs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	storetest.Run(t, s)
}
