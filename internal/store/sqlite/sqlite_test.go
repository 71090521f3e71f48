package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/law-makers/lotwatch/internal/store/storetest"
)

func TestSQLiteStore(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "lotwatch.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	defer s.Close()

	storetest.Run(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lotwatch.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	storetest.Run(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The schema is idempotent and data survives a reopen.
	s, err = New(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite store: %v", err)
	}
	defer s.Close()

	if _, err := s.GetLot(t.Context(), "200"); err != nil {
		t.Errorf("lot 200 lost after reopen: %v", err)
	}
}
