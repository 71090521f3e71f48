package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/internal/store/storetest"
	"github.com/law-makers/lotwatch/pkg/models"
)

func TestJSONStore(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Failed to create JSON store: %v", err)
	}
	defer s.Close()

	storetest.Run(t, s)
}

func TestJSONStore_FileLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	if err := s.SaveLots(ctx, []models.Lot{{LotID: "42", Title: "Solar panel"}}); err != nil {
		t.Fatalf("SaveLots: %v", err)
	}
	if err := s.AppendRun(ctx, models.SearchRun{ID: "r1", SearchID: "s"}); err != nil {
		t.Fatalf("AppendRun: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, LotsFile))
	if err != nil {
		t.Fatalf("read lots: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n    {") {
		t.Errorf("lots.json should be an indented JSON array, got %q", string(data)[:min(20, len(data))])
	}
	if !strings.Contains(string(data), `"lotId": "42"`) {
		t.Errorf("lots.json missing lot: %s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, RunsFile)); err != nil {
		t.Errorf("searchRuns.json not written: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestJSONStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LotsFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.ListLots(context.Background(), store.LotFilter{}); err == nil {
		t.Error("expected decode error for corrupt lots.json")
	}
}
