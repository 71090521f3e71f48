package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.AddLots("new", 3)
	m.ObserveScrape("s", time.Second)
	m.IncImage(true)
	m.IncRetry()
	m.IncPage()
	m.IncSearchFailure()
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.AddLots("new", 122)
	m.AddLots("ignored", 10)
	m.AddLots("error", 0)
	m.ObserveScrape("solar", 90*time.Second)
	m.IncImage(true)
	m.IncImage(false)
	m.IncPage()
	m.IncPage()

	path := filepath.Join(t.TempDir(), "lotwatch.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	output := string(data)

	for _, want := range []string{
		`lotwatch_lots_total{outcome="new"} 122`,
		`lotwatch_lots_total{outcome="ignored"} 10`,
		`lotwatch_images_total{status="failed"} 1`,
		`lotwatch_pages_total 2`,
		`lotwatch_scrape_duration_seconds_count{search_id="solar"} 1`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, `outcome="error"`) {
		t.Error("zero additions should not create a series")
	}
}
