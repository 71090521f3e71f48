package app_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/lotwatch/internal/app"
	"github.com/law-makers/lotwatch/internal/config"
	"github.com/law-makers/lotwatch/internal/engine/batch"
	"github.com/law-makers/lotwatch/internal/engine/browser/browsertest"
	"github.com/law-makers/lotwatch/internal/engine/listing"
	"github.com/law-makers/lotwatch/internal/store"
	"github.com/law-makers/lotwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageSize = 10

// drillSite serves 12 lots over two result pages. L03 is broken by title, L05 is
// sold for parts, L07 never renders, L00 has two images and L01 one missing image.
func drillSite(baseURL string) *browsertest.Site {
	site := &browsertest.Site{
		BaseURL:    baseURL,
		ListingURL: listing.BuildURL(baseURL, "drill", pageSize),
		PageSize:   pageSize,
		Details:    map[string]browsertest.Detail{},
	}
	for i := range 12 {
		id := fmt.Sprintf("L%02d", i)
		title := "Cordless drill"
		if i == 3 {
			title = "Broken drill"
		}
		site.Lots = append(site.Lots, models.Lot{
			LotID:     id,
			Title:     title,
			LotName:   "Lot " + id,
			LotNumber: fmt.Sprint(500 + i),
			Location:  "Dock 2",
			Timestamp: time.Date(2026, 11, 2, 12, 0, 0, 0, time.UTC).UnixMilli(),
		})
		d := browsertest.Detail{Condition: "Used", Description: "Works fine"}
		switch i {
		case 0:
			d.Images = []string{"/img/L00-1.jpg", "/img/L00-2.jpg"}
		case 1:
			d.Images = []string{"/img/missing.jpg"}
		case 5:
			d.Description = "Parts only"
		case 7:
			d.Broken = true
		}
		site.Details[id] = d
	}
	return site
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/img/L00-") {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	app    *app.Application
	opener *browsertest.Opener
	cfg    *config.Config
	logs   *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := imageServer(t)
	site := drillSite(srv.URL)
	dir := t.TempDir()

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.PageSize = pageSize
	cfg.PoolSize = 2
	cfg.WaitTimeout = time.Second
	cfg.GalleryTimeout = time.Second
	cfg.ImagesDir = filepath.Join(dir, "images")
	cfg.StoreDSN = filepath.Join(dir, "data")
	cfg.MetricsFile = filepath.Join(dir, "lotwatch.prom")
	cfg.ImageRetries = 1
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 100

	opener := &browsertest.Opener{Factory: func(int) *browsertest.Page { return site.Page() }}
	logs := &bytes.Buffer{}
	a, err := app.New(context.Background(), cfg, app.WithOpener(opener), app.WithLogWriter(logs))
	require.NoError(t, err)
	return &fixture{app: a, opener: opener, cfg: cfg, logs: logs}
}

func TestRunSearches_PersistsLotsAndRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	drill := models.Search{ID: "drill", Query: "drill", IgnoredTitleTerms: []string{"broken"}, IgnoredDescTerms: []string{"parts only"}}
	again := models.Search{ID: "drill-again", Query: "drill"}

	var mu sync.Mutex
	outcomes := map[string]int{}
	hooks := app.RunHooks{
		OnOutcome: func(s models.Search, o batch.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			outcomes[s.ID+"/"+o.Kind.String()]++
		},
	}

	reports, err := f.app.RunSearches(ctx, []models.Search{drill, again}, hooks)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.NoError(t, app.FailedReports(reports))

	first := reports[0].Result
	assert.Equal(t, 12, first.InitialLotCount)
	assert.Equal(t, 9, first.NewLotCount)
	assert.Equal(t, 2, first.IgnoredCount)
	assert.Equal(t, 1, first.LotErrors)
	assert.Equal(t, 0, first.AlreadyKnownCount)

	second := reports[1].Result
	assert.Equal(t, 2, second.NewLotCount, "L03 and L05 pass a search without terms")
	assert.Equal(t, 9, second.AlreadyKnownCount, "lots found by the first search are known to the second")
	assert.Equal(t, 1, second.LotErrors)

	assert.Equal(t, 9, outcomes["drill/new"])
	assert.Equal(t, 9, outcomes["drill-again/known"])

	lots, err := f.app.Store.ListLots(ctx, store.LotFilter{})
	require.NoError(t, err)
	assert.Len(t, lots, 11)

	l00, err := f.app.Store.GetLot(ctx, "L00")
	require.NoError(t, err)
	assert.Equal(t, "drill", l00.SearchID)
	assert.Len(t, l00.ImageURLs, 2)
	require.Len(t, l00.ImageFilenames, 2)
	for _, name := range l00.ImageFilenames {
		assert.FileExists(t, filepath.Join(f.cfg.ImagesDir, name))
	}

	l01, err := f.app.Store.GetLot(ctx, "L01")
	require.NoError(t, err)
	assert.Len(t, l01.ImageURLs, 1)
	assert.Empty(t, l01.ImageFilenames, "failed images are left out")

	runs, err := f.app.Store.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "drill", runs[0].SearchID)
	assert.Equal(t, 9, runs[0].NewLotCount)
	assert.Equal(t, 2, runs[0].Ignored)
	assert.Equal(t, 9, runs[1].AlreadyKnown)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	_, err = time.Parse(models.RunDateLayout, runs[0].Date)
	assert.NoError(t, err)

	require.NoError(t, f.opener.AllClosed())

	require.NoError(t, f.app.Close(ctx))
	prom, err := os.ReadFile(f.cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `lotwatch_lots_total{outcome="new"} 11`)
	assert.Contains(t, string(prom), `lotwatch_images_total{status="saved"} 2`)
	assert.Contains(t, string(prom), `lotwatch_images_total{status="failed"} 1`)
}

func TestNew_AutoPoolSize(t *testing.T) {
	cfg := config.Default()
	cfg.PoolSize = config.AutoPoolSize
	cfg.StoreDSN = t.TempDir()

	a, err := app.New(context.Background(), cfg, app.WithOpener(&browsertest.Opener{}), app.WithLogWriter(&bytes.Buffer{}))
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.GreaterOrEqual(t, a.Scraper.PoolSize, 1)
	assert.LessOrEqual(t, a.Scraper.PoolSize, config.DefaultMaxPoolSize)
}

func TestClose_LogsCacheStats(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	cfg.JSONLog = true
	cfg.StoreDSN = t.TempDir()
	logs := &bytes.Buffer{}

	a, err := app.New(context.Background(), cfg, app.WithOpener(&browsertest.Opener{}), app.WithLogWriter(logs))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Store.SaveLots(ctx, []models.Lot{{LotID: "1", Title: "Drill"}}))
	_, err = a.Store.GetLot(ctx, "1")
	require.NoError(t, err)
	_, err = a.Store.GetLot(ctx, "2")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, a.Close(ctx))
	assert.Contains(t, logs.String(), `"message":"Cache statistics"`)
	assert.Contains(t, logs.String(), `"hits":1`)
	assert.Contains(t, logs.String(), `"misses":1`)
}

func TestRunSearches_FailureDoesNotStopLaterSearches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unknown := models.Search{ID: "kayak", Query: "kayak"}
	drill := models.Search{ID: "drill", Query: "drill"}

	reports, err := f.app.RunSearches(ctx, []models.Search{unknown, drill}, app.RunHooks{})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Error(t, reports[0].Err)
	assert.Nil(t, reports[0].Result)
	require.NoError(t, reports[1].Err)
	assert.Equal(t, 11, reports[1].Result.NewLotCount)

	failed := app.FailedReports(reports)
	require.Error(t, failed)
	assert.Contains(t, failed.Error(), "search kayak")

	runs, err := f.app.Store.ListRuns(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1, "failed searches leave no run entry")
	assert.Equal(t, "drill", runs[0].SearchID)
	require.NoError(t, f.app.Close(ctx))
}

func TestRunSearches_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := f.app.RunSearches(ctx, []models.Search{{ID: "drill", Query: "drill"}}, app.RunHooks{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
	assert.Empty(t, f.opener.Pages())
	require.NoError(t, f.app.Close(context.Background()))
}

func TestResolveSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	defer f.app.Close(ctx)

	stored := models.Search{ID: "s1", Query: "ladder", Name: "Ladders"}
	require.NoError(t, f.app.Store.SaveSearch(ctx, stored))

	got, err := f.app.ResolveSearch(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	adhoc, err := f.app.ResolveSearch(ctx, "Table Saw 10\"")
	require.NoError(t, err)
	assert.Equal(t, "q-table-saw-10", adhoc.ID)
	assert.Equal(t, `Table Saw 10"`, adhoc.Query)
}

func TestNewSearch(t *testing.T) {
	s, err := app.NewSearch(models.Search{
		Query:              "  solar panel ",
		RequiredTitleTerms: []string{"panel", " ", ""},
		IgnoredDescTerms:   []string{" parts only "},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "solar panel", s.Query)
	assert.Equal(t, []string{"panel"}, s.RequiredTitleTerms)
	assert.Equal(t, []string{"parts only"}, s.IgnoredDescTerms)
	assert.Nil(t, s.IgnoredTitleTerms)

	_, err = app.NewSearch(models.Search{Query: "   "})
	assert.ErrorContains(t, err, "Query")
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		dsn     string
		backend app.Backend
		loc     string
	}{
		{"postgres://u:p@localhost/lotwatch", app.BackendPostgres, "postgres://u:p@localhost/lotwatch"},
		{"postgresql://localhost/lotwatch", app.BackendPostgres, "postgresql://localhost/lotwatch"},
		{"sqlite:///var/lib/lotwatch/lots", app.BackendSQLite, "/var/lib/lotwatch/lots"},
		{"./lotwatch.db", app.BackendSQLite, "./lotwatch.db"},
		{"data/lots.SQLITE", app.BackendSQLite, "data/lots.SQLITE"},
		{"./data", app.BackendJSON, "./data"},
	}
	for _, tc := range cases {
		t.Run(tc.dsn, func(t *testing.T) {
			backend, loc := app.ParseDSN(tc.dsn)
			assert.Equal(t, tc.backend, backend)
			assert.Equal(t, tc.loc, loc)
		})
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, dsn := range []string{filepath.Join(dir, "lots.db"), filepath.Join(dir, "json")} {
		s, err := app.OpenStore(ctx, dsn)
		require.NoError(t, err, dsn)
		require.NoError(t, s.SaveSearch(ctx, models.Search{ID: "a", Query: "q"}))
		require.NoError(t, s.Close())
	}
	assert.FileExists(t, filepath.Join(dir, "lots.db"))
	assert.FileExists(t, filepath.Join(dir, "json", "searches.json"))
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:xxxxx@db/lotwatch", app.RedactDSN("postgres://u:secret@db/lotwatch"))
	assert.Equal(t, "./data", app.RedactDSN("./data"))
}
