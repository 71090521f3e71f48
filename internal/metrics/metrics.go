// Package metrics collects per-process Prometheus counters for scrapes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for lotwatch. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	LotsTotal      *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec
	ImagesTotal    *prometheus.CounterVec
	ImageRetries   prometheus.Counter
	PagesTotal     prometheus.Counter
	SearchFailures prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	lots := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotwatch_lots_total",
			Help: "Candidate lots processed, by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotwatch_scrape_duration_seconds",
			Help:    "Wall-clock duration of one search scrape.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"search_id"},
	)
	images := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotwatch_images_total",
			Help: "Lot images downloaded, by status.",
		},
		[]string{"status"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotwatch_image_retries_total",
			Help: "Image download retry attempts scheduled.",
		},
	)
	pages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotwatch_pages_total",
			Help: "Search result pages parsed.",
		},
	)
	failures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotwatch_search_failures_total",
			Help: "Searches that ended without a result.",
		},
	)

	registry.MustRegister(lots, duration, images, retries, pages, failures)

	return &Metrics{
		Registry:       registry,
		LotsTotal:      lots,
		ScrapeDuration: duration,
		ImagesTotal:    images,
		ImageRetries:   retries,
		PagesTotal:     pages,
		SearchFailures: failures,
	}
}

// AddLots adds n lots with the given outcome label.
func (m *Metrics) AddLots(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.LotsTotal.WithLabelValues(outcome).Add(float64(n))
}

// ObserveScrape records how long a search took.
func (m *Metrics) ObserveScrape(searchID string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.WithLabelValues(searchID).Observe(d.Seconds())
}

// IncImage counts one image download as "saved" or "failed".
func (m *Metrics) IncImage(ok bool) {
	if m == nil {
		return
	}
	status := "saved"
	if !ok {
		status = "failed"
	}
	m.ImagesTotal.WithLabelValues(status).Inc()
}

// IncRetry counts one scheduled retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.ImageRetries.Inc()
}

// IncPage counts one parsed result page.
func (m *Metrics) IncPage() {
	if m == nil {
		return
	}
	m.PagesTotal.Inc()
}

// IncSearchFailure counts one failed search.
func (m *Metrics) IncSearchFailure() {
	if m == nil {
		return
	}
	m.SearchFailures.Inc()
}

// WriteTextfile writes the registry in the text exposition format to path,
// for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
