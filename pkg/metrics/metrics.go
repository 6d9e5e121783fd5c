// Package metrics defines the Prometheus collectors for the search service
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SearchesTotal       *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram
	SuggestsTotal       prometheus.Counter
	DocsIndexedTotal    prometheus.Counter
	RebuildsTotal       *prometheus.CounterVec
	RebuildDuration     prometheus.Histogram
	IndexDocuments      prometheus.Gauge
	IndexKeywords       prometheus.Gauge
	IndexNGrams         prometheus.Gauge
	IndexSizeBytes      prometheus.Gauge
}

// New creates and registers all Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searches_total",
				Help: "Total search queries by strategy (exact, fuzzy, keyword) and cache status.",
			},
			[]string{"strategy", "cache_status"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		SuggestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "suggests_total",
				Help: "Total suggest calls.",
			},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total work orders indexed, incremental and rebuild.",
			},
		),
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_rebuilds_total",
				Help: "Total index rebuilds by status.",
			},
			[]string{"status"},
		),
		RebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "index_rebuild_duration_seconds",
				Help:    "Full index rebuild duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents currently in the index.",
			},
		),
		IndexKeywords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_keywords",
				Help: "Distinct keywords in the inverted index.",
			},
		),
		IndexNGrams: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_ngrams",
				Help: "Distinct shingles in the n-gram index.",
			},
		),
		IndexSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_size_bytes",
				Help: "Approximate serialized index size in bytes.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SearchesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.SuggestsTotal,
		m.DocsIndexedTotal,
		m.RebuildsTotal,
		m.RebuildDuration,
		m.IndexDocuments,
		m.IndexKeywords,
		m.IndexNGrams,
		m.IndexSizeBytes,
	)
	return m
}

// ObserveIndex updates the index shape gauges.
func (m *Metrics) ObserveIndex(documents, keywords, ngrams, sizeBytes int) {
	m.IndexDocuments.Set(float64(documents))
	m.IndexKeywords.Set(float64(keywords))
	m.IndexNGrams.Set(float64(ngrams))
	m.IndexSizeBytes.Set(float64(sizeBytes))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
