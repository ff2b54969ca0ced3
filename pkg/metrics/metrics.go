// Package metrics defines the Prometheus metric collectors used by the file
// search service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	FilesProcessedTotal  *prometheus.CounterVec
	BytesMappedTotal     prometheus.Counter
	OperationDuration    *prometheus.HistogramVec
	MatchesTotal         prometheus.Counter
	PatternErrorsTotal   prometheus.Counter
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
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
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		FilesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filesearch_files_processed_total",
				Help: "Files processed by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		BytesMappedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filesearch_bytes_mapped_total",
				Help: "Total bytes memory-mapped for statistics and search.",
			},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filesearch_operation_duration_seconds",
				Help:    "Engine operation latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		MatchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filesearch_matches_total",
				Help: "Total match items returned by searches.",
			},
		),
		PatternErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "filesearch_pattern_errors_total",
				Help: "Searches rejected because the pattern failed to compile.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.FilesProcessedTotal,
		m.BytesMappedTotal,
		m.OperationDuration,
		m.MatchesTotal,
		m.PatternErrorsTotal,
	)

	return m
}

// Handler returns a scrape handler for g. Pass prometheus.DefaultGatherer
// for collectors created with New.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
