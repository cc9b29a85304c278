// Package metrics exposes Prometheus instrumentation for the clustering
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the service.
type Registry struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Job metrics
	JobsTotal       *prometheus.CounterVec
	JobDuration     prometheus.Histogram
	JobsInFlight    prometheus.Gauge
	DatasetsLoaded  prometheus.Gauge

	// Algorithm metrics
	FinalModularity prometheus.Gauge
	LevelsPerRun    prometheus.Histogram
}

// NewRegistry creates a registry with all service metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	r := &Registry{registry: reg}

	r.HTTPRequestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustering_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clustering_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"method", "path"},
	)

	r.JobsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustering_jobs_total",
			Help: "Total number of clustering jobs by terminal status",
		},
		[]string{"status"},
	)

	r.JobDuration = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clustering_job_duration_seconds",
			Help:    "Clustering job duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0, 600.0},
		},
	)

	r.JobsInFlight = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "clustering_jobs_in_flight",
			Help: "Number of clustering jobs currently running",
		},
	)

	r.DatasetsLoaded = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "clustering_datasets_loaded",
			Help: "Number of datasets currently held in memory",
		},
	)

	r.FinalModularity = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "clustering_last_modularity",
			Help: "Modularity of the most recently completed job",
		},
	)

	r.LevelsPerRun = promauto.With(reg).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clustering_levels_per_run",
			Help:    "Number of contraction levels per completed job",
			Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15},
		},
	)

	return r
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
