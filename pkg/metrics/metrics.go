package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Optimistic mutation metrics
	MutationsTotal   *prometheus.CounterVec
	MutationDuration *prometheus.HistogramVec

	// Query cache metrics
	FetchDuration *prometheus.HistogramVec

	// Server list cache metrics
	ListCacheLookups *prometheus.CounterVec

	// Database metrics
	DBConnections prometheus.Gauge

	// Job metrics
	JobRuns *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_mutations_total",
				Help: "Optimistic mutations by collection, kind and outcome",
			},
			[]string{"collection", "kind", "outcome"}, // confirmed, rolled_back, rejected
		),
		MutationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_mutation_duration_seconds",
				Help:    "Time from optimistic apply to confirmation or rollback",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"collection", "kind"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_collection_fetch_duration_seconds",
				Help:    "Collection fetch latency seen by the query cache",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"collection", "status"},
		),
		ListCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_list_cache_lookups_total",
				Help: "Server list cache lookups by result",
			},
			[]string{"collection", "result"}, // hit, miss
		),
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),
		JobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_job_runs_total",
				Help: "Scheduled job executions by job and status",
			},
			[]string{"job", "status"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/v1/leads/:id

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// ObserveMutation records one finished optimistic mutation.
func (m *Metrics) ObserveMutation(collection, kind, outcome string, duration time.Duration) {
	m.MutationsTotal.WithLabelValues(collection, kind, outcome).Inc()
	m.MutationDuration.WithLabelValues(collection, kind).Observe(duration.Seconds())
}

// ObserveFetch records one collection fetch.
func (m *Metrics) ObserveFetch(collection string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FetchDuration.WithLabelValues(collection, status).Observe(duration.Seconds())
}

// ObserveListCache records a list cache lookup.
func (m *Metrics) ObserveListCache(collection string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ListCacheLookups.WithLabelValues(collection, result).Inc()
}

// RecordJobRun counts one scheduled job execution.
func (m *Metrics) RecordJobRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count int) {
	m.DBConnections.Set(float64(count))
}
