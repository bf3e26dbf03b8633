// Package metrics exposes calculation counters and latencies for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calckit"

// Outcome labels for Calculations.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics owns its registry so tests and multiple servers never collide on
// the global default registerer.
type Metrics struct {
	Registry     *prometheus.Registry
	Calculations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	CacheHits    *prometheus.CounterVec
	CacheMisses  *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
}

// New registers the calckit collectors plus the Go and process collectors on
// a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Calculations performed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Time spent computing a result, excluding cache hits.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"kind"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Results served from the cache.",
		}, []string{"kind"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that had to compute the result.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests, by path and status code.",
		}, []string{"path", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Calculations,
		m.Duration,
		m.CacheHits,
		m.CacheMisses,
		m.HTTPRequests,
	)
	return m
}

// ObserveCalculation records one computed result. A nil receiver is a no-op.
func (m *Metrics) ObserveCalculation(kind string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Calculations.WithLabelValues(kind, outcome).Inc()
	m.Duration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// ObserveCache records a cache lookup. A nil receiver is a no-op.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.WithLabelValues(kind).Inc()
		return
	}
	m.CacheMisses.WithLabelValues(kind).Inc()
}

// ObserveRequest counts one API response. A nil receiver is a no-op.
func (m *Metrics) ObserveRequest(path, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
