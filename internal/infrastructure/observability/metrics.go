package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Recommendation metrics
	RecommendationsGenerated *prometheus.CounterVec
	GenerationDuration       prometheus.Histogram
	PersonalizationResults   *prometheus.CounterVec
	SignalFetches            *prometheus.CounterVec
	BreakerState             prometheus.Gauge

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry, so tests and
// multiple servers in one process never collide on registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RecommendationsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_generated_total",
				Help:      "Recommendations returned to clients, by type",
			},
			[]string{"type"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendation_generation_seconds",
				Help:      "Time spent running analyzers and ranking",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
			},
		),
		PersonalizationResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "personalization_results_total",
				Help:      "Personalization outcomes by source and cause",
			},
			[]string{"source", "cause"},
		),
		SignalFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signal_fetches_total",
				Help:      "Signal reads from the backend by table and status",
			},
			[]string{"table", "status"},
		),
		BreakerState: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "personalization_breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.RecommendationsGenerated,
		c.GenerationDuration,
		c.PersonalizationResults,
		c.SignalFetches,
		c.BreakerState,
		c.CacheHits,
		c.CacheMisses,
	)

	return c
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// RecordGeneration records one engine pass. Safe on a nil collector.
func (c *Collector) RecordGeneration(types []string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.GenerationDuration.Observe(elapsed.Seconds())
	for _, t := range types {
		c.RecommendationsGenerated.WithLabelValues(t).Inc()
	}
}

// RecordPersonalization counts an upstream or fallback outcome.
func (c *Collector) RecordPersonalization(source, cause string) {
	if c == nil {
		return
	}
	c.PersonalizationResults.WithLabelValues(source, cause).Inc()
}

// RecordSignalFetch counts a backend read.
func (c *Collector) RecordSignalFetch(table string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.SignalFetches.WithLabelValues(table, status).Inc()
}

// SetBreakerState publishes the circuit breaker state.
func (c *Collector) SetBreakerState(state float64) {
	if c == nil {
		return
	}
	c.BreakerState.Set(state)
}

// RecordCacheHit counts a cache hit.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.CacheHits.Inc()
}

// RecordCacheMiss counts a cache miss with its reason.
func (c *Collector) RecordCacheMiss(reason string) {
	if c == nil {
		return
	}
	c.CacheMisses.WithLabelValues(reason).Inc()
}
