package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/snow-ghost/thoughtsearch/core"
)

// SearchMetrics holds the Prometheus collectors for search runs. Each
// instance owns its registry so that several can coexist in one process.
type SearchMetrics struct {
	Registry *prometheus.Registry

	// Search metrics
	SearchesTotal     *prometheus.CounterVec
	SearchErrorsTotal *prometheus.CounterVec
	NodesExplored     *prometheus.HistogramVec
	SolutionDepth     *prometheus.HistogramVec
	FinalScore        *prometheus.HistogramVec
	DurationHistogram *prometheus.HistogramVec
	InFlight          prometheus.Gauge

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Circuit breaker metrics
	BreakerTransitionsTotal *prometheus.CounterVec
}

// NewSearchMetrics registers every collector on a fresh registry.
func NewSearchMetrics() *SearchMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &SearchMetrics{
		Registry: reg,

		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thoughtsearch_searches_total",
				Help: "Total number of searches by strategy and status",
			},
			[]string{"strategy", "status", "threshold_reached"},
		),
		SearchErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thoughtsearch_search_errors_total",
				Help: "Searches that returned an error (cancellation or bad configuration)",
			},
			[]string{"strategy"},
		),
		NodesExplored: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thoughtsearch_nodes_explored",
				Help:    "Candidates evaluated per search",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"strategy"},
		),
		SolutionDepth: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thoughtsearch_solution_depth",
				Help:    "Depth of returned solutions",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
			[]string{"strategy"},
		),
		FinalScore: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thoughtsearch_final_score",
				Help:    "Score of returned solutions",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"strategy"},
		),
		DurationHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "thoughtsearch_search_duration_seconds",
				Help:    "Wall-clock search duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "thoughtsearch_searches_in_flight",
			Help: "Searches currently running",
		}),

		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thoughtsearch_cache_hits_total",
				Help: "Capability cache hits",
			},
			[]string{"capability"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thoughtsearch_cache_misses_total",
				Help: "Capability cache misses",
			},
			[]string{"capability"},
		),

		BreakerTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "thoughtsearch_circuit_breaker_transitions_total",
				Help: "Circuit breaker state transitions by target state",
			},
			[]string{"capability", "state"},
		),
	}
}

// RecordOutcome records a finished search.
func (m *SearchMetrics) RecordOutcome(out core.Outcome) {
	reached := "false"
	if out.ThresholdReached {
		reached = "true"
	}
	m.SearchesTotal.WithLabelValues(out.Strategy, string(out.Status), reached).Inc()
	m.NodesExplored.WithLabelValues(out.Strategy).Observe(float64(out.NodesExplored))
	m.DurationHistogram.WithLabelValues(out.Strategy).Observe(out.Duration.Seconds())
	if out.Solved() {
		m.SolutionDepth.WithLabelValues(out.Strategy).Observe(float64(out.Depth))
		m.FinalScore.WithLabelValues(out.Strategy).Observe(out.FinalScore)
	}
}

// RecordError records a search that returned an error.
func (m *SearchMetrics) RecordError(strategy string) {
	m.SearchErrorsTotal.WithLabelValues(strategy).Inc()
}

// TrackInFlight increments the in-flight gauge and returns its decrement.
func (m *SearchMetrics) TrackInFlight() func() {
	m.InFlight.Inc()
	return m.InFlight.Dec
}

// RecordCacheDelta adds hit and miss deltas for a capability cache.
func (m *SearchMetrics) RecordCacheDelta(capability string, hits, misses int64) {
	if hits > 0 {
		m.CacheHitsTotal.WithLabelValues(capability).Add(float64(hits))
	}
	if misses > 0 {
		m.CacheMissesTotal.WithLabelValues(capability).Add(float64(misses))
	}
}

// RecordBreakerTransition counts a breaker moving to state.
func (m *SearchMetrics) RecordBreakerTransition(capability, state string) {
	m.BreakerTransitionsTotal.WithLabelValues(capability, state).Inc()
}

// ObserveDuration is a helper for timing outside a Solve call.
func (m *SearchMetrics) ObserveDuration(strategy string, start time.Time) {
	m.DurationHistogram.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
