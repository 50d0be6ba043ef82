// Package metrics provides the centralized Prometheus registry for the
// edge finder.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "analyses_total",
		Help:      "Total number of analysis runs per sport",
	}, []string{"sport"})
	OpportunitiesFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "opportunities_found_total",
		Help:      "Total number of opportunities clearing the edge threshold",
	}, []string{"sport", "market"})
	OddsFetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "odds_fetches_total",
		Help:      "Total number of odds source fetches",
	})
	StatsFetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "stats_fetches_total",
		Help:      "Total number of statistics source fetches",
	})
	CandidatesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "candidates_skipped_total",
		Help:      "Total number of candidates skipped due to validation failures",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "edge_finder",
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_finder",
		Name:      "cache_hit_ratio",
		Help:      "Ratio of cache hits to total lookups",
	})
	LastAnalysisOpportunities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "edge_finder",
		Name:      "last_analysis_opportunities",
		Help:      "Number of opportunities in the most recent analysis per sport",
	}, []string{"sport"})
	ConnectedDashboards = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "edge_finder",
		Name:      "connected_dashboards",
		Help:      "Number of websocket dashboard clients connected",
	})
)

// Histogram metrics
var (
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "edge_finder",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of full analysis runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edge_finder",
		Name:      "source_fetch_duration_seconds",
		Help:      "Duration of external source fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(AnalysesTotal)
		registry.MustRegister(OpportunitiesFoundTotal)
		registry.MustRegister(OddsFetchesTotal)
		registry.MustRegister(StatsFetchesTotal)
		registry.MustRegister(CandidatesSkippedTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(LastAnalysisOpportunities)
		registry.MustRegister(ConnectedDashboards)

		registry.MustRegister(AnalysisDuration)
		registry.MustRegister(SourceFetchDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAnalysis records one analysis run for a sport.
func RecordAnalysis(sport string, durationSeconds float64, opportunities int) {
	AnalysesTotal.WithLabelValues(sport).Inc()
	AnalysisDuration.Observe(durationSeconds)
	LastAnalysisOpportunities.WithLabelValues(sport).Set(float64(opportunities))
}

// RecordOpportunity records one surfaced opportunity.
func RecordOpportunity(sport, market string) {
	OpportunitiesFoundTotal.WithLabelValues(sport, market).Inc()
}

// RecordSkippedCandidate records a candidate dropped by validation.
func RecordSkippedCandidate() {
	CandidatesSkippedTotal.Inc()
}
