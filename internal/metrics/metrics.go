// Package metrics defines the Prometheus collectors for the search service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SearchDuration observes base search latency.
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mitsukeru",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// IndexDocuments tracks the number of documents in the live index.
	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mitsukeru",
			Name:      "index_documents",
			Help:      "Number of documents in the live index, inactive included",
		},
	)

	// IndexRefreshes counts index lifecycle operations by outcome.
	IndexRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mitsukeru",
			Name:      "index_refreshes_total",
			Help:      "Index build/refresh operations",
		},
		[]string{"operation", "outcome"},
	)

	// RerankFallbacks counts re-ranking calls that fell back to base ranking.
	RerankFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mitsukeru",
			Name:      "rerank_fallbacks_total",
			Help:      "Re-ranking invocations that fell back to the base ranking",
		},
		[]string{"provider", "reason"},
	)

	// SuggestionsServed counts suggestions returned, by kind.
	SuggestionsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mitsukeru",
			Name:      "suggestions_served_total",
			Help:      "Suggestion candidates served, by kind",
		},
		[]string{"kind"},
	)

	// DegradedSources tracks how many aggregation sources failed last run.
	DegradedSources = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mitsukeru",
			Name:      "aggregation_degraded_sources",
			Help:      "Content sources that failed during the last aggregation run",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SearchDuration,
		IndexDocuments,
		IndexRefreshes,
		RerankFallbacks,
		SuggestionsServed,
		DegradedSources,
	)
}
