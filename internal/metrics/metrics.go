// Package metrics exposes Prometheus counters for the acquisition pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dowloadimg_search_requests_total",
			Help: "Total number of search-page requests executed",
		},
		[]string{"status"},
	)

	CandidateFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dowloadimg_candidate_fetches_total",
			Help: "Total number of candidate image fetches by outcome",
		},
		[]string{"outcome"},
	)

	CandidateFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dowloadimg_candidate_fetch_duration_seconds",
			Help:    "Duration of candidate image fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15},
		},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dowloadimg_runs_total",
			Help: "Total number of pipeline runs by terminal state",
		},
		[]string{"result"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dowloadimg_cache_hits_total",
			Help: "Total number of runs served from the resolution cache",
		},
	)

	PurgesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dowloadimg_purges_total",
			Help: "Total number of purge operations",
		},
	)
)

// RecordSearch counts one search-page request.
func RecordSearch(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	SearchRequestsTotal.WithLabelValues(status).Inc()
}

// RecordCandidateFetch counts one candidate fetch with its outcome
// ("validated" or "skipped") and observed duration.
func RecordCandidateFetch(outcome string, duration time.Duration) {
	CandidateFetchesTotal.WithLabelValues(outcome).Inc()
	CandidateFetchDuration.Observe(duration.Seconds())
}

// RecordRun counts one terminal pipeline transition ("completed" or "failed").
func RecordRun(result string) {
	RunsTotal.WithLabelValues(result).Inc()
}
