// Package metrics exposes Prometheus collectors for the suggestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SuggestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggest_requests_total",
			Help: "Total number of suggestion requests by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "suggest_upstream_duration_seconds",
			Help:    "Duration of chat-completion calls to the provider",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	SuggestionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suggest_suggestions_returned",
			Help:    "Number of suggestions in successful responses",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)
