package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK            = "ok"
	OutcomeProviderError = "provider_error"
	OutcomeBadRequest    = "bad_request"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_chat_requests_total",
			Help: "Total number of /api/chat requests by outcome",
		},
		[]string{"outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_provider_request_duration_seconds",
			Help:    "Duration of completion provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)

	FallbackAnswers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_fallback_answers_total",
			Help: "Provider replies without content or text that were answered with the fallback literal",
		},
	)
)
