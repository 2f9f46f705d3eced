package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionsRecorded counts ingested user-action events by action type.
	ActionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_actions_recorded_total",
			Help: "Total number of recorded user actions",
		},
		[]string{"action_type"},
	)

	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_auth_attempts_total",
			Help: "Total number of admin authentication attempts",
		},
		[]string{"result"},
	)

	// PushDeliveries counts push dispatch outcomes (success|failure|gone).
	PushDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitepulse_push_deliveries_total",
			Help: "Total number of push delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitepulse_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
