package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts code executions by language and outcome.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codelive_executions_total",
			Help: "Total number of code executions",
		},
		[]string{"language", "status"},
	)

	// ExecutionDuration tracks the duration of code executions in seconds.
	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codelive_execution_duration_seconds",
			Help:    "Duration of code executions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"language"},
	)

	// ConnectionsActive tracks currently open WebSocket connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelive_ws_connections_active",
			Help: "Number of currently open WebSocket connections",
		},
	)

	// RoomsActive tracks rooms with at least one member.
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codelive_rooms_active",
			Help: "Number of rooms with at least one member",
		},
	)

	// BroadcastsTotal counts relayed room events.
	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codelive_broadcasts_total",
			Help: "Total number of events broadcast to rooms",
		},
	)
)
