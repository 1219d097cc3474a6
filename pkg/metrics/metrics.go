package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RealtimeConnections tracks websocket connections currently attached to the hub.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deck_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// PresenceRooms tracks presentations with at least one participant.
	PresenceRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deck_presence_rooms",
			Help: "Number of presentations with connected participants",
		},
	)

	// PresentingSessions tracks presentations currently in presenter mode.
	PresentingSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "deck_presenting_sessions",
			Help: "Number of presentations in presenter mode",
		},
	)

	// Commands counts realtime commands by name and outcome (ok|error code).
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_commands_total",
			Help: "Total number of realtime commands handled",
		},
		[]string{"command", "result"},
	)

	// Broadcasts counts events fanned out by the coordinator.
	Broadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_broadcasts_total",
			Help: "Total number of events broadcast to groups",
		},
		[]string{"event"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
