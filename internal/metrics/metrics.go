// Package metrics provides Prometheus instrumentation for the hub.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hub_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Business metrics.
var (
	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_rooms",
		Help: "Number of rooms with at least one present agent.",
	})

	ActiveAgents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_active_agents",
		Help: "Number of currently present agents across all rooms.",
	})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_messages_total",
		Help: "Total number of messages appended, by type.",
	}, []string{"type"})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_notifications_total",
		Help: "Total number of notifications created, by delivery outcome.",
	}, []string{"delivery"})
)

// WebSocket (push session) metrics.
var (
	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_ws_connections_active",
		Help: "Number of active push-session WebSocket connections.",
	})

	WSEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_ws_events_total",
		Help: "Total number of events delivered over push sessions, by kind.",
	}, []string{"kind"})
)

// File watcher metrics.
var (
	FileEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_file_events_total",
		Help: "Total number of shared-directory filesystem events observed, by action.",
	}, []string{"action"})
)
