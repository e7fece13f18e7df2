// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesStored counts messages durably appended to the log.
	MessagesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupchat_messages_stored_total",
		Help: "Number of messages durably stored.",
	})

	// Broadcasts counts messages relayed to connected sessions.
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "groupchat_broadcasts_total",
		Help: "Number of messages relayed to all active sessions.",
	})

	// ActiveSessions tracks the number of connected websocket sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "groupchat_active_sessions",
		Help: "Number of currently connected sessions.",
	})

	// PushDeliveries counts push attempts by provider and outcome.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "groupchat_push_deliveries_total",
		Help: "Push delivery attempts by provider and outcome.",
	}, []string{"provider", "outcome"})
)
