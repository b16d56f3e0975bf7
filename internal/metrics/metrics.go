package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of open websocket connections",
		},
	)

	BroadcastEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_broadcast_events_total",
			Help: "Broadcast events sent, by message type",
		},
		[]string{"type"},
	)

	DroppedMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_dropped_messages_total",
			Help: "Messages dropped because a client send buffer was full",
		},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func Init() {
	prometheus.MustRegister(ActiveConnections)
	prometheus.MustRegister(BroadcastEvents)
	prometheus.MustRegister(DroppedMessages)
	prometheus.MustRegister(RequestDuration)
}
