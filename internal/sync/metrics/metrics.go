package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the session-side sync metrics.
type Metrics struct {
	Pulls          prometheus.Counter
	PullFailures   prometheus.Counter
	FallbackMode   prometheus.Gauge
	PendingQueue   prometheus.Gauge
	QueuedDropped  prometheus.Counter
	ReplayedTotal  prometheus.Counter
	BroadcastsSent prometheus.Counter
}

// New creates and registers the sync metrics.
func New() *Metrics {
	return &Metrics{
		Pulls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_sync_pulls_total",
			Help: "Pull refreshes attempted",
		}),
		PullFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_sync_pull_failures_total",
			Help: "Pull refreshes that failed",
		}),
		FallbackMode: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "paygate_sync_fallback_mode",
			Help: "1 while the session runs local-only, 0 when authoritative",
		}),
		PendingQueue: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "paygate_sync_pending_mutations",
			Help: "Mutations queued for retransmission",
		}),
		QueuedDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_sync_pending_dropped_total",
			Help: "Queued mutations dropped past queue capacity",
		}),
		ReplayedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_sync_replayed_total",
			Help: "Queued mutations successfully retransmitted",
		}),
		BroadcastsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_sync_broadcasts_total",
			Help: "Cross-session broadcasts published",
		}),
	}
}
