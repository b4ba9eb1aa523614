package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server-side Prometheus metrics.
type Metrics struct {
	RequestsSubmitted prometheus.Counter
	Transitions       *prometheus.CounterVec
	TransitionsDenied *prometheus.CounterVec
	AuditAppends      prometheus.Counter
	RequestsErased    prometheus.Counter
}

// New creates and registers all server metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_requests_submitted_total",
			Help: "Total payment requests accepted by the lifecycle service",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paygate_transitions_total",
			Help: "Status transitions applied, by target status",
		}, []string{"status"}),
		TransitionsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paygate_transitions_denied_total",
			Help: "Status transitions rejected, by reason",
		}, []string{"reason"}),
		AuditAppends: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_audit_appends_total",
			Help: "Audit trail entries appended",
		}),
		RequestsErased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "paygate_requests_erased_total",
			Help: "Administrative erases applied",
		}),
	}
}

// ObserveTransition counts one applied transition.
func (m *Metrics) ObserveTransition(status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(status).Inc()
}

// ObserveDenied counts one rejected transition.
func (m *Metrics) ObserveDenied(reason string) {
	if m == nil {
		return
	}
	m.TransitionsDenied.WithLabelValues(reason).Inc()
}
