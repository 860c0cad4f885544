package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Outcome labels shared by the recorders.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics records authentication flow outcomes and SMS deliveries.
type Metrics struct {
	flowOutcomes  *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		flowOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_outcomes_total",
			Help:      "Authentication flow results by flow and outcome",
		}, []string{"flow", "outcome"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound SMS notifications by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// RecordFlow counts one completed flow.
func (m *Metrics) RecordFlow(flow string, err error) {
	if m == nil {
		return
	}
	m.flowOutcomes.WithLabelValues(flow, outcome(err)).Inc()
}

// RecordNotification counts one delivery attempt.
func (m *Metrics) RecordNotification(kind string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
