package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/learningcenter/marketing-site/internal/models"
)

// Metrics provides observability for cookie consent decisions.
type Metrics struct {
	// Consent decisions by action
	Decisions *prometheus.CounterVec

	// Snapshot writes that failed, by storage backend
	PersistFailures *prometheus.CounterVec

	// Latency of snapshot writes, by storage backend
	PersistLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cookie_consent_decisions_total",
			Help: "Total cookie consent decisions by action",
		}, []string{"action"}),

		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cookie_consent_persist_failures_total",
			Help: "Total failed consent snapshot writes by storage backend",
		}, []string{"backend"}),

		PersistLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cookie_consent_persist_duration_seconds",
			Help:    "Duration of consent snapshot writes by storage backend",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"backend"}),
	}
}

// IncrementDecision records a consent decision.
func (m *Metrics) IncrementDecision(action models.ConsentAction) {
	if m != nil {
		m.Decisions.WithLabelValues(string(action)).Inc()
	}
}

// IncrementPersistFailure records a failed snapshot write.
func (m *Metrics) IncrementPersistFailure(backend string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(backend).Inc()
	}
}

// ObservePersistLatency records the duration of a snapshot write.
func (m *Metrics) ObservePersistLatency(backend string, d time.Duration) {
	if m != nil {
		m.PersistLatency.WithLabelValues(backend).Observe(d.Seconds())
	}
}
