// Package metrics holds the Prometheus collectors for bridge calls.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aepbridge"

// Degradation reasons.
const (
	ReasonEnumDefault  = "enum_default"
	ReasonEntryDropped = "entry_dropped"
)

// Metrics records bridge call outcomes. A nil *Metrics records nothing.
type Metrics struct {
	calls    *prometheus.CounterVec   // module, method, status
	duration *prometheus.HistogramVec // module, method
	degraded *prometheus.CounterVec   // reason
	journal  *prometheus.CounterVec   // sink, status
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Bridge invocations by module, method and gRPC status code",
		}, []string{"module", "method", "status"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Bridge invocation latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"module", "method"}),

		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Conversions that fell back to a default or dropped an entry",
		}, []string{"reason"}),

		journal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "writes_total",
			Help:      "Journal writes by sink and outcome",
		}, []string{"sink", "status"}),
	}

	for _, c := range []prometheus.Collector{m.calls, m.duration, m.degraded, m.journal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// RecordCall records one finished invocation.
func (m *Metrics) RecordCall(module, method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(module, method, status).Inc()
	m.duration.WithLabelValues(module, method).Observe(d.Seconds())
}

// RecordDegraded adds n degradations for reason.
func (m *Metrics) RecordDegraded(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.degraded.WithLabelValues(reason).Add(float64(n))
}

// RecordJournal records a journal write to sink ("db" or "file").
func (m *Metrics) RecordJournal(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.journal.WithLabelValues(sink, status).Inc()
}
