// Package metrics holds Prometheus collectors for access authorization.
package metrics

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"creditgate/internal/access/policy"
)

// Outcome labels.
const (
	OutcomeGranted       = "granted"
	OutcomeFCRAViolation = "fcra_violation"
	OutcomeServiceError  = "service_error"
)

// Metrics holds Prometheus collectors for the access orchestrator.
type Metrics struct {
	Decisions           *prometheus.CounterVec
	Failures            *prometheus.CounterVec
	Escalations         *prometheus.CounterVec
	AuthorizeLatency    prometheus.Histogram
	AuditWriteLatency   *prometheus.HistogramVec
	ErrorRecordFailures prometheus.Counter
}

// New registers the access collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_access_decisions_total",
			Help: "Credit report access decisions, labeled by outcome and purpose",
		}, []string{"outcome", "purpose"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_access_failures_total",
			Help: "Denied access attempts by internal failure kind",
		}, []string{"kind"}),
		Escalations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_access_escalations_total",
			Help: "Violations passed to the escalation sink, labeled by result",
		}, []string{"result"}),
		AuthorizeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditgate_access_authorize_duration_seconds",
			Help:    "Latency of authorize-and-record in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AuditWriteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creditgate_audit_write_duration_seconds",
			Help:    "Latency of audit store inserts in seconds, labeled by record kind",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"kind"}),
		ErrorRecordFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "creditgate_audit_error_record_failures_total",
			Help: "Error records that could not be persisted",
		}),
	}
}

// PurposeLabel bounds label cardinality: caller-supplied purposes outside the
// closed set collapse into "other".
func PurposeLabel(purpose string) string {
	if slices.Contains(policy.KnownPurposes, purpose) {
		return purpose
	}
	return "other"
}

func (m *Metrics) IncDecision(outcome, purpose string) {
	m.Decisions.WithLabelValues(outcome, PurposeLabel(purpose)).Inc()
}

func (m *Metrics) IncFailure(kind string) {
	m.Failures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncEscalation(result string) {
	m.Escalations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveAuthorize(durationSeconds float64) {
	m.AuthorizeLatency.Observe(durationSeconds)
}

func (m *Metrics) ObserveAuditWrite(kind string, durationSeconds float64) {
	m.AuditWriteLatency.WithLabelValues(kind).Observe(durationSeconds)
}

func (m *Metrics) IncErrorRecordFailure() {
	m.ErrorRecordFailures.Inc()
}
