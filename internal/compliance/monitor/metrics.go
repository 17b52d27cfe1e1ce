package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	alerts     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	malformed  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		alerts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_compliance_alerts_total",
			Help: "Compliance alerts raised by the monitor, by source stream and severity",
		}, []string{"stream", "severity"}),
		duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_compliance_duplicates_total",
			Help: "Redelivered compliance events skipped by the monitor",
		}, []string{"stream"}),
		malformed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_compliance_malformed_total",
			Help: "Compliance events that could not be decoded and were committed",
		}, []string{"stream"}),
	}
}

func (m *Metrics) IncAlert(stream, severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(stream, severity).Inc()
}

func (m *Metrics) IncDuplicate(stream string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(stream).Inc()
}

func (m *Metrics) IncMalformed(stream string) {
	if m == nil {
		return
	}
	m.malformed.WithLabelValues(stream).Inc()
}
