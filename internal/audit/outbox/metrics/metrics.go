// Package metrics instruments the audit outbox relay. Every method is safe
// on a nil *Metrics so the worker can run uninstrumented in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultPublished = "published"
	resultFailed    = "failed"
)

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

type Metrics struct {
	Entries        *prometheus.CounterVec
	Pending        prometheus.Gauge
	OldestPending  prometheus.Gauge
	PublishSeconds prometheus.Histogram
	BatchEntries   prometheus.Histogram
	BatchSeconds   prometheus.Histogram
	Cleaned        prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Entries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_outbox_entries_total",
			Help: "Outbox entries handed to Kafka, by audit record kind and result",
		}, []string{"aggregate", "result"}),
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "creditgate_outbox_pending",
			Help: "Outbox entries not yet published",
		}),
		OldestPending: f.NewGauge(prometheus.GaugeOpts{
			Name: "creditgate_outbox_oldest_pending_seconds",
			Help: "Age of the oldest unpublished outbox entry",
		}),
		PublishSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditgate_outbox_publish_seconds",
			Help:    "Time to get one entry acknowledged by the broker",
			Buckets: latencyBuckets,
		}),
		BatchEntries: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditgate_outbox_batch_entries",
			Help:    "Entries published per non-empty poll",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		BatchSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditgate_outbox_batch_seconds",
			Help:    "Duration of a non-empty poll",
			Buckets: latencyBuckets,
		}),
		Cleaned: f.NewCounter(prometheus.CounterOpts{
			Name: "creditgate_outbox_cleaned_total",
			Help: "Published entries removed by retention cleanup",
		}),
	}
}

func (m *Metrics) Published(aggregate string, took time.Duration) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues(aggregate, resultPublished).Inc()
	m.PublishSeconds.Observe(took.Seconds())
}

func (m *Metrics) Failed(aggregate string) {
	if m == nil {
		return
	}
	m.Entries.WithLabelValues(aggregate, resultFailed).Inc()
}

func (m *Metrics) Batch(n int, took time.Duration) {
	if m == nil || n == 0 {
		return
	}
	m.BatchEntries.Observe(float64(n))
	m.BatchSeconds.Observe(took.Seconds())
}

// Queue records the backlog as seen by the last poll of the store.
func (m *Metrics) Queue(depth int64, oldest time.Duration) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(depth))
	m.OldestPending.Set(oldest.Seconds())
}

func (m *Metrics) AddCleaned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.Cleaned.Add(float64(n))
}
