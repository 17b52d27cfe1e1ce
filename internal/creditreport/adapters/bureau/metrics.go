package bureau

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK          = "ok"
	resultUnavailable = "unavailable"
	resultRejected    = "rejected"
	resultCircuitOpen = "circuit_open"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "creditgate_bureau_requests_total",
			Help: "Bureau report requests, labeled by result",
		}, []string{"result"}),
		Latency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "creditgate_bureau_request_duration_seconds",
			Help:    "Latency of bureau report requests in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
