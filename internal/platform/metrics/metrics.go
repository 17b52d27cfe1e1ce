// Package metrics owns the process-wide Prometheus registry and its /metrics
// handler. Feature packages register their own collectors on the registry
// through promauto.With.
package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a prometheus.Registry preloaded with runtime collectors.
type Registry struct {
	*prometheus.Registry
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{Registry: reg}
}

// RegisterDB exposes database/sql pool statistics under dbName.
func (r *Registry) RegisterDB(db *sql.DB, dbName string) {
	if db == nil {
		return
	}
	r.MustRegister(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}
