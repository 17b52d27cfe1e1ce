package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHandlerExposesRegisteredCollectors(t *testing.T) {
	reg := NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "creditgate_test_total",
		Help: "test counter",
	}).Inc()

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "creditgate_test_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRegisterDBIgnoresNil(t *testing.T) {
	reg := NewRegistry()
	assert.NotPanics(t, func() { reg.RegisterDB((*sql.DB)(nil), "audit") })
}
