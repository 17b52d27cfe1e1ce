package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                 { return f.name }
func (f fakeChecker) Health(context.Context) error { return f.err }

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestHealthHandler(t *testing.T) {
	t.Run("liveness always ok", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return errors.New("down") })

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("readiness ok when all checks pass", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.RegisterCheck("kafka", func(context.Context) error { return nil })

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "up", "kafka": "up"}, resp.Checks)
	})

	t.Run("readiness 503 when a dependency is down", func(t *testing.T) {
		var logs bytes.Buffer
		h := New("test", WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
		h.RegisterCheck("database", func(context.Context) error { return nil })
		h.Add(fakeChecker{name: "redis", err: errors.New("dial redis://:secret@cache:6379 refused")})

		w := httptest.NewRecorder()
		newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, map[string]string{"database": "up", "redis": "down"}, resp.Checks)
		assert.NotContains(t, w.Body.String(), "secret")
		assert.Contains(t, logs.String(), "readiness check failed")
	})

	t.Run("status reports environment", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(New("staging")).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "staging", resp.Environment)
	})
}
