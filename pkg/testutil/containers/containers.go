//go:build integration

// Package containers starts the Postgres, Redis and Redpanda instances the
// integration suites run against. Each kind is started at most once per test
// binary and shared by every suite in the package; Ryuk reaps them on exit.
package containers

import (
	"os"
	"sync"
	"testing"
)

// skipEnv names the variable that turns every container-backed suite into a
// skip, for machines without a Docker daemon.
const skipEnv = "CREDITGATE_SKIP_CONTAINERS"

// shared lazily starts one container and remembers a start failure so later
// suites fail fast instead of retrying a broken daemon.
type shared[T any] struct {
	mu    sync.Mutex
	value T
	ready bool
	err   string
}

func (s *shared[T]) get(t *testing.T, start func(t *testing.T) (T, error)) T {
	t.Helper()
	if os.Getenv(skipEnv) != "" {
		t.Skipf("%s set; skipping container-backed test", skipEnv)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != "" {
		t.Fatalf("container unavailable: %s", s.err)
	}
	if !s.ready {
		v, err := start(t)
		if err != nil {
			s.err = err.Error()
			t.Fatalf("start container: %v", err)
		}
		s.value, s.ready = v, true
	}
	return s.value
}

type Manager struct {
	postgres shared[*PostgresContainer]
	redis    shared[*RedisContainer]
	kafka    shared[*KafkaContainer]
}

var manager = &Manager{}

// GetManager returns the process-wide manager.
func GetManager() *Manager { return manager }

// GetPostgres returns a Postgres instance with every migration applied.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return m.postgres.get(t, startPostgres)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	return m.redis.get(t, startRedis)
}

// GetKafka returns a Redpanda broker with topic auto-creation enabled.
func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return m.kafka.get(t, startKafka)
}
