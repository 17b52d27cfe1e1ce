package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditgate/internal/platform/config"
)

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpen_GivesUpAfterAttempts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// nothing listens on port 1
	_, err := Open(ctx, config.DatabaseConfig{
		URL:             "postgres://creditgate:x@127.0.0.1:1/creditgate?sslmode=disable&connect_timeout=1",
		MaxOpenConns:    1,
		ConnectAttempts: 2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempt(s)")
}

func TestPool_NilSafe(t *testing.T) {
	var p *Pool
	assert.ErrorIs(t, p.Health(context.Background()), ErrNotConfigured)
	assert.NoError(t, p.Close())
}
