package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriteTimeoutExceedsRequestTimeout(t *testing.T) {
	srv := New(":0", http.NotFoundHandler(), 2*time.Second)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout)

	srv = New(":0", http.NotFoundHandler(), 0)
	assert.Equal(t, 20*time.Second, srv.WriteTimeout)
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := New("127.0.0.1:0", http.NotFoundHandler(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, slog.New(slog.DiscardHandler)) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeReportsListenError(t *testing.T) {
	srv := New("256.0.0.1:bad", http.NotFoundHandler(), time.Second)
	err := Serve(context.Background(), srv, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
