// Command server runs the credit report API: the access orchestrator, the
// audit store, and, when Kafka is configured, the outbox worker and the
// escalation publisher.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"creditgate/internal/platform/config"
	"creditgate/internal/platform/httpserver"
	"creditgate/internal/platform/logger"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Server, log *slog.Logger) error {
	log.Info("initializing creditgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"kafka_enabled", cfg.Kafka.Enabled(),
	)

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpserver.Serve(gctx, httpserver.New(cfg.Addr, app.router, cfg.RequestTimeout), log)
	})
	if app.outbox != nil {
		g.Go(func() error { return app.outbox.Run(gctx) })
	}
	if app.redis != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					app.redis.RecordPoolStats()
				}
			}
		})
	}
	return g.Wait()
}
