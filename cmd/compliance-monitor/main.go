// Command compliance-monitor consumes the violation and escalation topics
// and raises one alert per compliance event.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"creditgate/internal/audit/outbox"
	"creditgate/internal/compliance/monitor"
	"creditgate/internal/platform/config"
	"creditgate/internal/platform/health"
	"creditgate/internal/platform/httpserver"
	"creditgate/internal/platform/kafka/consumer"
	"creditgate/internal/platform/logger"
	"creditgate/internal/platform/metrics"
	"creditgate/internal/platform/redis"
)

func main() {
	cfg, err := config.FromEnv()
	if err == nil {
		err = cfg.ValidateMonitor()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("compliance monitor exited", "error", err)
		os.Exit(1)
	}
	log.Info("compliance monitor stopped")
}

func run(ctx context.Context, cfg *config.Server, log *slog.Logger) error {
	reg := metrics.NewRegistry()
	checks := health.New(cfg.Environment, health.WithLogger(log))

	rc, err := redis.New(cfg.Redis, reg)
	if err != nil {
		return err
	}
	defer rc.Close()
	checks.Add(rc)

	dedupe := monitor.NewRedisDeduper(rc.Client, cfg.Redis.DedupeTTL)
	m := monitor.NewMetrics(reg)
	violationTopic := cfg.Kafka.AuditTopic + "." + outbox.AggregateViolation

	router := monitor.NewRouter(log).
		Route(violationTopic, monitor.NewViolationHandler(dedupe, m, log)).
		Route(cfg.Kafka.EscalationTopic, monitor.NewEscalationHandler(dedupe, m, log))

	c, err := consumer.New(consumer.Config{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.ConsumerGroup,
		ClientID: cfg.Kafka.ClientID + "-monitor",
		Topics:   router.Topics(),
	}, router, log)
	if err != nil {
		return err
	}
	defer c.Close()
	checks.Add(c)

	r := chi.NewRouter()
	checks.Register(r)
	r.Handle("/metrics", reg.Handler())

	log.Info("compliance monitor started",
		"topics", router.Topics(),
		"group", cfg.Kafka.ConsumerGroup,
		"dedupe_ttl", cfg.Redis.DedupeTTL,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Run(gctx) })
	g.Go(func() error {
		return httpserver.Serve(gctx, httpserver.New(cfg.MonitorAddr, r, cfg.RequestTimeout), log)
	})
	return g.Wait()
}
