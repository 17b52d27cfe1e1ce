package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	accessmetrics "creditgate/internal/access/metrics"
	"creditgate/internal/access/policy"
	access "creditgate/internal/access/service"
	"creditgate/internal/audit/escalation"
	outboxmetrics "creditgate/internal/audit/outbox/metrics"
	outboxpg "creditgate/internal/audit/outbox/postgres"
	"creditgate/internal/audit/outbox/worker"
	auditstore "creditgate/internal/audit/store"
	"creditgate/internal/creditreport/adapters/bureau"
	"creditgate/internal/creditreport/adapters/fixture"
	"creditgate/internal/creditreport/handler"
	"creditgate/internal/creditreport/ports"
	creditreport "creditgate/internal/creditreport/service"
	jwttoken "creditgate/internal/jwt_token"
	"creditgate/internal/platform/config"
	"creditgate/internal/platform/database"
	"creditgate/internal/platform/health"
	"creditgate/internal/platform/kafka"
	"creditgate/internal/platform/kafka/producer"
	"creditgate/internal/platform/metrics"
	"creditgate/internal/platform/privacy"
	"creditgate/internal/platform/redis"
	"creditgate/internal/platform/tracer"
	"creditgate/migrations"
	"creditgate/pkg/platform/middleware/auth"
	"creditgate/pkg/platform/middleware/metadata"
	"creditgate/pkg/platform/middleware/request"
	"creditgate/pkg/platform/middleware/requesttime"
)

// maxRequestBody caps calculation uploads; report lookups carry no body.
const maxRequestBody = 64 << 10

type app struct {
	router http.Handler
	outbox *worker.Worker
	redis  *redis.Client

	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Server, log *slog.Logger) (*app, error) {
	a := &app{}
	reg := metrics.NewRegistry()
	checks := health.New(cfg.Environment, health.WithLogger(log))

	table, err := loadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	log.Info("purpose policy loaded", "version", table.Version(), "purposes", table.Purposes())

	hasher, err := privacy.NewHasher(cfg.ConsumerIDPepper)
	if err != nil {
		return nil, fmt.Errorf("identifier hasher: %w", err)
	}

	var prod *producer.Producer
	if cfg.Kafka.Enabled() {
		prod, err = producer.New(producer.Config{
			Brokers:         cfg.Kafka.Brokers,
			ClientID:        cfg.Kafka.ClientID,
			Retries:         5,
			DeliveryTimeout: 30 * time.Second,
		}, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, prod.Close)
		checks.RegisterCheck("kafka", prod.Health)

		topics := []string{cfg.Kafka.EscalationTopic}
		for _, kind := range []string{"access", "calculation", "violation", "error"} {
			topics = append(topics, cfg.Kafka.AuditTopic+"."+kind)
		}
		if err := kafka.EnsureTopics(ctx, prod.Client(), topics...); err != nil {
			log.Warn("kafka topic bootstrap failed; relying on broker auto-create", "error", err)
		}
	}

	store, err := a.buildStore(ctx, cfg, reg, checks, prod, log)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.Redis.URL != "" {
		rc, err := redis.New(cfg.Redis, reg)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = rc
		a.closers = append(a.closers, rc.Close)
		checks.Add(rc)
	}

	var sink escalation.Sink = escalation.NewLogSink(log)
	if prod != nil {
		sink = escalation.NewKafkaSink(prod, cfg.Kafka.EscalationTopic, escalation.WithFallback(sink))
	}

	tr := tracer.New(nil)
	accessSvc := access.New(store, table, hasher,
		access.WithEscalation(sink),
		access.WithMetrics(accessmetrics.New(reg)),
		access.WithTracer(tr),
		access.WithLogger(log),
	)

	retriever, err := buildRetriever(cfg, reg, checks, log)
	if err != nil {
		a.close()
		return nil, err
	}

	reports := creditreport.New(accessSvc, retriever, store, hasher,
		creditreport.WithTracer(tr),
		creditreport.WithLogger(log),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience, 0)
	a.router = newRouter(cfg, reg, checks, handler.New(reports, log), jwtService, log)
	return a, nil
}

func (a *app) buildStore(ctx context.Context, cfg *config.Server, reg *metrics.Registry, checks *health.Handler, prod *producer.Producer, log *slog.Logger) (auditstore.Store, error) {
	if cfg.StoreBackend != "postgres" {
		log.Warn("using in-memory audit store; records are lost on restart")
		return auditstore.NewInMemory(), nil
	}

	pool, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	checks.Add(pool)
	reg.RegisterDB(pool.DB(), "audit")

	applied, err := migrations.Up(ctx, pool.DB())
	if err != nil {
		return nil, err
	}
	log.Info("audit schema up to date", "migrations", len(applied))

	if prod == nil {
		return auditstore.NewPostgres(pool.DB()), nil
	}
	a.outbox = worker.New(outboxpg.New(pool.DB()), prod,
		worker.WithTopicPrefix(cfg.Kafka.AuditTopic),
		worker.WithBatchSize(cfg.Outbox.BatchSize),
		worker.WithPollInterval(cfg.Outbox.PollInterval),
		worker.WithRetention(cfg.Outbox.Retention),
		worker.WithMetrics(outboxmetrics.New(reg)),
		worker.WithLogger(log),
	)
	return auditstore.NewPostgres(pool.DB(), auditstore.WithOutbox()), nil
}

func loadPolicy(path string) (*policy.Table, error) {
	if path == "" {
		return policy.Default(), nil
	}
	t, err := policy.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load purpose policy: %w", err)
	}
	return t, nil
}

func buildRetriever(cfg *config.Server, reg *metrics.Registry, checks *health.Handler, log *slog.Logger) (ports.Retriever, error) {
	if cfg.Bureau.BaseURL == "" {
		log.Warn("BUREAU_BASE_URL not set; serving fixture credit reports")
		return fixture.New(), nil
	}
	client, err := bureau.New(bureau.Config{
		BaseURL:          cfg.Bureau.BaseURL,
		APIKey:           cfg.Bureau.APIKey,
		Timeout:          cfg.Bureau.Timeout,
		FailureThreshold: cfg.Bureau.BreakerThreshold,
		OpenTimeout:      cfg.Bureau.BreakerCooldown,
	}, bureau.WithMetrics(bureau.NewMetrics(reg)), bureau.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("bureau client: %w", err)
	}
	checks.Add(client)
	return client, nil
}

func newRouter(cfg *config.Server, reg *metrics.Registry, checks *health.Handler, reports *handler.Handler, validator auth.JWTValidator, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(metadata.NewMiddleware(metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.LatencyMiddleware(request.NewMetrics(reg)))

	checks.Register(r)
	r.Handle("/metrics", reg.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout))
		r.Use(request.BodyLimit(maxRequestBody))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(validator, log))
		reports.Register(r)
	})
	return r
}
