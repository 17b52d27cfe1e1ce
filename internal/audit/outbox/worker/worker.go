package worker

import (
	"context"
	"log/slog"
	"time"

	"creditgate/internal/audit/outbox"
	"creditgate/internal/audit/outbox/metrics"
	"creditgate/internal/platform/kafka/producer"
)

const queueMetricsInterval = 15 * time.Second

// Producer publishes one message and returns after the broker acknowledged it.
// Satisfied by *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox table and publishes audit events to Kafka.
type Worker struct {
	store           outbox.Store
	producer        Producer
	topicPrefix     string
	batchSize       int
	pollInterval    time.Duration
	cleanupInterval time.Duration
	retention       time.Duration
	drainTimeout    time.Duration
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

// Option configures the Worker.
type Option func(*Worker)

// WithTopicPrefix sets the prefix of the per-record-kind topics.
func WithTopicPrefix(prefix string) Option {
	return func(w *Worker) {
		w.topicPrefix = prefix
	}
}

// WithBatchSize sets the maximum number of entries to publish per poll.
func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithPollInterval sets the interval between polls.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithRetention sets how long processed entries are kept before cleanup.
// Zero disables cleanup.
func WithRetention(retention time.Duration) Option {
	return func(w *Worker) {
		w.retention = retention
	}
}

// WithCleanupInterval sets how often retention cleanup runs.
func WithCleanupInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.cleanupInterval = interval
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New creates a new outbox worker.
func New(store outbox.Store, prod Producer, opts ...Option) *Worker {
	if store == nil {
		panic("outbox worker requires a store")
	}
	if prod == nil {
		panic("outbox worker requires a producer")
	}

	w := &Worker{
		store:           store,
		producer:        prod,
		topicPrefix:     "credit.audit",
		batchSize:       100,
		pollInterval:    100 * time.Millisecond,
		cleanupInterval: time.Hour,
		retention:       7 * 24 * time.Hour,
		drainTimeout:    10 * time.Second,
		logger:          slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run polls until ctx is cancelled, then drains remaining entries with a
// bounded timeout. It always returns nil; poll failures are logged and
// retried on the next tick.
func (w *Worker) Run(ctx context.Context) error {
	pollTicker := time.NewTicker(w.pollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(w.cleanupInterval)
	defer cleanupTicker.Stop()

	metricsTicker := time.NewTicker(queueMetricsInterval)
	defer metricsTicker.Stop()

	w.logger.InfoContext(ctx, "outbox worker started",
		"topic_prefix", w.topicPrefix,
		"batch_size", w.batchSize,
		"poll_interval", w.pollInterval,
	)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case <-pollTicker.C:
			w.Poll(ctx)
		case <-metricsTicker.C:
			w.updateQueueMetrics(ctx)
		case <-cleanupTicker.C:
			w.Cleanup(ctx)
		}
	}
}

// Poll publishes one batch and returns the number of entries published.
func (w *Worker) Poll(ctx context.Context) int {
	start := time.Now()
	n, err := w.store.ProcessBatch(ctx, w.batchSize, w.publishEntry)
	if err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "outbox batch stopped", "published", n, "error", err)
	}
	w.metrics.Batch(n, time.Since(start))
	return n
}

func (w *Worker) publishEntry(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	msg := &producer.Message{
		Topic: entry.Topic(w.topicPrefix),
		Key:   []byte(entry.ID.String()),
		Value: entry.Payload,
		Headers: map[string]string{
			"aggregate_type": entry.AggregateType,
			"aggregate_id":   entry.AggregateID,
			"event_type":     entry.EventType,
		},
	}
	if err := w.producer.Produce(ctx, msg); err != nil {
		w.metrics.Failed(entry.AggregateType)
		return err
	}
	w.metrics.Published(entry.AggregateType, time.Since(start))
	return nil
}

// drain publishes what is left after shutdown was requested.
func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	w.logger.Info("draining outbox worker")
	total := 0
	for ctx.Err() == nil {
		n, err := w.store.ProcessBatch(ctx, w.batchSize, w.publishEntry)
		total += n
		if err != nil {
			w.logger.Error("outbox drain stopped", "published", total, "error", err)
			return
		}
		if n == 0 {
			break
		}
	}
	w.logger.Info("outbox worker drained", "published", total)
}

// Cleanup removes processed entries older than the retention window.
func (w *Worker) Cleanup(ctx context.Context) {
	if w.retention <= 0 {
		return
	}
	deleted, err := w.store.DeleteProcessedBefore(ctx, time.Now().Add(-w.retention))
	if err != nil {
		w.logger.ErrorContext(ctx, "outbox cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		w.logger.InfoContext(ctx, "outbox cleanup removed processed entries", "deleted", deleted)
	}
	w.metrics.AddCleaned(deleted)
}

func (w *Worker) updateQueueMetrics(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	count, err := w.store.CountPending(ctx)
	if err != nil {
		return
	}
	age, err := w.store.OldestPendingAge(ctx, time.Now())
	if err != nil {
		return
	}
	w.metrics.Queue(count, age)
}
