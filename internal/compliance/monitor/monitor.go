// Package monitor consumes the violation and escalation streams and raises
// one alert per event.
//
// Offsets follow the consumer's at-least-once contract: malformed messages
// are logged and committed, while a Redis failure is returned so the message
// is redelivered. Redis makes redelivery safe by remembering claimed events.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"creditgate/internal/audit/escalation"
	"creditgate/internal/audit/models"
	"creditgate/internal/platform/kafka/consumer"
)

// Stream names used in dedupe keys, logs and metric labels.
const (
	StreamViolation  = "violation"
	StreamEscalation = "escalation"
)

// Router dispatches consumed messages to a handler by topic. Messages on
// unrouted topics are logged and committed.
type Router struct {
	routes map[string]consumer.Handler
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{routes: make(map[string]consumer.Handler), logger: logger}
}

// Route registers h for topic. Registering a topic twice replaces the handler.
func (r *Router) Route(topic string, h consumer.Handler) *Router {
	r.routes[topic] = h
	return r
}

// Topics lists the routed topics, for the consumer subscription.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.routes))
	for t := range r.routes {
		topics = append(topics, t)
	}
	return topics
}

func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	h, ok := r.routes[msg.Topic]
	if !ok {
		r.logger.WarnContext(ctx, "no handler for topic, skipping",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
		)
		return nil
	}
	return h.Handle(ctx, msg)
}

// Handler raises alerts for one stream.
type Handler struct {
	stream  string
	dedupe  Deduper
	metrics *Metrics
	logger  *slog.Logger
}

func newHandler(stream string, dedupe Deduper, metrics *Metrics, logger *slog.Logger) *Handler {
	if dedupe == nil {
		panic("compliance monitor requires a deduper")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{stream: stream, dedupe: dedupe, metrics: metrics, logger: logger}
}

// NewViolationHandler handles ViolationRecord payloads published from the audit outbox.
func NewViolationHandler(dedupe Deduper, metrics *Metrics, logger *slog.Logger) *Handler {
	return newHandler(StreamViolation, dedupe, metrics, logger)
}

// NewEscalationHandler handles escalation.Event payloads from the priority topic.
func NewEscalationHandler(dedupe Deduper, metrics *Metrics, logger *slog.Logger) *Handler {
	return newHandler(StreamEscalation, dedupe, metrics, logger)
}

func (h *Handler) Handle(ctx context.Context, msg *consumer.Message) error {
	alert, err := h.decode(msg.Value)
	if err != nil {
		h.metrics.IncMalformed(h.stream)
		h.logger.ErrorContext(ctx, "malformed compliance event, skipping",
			"stream", h.stream,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	first, err := h.dedupe.Claim(ctx, h.stream+":"+alert.ViolationID.String())
	if err != nil {
		return fmt.Errorf("dedupe %s event: %w", h.stream, err)
	}
	if !first {
		h.metrics.IncDuplicate(h.stream)
		h.logger.DebugContext(ctx, "duplicate compliance event skipped",
			"stream", h.stream,
			"violation_id", alert.ViolationID.String(),
		)
		return nil
	}

	h.raise(ctx, alert)
	return nil
}

type alert struct {
	models.ViolationRecord
	EscalatedAt time.Time
}

func (h *Handler) decode(value []byte) (alert, error) {
	var a alert
	switch h.stream {
	case StreamEscalation:
		var ev escalation.Event
		if err := json.Unmarshal(value, &ev); err != nil {
			return a, fmt.Errorf("decode escalation: %w", err)
		}
		a = alert{ViolationRecord: ev.ViolationRecord, EscalatedAt: ev.EscalatedAt}
	default:
		if err := json.Unmarshal(value, &a.ViolationRecord); err != nil {
			return a, fmt.Errorf("decode violation: %w", err)
		}
	}
	if a.ViolationID.IsNil() {
		return a, fmt.Errorf("missing violation_id")
	}
	if !a.Severity.IsValid() {
		return a, fmt.Errorf("unknown severity %q", a.Severity)
	}
	return a, nil
}

func (h *Handler) raise(ctx context.Context, a alert) {
	h.metrics.IncAlert(h.stream, string(a.Severity))

	attrs := []any{
		"stream", h.stream,
		"violation_id", a.ViolationID.String(),
		"actor_id", a.ActorID.String(),
		"violation_type", a.ViolationType,
		"severity", string(a.Severity),
		"created_at", a.CreatedAt,
		"log_type", "compliance",
	}
	if !a.EscalatedAt.IsZero() {
		attrs = append(attrs, "escalated_at", a.EscalatedAt)
	}

	if escalation.ShouldEscalate(a.Severity) {
		h.logger.ErrorContext(ctx, "compliance alert", attrs...)
		return
	}
	h.logger.WarnContext(ctx, "compliance alert", attrs...)
}
