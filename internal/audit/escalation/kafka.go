package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"creditgate/internal/audit/models"
	"creditgate/internal/platform/kafka/producer"
)

// Producer publishes synchronously. Satisfied by *producer.Producer.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaSink publishes escalations to a dedicated priority topic, keyed by
// violation ID so redeliveries land on the same partition.
type KafkaSink struct {
	producer Producer
	topic    string
	fallback Sink
	now      func() time.Time
}

// KafkaOption configures a KafkaSink.
type KafkaOption func(*KafkaSink)

// WithFallback routes the escalation to another sink when the publish fails.
// The publish error is still returned, joined with the fallback's own error
// when that fails too.
func WithFallback(s Sink) KafkaOption {
	return func(k *KafkaSink) {
		k.fallback = s
	}
}

func NewKafkaSink(p Producer, topic string, opts ...KafkaOption) *KafkaSink {
	if p == nil {
		panic("escalation kafka sink requires a producer")
	}
	if topic == "" {
		panic("escalation kafka sink requires a topic")
	}
	k := &KafkaSink{producer: p, topic: topic, now: time.Now}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *KafkaSink) Escalate(ctx context.Context, v models.ViolationRecord) error {
	payload, err := json.Marshal(Event{ViolationRecord: v, EscalatedAt: k.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}

	err = k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(v.ViolationID.String()),
		Value: payload,
		Headers: map[string]string{
			"event_type": "violation_escalated",
			"severity":   string(v.Severity),
		},
	})
	if err != nil {
		err = fmt.Errorf("publish escalation: %w", err)
		if k.fallback != nil {
			if ferr := k.fallback.Escalate(ctx, v); ferr != nil {
				err = errors.Join(err, fmt.Errorf("fallback escalation: %w", ferr))
			}
		}
		return err
	}
	return nil
}
