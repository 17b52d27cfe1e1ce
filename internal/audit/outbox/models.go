// Package outbox implements the transactional outbox for audit records: every
// audit insert appends an Entry in the same transaction, and the worker
// publishes pending entries to Kafka.
package outbox

import (
	"time"

	"creditgate/pkg/domain"
)

// Aggregate types, one per audit record kind. The worker publishes each to
// "<topic prefix>.<aggregate type>".
const (
	AggregateAccess      = "access"
	AggregateCalculation = "calculation"
	AggregateViolation   = "violation"
	AggregateError       = "error"
)

// Event types carried in the event_type header.
const (
	EventAccessRecorded      = "access_recorded"
	EventCalculationRecorded = "calculation_recorded"
	EventViolationRecorded   = "violation_recorded"
	EventErrorRecorded       = "error_recorded"
)

// Entry represents a pending event in the outbox table.
type Entry struct {
	ID            domain.OutboxID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte // JSON-encoded audit record; consumer IDs appear hashed only
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil = pending
}

// IsPending returns true if this entry has not been published yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// Topic returns the destination topic for the entry under prefix.
func (e *Entry) Topic(prefix string) string {
	return prefix + "." + e.AggregateType
}

// NewEntry creates a new outbox entry with a generated ID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:            domain.NewOutboxID(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
