// Package escalation forwards serious compliance violations to a
// higher-priority channel than the regular audit stream.
package escalation

import (
	"context"
	"time"

	"creditgate/internal/audit/models"
)

// Sink receives violations that crossed the escalation threshold.
type Sink interface {
	Escalate(ctx context.Context, violation models.ViolationRecord) error
}

// Threshold is the lowest severity that escalates.
const Threshold = models.SeverityHigh

// ShouldEscalate reports whether a violation of severity s must be escalated.
func ShouldEscalate(s models.Severity) bool {
	return s.AtLeast(Threshold)
}

// Event is the escalation payload: the persisted violation plus when it was escalated.
type Event struct {
	models.ViolationRecord
	EscalatedAt time.Time `json:"escalated_at"`
}
