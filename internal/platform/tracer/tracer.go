// Package tracer wraps OpenTelemetry behind a two-method interface. Spans
// carry hashed consumer identifiers only; attributes keyed consumer_id, ssn
// or report are dropped before export.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span. The returned context carries it.
	//
	// Example:
	//   ctx, span := tr.Start(ctx, tracer.SpanAuthorize,
	//       tracer.String(tracer.AttrConsumerHash, hashed),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanAuthorize      = "access.authorize"
	SpanGetReport      = "creditreport.get"
	SpanBureauRetrieve = "creditreport.bureau.retrieve"
	SpanRecordCalc     = "creditreport.calculation.record"
)

// Attribute keys. Consumer identifiers appear only as AttrConsumerHash.
const (
	AttrConsumerHash  = "consumer_hash"
	AttrPurpose       = "purpose"
	AttrOutcome       = "outcome"
	AttrAuditID       = "audit_id"
	AttrPolicyVersion = "policy_version"
)

// Event names.
const (
	EventAccessRecorded    = "audit.access_recorded"
	EventViolationRecorded = "audit.violation_recorded"
	EventEscalated         = "audit.escalated"
)
