// Package models defines the four append-only audit record kinds written for
// every credit report access attempt, plus the failure taxonomy the access
// orchestrator uses to classify outcomes.
package models

import (
	"slices"
	"time"

	"creditgate/pkg/domain"
)

// ComplianceFlag tags a record with the regulation it was written under.
type ComplianceFlag string

// FlagFCRASection604 marks records produced under FCRA §604 permissible purpose rules.
// Every AccessRecord and CalculationRecord carries it.
const FlagFCRASection604 ComplianceFlag = "FCRA_SECTION_604"

// Severity grades a ViolationRecord.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// IsValid reports whether s is one of the four known severities.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is as severe as min. Unknown severities rank below low.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min] && severityRank[s] > 0
}

// Violation types.
const (
	// ViolationTypePermissiblePurpose is recorded when a purpose check rejects an access attempt.
	ViolationTypePermissiblePurpose = "fcra_permissible_purpose"
	// ViolationTypeInvalidConsumerID is recorded when the consumer identifier
	// is empty, oversized, or padded with whitespace.
	ViolationTypeInvalidConsumerID = "invalid_consumer_identifier"
)

// ErrorType classifies an ErrorRecord.
type ErrorType string

const (
	ErrorTypeAuditPersistence ErrorType = "audit_persistence_failure"
	ErrorTypeRetrieval        ErrorType = "retrieval_failure"
	ErrorTypeInternal         ErrorType = "internal_error"
)

// AccessRecord is written before any credit data is retrieved. It never holds
// the raw consumer identifier, only its hash.
type AccessRecord struct {
	AuditID          domain.AuditID   `json:"audit_id"`
	ActorID          domain.ActorID   `json:"actor_id"`
	HashedConsumerID string           `json:"hashed_consumer_id"`
	Purpose          string           `json:"purpose"`
	SourceAddress    string           `json:"source_address"`
	UserAgent        string           `json:"user_agent"`
	ComplianceFlags  []ComplianceFlag `json:"compliance_flags"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CalculationRecord links a downstream computation to the access that enabled it.
type CalculationRecord struct {
	AuditID         domain.AuditID   `json:"audit_id"`
	Action          string           `json:"action"`
	InputHash       string           `json:"input_hash"`
	Result          string           `json:"result"`
	Method          string           `json:"method"`
	ComplianceFlags []ComplianceFlag `json:"compliance_flags"`
	Timestamp       time.Time        `json:"timestamp"`
}

// ViolationRecord is written for every rejected access attempt.
type ViolationRecord struct {
	ViolationID     domain.ViolationID `json:"violation_id"`
	ActorID         domain.ActorID     `json:"actor_id"`
	ViolationType   string             `json:"violation_type"`
	Description     string             `json:"description"`
	Severity        Severity           `json:"severity"`
	ComplianceFlags []ComplianceFlag   `json:"compliance_flags"`
	CreatedAt       time.Time          `json:"created_at"`
}

// ErrorRecord captures an internal failure. Message is scrubbed before it
// reaches the store. AuditID is nil when the failure happened before an
// access record existed.
type ErrorRecord struct {
	AuditID   *domain.AuditID `json:"audit_id,omitempty"`
	ErrorType ErrorType       `json:"error_type"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

// HasFlag reports whether flags contains f.
func HasFlag(flags []ComplianceFlag, f ComplianceFlag) bool {
	return slices.Contains(flags, f)
}

// WithFlag returns flags with f appended unless already present. The input is not modified.
func WithFlag(flags []ComplianceFlag, f ComplianceFlag) []ComplianceFlag {
	out := slices.Clone(flags)
	if !HasFlag(out, f) {
		out = append(out, f)
	}
	return out
}

// FlagStrings converts flags for storage drivers that want plain strings.
func FlagStrings(flags []ComplianceFlag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

// ParseFlags is the inverse of FlagStrings.
func ParseFlags(values []string) []ComplianceFlag {
	out := make([]ComplianceFlag, len(values))
	for i, v := range values {
		out[i] = ComplianceFlag(v)
	}
	return out
}
