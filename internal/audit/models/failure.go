package models

import "fmt"

// FailureKind is the internal classification of a denied access attempt.
// It never reaches callers; they only see the public FCRA_VIOLATION or
// SERVICE_ERROR code.
type FailureKind string

const (
	// FailurePolicyViolation: unknown purpose or missing capability.
	FailurePolicyViolation FailureKind = "policy_violation"
	// FailureAuditPersistence: an audit insert failed; the request must not proceed.
	FailureAuditPersistence FailureKind = "audit_persistence_failure"
	// FailureRetrieval: the bureau failed after the access record was written.
	FailureRetrieval FailureKind = "retrieval_failure"
)

// Failure carries the classification and the internal reason for a denial.
// It is wrapped as the cause of the public domain error so logs and tests can
// recover it with errors.As.
type Failure struct {
	Kind   FailureKind
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }
