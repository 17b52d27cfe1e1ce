// Package store persists audit records. Every operation is an insert; no
// implementation exposes update or delete.
package store

import (
	"context"
	"fmt"

	"creditgate/internal/audit/models"
	"creditgate/internal/sentinel"
	"creditgate/pkg/domain"
)

// Error Contract:
// - sentinel.ErrNotFound: a CalculationRecord references an audit ID with no AccessRecord
// - ErrAuditUnavailable (wrapped): the insert did not land
// - nil: the record is durable when the call returns

// ErrAuditUnavailable marks insert failures caused by the backing store.
var ErrAuditUnavailable = sentinel.ErrUnavailable

// Store is the append-only audit trail. Implementations assign AuditID and
// ViolationID, fill CreatedAt when unset, and are safe for concurrent callers.
type Store interface {
	LogAccess(ctx context.Context, record *models.AccessRecord) (domain.AuditID, error)
	LogCalculation(ctx context.Context, record *models.CalculationRecord) error
	LogViolation(ctx context.Context, record *models.ViolationRecord) (domain.ViolationID, error)
	LogError(ctx context.Context, record *models.ErrorRecord) error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrAuditUnavailable, err)
}
