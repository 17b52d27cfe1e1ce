package ports

import (
	"context"
	"errors"

	"creditgate/internal/creditreport/models"
	"creditgate/pkg/domain"
)

// Retriever fetches a credit report from the bureau. It is only called after
// the access record for auditID is durable; implementations may forward
// auditID to the bureau as a correlation reference.
type Retriever interface {
	Retrieve(ctx context.Context, consumerID, purpose string, auditID domain.AuditID) (*models.Report, error)
}

// Retrieval errors. All of them surface to callers as SERVICE_ERROR.
var (
	ErrBureauUnavailable = errors.New("bureau unavailable")
	ErrReportNotFound    = errors.New("report not found")
	ErrBureauRejected    = errors.New("bureau rejected request")
)
