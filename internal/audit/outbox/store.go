package outbox

import (
	"context"
	"time"
)

// PublishFunc delivers one entry. A nil return means the broker acknowledged it.
type PublishFunc func(ctx context.Context, entry *Entry) error

// Store defines the outbox operations the worker needs.
// Implementations must be safe for concurrent workers.
type Store interface {
	// ProcessBatch locks up to limit pending entries (oldest first), calls
	// publish for each in order and marks the published ones processed, all in
	// one transaction. It stops at the first publish error so later entries
	// keep their order; the entries before it are still committed. Returns the
	// number of entries marked processed together with that publish error.
	ProcessBatch(ctx context.Context, limit int, publish PublishFunc) (int, error)

	// CountPending returns the number of unprocessed entries.
	CountPending(ctx context.Context) (int64, error)

	// OldestPendingAge returns the age of the oldest unprocessed entry, or zero.
	OldestPendingAge(ctx context.Context, now time.Time) (time.Duration, error)

	// DeleteProcessedBefore removes processed entries older than before.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
