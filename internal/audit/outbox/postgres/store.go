package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"creditgate/internal/audit/outbox"
	"creditgate/pkg/domain"
)

// maxBatch caps a single ProcessBatch call.
const maxBatch = 1000

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements outbox.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL outbox store.
func New(db *sql.DB) *Store {
	if db == nil {
		panic("outbox postgres store requires a database handle")
	}
	return &Store{db: db}
}

// Insert appends entry using ex. Pass the transaction of the business write
// so both commit or roll back together.
func Insert(ctx context.Context, ex Execer, entry *outbox.Entry) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.UUID(entry.ID),
		entry.AggregateType,
		entry.AggregateID,
		entry.EventType,
		entry.Payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ProcessBatch locks pending rows with FOR UPDATE SKIP LOCKED so concurrent
// workers never publish the same entry within a poll.
func (s *Store) ProcessBatch(ctx context.Context, limit int, publish outbox.PublishFunc) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	if limit > maxBatch {
		limit = maxBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	entries, err := fetchPending(ctx, tx, limit)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	processed := 0
	var publishErr error
	for _, entry := range entries {
		if err := publish(ctx, entry); err != nil {
			publishErr = fmt.Errorf("publish outbox entry %s: %w", entry.ID, err)
			break
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET processed_at = $2 WHERE id = $1 AND processed_at IS NULL`,
			uuid.UUID(entry.ID), time.Now().UTC(),
		); err != nil {
			return 0, fmt.Errorf("mark outbox entry processed: %w", err)
		}
		processed++
	}

	if processed > 0 {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit outbox batch: %w", err)
		}
	}
	return processed, publishErr
}

func fetchPending(ctx context.Context, tx *sql.Tx, limit int) ([]*outbox.Entry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		FROM outbox
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []*outbox.Entry
	for rows.Next() {
		var (
			id    uuid.UUID
			entry outbox.Entry
		)
		if err := rows.Scan(&id, &entry.AggregateType, &entry.AggregateID, &entry.EventType, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entry.ID = domain.OutboxID(id)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox entries: %w", err)
	}
	return entries, nil
}

// CountPending returns the number of unprocessed entries.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE processed_at IS NULL`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

// OldestPendingAge returns how long the oldest pending entry has waited.
func (s *Store) OldestPendingAge(ctx context.Context, now time.Time) (time.Duration, error) {
	var oldest sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(created_at) FROM outbox WHERE processed_at IS NULL`).Scan(&oldest); err != nil {
		return 0, fmt.Errorf("oldest pending entry: %w", err)
	}
	if !oldest.Valid {
		return 0, nil
	}
	return now.Sub(oldest.Time), nil
}

// DeleteProcessedBefore removes old processed entries.
func (s *Store) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE processed_at IS NOT NULL AND processed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete processed entries: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return n, nil
}
