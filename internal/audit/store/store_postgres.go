package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"creditgate/internal/audit/models"
	"creditgate/internal/audit/outbox"
	outboxpostgres "creditgate/internal/audit/outbox/postgres"
	"creditgate/internal/sentinel"
	"creditgate/pkg/domain"
)

// pgForeignKeyViolation is the SQLSTATE raised when a calculation references
// an audit ID with no access record.
const pgForeignKeyViolation = "23503"

// PostgresStore persists audit records in PostgreSQL. Each insert runs in
// its own transaction; when the outbox is enabled the matching outbox entry
// commits in that same transaction.
type PostgresStore struct {
	db         *sql.DB
	withOutbox bool
	now        func() time.Time
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithOutbox appends an outbox entry for every audit insert.
func WithOutbox() PostgresOption {
	return func(s *PostgresStore) {
		s.withOutbox = true
	}
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	if db == nil {
		panic("audit postgres store requires a database handle")
	}
	s := &PostgresStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs insert and, when enabled, the outbox append in one transaction.
func (s *PostgresStore) inTx(ctx context.Context, insert func(dbExecutor) error, entry func() (*outbox.Entry, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insert(tx); err != nil {
		return err
	}
	if s.withOutbox {
		e, err := entry()
		if err != nil {
			return err
		}
		if err := outboxpostgres.Insert(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) LogAccess(ctx context.Context, record *models.AccessRecord) (domain.AuditID, error) {
	rec := *record
	rec.AuditID = domain.NewAuditID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	err := s.inTx(ctx,
		func(ex dbExecutor) error {
			_, err := ex.ExecContext(ctx, `
				INSERT INTO access_records (audit_id, actor_id, hashed_consumer_id, purpose, source_address, user_agent, compliance_flags, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				uuid.UUID(rec.AuditID),
				rec.ActorID.String(),
				rec.HashedConsumerID,
				rec.Purpose,
				rec.SourceAddress,
				rec.UserAgent,
				pq.StringArray(models.FlagStrings(rec.ComplianceFlags)),
				rec.CreatedAt,
			)
			return err
		},
		func() (*outbox.Entry, error) {
			return newEntry(outbox.AggregateAccess, rec.AuditID.String(), outbox.EventAccessRecorded, rec, rec.CreatedAt)
		},
	)
	if err != nil {
		return domain.AuditID{}, unavailable("log access", err)
	}
	record.AuditID = rec.AuditID
	record.CreatedAt = rec.CreatedAt
	return rec.AuditID, nil
}

func (s *PostgresStore) LogCalculation(ctx context.Context, record *models.CalculationRecord) error {
	rec := *record
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}

	err := s.inTx(ctx,
		func(ex dbExecutor) error {
			_, err := ex.ExecContext(ctx, `
				INSERT INTO calculation_records (audit_id, action, input_hash, result, method, compliance_flags, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				uuid.UUID(rec.AuditID),
				rec.Action,
				rec.InputHash,
				rec.Result,
				rec.Method,
				pq.StringArray(models.FlagStrings(rec.ComplianceFlags)),
				rec.Timestamp,
			)
			return err
		},
		func() (*outbox.Entry, error) {
			return newEntry(outbox.AggregateCalculation, rec.AuditID.String(), outbox.EventCalculationRecorded, rec, rec.Timestamp)
		},
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return sentinel.ErrNotFound
		}
		return unavailable("log calculation", err)
	}
	return nil
}

func (s *PostgresStore) LogViolation(ctx context.Context, record *models.ViolationRecord) (domain.ViolationID, error) {
	rec := *record
	rec.ViolationID = domain.NewViolationID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	err := s.inTx(ctx,
		func(ex dbExecutor) error {
			_, err := ex.ExecContext(ctx, `
				INSERT INTO violation_records (violation_id, actor_id, violation_type, description, severity, compliance_flags, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				uuid.UUID(rec.ViolationID),
				rec.ActorID.String(),
				rec.ViolationType,
				rec.Description,
				string(rec.Severity),
				pq.StringArray(models.FlagStrings(rec.ComplianceFlags)),
				rec.CreatedAt,
			)
			return err
		},
		func() (*outbox.Entry, error) {
			return newEntry(outbox.AggregateViolation, rec.ViolationID.String(), outbox.EventViolationRecorded, rec, rec.CreatedAt)
		},
	)
	if err != nil {
		return domain.ViolationID{}, unavailable("log violation", err)
	}
	record.ViolationID = rec.ViolationID
	record.CreatedAt = rec.CreatedAt
	return rec.ViolationID, nil
}

func (s *PostgresStore) LogError(ctx context.Context, record *models.ErrorRecord) error {
	rec := *record
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	var auditID uuid.NullUUID
	aggregateID := ""
	if rec.AuditID != nil {
		auditID = uuid.NullUUID{UUID: uuid.UUID(*rec.AuditID), Valid: true}
		aggregateID = rec.AuditID.String()
	}

	err := s.inTx(ctx,
		func(ex dbExecutor) error {
			_, err := ex.ExecContext(ctx, `
				INSERT INTO error_records (audit_id, error_type, message, created_at)
				VALUES ($1, $2, $3, $4)
			`,
				auditID,
				string(rec.ErrorType),
				rec.Message,
				rec.CreatedAt,
			)
			return err
		},
		func() (*outbox.Entry, error) {
			return newEntry(outbox.AggregateError, aggregateID, outbox.EventErrorRecorded, rec, rec.CreatedAt)
		},
	)
	if err != nil {
		return unavailable("log error", err)
	}
	return nil
}

func newEntry(aggregateType, aggregateID, eventType string, record any, at time.Time) (*outbox.Entry, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", aggregateType, err)
	}
	return outbox.NewEntry(aggregateType, aggregateID, eventType, payload, at), nil
}
