package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"creditgate/internal/audit/models"
	"creditgate/internal/sentinel"
	"creditgate/pkg/domain"
)

// InMemoryStore keeps audit records in process memory. It backs
// STORE_BACKEND=memory and the package tests.
type InMemoryStore struct {
	mu           sync.RWMutex
	accesses     []models.AccessRecord
	accessIndex  map[domain.AuditID]struct{}
	calculations []models.CalculationRecord
	violations   []models.ViolationRecord
	errors       []models.ErrorRecord
	now          func() time.Time
}

// NewInMemory constructs an empty in-memory audit store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		accessIndex: make(map[domain.AuditID]struct{}),
		now:         time.Now,
	}
}

func (s *InMemoryStore) LogAccess(ctx context.Context, record *models.AccessRecord) (domain.AuditID, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditID{}, unavailable("log access", err)
	}
	rec := *record
	rec.ComplianceFlags = slices.Clone(record.ComplianceFlags)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec.AuditID = domain.NewAuditID()
	for {
		if _, taken := s.accessIndex[rec.AuditID]; !taken {
			break
		}
		rec.AuditID = domain.NewAuditID()
	}
	s.accesses = append(s.accesses, rec)
	s.accessIndex[rec.AuditID] = struct{}{}
	record.AuditID = rec.AuditID
	record.CreatedAt = rec.CreatedAt
	return rec.AuditID, nil
}

func (s *InMemoryStore) LogCalculation(ctx context.Context, record *models.CalculationRecord) error {
	if err := ctx.Err(); err != nil {
		return unavailable("log calculation", err)
	}
	rec := *record
	rec.ComplianceFlags = slices.Clone(record.ComplianceFlags)
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accessIndex[rec.AuditID]; !ok {
		return sentinel.ErrNotFound
	}
	s.calculations = append(s.calculations, rec)
	return nil
}

func (s *InMemoryStore) LogViolation(ctx context.Context, record *models.ViolationRecord) (domain.ViolationID, error) {
	if err := ctx.Err(); err != nil {
		return domain.ViolationID{}, unavailable("log violation", err)
	}
	rec := *record
	rec.ComplianceFlags = slices.Clone(record.ComplianceFlags)
	rec.ViolationID = domain.NewViolationID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, rec)
	record.ViolationID = rec.ViolationID
	record.CreatedAt = rec.CreatedAt
	return rec.ViolationID, nil
}

func (s *InMemoryStore) LogError(ctx context.Context, record *models.ErrorRecord) error {
	if err := ctx.Err(); err != nil {
		return unavailable("log error", err)
	}
	rec := *record
	if record.AuditID != nil {
		id := *record.AuditID
		rec.AuditID = &id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, rec)
	return nil
}

// Read accessors return copies so callers cannot alter stored records.

func (s *InMemoryStore) AccessRecords() []models.AccessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AccessRecord, len(s.accesses))
	for i, r := range s.accesses {
		r.ComplianceFlags = slices.Clone(r.ComplianceFlags)
		out[i] = r
	}
	return out
}

func (s *InMemoryStore) CalculationRecords() []models.CalculationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CalculationRecord, len(s.calculations))
	for i, r := range s.calculations {
		r.ComplianceFlags = slices.Clone(r.ComplianceFlags)
		out[i] = r
	}
	return out
}

func (s *InMemoryStore) ViolationRecords() []models.ViolationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ViolationRecord, len(s.violations))
	for i, r := range s.violations {
		r.ComplianceFlags = slices.Clone(r.ComplianceFlags)
		out[i] = r
	}
	return out
}

func (s *InMemoryStore) ErrorRecords() []models.ErrorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ErrorRecord, len(s.errors))
	for i, r := range s.errors {
		if r.AuditID != nil {
			id := *r.AuditID
			r.AuditID = &id
		}
		out[i] = r
	}
	return out
}
