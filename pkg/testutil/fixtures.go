package testutil

import (
	"time"

	"github.com/google/uuid"

	"creditgate/internal/audit/models"
	"creditgate/pkg/domain"
)

// FixedTime is a deterministic timestamp for record fixtures.
var FixedTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// TestIDs provides pre-generated IDs for deterministic test data.
var TestIDs = struct {
	Actor1     domain.ActorID
	Actor2     domain.ActorID
	Audit1     domain.AuditID
	Violation1 domain.ViolationID
}{
	Actor1:     "analyst-1",
	Actor2:     "analyst-2",
	Audit1:     domain.AuditID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	Violation1: domain.ViolationID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
}

// AccessRecordFixture returns an unsaved AccessRecord for purpose with the
// FCRA flag set. The consumer hash is a placeholder, not a real digest.
func AccessRecordFixture(purpose string) *models.AccessRecord {
	return &models.AccessRecord{
		ActorID:          TestIDs.Actor1,
		HashedConsumerID: "9f2c",
		Purpose:          purpose,
		SourceAddress:    "203.0.113.7",
		UserAgent:        "test-agent",
		ComplianceFlags:  []models.ComplianceFlag{models.FlagFCRASection604},
	}
}

// ViolationRecordFixture returns a purpose violation with a fresh ID.
func ViolationRecordFixture(severity models.Severity) models.ViolationRecord {
	return models.ViolationRecord{
		ViolationID:     domain.NewViolationID(),
		ActorID:         TestIDs.Actor2,
		ViolationType:   "invalid_permissible_purpose",
		Description:     "purpose curiosity not permitted",
		Severity:        severity,
		ComplianceFlags: []models.ComplianceFlag{models.FlagFCRASection604},
		CreatedAt:       FixedTime,
	}
}
