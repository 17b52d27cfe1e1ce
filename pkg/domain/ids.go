// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "creditgate/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing ViolationID where AuditID is expected.
type (
	AuditID     uuid.UUID
	ViolationID uuid.UUID
	OutboxID    uuid.UUID
)

// ActorID is the opaque subject identifier issued by the authentication layer.
type ActorID string

// New* generate random (v4) identifiers. 122 random bits keep collisions negligible
// over the lifetime of the audit store.

func NewAuditID() AuditID         { return AuditID(uuid.New()) }
func NewViolationID() ViolationID { return ViolationID(uuid.New()) }
func NewOutboxID() OutboxID       { return OutboxID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAuditID(s string) (AuditID, error) {
	id, err := parseUUID(s, "audit ID")
	return AuditID(id), err
}

func ParseViolationID(s string) (ViolationID, error) {
	id, err := parseUUID(s, "violation ID")
	return ViolationID(id), err
}

func ParseActorID(s string) (ActorID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor ID cannot be empty")
	}
	return ActorID(s), nil
}

// String methods - for logging and debugging.

func (id AuditID) String() string     { return uuid.UUID(id).String() }
func (id ViolationID) String() string { return uuid.UUID(id).String() }
func (id OutboxID) String() string    { return uuid.UUID(id).String() }
func (id ActorID) String() string     { return string(id) }

// IsNil checks - used for service-layer validation.

func (id AuditID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ViolationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OutboxID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool     { return id == "" }

// parseUUID is the shared validation logic.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}

// Text marshaling keeps IDs readable in JSON payloads (outbox events, API responses).

func (id AuditID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *AuditID) UnmarshalText(b []byte) error {
	parsed, err := ParseAuditID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ViolationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ViolationID) UnmarshalText(b []byte) error {
	parsed, err := ParseViolationID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
