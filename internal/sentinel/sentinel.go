package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors once.
//
//   - ErrNotFound: referenced record does not exist
//   - ErrConflict: record with the same identifier already persisted
//   - ErrUnavailable: backing store or collaborator could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
