// Package policy decides whether an actor may access a credit report for a
// stated permissible purpose. Decisions are a pure function of the purpose,
// the actor's capabilities and an immutable Table.
package policy

import (
	"fmt"
	"slices"
	"strings"

	"creditgate/pkg/domain"
)

// Purposes recognised under FCRA §604. The set is closed: a Table can narrow
// it but never extend it.
const (
	PurposeCreditApplication = "credit_application"
	PurposeAccountReview     = "account_review"
	PurposeEmployment        = "employment"
	PurposeInsurance         = "insurance"
)

// KnownPurposes lists the closed set in a stable order.
var KnownPurposes = []string{
	PurposeCreditApplication,
	PurposeAccountReview,
	PurposeEmployment,
	PurposeInsurance,
}

// CapabilityPrefix is prepended to a purpose to name the capability it requires.
const CapabilityPrefix = "access-credit-reports-for-"

// Rejection reasons. Recorded on violations, never returned to callers.
const (
	ReasonUnknownPurpose         = "unknown purpose"
	ReasonInsufficientCapability = "insufficient capability"
)

// DefaultVersion identifies the built-in table in audit metadata.
const DefaultVersion = "fcra-604/2024-01"

// CapabilityFor returns the capability an actor needs for purpose.
func CapabilityFor(purpose string) string {
	return CapabilityPrefix + purpose
}

// Decision is the outcome of Validate.
type Decision struct {
	Allowed bool
	Reason  string
}

// Table maps each recognised purpose to the capability it requires.
// Build it with Default, New or Load; the zero value allows nothing.
type Table struct {
	version  string
	purposes map[string]string
}

// Default returns the table covering all four purposes with the standard
// capability names.
func Default() *Table {
	t, err := New(DefaultVersion, KnownPurposes...)
	if err != nil {
		panic(err)
	}
	return t
}

// New builds a table for the given subset of the closed purpose set.
func New(version string, purposes ...string) (*Table, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("policy version is required")
	}
	if len(purposes) == 0 {
		return nil, fmt.Errorf("policy must allow at least one purpose")
	}
	t := &Table{version: version, purposes: make(map[string]string, len(purposes))}
	for _, p := range purposes {
		if !slices.Contains(KnownPurposes, p) {
			return nil, fmt.Errorf("purpose %q is not a recognised permissible purpose", p)
		}
		if _, dup := t.purposes[p]; dup {
			return nil, fmt.Errorf("purpose %q listed twice", p)
		}
		t.purposes[p] = CapabilityFor(p)
	}
	return t, nil
}

// Version identifies the table the decision was made under.
func (t *Table) Version() string { return t.version }

// Purposes returns the purposes the table recognises, sorted.
func (t *Table) Purposes() []string {
	out := make([]string, 0, len(t.purposes))
	for p := range t.purposes {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Validate checks purpose against the table and the actor's capabilities.
func (t *Table) Validate(purpose string, actor domain.Actor) Decision {
	capability, ok := t.purposes[purpose]
	if !ok {
		return Decision{Reason: ReasonUnknownPurpose}
	}
	if !actor.HasCapability(capability) {
		return Decision{Reason: ReasonInsufficientCapability}
	}
	return Decision{Allowed: true}
}
