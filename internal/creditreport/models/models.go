// Package models holds the credit report payloads and the calculation request
// accepted over HTTP.
package models

import (
	"time"

	auditmodels "creditgate/internal/audit/models"
	"creditgate/pkg/domain"
	"creditgate/pkg/validation"
)

// Report is the bureau payload returned to an authorized caller. It is passed
// through untouched and never persisted.
type Report struct {
	Bureau      string      `json:"bureau"`
	Score       int         `json:"score"`
	ScoreModel  string      `json:"score_model"`
	Tradelines  []Tradeline `json:"tradelines"`
	Inquiries   int         `json:"inquiries"`
	GeneratedAt time.Time   `json:"generated_at"`
}

type Tradeline struct {
	Creditor     string `json:"creditor"`
	AccountType  string `json:"account_type"`
	Status       string `json:"status"`
	BalanceCents int64  `json:"balance_cents"`
	OpenedOn     string `json:"opened_on"`
}

// Meta accompanies every report handed to a caller.
type Meta struct {
	AuditID             domain.AuditID `json:"audit_id"`
	RetrievedAt         time.Time      `json:"retrieved_at"`
	ComplianceValidated bool           `json:"compliance_validated"`
}

// ReportResult is the GET /credit-reports/{consumerId} response body.
type ReportResult struct {
	Data *Report `json:"data"`
	Meta Meta    `json:"meta"`
}

// CalculationRequest is the body of POST /credit-reports/audits/{auditId}/calculations.
// Input is the raw calculation input; only its hash is stored.
type CalculationRequest struct {
	Action          string   `json:"action" validate:"required,notblank,max=64"`
	Input           string   `json:"input" validate:"required,max=8192"`
	Result          string   `json:"result" validate:"required,notblank,max=256"`
	Method          string   `json:"method" validate:"required,notblank,max=64"`
	ComplianceFlags []string `json:"compliance_flags" validate:"omitempty,max=8,dive,max=64,complianceflag"`
}

func (r *CalculationRequest) Sanitize() {
	validation.TrimAll(&r.Action, &r.Result, &r.Method)
	for i := range r.ComplianceFlags {
		validation.TrimAll(&r.ComplianceFlags[i])
	}
}

func (r *CalculationRequest) Validate() error {
	return validation.Validate(r)
}

// CalculationInput is a validated calculation bound to an audit ID.
type CalculationInput struct {
	AuditID    domain.AuditID
	Action     string
	Input      string
	Result     string
	Method     string
	ExtraFlags []auditmodels.ComplianceFlag
}

// CalculationResponse is returned with 201 once the calculation record is durable.
type CalculationResponse struct {
	AuditID  domain.AuditID `json:"audit_id"`
	Recorded time.Time      `json:"recorded_at"`
}
