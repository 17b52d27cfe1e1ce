// Package service is the access authorization orchestrator: it checks the
// permissible purpose, writes the audit trail, and classifies every failure
// before any credit data can be retrieved.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"creditgate/internal/access/metrics"
	"creditgate/internal/access/policy"
	"creditgate/internal/audit/escalation"
	"creditgate/internal/audit/models"
	auditstore "creditgate/internal/audit/store"
	"creditgate/internal/platform/privacy"
	"creditgate/internal/platform/tracer"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

// Caller-facing messages. They never vary with the underlying cause.
const (
	MsgFCRAViolation     = "Access denied due to compliance requirements"
	MsgServiceError      = "Unable to retrieve credit report"
	MsgInvalidConsumerID = "invalid consumer id"
)

// MaxConsumerIDLength bounds the raw identifier accepted for hashing.
const MaxConsumerIDLength = 128

// violationSeverity applies to every purpose rejection.
const violationSeverity = models.SeverityHigh

// maxPurposeInDescription bounds caller-supplied text copied into a violation.
const maxPurposeInDescription = 64

// bestEffortTimeout bounds error-record and escalation writes that must
// outlive a cancelled request.
const bestEffortTimeout = 2 * time.Second

// Policy decides whether an actor may access reports for a purpose.
// Satisfied by *policy.Table.
type Policy interface {
	Validate(purpose string, actor domain.Actor) policy.Decision
	Version() string
}

// Hasher derives the stored form of a consumer identifier.
// Satisfied by *privacy.Hasher.
type Hasher interface {
	Hash(raw string) string
	Scrub(msg, raw string) string
}

// Request is one access attempt.
type Request struct {
	Actor         domain.Actor
	RawConsumerID string
	Purpose       string
	SourceAddress string
	UserAgent     string
}

// Grant is returned once the access record is durable.
type Grant struct {
	AuditID          domain.AuditID
	HashedConsumerID string
	GrantedAt        time.Time
}

// Service orchestrates authorization and auditing of credit report access.
type Service struct {
	store     auditstore.Store
	policy    Policy
	hasher    Hasher
	escalator escalation.Sink
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	logger    *slog.Logger
}

type Option func(*Service)

// WithEscalation sets the sink for high and critical violations.
func WithEscalation(sink escalation.Sink) Option {
	return func(s *Service) {
		s.escalator = sink
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New constructs the orchestrator. The policy is read-only for the lifetime
// of the service.
func New(store auditstore.Store, p Policy, hasher Hasher, opts ...Option) *Service {
	if store == nil {
		panic("access service requires an audit store")
	}
	if p == nil {
		panic("access service requires a policy")
	}
	if hasher == nil {
		panic("access service requires a hasher")
	}
	s := &Service{
		store:  store,
		policy: p,
		hasher: hasher,
		tracer: tracer.NewNoop(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeAndRecord validates the purpose and writes the audit trail.
//
// On success the AccessRecord is durable before the Grant is returned.
// Denials are *dErrors.Error with CodeFCRAViolation or CodeServiceError and a
// fixed message; the wrapped *models.Failure carries the internal
// classification. Nothing is retried.
func (s *Service) AuthorizeAndRecord(ctx context.Context, req Request) (*Grant, error) {
	start := time.Now()
	hashed := s.hasher.Hash(req.RawConsumerID)

	ctx, span := s.tracer.Start(ctx, tracer.SpanAuthorize,
		tracer.String(tracer.AttrConsumerHash, hashed),
		tracer.String(tracer.AttrPurpose, metrics.PurposeLabel(req.Purpose)),
		tracer.String(tracer.AttrPolicyVersion, s.policy.Version()),
	)

	grant, err := s.authorize(ctx, span, req, hashed)
	span.End(err)
	if s.metrics != nil {
		s.metrics.ObserveAuthorize(time.Since(start).Seconds())
	}
	return grant, err
}

func (s *Service) authorize(ctx context.Context, span tracer.Span, req Request, hashed string) (*Grant, error) {
	now := requestcontext.Now(ctx)

	if reason := consumerIDProblem(req.RawConsumerID); reason != "" {
		return nil, s.reject(ctx, span, req, hashed, models.ViolationTypeInvalidConsumerID, reason, now,
			dErrors.CodeBadRequest, MsgInvalidConsumerID)
	}

	decision := s.policy.Validate(req.Purpose, req.Actor)
	if !decision.Allowed {
		return nil, s.reject(ctx, span, req, hashed, models.ViolationTypePermissiblePurpose, decision.Reason, now,
			dErrors.CodeFCRAViolation, MsgFCRAViolation)
	}

	record := &models.AccessRecord{
		ActorID:          req.Actor.ID,
		HashedConsumerID: hashed,
		Purpose:          req.Purpose,
		SourceAddress:    s.hasher.Scrub(req.SourceAddress, req.RawConsumerID),
		UserAgent:        s.hasher.Scrub(req.UserAgent, req.RawConsumerID),
		ComplianceFlags:  []models.ComplianceFlag{models.FlagFCRASection604},
		CreatedAt:        now,
	}
	writeStart := time.Now()
	auditID, err := s.store.LogAccess(ctx, record)
	s.observeWrite("access", writeStart)
	if err != nil {
		return nil, s.serviceError(ctx, req, hashed, nil, &models.Failure{
			Kind:   models.FailureAuditPersistence,
			Reason: "access record insert failed",
			Err:    err,
		})
	}

	span.AddEvent(tracer.EventAccessRecorded, tracer.String(tracer.AttrAuditID, auditID.String()))
	if s.metrics != nil {
		s.metrics.IncDecision(metrics.OutcomeGranted, req.Purpose)
	}
	s.logger.InfoContext(ctx, "credit report access granted",
		"audit_id", auditID.String(),
		"actor_id", req.Actor.ID.String(),
		"consumer_hash", hashed,
		"purpose", req.Purpose,
		"client_device", privacy.DeviceLabel(req.UserAgent),
		"request_id", requestcontext.RequestID(ctx),
	)

	return &Grant{
		AuditID:          auditID,
		HashedConsumerID: hashed,
		GrantedAt:        now,
	}, nil
}

// consumerIDProblem describes why raw cannot be hashed and stored as given,
// or returns "". The description never contains raw itself.
func consumerIDProblem(raw string) string {
	switch {
	case strings.TrimSpace(raw) == "":
		return "empty consumer identifier"
	case len(raw) > MaxConsumerIDLength:
		return fmt.Sprintf("consumer identifier exceeds %d bytes", MaxConsumerIDLength)
	case strings.TrimSpace(raw) != raw:
		return "consumer identifier has surrounding whitespace"
	}
	return ""
}

// reject records the violation, escalates it when severe enough and returns
// the fixed denial for code. The rejection reason stays internal.
func (s *Service) reject(ctx context.Context, span tracer.Span, req Request, hashed, violationType, reason string, now time.Time, code dErrors.Code, msg string) error {
	violation := &models.ViolationRecord{
		ActorID:         req.Actor.ID,
		ViolationType:   violationType,
		Description:     fmt.Sprintf("purpose=%q: %s", s.safePurpose(req), reason),
		Severity:        violationSeverity,
		ComplianceFlags: []models.ComplianceFlag{models.FlagFCRASection604},
		CreatedAt:       now,
	}

	writeStart := time.Now()
	violationID, err := s.store.LogViolation(ctx, violation)
	s.observeWrite("violation", writeStart)
	if err != nil {
		return s.serviceError(ctx, req, hashed, nil, &models.Failure{
			Kind:   models.FailureAuditPersistence,
			Reason: "violation record insert failed",
			Err:    err,
		})
	}
	violation.ViolationID = violationID

	span.AddEvent(tracer.EventViolationRecorded)
	if s.metrics != nil {
		s.metrics.IncDecision(metrics.OutcomeFCRAViolation, req.Purpose)
		s.metrics.IncFailure(string(models.FailurePolicyViolation))
	}
	s.logger.WarnContext(ctx, "credit report access denied",
		"violation_id", violationID.String(),
		"actor_id", req.Actor.ID.String(),
		"consumer_hash", hashed,
		"violation_type", violationType,
		"reason", reason,
		"severity", string(violation.Severity),
		"client_device", privacy.DeviceLabel(req.UserAgent),
		"request_id", requestcontext.RequestID(ctx),
	)

	if escalation.ShouldEscalate(violation.Severity) {
		s.escalate(ctx, span, *violation)
	}

	return dErrors.Wrap(&models.Failure{
		Kind:   models.FailurePolicyViolation,
		Reason: reason,
	}, code, msg)
}

// escalate never changes the outward response.
func (s *Service) escalate(ctx context.Context, span tracer.Span, v models.ViolationRecord) {
	if s.escalator == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bestEffortTimeout)
	defer cancel()

	if err := s.escalator.Escalate(ctx, v); err != nil {
		if s.metrics != nil {
			s.metrics.IncEscalation("failed")
		}
		s.logger.ErrorContext(ctx, "failed to escalate compliance violation",
			"violation_id", v.ViolationID.String(),
			"error", err,
		)
		return
	}
	span.AddEvent(tracer.EventEscalated)
	if s.metrics != nil {
		s.metrics.IncEscalation("sent")
	}
}

// RecordRetrievalFailure is called by the retrieval collaborator when the
// bureau fails after a Grant. It writes the ErrorRecord and returns the
// SERVICE_ERROR denial.
func (s *Service) RecordRetrievalFailure(ctx context.Context, grant *Grant, req Request, cause error) error {
	var auditID *domain.AuditID
	hashed := s.hasher.Hash(req.RawConsumerID)
	if grant != nil {
		id := grant.AuditID
		auditID = &id
		hashed = grant.HashedConsumerID
	}
	return s.serviceError(ctx, req, hashed, auditID, &models.Failure{
		Kind:   models.FailureRetrieval,
		Reason: "report retrieval failed",
		Err:    cause,
	})
}

// serviceError persists a scrubbed ErrorRecord best-effort and returns the
// generic SERVICE_ERROR denial.
func (s *Service) serviceError(ctx context.Context, req Request, hashed string, auditID *domain.AuditID, failure *models.Failure) error {
	if s.metrics != nil {
		s.metrics.IncDecision(metrics.OutcomeServiceError, req.Purpose)
		s.metrics.IncFailure(string(failure.Kind))
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bestEffortTimeout)
	defer cancel()

	record := &models.ErrorRecord{
		AuditID:   auditID,
		ErrorType: errorTypeFor(failure.Kind),
		Message:   fmt.Sprintf("%s (consumer_hash=%s)", failure.Reason, hashed),
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.LogError(logCtx, record); err != nil {
		if s.metrics != nil {
			s.metrics.IncErrorRecordFailure()
		}
		s.logger.ErrorContext(ctx, "failed to persist error record",
			"error_type", string(record.ErrorType),
			"error", s.hasher.Scrub(err.Error(), req.RawConsumerID),
		)
	}

	attrs := []any{
		"failure_kind", string(failure.Kind),
		"actor_id", req.Actor.ID.String(),
		"consumer_hash", hashed,
		"request_id", requestcontext.RequestID(ctx),
	}
	if auditID != nil {
		attrs = append(attrs, "audit_id", auditID.String())
	}
	if failure.Err != nil {
		attrs = append(attrs, "error", s.hasher.Scrub(failure.Err.Error(), req.RawConsumerID))
	}
	s.logger.ErrorContext(ctx, "credit report access failed", attrs...)

	return dErrors.Wrap(failure, dErrors.CodeServiceError, MsgServiceError)
}

// safePurpose trims the caller-supplied purpose and removes the raw consumer
// identifier before it is copied into a persisted record.
func (s *Service) safePurpose(req Request) string {
	p := s.hasher.Scrub(req.Purpose, req.RawConsumerID)
	if len(p) <= maxPurposeInDescription {
		return p
	}
	cut := maxPurposeInDescription
	for cut > 0 && !utf8.RuneStart(p[cut]) {
		cut--
	}
	return p[:cut] + "..."
}

func (s *Service) observeWrite(kind string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveAuditWrite(kind, time.Since(start).Seconds())
	}
}

func errorTypeFor(kind models.FailureKind) models.ErrorType {
	switch kind {
	case models.FailureAuditPersistence:
		return models.ErrorTypeAuditPersistence
	case models.FailureRetrieval:
		return models.ErrorTypeRetrieval
	default:
		return models.ErrorTypeInternal
	}
}
