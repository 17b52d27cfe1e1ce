// Package service serves credit reports behind the access orchestrator and
// records calculations made from them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	access "creditgate/internal/access/service"
	auditmodels "creditgate/internal/audit/models"
	"creditgate/internal/creditreport/models"
	"creditgate/internal/creditreport/ports"
	"creditgate/internal/platform/tracer"
	"creditgate/internal/sentinel"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

// Authorizer gates every report retrieval. Satisfied by *access.Service.
type Authorizer interface {
	AuthorizeAndRecord(ctx context.Context, req access.Request) (*access.Grant, error)
	RecordRetrievalFailure(ctx context.Context, grant *access.Grant, req access.Request, cause error) error
}

// CalculationLogger persists calculation records. Satisfied by the audit store.
type CalculationLogger interface {
	LogCalculation(ctx context.Context, record *auditmodels.CalculationRecord) error
}

// InputHasher hashes raw calculation inputs. Satisfied by *privacy.Hasher.
type InputHasher interface {
	Hash(raw string) string
}

type Service struct {
	access       Authorizer
	retriever    ports.Retriever
	calculations CalculationLogger
	hasher       InputHasher
	tracer       tracer.Tracer
	logger       *slog.Logger
}

type Option func(*Service)

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

func New(authorizer Authorizer, retriever ports.Retriever, calculations CalculationLogger, hasher InputHasher, opts ...Option) *Service {
	if authorizer == nil {
		panic("credit report service requires an authorizer")
	}
	if retriever == nil {
		panic("credit report service requires a retriever")
	}
	if calculations == nil {
		panic("credit report service requires a calculation logger")
	}
	if hasher == nil {
		panic("credit report service requires a hasher")
	}
	s := &Service{
		access:       authorizer,
		retriever:    retriever,
		calculations: calculations,
		hasher:       hasher,
		tracer:       tracer.NewNoop(),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetReport authorizes the access, and only once the access record is durable
// asks the bureau for the report. Client address and user agent come from
// the request context.
func (s *Service) GetReport(ctx context.Context, actor domain.Actor, rawConsumerID, purpose string) (*models.ReportResult, error) {
	req := access.Request{
		Actor:         actor,
		RawConsumerID: rawConsumerID,
		Purpose:       purpose,
		SourceAddress: requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
	}

	grant, err := s.access.AuthorizeAndRecord(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanBureauRetrieve,
		tracer.String(tracer.AttrAuditID, grant.AuditID.String()),
		tracer.String(tracer.AttrConsumerHash, grant.HashedConsumerID),
	)
	start := time.Now()
	report, err := s.retriever.Retrieve(ctx, rawConsumerID, purpose, grant.AuditID)
	span.SetAttributes(tracer.Duration("bureau.duration_ms", time.Since(start)))
	span.End(err)
	if err != nil {
		return nil, s.access.RecordRetrievalFailure(ctx, grant, req, err)
	}

	return &models.ReportResult{
		Data: report,
		Meta: models.Meta{
			AuditID:             grant.AuditID,
			RetrievedAt:         requestcontext.Now(ctx),
			ComplianceValidated: true,
		},
	}, nil
}

// RecordCalculation links a computation to the access that enabled it. Only
// the hash of the raw input is stored.
func (s *Service) RecordCalculation(ctx context.Context, in models.CalculationInput) (*models.CalculationResponse, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRecordCalc,
		tracer.String(tracer.AttrAuditID, in.AuditID.String()),
	)

	flags := []auditmodels.ComplianceFlag{auditmodels.FlagFCRASection604}
	for _, f := range in.ExtraFlags {
		flags = auditmodels.WithFlag(flags, f)
	}
	record := &auditmodels.CalculationRecord{
		AuditID:         in.AuditID,
		Action:          in.Action,
		InputHash:       s.hasher.Hash(in.Input),
		Result:          in.Result,
		Method:          in.Method,
		ComplianceFlags: flags,
		Timestamp:       requestcontext.Now(ctx),
	}

	err := s.calculations.LogCalculation(ctx, record)
	span.End(err)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "access record not found")
		}
		s.logger.ErrorContext(ctx, "failed to record calculation",
			"audit_id", in.AuditID.String(),
			"action", in.Action,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unable to record calculation")
	}

	s.logger.InfoContext(ctx, "calculation recorded",
		"audit_id", in.AuditID.String(),
		"action", in.Action,
		"method", in.Method,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.CalculationResponse{
		AuditID:  in.AuditID,
		Recorded: record.Timestamp,
	}, nil
}
