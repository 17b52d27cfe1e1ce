// Package handler exposes credit report retrieval and calculation recording over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	auditmodels "creditgate/internal/audit/models"
	"creditgate/internal/creditreport/models"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/platform/httputil"
	"creditgate/pkg/requestcontext"
)

// Service defines the interface for credit report operations.
type Service interface {
	GetReport(ctx context.Context, actor domain.Actor, rawConsumerID, purpose string) (*models.ReportResult, error)
	RecordCalculation(ctx context.Context, in models.CalculationInput) (*models.CalculationResponse, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register mounts the credit report routes. The caller applies RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/credit-reports/{consumerId}", h.handleGetReport)
	r.Post("/credit-reports/audits/{auditId}/calculations", h.handleRecordCalculation)
}

// handleGetReport never logs the consumer identifier; the orchestrator logs
// its hash.
func (h *Handler) handleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, err := httputil.RequireActor(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// The identifier is passed through untouched, and so is a missing
	// purpose: the orchestrator rejects malformed values and records the
	// attempt as a violation.
	consumerID := chi.URLParam(r, "consumerId")
	purpose := r.URL.Query().Get("permissible_purpose")

	result, err := h.service.GetReport(ctx, actor, consumerID, purpose)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRecordCalculation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, err := httputil.RequireActor(ctx, h.logger, requestID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	auditID, err := domain.ParseAuditID(chi.URLParam(r, "auditId"))
	if err != nil {
		h.logger.WarnContext(ctx, "invalid audit id parameter",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid audit id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.CalculationRequest](w, r, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.RecordCalculation(ctx, models.CalculationInput{
		AuditID:    auditID,
		Action:     req.Action,
		Input:      req.Input,
		Result:     req.Result,
		Method:     req.Method,
		ExtraFlags: auditmodels.ParseFlags(req.ComplianceFlags),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}
