package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"creditgate/internal/access/policy"
	access "creditgate/internal/access/service"
	auditmodels "creditgate/internal/audit/models"
	auditstore "creditgate/internal/audit/store"
	"creditgate/internal/creditreport/adapters/fixture"
	"creditgate/internal/creditreport/handler/mocks"
	"creditgate/internal/creditreport/models"
	"creditgate/internal/creditreport/service"
	"creditgate/internal/platform/privacy"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type CreditReportHandlerSuite struct {
	suite.Suite
}

func TestCreditReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(CreditReportHandlerSuite))
}

var analyst = domain.NewActor("analyst-42", "access-credit-reports-for-employment")

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

// newRequest builds a request; a non-zero actor is placed in the context as
// RequireAuth would.
func newRequest(method, target string, body any, actor domain.Actor) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if !actor.IsZero() {
		req = req.WithContext(requestcontext.WithActor(req.Context(), actor))
	}
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *CreditReportHandlerSuite) TestHandleGetReport() {
	s.T().Run("200 - report with compliance meta", func(t *testing.T) {
		router, svc := newTestRouter(t)
		auditID := domain.NewAuditID()
		retrieved := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
		svc.EXPECT().GetReport(gomock.Any(), analyst, "123-45-6789", "employment").Return(&models.ReportResult{
			Data: &models.Report{Bureau: "acme", Score: 705},
			Meta: models.Meta{AuditID: auditID, RetrievedAt: retrieved, ComplianceValidated: true},
		}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/123-45-6789?permissible_purpose=employment", nil, analyst))

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		meta := resp["meta"].(map[string]any)
		assert.Equal(t, auditID.String(), meta["audit_id"])
		assert.Equal(t, true, meta["compliance_validated"])
		assert.Equal(t, "2026-05-04T12:00:00Z", meta["retrieved_at"])
		assert.InDelta(t, 705, resp["data"].(map[string]any)["score"], 0)
	})

	s.T().Run("403 - FCRA violation with fixed message", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetReport(gomock.Any(), analyst, "123-45-6789", "curiosity").
			Return(nil, dErrors.Wrap(&auditmodels.Failure{Kind: auditmodels.FailurePolicyViolation, Reason: "unknown purpose"},
				dErrors.CodeFCRAViolation, access.MsgFCRAViolation))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/123-45-6789?permissible_purpose=curiosity", nil, analyst))

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "FCRA_VIOLATION", resp["code"])
		assert.Equal(t, "Access denied due to compliance requirements", resp["error"])
		assert.NotContains(t, w.Body.String(), "unknown purpose")
	})

	s.T().Run("403 - missing purpose still reaches the orchestrator", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetReport(gomock.Any(), analyst, "123-45-6789", "").
			Return(nil, dErrors.New(dErrors.CodeFCRAViolation, access.MsgFCRAViolation))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/123-45-6789", nil, analyst))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	s.T().Run("500 - service error hides the cause", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetReport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(&auditmodels.Failure{Kind: auditmodels.FailureAuditPersistence, Reason: "access record insert failed"},
				dErrors.CodeServiceError, access.MsgServiceError))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/123-45-6789?permissible_purpose=employment", nil, analyst))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "SERVICE_ERROR", resp["code"])
		assert.Equal(t, "Unable to retrieve credit report", resp["error"])
		assert.NotContains(t, w.Body.String(), "insert")
	})

	s.T().Run("consumer id reaches the service untrimmed", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().GetReport(gomock.Any(), analyst, " 123-45-6789", "employment").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, access.MsgInvalidConsumerID))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/%20123-45-6789?permissible_purpose=employment", nil, analyst))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.T().Run("500 - actor missing behind auth", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodGet, "/credit-reports/123-45-6789?permissible_purpose=employment", nil, domain.Actor{}))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "INTERNAL_ERROR", decode(t, w)["code"])
	})
}

// Malformed identifiers go through the real orchestrator and leave exactly
// one violation behind.
func (s *CreditReportHandlerSuite) TestMalformedConsumerIDIsAudited() {
	hasher, err := privacy.NewHasher("handler-test-pepper")
	s.Require().NoError(err)

	targets := map[string]string{
		"oversized":       "/credit-reports/" + strings.Repeat("9", access.MaxConsumerIDLength+1) + "?permissible_purpose=curiosity",
		"whitespace only": "/credit-reports/%20%20?permissible_purpose=employment",
		"padded":          "/credit-reports/%20123-45-6789?permissible_purpose=employment",
	}
	for name, target := range targets {
		s.T().Run(name, func(t *testing.T) {
			store := auditstore.NewInMemory()
			authorizer := access.New(store, policy.Default(), hasher)
			reports := service.New(authorizer, fixture.New(), store, hasher)

			r := chi.NewRouter()
			New(reports, slog.New(slog.DiscardHandler)).Register(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, newRequest(http.MethodGet, target, nil, domain.NewActor("analyst-7")))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "BAD_REQUEST", decode(t, w)["code"])
			assert.Empty(t, store.AccessRecords())
			assert.Empty(t, store.ErrorRecords())
			violations := store.ViolationRecords()
			require.Len(t, violations, 1)
			assert.Equal(t, auditmodels.ViolationTypeInvalidConsumerID, violations[0].ViolationType)
		})
	}
}

func (s *CreditReportHandlerSuite) TestHandleRecordCalculation() {
	auditID := domain.NewAuditID()
	target := "/credit-reports/audits/" + auditID.String() + "/calculations"
	valid := models.CalculationRequest{
		Action:          " underwrite ",
		Input:           `{"income":52000}`,
		Result:          "approve",
		Method:          "scorecard-v3",
		ComplianceFlags: []string{"ECOA"},
	}

	s.T().Run("201 - calculation recorded", func(t *testing.T) {
		router, svc := newTestRouter(t)
		recorded := time.Date(2026, 5, 4, 12, 1, 0, 0, time.UTC)
		svc.EXPECT().RecordCalculation(gomock.Any(), models.CalculationInput{
			AuditID:    auditID,
			Action:     "underwrite",
			Input:      `{"income":52000}`,
			Result:     "approve",
			Method:     "scorecard-v3",
			ExtraFlags: []auditmodels.ComplianceFlag{"ECOA"},
		}).Return(&models.CalculationResponse{AuditID: auditID, Recorded: recorded}, nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, valid, analyst))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, auditID.String(), decode(t, w)["audit_id"])
	})

	s.T().Run("400 - malformed audit id", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, "/credit-reports/audits/not-a-uuid/calculations", valid, analyst))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.T().Run("400 - validation failure", func(t *testing.T) {
		router, _ := newTestRouter(t)
		invalid := valid
		invalid.Method = "   "

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, invalid, analyst))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp["code"])
		assert.Contains(t, resp["error"], "method")
	})

	s.T().Run("400 - unknown body field", func(t *testing.T) {
		router, _ := newTestRouter(t)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, map[string]string{"consumer_id": "123-45-6789"}, analyst))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "BAD_REQUEST", decode(t, w)["code"])
	})

	s.T().Run("404 - unknown audit id", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RecordCalculation(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "access record not found"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, valid, analyst))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	s.T().Run("500 - store failure", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().RecordCalculation(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "unable to record calculation"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, newRequest(http.MethodPost, target, valid, analyst))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
