package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"creditgate/internal/access/metrics"
	"creditgate/internal/access/policy"
	escalationmocks "creditgate/internal/audit/escalation/mocks"
	"creditgate/internal/audit/models"
	auditstore "creditgate/internal/audit/store"
	storemocks "creditgate/internal/audit/store/mocks"
	"creditgate/internal/platform/privacy"
	"creditgate/internal/platform/tracer"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
	"creditgate/pkg/testutil"
)

const rawConsumerID = "123-45-6789"

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *auditstore.InMemoryStore
	escalator *escalationmocks.MockSink
	hasher    *privacy.Hasher
	metrics   *metrics.Metrics
	tracer    *recordingTracer
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = auditstore.NewInMemory()
	s.escalator = escalationmocks.NewMockSink(s.ctrl)
	hasher, err := privacy.NewHasher("test-pepper")
	s.Require().NoError(err)
	s.hasher = hasher
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.tracer = &recordingTracer{}
	s.service = s.newService(s.store)
}

func (s *ServiceSuite) newService(store auditstore.Store) *Service {
	return New(store, policy.Default(), s.hasher,
		WithEscalation(s.escalator),
		WithMetrics(s.metrics),
		WithTracer(s.tracer),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func analyst(purposes ...string) domain.Actor {
	caps := make([]string, 0, len(purposes))
	for _, p := range purposes {
		caps = append(caps, policy.CapabilityFor(p))
	}
	return domain.NewActor("analyst-42", caps...)
}

func request(actor domain.Actor, purpose string) Request {
	return Request{
		Actor:         actor,
		RawConsumerID: rawConsumerID,
		Purpose:       purpose,
		SourceAddress: "203.0.113.10",
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) Firefox/120.0",
	}
}

func failureOf(t *testing.T, err error) *models.Failure {
	t.Helper()
	var f *models.Failure
	require.ErrorAs(t, err, &f)
	return f
}

func (s *ServiceSuite) TestUnknownPurposeIsViolation() {
	for _, purpose := range []string{"curiosity", "", "CREDIT_APPLICATION", "marketing", "access-credit-reports-for-employment"} {
		s.Run(purpose, func() {
			s.SetupTest()
			s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(nil)

			grant, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(policy.KnownPurposes...), purpose))

			s.Nil(grant)
			s.True(dErrors.HasCode(err, dErrors.CodeFCRAViolation))
			s.Equal(MsgFCRAViolation, err.Error())
			s.NotContains(err.Error(), policy.ReasonUnknownPurpose)

			f := failureOf(s.T(), err)
			s.Equal(models.FailurePolicyViolation, f.Kind)
			s.Equal(policy.ReasonUnknownPurpose, f.Reason)

			s.Empty(s.store.AccessRecords())
			violations := s.store.ViolationRecords()
			s.Require().Len(violations, 1)
			s.Equal(models.SeverityHigh, violations[0].Severity)
			s.Equal(models.ViolationTypePermissiblePurpose, violations[0].ViolationType)
			s.Equal(domain.ActorID("analyst-42"), violations[0].ActorID)
		})
	}
}

func (s *ServiceSuite) TestMalformedConsumerIDIsViolation() {
	cases := map[string]string{
		"empty":               "",
		"whitespace only":     "   ",
		"leading whitespace":  " 123-45-6789",
		"trailing whitespace": "123-45-6789\t",
		"oversized":           strings.Repeat("9", MaxConsumerIDLength+1),
	}
	for name, raw := range cases {
		s.Run(name, func() {
			s.SetupTest()
			s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(nil)

			req := request(analyst(policy.KnownPurposes...), policy.PurposeCreditApplication)
			req.RawConsumerID = raw
			grant, err := s.service.AuthorizeAndRecord(context.Background(), req)

			s.Nil(grant)
			s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
			s.Equal(MsgInvalidConsumerID, err.Error())
			s.Equal(models.FailurePolicyViolation, failureOf(s.T(), err).Kind)

			s.Empty(s.store.AccessRecords())
			violations := s.store.ViolationRecords()
			s.Require().Len(violations, 1)
			s.Equal(models.ViolationTypeInvalidConsumerID, violations[0].ViolationType)
			s.Equal(models.SeverityHigh, violations[0].Severity)
			if len(strings.TrimSpace(raw)) > 0 {
				s.NotContains(violations[0].Description, strings.TrimSpace(raw))
			}
		})
	}
}

func (s *ServiceSuite) TestMissingCapabilityIsViolation() {
	for _, purpose := range policy.KnownPurposes {
		s.Run(purpose, func() {
			s.SetupTest()
			s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(nil)

			// capabilities for every purpose except the requested one
			var others []string
			for _, p := range policy.KnownPurposes {
				if p != purpose {
					others = append(others, p)
				}
			}

			grant, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(others...), purpose))

			s.Nil(grant)
			s.True(dErrors.HasCode(err, dErrors.CodeFCRAViolation))
			s.Equal(policy.ReasonInsufficientCapability, failureOf(s.T(), err).Reason)
			s.Empty(s.store.AccessRecords())
			s.Len(s.store.ViolationRecords(), 1)
		})
	}
}

func (s *ServiceSuite) TestGrantWritesAccessRecordFirst() {
	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)

	grant, err := s.service.AuthorizeAndRecord(ctx, request(analyst(policy.PurposeCreditApplication), policy.PurposeCreditApplication))
	s.Require().NoError(err)
	s.Require().NotNil(grant)
	s.False(grant.AuditID.IsNil())
	s.Equal(at, grant.GrantedAt)

	records := s.store.AccessRecords()
	s.Require().Len(records, 1)
	rec := records[0]
	s.Equal(grant.AuditID, rec.AuditID)
	s.Equal(s.hasher.Hash(rawConsumerID), rec.HashedConsumerID)
	s.NotEqual(rawConsumerID, rec.HashedConsumerID)
	s.Equal(grant.HashedConsumerID, rec.HashedConsumerID)
	s.True(models.HasFlag(rec.ComplianceFlags, models.FlagFCRASection604))
	s.Equal(policy.PurposeCreditApplication, rec.Purpose)
	s.Equal("203.0.113.10", rec.SourceAddress)
	s.Equal(at, rec.CreatedAt)

	s.Empty(s.store.ViolationRecords())
	s.Empty(s.store.ErrorRecords())
	s.InDelta(1, promtest.ToFloat64(s.metrics.Decisions.WithLabelValues(metrics.OutcomeGranted, policy.PurposeCreditApplication)), 0)
}

func (s *ServiceSuite) TestRepeatedAccessIsLinkableButDistinct() {
	actor := analyst(policy.PurposeAccountReview)
	first, err := s.service.AuthorizeAndRecord(context.Background(), request(actor, policy.PurposeAccountReview))
	s.Require().NoError(err)
	second, err := s.service.AuthorizeAndRecord(context.Background(), request(actor, policy.PurposeAccountReview))
	s.Require().NoError(err)

	s.NotEqual(first.AuditID, second.AuditID)
	s.Equal(first.HashedConsumerID, second.HashedConsumerID)
}

func (s *ServiceSuite) TestAccessInsertFailureIsServiceError() {
	store := storemocks.NewMockStore(s.ctrl)
	svc := s.newService(store)

	store.EXPECT().LogAccess(gomock.Any(), gomock.Any()).Return(domain.AuditID{}, auditstore.ErrAuditUnavailable)
	store.EXPECT().LogError(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec *models.ErrorRecord) error {
		s.Nil(rec.AuditID)
		s.Equal(models.ErrorTypeAuditPersistence, rec.ErrorType)
		s.NotContains(rec.Message, rawConsumerID)
		s.Contains(rec.Message, s.hasher.Hash(rawConsumerID))
		return nil
	})

	grant, err := svc.AuthorizeAndRecord(context.Background(), request(analyst(policy.PurposeEmployment), policy.PurposeEmployment))

	s.Nil(grant)
	s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	s.Equal(MsgServiceError, err.Error())
	s.Equal(models.FailureAuditPersistence, failureOf(s.T(), err).Kind)
	s.ErrorIs(err, auditstore.ErrAuditUnavailable)
}

func (s *ServiceSuite) TestErrorRecordFailureDoesNotChangeResponse() {
	store := storemocks.NewMockStore(s.ctrl)
	svc := s.newService(store)

	store.EXPECT().LogAccess(gomock.Any(), gomock.Any()).Return(domain.AuditID{}, errors.New("pool exhausted"))
	store.EXPECT().LogError(gomock.Any(), gomock.Any()).Return(errors.New("pool exhausted"))

	_, err := svc.AuthorizeAndRecord(context.Background(), request(analyst(policy.PurposeInsurance), policy.PurposeInsurance))

	s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	s.Equal(MsgServiceError, err.Error())
	s.InDelta(1, promtest.ToFloat64(s.metrics.ErrorRecordFailures), 0)
}

func (s *ServiceSuite) TestViolationInsertFailureIsServiceError() {
	store := storemocks.NewMockStore(s.ctrl)
	svc := s.newService(store)

	store.EXPECT().LogViolation(gomock.Any(), gomock.Any()).Return(domain.ViolationID{}, auditstore.ErrAuditUnavailable)
	store.EXPECT().LogError(gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().LogAccess(gomock.Any(), gomock.Any()).Times(0)
	s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.AuthorizeAndRecord(context.Background(), request(analyst(), "curiosity"))

	s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	s.Equal(models.FailureAuditPersistence, failureOf(s.T(), err).Kind)
}

func (s *ServiceSuite) TestEscalatesPersistedViolation() {
	var escalated models.ViolationRecord
	s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, v models.ViolationRecord) error {
		escalated = v
		return nil
	})

	_, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(), "curiosity"))
	s.Require().Error(err)

	stored := s.store.ViolationRecords()
	s.Require().Len(stored, 1)
	s.Equal(stored[0].ViolationID, escalated.ViolationID)
	s.False(escalated.ViolationID.IsNil())
	s.InDelta(1, promtest.ToFloat64(s.metrics.Escalations.WithLabelValues("sent")), 0)
}

func (s *ServiceSuite) TestEscalationFailureKeepsViolationResponse() {
	s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

	_, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(), "curiosity"))

	s.True(dErrors.HasCode(err, dErrors.CodeFCRAViolation))
	s.Len(s.store.ViolationRecords(), 1)
	s.InDelta(1, promtest.ToFloat64(s.metrics.Escalations.WithLabelValues("failed")), 0)
}

func (s *ServiceSuite) TestRecordRetrievalFailure() {
	req := request(analyst(policy.PurposeEmployment), policy.PurposeEmployment)
	grant, err := s.service.AuthorizeAndRecord(context.Background(), req)
	s.Require().NoError(err)

	err = s.service.RecordRetrievalFailure(context.Background(), grant, req, errors.New("GET https://bureau/reports/"+rawConsumerID+": timeout"))

	s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	s.Equal(models.FailureRetrieval, failureOf(s.T(), err).Kind)

	errs := s.store.ErrorRecords()
	s.Require().Len(errs, 1)
	s.Require().NotNil(errs[0].AuditID)
	s.Equal(grant.AuditID, *errs[0].AuditID)
	s.Equal(models.ErrorTypeRetrieval, errs[0].ErrorType)
	s.NotContains(errs[0].Message, rawConsumerID)
	s.NotContains(errs[0].Message, "timeout", "no underlying error text in persisted records")
}

func (s *ServiceSuite) TestNoPersistedRecordContainsRawIdentifier() {
	s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	ctx := context.Background()
	actor := analyst(policy.PurposeCreditApplication)

	// purpose and user agent echo the identifier, as a probing caller might
	probe := request(actor, "lookup "+rawConsumerID)
	probe.UserAgent = "curl/8.0 " + rawConsumerID
	_, _ = s.service.AuthorizeAndRecord(ctx, probe)

	granted := request(actor, policy.PurposeCreditApplication)
	granted.UserAgent = "agent/" + rawConsumerID
	grant, err := s.service.AuthorizeAndRecord(ctx, granted)
	s.Require().NoError(err)
	_ = s.service.RecordRetrievalFailure(ctx, grant, granted, errors.New("not found: "+rawConsumerID))
	s.Require().NoError(s.store.LogCalculation(ctx, &models.CalculationRecord{
		AuditID:   grant.AuditID,
		Action:    "score",
		InputHash: s.hasher.Hash(rawConsumerID),
	}))

	for name, records := range map[string]any{
		"access":      s.store.AccessRecords(),
		"violation":   s.store.ViolationRecords(),
		"error":       s.store.ErrorRecords(),
		"calculation": s.store.CalculationRecords(),
	} {
		raw, err := json.Marshal(records)
		s.Require().NoError(err)
		s.NotContains(string(raw), rawConsumerID, name)
	}
}

func (s *ServiceSuite) TestSpanCarriesOnlyConsumerHash() {
	_, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(policy.PurposeEmployment), policy.PurposeEmployment))
	s.Require().NoError(err)

	attrs := s.tracer.attributes()
	s.Equal(s.hasher.Hash(rawConsumerID), attrs[tracer.AttrConsumerHash])
	for k, v := range attrs {
		s.NotContains(v, rawConsumerID, k)
	}
}

func (s *ServiceSuite) TestLongPurposeIsTruncatedInViolation() {
	s.escalator.EXPECT().Escalate(gomock.Any(), gomock.Any()).Return(nil)
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	_, err := s.service.AuthorizeAndRecord(context.Background(), request(analyst(), string(long)))
	s.Require().Error(err)

	v := s.store.ViolationRecords()[0]
	s.Less(len(v.Description), 120)
}

func (s *ServiceSuite) TestConcurrentGrants() {
	actor := analyst(policy.PurposeAccountReview)
	result := testutil.RunConcurrent(50, func(int) error {
		_, err := s.service.AuthorizeAndRecord(context.Background(), request(actor, policy.PurposeAccountReview))
		return err
	})

	s.Equal(int32(50), result.Successes)
	s.Len(s.store.AccessRecords(), 50)
}

func TestNew_PanicsWithoutDependencies(t *testing.T) {
	hasher, err := privacy.NewHasher("")
	require.NoError(t, err)
	store := auditstore.NewInMemory()

	assert.Panics(t, func() { New(nil, policy.Default(), hasher) })
	assert.Panics(t, func() { New(store, nil, hasher) })
	assert.Panics(t, func() { New(store, policy.Default(), nil) })
}

// recordingTracer captures span attributes and events.
type recordingTracer struct {
	mu    sync.Mutex
	attrs map[string]string
}

func (r *recordingTracer) Start(ctx context.Context, _ string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	r.record(attrs)
	return ctx, &recordingSpan{tracer: r}
}

func (r *recordingTracer) record(attrs []tracer.Attribute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attrs == nil {
		r.attrs = make(map[string]string)
	}
	for _, a := range attrs {
		if v, ok := a.Value.(string); ok {
			r.attrs[a.Key] = v
		}
	}
}

func (r *recordingTracer) attributes() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

type recordingSpan struct {
	tracer *recordingTracer
}

func (s *recordingSpan) End(error)                               {}
func (s *recordingSpan) SetAttributes(attrs ...tracer.Attribute) { s.tracer.record(attrs) }
func (s *recordingSpan) AddEvent(_ string, attrs ...tracer.Attribute) {
	s.tracer.record(attrs)
}
