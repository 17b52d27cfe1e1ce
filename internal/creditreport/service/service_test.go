package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Authorizer,CalculationLogger,InputHasher
//go:generate mockgen -source=../ports/retriever.go -destination=../ports/mocks/mocks.go -package=mocks Retriever

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"creditgate/internal/access/policy"
	access "creditgate/internal/access/service"
	auditmodels "creditgate/internal/audit/models"
	auditstore "creditgate/internal/audit/store"
	"creditgate/internal/creditreport/models"
	"creditgate/internal/creditreport/ports"
	portmocks "creditgate/internal/creditreport/ports/mocks"
	"creditgate/internal/creditreport/service/mocks"
	"creditgate/internal/platform/privacy"
	"creditgate/internal/sentinel"
	"creditgate/pkg/domain"
	dErrors "creditgate/pkg/domain-errors"
	"creditgate/pkg/requestcontext"
)

const consumerID = "123-45-6789"

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	authorizer *mocks.MockAuthorizer
	calcs      *mocks.MockCalculationLogger
	retriever  *portmocks.MockRetriever
	hasher     *privacy.Hasher
	service    *Service
	actor      domain.Actor
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.authorizer = mocks.NewMockAuthorizer(s.ctrl)
	s.calcs = mocks.NewMockCalculationLogger(s.ctrl)
	s.retriever = portmocks.NewMockRetriever(s.ctrl)
	hasher, err := privacy.NewHasher("test-pepper")
	s.Require().NoError(err)
	s.hasher = hasher
	s.service = New(s.authorizer, s.retriever, s.calcs, s.hasher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.actor = domain.NewActor("analyst-42", policy.CapabilityFor(policy.PurposeEmployment))
}

func (s *ServiceSuite) TestGetReport() {
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	ctx = requestcontext.WithClientMetadata(ctx, "198.51.100.7", "curl/8.0")
	grant := &access.Grant{AuditID: domain.NewAuditID(), HashedConsumerID: s.hasher.Hash(consumerID), GrantedAt: at}

	s.Run("retrieves only after the grant and returns meta", func() {
		s.SetupTest()
		report := &models.Report{Bureau: "acme", Score: 701}
		gomock.InOrder(
			s.authorizer.EXPECT().AuthorizeAndRecord(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req access.Request) (*access.Grant, error) {
					s.Equal(consumerID, req.RawConsumerID)
					s.Equal(policy.PurposeEmployment, req.Purpose)
					s.Equal("198.51.100.7", req.SourceAddress)
					s.Equal("curl/8.0", req.UserAgent)
					return grant, nil
				}),
			s.retriever.EXPECT().Retrieve(gomock.Any(), consumerID, policy.PurposeEmployment, grant.AuditID).Return(report, nil),
		)

		result, err := s.service.GetReport(ctx, s.actor, consumerID, policy.PurposeEmployment)

		s.Require().NoError(err)
		s.Same(report, result.Data)
		s.Equal(grant.AuditID, result.Meta.AuditID)
		s.Equal(at, result.Meta.RetrievedAt)
		s.True(result.Meta.ComplianceValidated)
	})

	s.Run("denied access never reaches the retriever", func() {
		s.SetupTest()
		denial := dErrors.New(dErrors.CodeFCRAViolation, access.MsgFCRAViolation)
		s.authorizer.EXPECT().AuthorizeAndRecord(gomock.Any(), gomock.Any()).Return(nil, denial)
		s.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		result, err := s.service.GetReport(ctx, s.actor, consumerID, "curiosity")

		s.Nil(result)
		s.Same(denial, err)
	})

	s.Run("audit store failure never reaches the retriever", func() {
		s.SetupTest()
		denial := dErrors.New(dErrors.CodeServiceError, access.MsgServiceError)
		s.authorizer.EXPECT().AuthorizeAndRecord(gomock.Any(), gomock.Any()).Return(nil, denial)
		s.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.GetReport(ctx, s.actor, consumerID, policy.PurposeEmployment)

		s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	})

	s.Run("retrieval failure is recorded against the grant", func() {
		s.SetupTest()
		denial := dErrors.New(dErrors.CodeServiceError, access.MsgServiceError)
		s.authorizer.EXPECT().AuthorizeAndRecord(gomock.Any(), gomock.Any()).Return(grant, nil)
		s.retriever.EXPECT().Retrieve(gomock.Any(), consumerID, policy.PurposeEmployment, grant.AuditID).Return(nil, ports.ErrBureauUnavailable)
		s.authorizer.EXPECT().RecordRetrievalFailure(gomock.Any(), grant, gomock.Any(), ports.ErrBureauUnavailable).Return(denial)

		result, err := s.service.GetReport(ctx, s.actor, consumerID, policy.PurposeEmployment)

		s.Nil(result)
		s.Same(denial, err)
	})
}

func (s *ServiceSuite) TestRecordCalculation() {
	auditID := domain.NewAuditID()
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)

	s.Run("stores input hash and compliance flags", func() {
		s.SetupTest()
		s.calcs.EXPECT().LogCalculation(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, rec *auditmodels.CalculationRecord) error {
				s.Equal(auditID, rec.AuditID)
				s.Equal(s.hasher.Hash(`{"income":52000}`), rec.InputHash)
				s.Equal("approve", rec.Result)
				s.Equal(at, rec.Timestamp)
				s.Equal([]auditmodels.ComplianceFlag{auditmodels.FlagFCRASection604, "ECOA"}, rec.ComplianceFlags)
				return nil
			})

		resp, err := s.service.RecordCalculation(ctx, models.CalculationInput{
			AuditID:    auditID,
			Action:     "underwrite",
			Input:      `{"income":52000}`,
			Result:     "approve",
			Method:     "scorecard-v3",
			ExtraFlags: []auditmodels.ComplianceFlag{"ECOA", auditmodels.FlagFCRASection604},
		})

		s.Require().NoError(err)
		s.Equal(auditID, resp.AuditID)
		s.Equal(at, resp.Recorded)
	})

	s.Run("unknown audit id is not found", func() {
		s.SetupTest()
		s.calcs.EXPECT().LogCalculation(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		_, err := s.service.RecordCalculation(ctx, models.CalculationInput{AuditID: auditID, Action: "a", Input: "i", Result: "r", Method: "m"})

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is internal", func() {
		s.SetupTest()
		s.calcs.EXPECT().LogCalculation(gomock.Any(), gomock.Any()).Return(errors.Join(auditstore.ErrAuditUnavailable, errors.New("conn reset")))

		_, err := s.service.RecordCalculation(ctx, models.CalculationInput{AuditID: auditID, Action: "a", Input: "i", Result: "r", Method: "m"})

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

// End to end over the real orchestrator and memory store: the retriever is
// never invoked once the audit write has failed.
func (s *ServiceSuite) TestRetrievalSpyWithFailingStore() {
	store := auditstore.NewInMemory()
	orchestrator := access.New(&failingAccessStore{InMemoryStore: store}, policy.Default(), s.hasher)
	svc := New(orchestrator, s.retriever, store, s.hasher)
	s.retriever.EXPECT().Retrieve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.GetReport(context.Background(), s.actor, consumerID, policy.PurposeEmployment)

	s.True(dErrors.HasCode(err, dErrors.CodeServiceError))
	s.Empty(store.AccessRecords())
	s.Len(store.ErrorRecords(), 1)
}

type failingAccessStore struct {
	*auditstore.InMemoryStore
}

func (f *failingAccessStore) LogAccess(context.Context, *auditmodels.AccessRecord) (domain.AuditID, error) {
	return domain.AuditID{}, auditstore.ErrAuditUnavailable
}
