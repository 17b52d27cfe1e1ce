// Package fixture serves deterministic synthetic credit reports for local
// development and tests. Nothing it returns describes a real consumer.
package fixture

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"

	"creditgate/internal/creditreport/models"
	"creditgate/internal/creditreport/ports"
	"creditgate/pkg/domain"
)

var creditors = []string{"First Meridian Bank", "Harbor Auto Finance", "Northwind Card Services", "Summit Mortgage"}

var accountTypes = []string{"revolving", "installment", "mortgage", "auto"}

// Retriever derives a report from a hash of the consumer ID, so the same ID
// always yields the same report.
type Retriever struct {
	Latency     time.Duration
	unavailable map[string]struct{}
	missing     map[string]struct{}
	now         func() time.Time
}

type Option func(*Retriever)

// WithUnavailable makes Retrieve fail with ports.ErrBureauUnavailable for ids.
func WithUnavailable(ids ...string) Option {
	return func(r *Retriever) {
		for _, id := range ids {
			r.unavailable[id] = struct{}{}
		}
	}
}

// WithMissing makes Retrieve fail with ports.ErrReportNotFound for ids.
func WithMissing(ids ...string) Option {
	return func(r *Retriever) {
		for _, id := range ids {
			r.missing[id] = struct{}{}
		}
	}
}

func New(opts ...Option) *Retriever {
	r := &Retriever{
		unavailable: make(map[string]struct{}),
		missing:     make(map[string]struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retriever) Retrieve(ctx context.Context, consumerID, _ string, _ domain.AuditID) (*models.Report, error) {
	if r.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.Latency):
		}
	}
	if _, ok := r.unavailable[consumerID]; ok {
		return nil, ports.ErrBureauUnavailable
	}
	if _, ok := r.missing[consumerID]; ok {
		return nil, ports.ErrReportNotFound
	}

	seed := xxhash.Sum64String(consumerID)

	lines := make([]models.Tradeline, 0, 3)
	for i := range 1 + int(seed%3) {
		v := seed >> (8 * uint(i+1))
		lines = append(lines, models.Tradeline{
			Creditor:     creditors[v%uint64(len(creditors))],
			AccountType:  accountTypes[(v>>3)%uint64(len(accountTypes))],
			Status:       "current",
			BalanceCents: int64(v % 5_000_000),
			OpenedOn:     time.Date(2010+int(v%14), time.Month(1+v%12), 1, 0, 0, 0, 0, time.UTC).Format(time.DateOnly),
		})
	}

	return &models.Report{
		Bureau:      "fixture",
		Score:       300 + int(seed%551),
		ScoreModel:  "synthetic-v1",
		Tradelines:  lines,
		Inquiries:   int(seed>>5) % 6,
		GeneratedAt: r.now().UTC(),
	}, nil
}
