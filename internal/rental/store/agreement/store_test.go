package agreement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"briq/internal/rental/models"
	"briq/internal/rental/store/agreement"
	"briq/pkg/platform/sentinel"
)

type registry interface {
	Reserve(ctx context.Context, a *models.Agreement) error
	Update(ctx context.Context, a *models.Agreement) error
	FindByHash(ctx context.Context, hash string) (*models.Agreement, error)
	FindHolding(ctx context.Context, propertyID string) (*models.Agreement, error)
	ListPending(ctx context.Context) ([]*models.Agreement, error)
	ListByLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error)
}

// RegistrySuite runs the same contract against every registry.
type RegistrySuite struct {
	suite.Suite
	newStore func(t *testing.T) registry
	store    registry
	ctx      context.Context
	base     time.Time
}

func (s *RegistrySuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
	s.base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
}

func TestInMemoryRegistrySuite(t *testing.T) {
	suite.Run(t, &RegistrySuite{newStore: func(*testing.T) registry {
		return agreement.NewInMemoryStore()
	}})
}

func (s *RegistrySuite) agreement(property, nonce string, offset time.Duration) *models.Agreement {
	terms, err := models.NewTerms(models.Terms{
		PropertyID:  property,
		Landlord:    "0xlandlord",
		Tenant:      "0xtenant",
		MonthlyRent: "1500",
		Deposit:     "3000",
		StartDate:   s.base.AddDate(0, 1, 0),
		Nonce:       nonce,
	})
	s.Require().NoError(err)
	a, err := models.NewAgreement(terms, terms.Hash(), "0xsig", s.base.Add(offset))
	s.Require().NoError(err)
	return a
}

func (s *RegistrySuite) TestReserve() {
	s.Run("round trips every field", func() {
		a := s.agreement("p-rt", "n1", 0)
		a.LandlordApplied = true
		a.Attempts = 2
		a.LastError = "boom"
		s.Require().NoError(s.store.Reserve(s.ctx, a))

		got, err := s.store.FindByHash(s.ctx, a.Hash)
		s.Require().NoError(err)
		s.Equal(a, got)
	})

	s.Run("one holding agreement per property", func() {
		first := s.agreement("p-one", "n1", 0)
		s.Require().NoError(s.store.Reserve(s.ctx, first))

		err := s.store.Reserve(s.ctx, s.agreement("p-one", "n2", time.Minute))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("duplicate hash", func() {
		a := s.agreement("p-dup", "n1", 0)
		s.Require().NoError(s.store.Reserve(s.ctx, a))
		s.ErrorIs(s.store.Reserve(s.ctx, a), sentinel.ErrAlreadyUsed)
	})
}

func (s *RegistrySuite) TestUpdateReleasesProperty() {
	a := s.agreement("p-release", "n1", 0)
	s.Require().NoError(s.store.Reserve(s.ctx, a))

	a.Status = models.StatusActive
	a.ActivatedAt = s.base.Add(time.Hour)
	s.Require().NoError(s.store.Update(s.ctx, a))

	held, err := s.store.FindHolding(s.ctx, "p-release")
	s.Require().NoError(err)
	s.Equal(a.Hash, held.Hash)
	s.Equal(models.StatusActive, held.Status)

	a.Status = models.StatusEnded
	a.EndedAt = s.base.Add(2 * time.Hour)
	s.Require().NoError(s.store.Update(s.ctx, a))

	_, err = s.store.FindHolding(s.ctx, "p-release")
	s.ErrorIs(err, sentinel.ErrNotFound)

	next := s.agreement("p-release", "n2", time.Hour)
	s.NoError(s.store.Reserve(s.ctx, next))
}

func (s *RegistrySuite) TestUpdateUnknown() {
	err := s.store.Update(s.ctx, s.agreement("p-unknown", "n1", 0))
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByHash(s.ctx, "0xmissing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RegistrySuite) TestListings() {
	older := s.agreement("p-list-1", "n1", 0)
	newer := s.agreement("p-list-2", "n1", time.Minute)
	active := s.agreement("p-list-3", "n1", 2*time.Minute)
	for _, a := range []*models.Agreement{newer, older, active} {
		s.Require().NoError(s.store.Reserve(s.ctx, a))
	}
	active.Status = models.StatusActive
	s.Require().NoError(s.store.Update(s.ctx, active))

	pending, err := s.store.ListPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(older.Hash, pending[0].Hash)
	s.Equal(newer.Hash, pending[1].Hash)

	mine, err := s.store.ListByLandlord(s.ctx, "0xlandlord")
	s.Require().NoError(err)
	s.Len(mine, 3)

	none, err := s.store.ListByLandlord(s.ctx, "0xnobody")
	s.Require().NoError(err)
	s.Empty(none)
}
