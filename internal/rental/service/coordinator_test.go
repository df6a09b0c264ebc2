package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"briq/internal/rental/models"
	"briq/internal/rental/service"
	"briq/internal/rental/store/agreement"
	trust "briq/internal/trust/models"
	trustservice "briq/internal/trust/service"
	"briq/internal/trust/store/profile"
	dErrors "briq/pkg/domain-errors"
	"briq/pkg/requestcontext"
)

const (
	landlordAddr = "0xaaaa000000000000000000000000000000000001"
	tenantAddr   = "0xbbbb000000000000000000000000000000000002"
	rivalAddr    = "0xcccc000000000000000000000000000000000003"
)

type refreshLog struct {
	mu        sync.Mutex
	addresses []string
}

func (r *refreshLog) Refresh(_ context.Context, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses = append(r.addresses, address)
	return nil
}

func (r *refreshLog) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.addresses...)
}

type CoordinatorSuite struct {
	suite.Suite
	ctx         context.Context
	profiles    *profile.InMemoryBackend
	recorder    *trustservice.Recorder
	registry    *agreement.InMemoryStore
	refreshes   *refreshLog
	coordinator *service.Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC))
	s.profiles = profile.NewInMemoryBackend()
	s.recorder = trustservice.New(profile.New(s.profiles))
	s.registry = agreement.NewInMemoryStore()
	s.refreshes = &refreshLog{}
	s.coordinator = service.New(s.registry, s.recorder, service.WithProjections(s.refreshes))
}

func (s *CoordinatorSuite) proposal(property, tenant, nonce string) service.Proposal {
	draft, err := s.coordinator.Draft(models.Terms{
		PropertyID:  property,
		Landlord:    landlordAddr,
		Tenant:      tenant,
		MonthlyRent: "1200",
		Deposit:     "2400",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Nonce:       nonce,
	})
	s.Require().NoError(err)
	return service.Proposal{Terms: draft.Terms, Hash: draft.Hash, Signature: "0xsigned"}
}

func (s *CoordinatorSuite) rentals(address string) []trust.RentalEntry {
	p, err := s.recorder.Profile(s.ctx, address)
	s.Require().NoError(err)
	return p.RentalHistory
}

func (s *CoordinatorSuite) TestProposeActivates() {
	out, err := s.coordinator.Propose(s.ctx, s.proposal("p1", tenantAddr, "n1"))
	s.Require().NoError(err)
	s.False(out.Degraded)
	s.False(out.Replayed)
	s.Equal(models.StatusActive, out.Agreement.Status)
	s.True(out.Agreement.FullyApplied())

	landlord, err := s.recorder.Profile(s.ctx, landlordAddr)
	s.Require().NoError(err)
	s.Equal(trust.UserTypeLandlord, landlord.UserType)
	s.Require().Len(landlord.RentalHistory, 1)
	s.Nil(landlord.CurrentRental)

	tenant, err := s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Equal(trust.UserTypeTenant, tenant.UserType)
	s.Require().Len(tenant.RentalHistory, 1)
	s.Require().NotNil(tenant.CurrentRental)
	s.Equal(out.Agreement.Hash, tenant.CurrentRental.AgreementHash)
	s.Equal(trust.Amount("1200"), tenant.CurrentRental.MonthlyRent)

	s.ElementsMatch([]string{landlordAddr, tenantAddr}, s.refreshes.seen())
}

func (s *CoordinatorSuite) TestProposeOverForeignVersionProfile() {
	s.profiles.Raw(profile.Key(tenantAddr), []byte(`{"version":"0.9","trustData":{"userAddress":"`+tenantAddr+`","userType":"tenant"}}`))

	out, err := s.coordinator.Propose(s.ctx, s.proposal("p1", tenantAddr, "n1"))
	s.Require().NoError(err)
	s.False(out.Degraded)
	s.Equal(models.StatusActive, out.Agreement.Status)

	tenant, err := s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Require().NotNil(tenant.CurrentRental)
	s.Equal(out.Agreement.Hash, tenant.CurrentRental.AgreementHash)
}

func (s *CoordinatorSuite) TestProposeTwiceIsIdempotent() {
	p := s.proposal("p1", tenantAddr, "n1")
	_, err := s.coordinator.Propose(s.ctx, p)
	s.Require().NoError(err)

	out, err := s.coordinator.Propose(s.ctx, p)
	s.Require().NoError(err)
	s.True(out.Replayed)
	s.Equal(models.StatusActive, out.Agreement.Status)

	s.Len(s.rentals(landlordAddr), 1)
	s.Len(s.rentals(tenantAddr), 1)
}

func (s *CoordinatorSuite) TestAlreadyRentedLeavesLedgersUntouched() {
	_, err := s.coordinator.Propose(s.ctx, s.proposal("p1", tenantAddr, "n1"))
	s.Require().NoError(err)

	_, err = s.coordinator.Propose(s.ctx, s.proposal("p1", rivalAddr, "n2"))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal(service.ReasonAlreadyRented, dErrors.ReasonOf(err))

	s.Len(s.rentals(landlordAddr), 1)
	_, err = s.recorder.Profile(s.ctx, rivalAddr)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "rival profile must not be created")
}

func (s *CoordinatorSuite) TestProposeValidates() {
	s.Run("tampered hash", func() {
		p := s.proposal("p1", tenantAddr, "n1")
		p.Terms.MonthlyRent = "1"
		_, err := s.coordinator.Propose(s.ctx, p)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing nonce", func() {
		p := s.proposal("p1", tenantAddr, "n1")
		p.Terms.Nonce = ""
		_, err := s.coordinator.Propose(s.ctx, p)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing signature", func() {
		p := s.proposal("p1", tenantAddr, "n1")
		p.Signature = ""
		_, err := s.coordinator.Propose(s.ctx, p)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	_, err := s.coordinator.AgreementForProperty(s.ctx, "p1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CoordinatorSuite) TestTerminateFreesProperty() {
	out, err := s.coordinator.Propose(s.ctx, s.proposal("p1", tenantAddr, "n1"))
	s.Require().NoError(err)
	hash := out.Agreement.Hash

	later := requestcontext.WithTime(s.ctx, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	ended, err := s.coordinator.Terminate(later, "p1", trust.Termination{Reason: trust.LeaveLeaseExpired})
	s.Require().NoError(err)
	s.False(ended.Degraded)
	s.Equal(models.StatusEnded, ended.Agreement.Status)

	tenant, err := s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Nil(tenant.CurrentRental)
	s.Equal(trust.RentalEnded, tenant.RentalHistory[0].Status)
	s.Require().Len(tenant.Tenant.TenancyHistory, 1)
	s.Equal("p1", tenant.Tenant.TenancyHistory[0].PropertyID)

	landlord := s.rentals(landlordAddr)
	s.Equal(trust.RentalEnded, landlord[0].Status)

	_, err = s.coordinator.AgreementForProperty(s.ctx, "p1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	stored, err := s.coordinator.Agreement(s.ctx, hash)
	s.Require().NoError(err)
	s.Equal(trust.LeaveLeaseExpired, stored.EndReason)

	_, err = s.coordinator.Propose(s.ctx, s.proposal("p1", rivalAddr, "n2"))
	s.NoError(err)

	_, err = s.coordinator.Terminate(s.ctx, "p-none", trust.Termination{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CoordinatorSuite) TestAgreementsForLandlord() {
	_, err := s.coordinator.Propose(s.ctx, s.proposal("p1", tenantAddr, "n1"))
	s.Require().NoError(err)
	_, err = s.coordinator.Propose(s.ctx, s.proposal("p2", rivalAddr, "n1"))
	s.Require().NoError(err)

	list, err := s.coordinator.AgreementsForLandlord(s.ctx, "0xAAAA000000000000000000000000000000000001")
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = s.coordinator.AgreementsForLandlord(s.ctx, " ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *CoordinatorSuite) TestDraftRendersMessage() {
	c := service.New(s.registry, s.recorder, service.WithCurrencyUnit("tinybar"))
	draft, err := c.Draft(models.Terms{
		PropertyID:  "p9",
		Landlord:    landlordAddr,
		Tenant:      tenantAddr,
		MonthlyRent: "5",
		Deposit:     "10",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.NotEmpty(draft.Terms.Nonce)
	s.Equal(draft.Terms.Hash(), draft.Hash)
	s.Contains(draft.Message, "Monthly Rent: 5 tinybar\n")
	s.Contains(draft.Message, "Agreement Hash: "+draft.Hash+"\n")
}
