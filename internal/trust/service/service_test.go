package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"briq/internal/trust/models"
	"briq/internal/trust/service"
	"briq/internal/trust/store/profile"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/audit/store/memory"
	"briq/pkg/platform/sentinel"
	"briq/pkg/requestcontext"
)

const (
	tenantAddr   = "0x1111111111111111111111111111111111111111"
	landlordAddr = "0x2222222222222222222222222222222222222222"
)

type publisherFunc func(ctx context.Context, e audit.Event)

func (f publisherFunc) Emit(ctx context.Context, e audit.Event) { f(ctx, e) }

type RecorderSuite struct {
	suite.Suite
	ctx      context.Context
	backend  *profile.InMemoryBackend
	store    *profile.Store
	events   *memory.InMemoryStore
	recorder *service.Recorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC))
	s.backend = profile.NewInMemoryBackend()
	s.store = profile.New(s.backend)
	s.events = memory.NewInMemoryStore()
	s.recorder = service.New(s.store, service.WithAuditPublisher(s.publisher()))
}

func (s *RecorderSuite) publisher() service.AuditPublisher {
	return publisherFunc(func(ctx context.Context, e audit.Event) {
		_ = s.events.Append(ctx, e)
	})
}

func (s *RecorderSuite) payment(status models.PaymentStatus, amount string) models.PaymentRecord {
	rec := models.PaymentRecord{
		Amount:     models.Amount(amount),
		DueDate:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		PaidDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		Status:     status,
		PropertyID: "prop-1",
	}
	if status == models.PaymentMissed {
		rec.PaidDate = time.Time{}
	}
	return rec
}

func (s *RecorderSuite) TestInitialize() {
	s.Run("seeds the starting score", func() {
		p, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
		s.Require().NoError(err)
		s.Equal(700, p.Tenant.TrustScore)
		s.Equal(100, p.Tenant.OnTimePaymentPercentage)
	})

	s.Run("existing profile is a conflict", func() {
		_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeLandlord)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects unknown user type", func() {
		_, err := s.recorder.Initialize(s.ctx, "0xnew", models.UserType("owner"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RecorderSuite) TestRecordPayment() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	p, err := s.recorder.RecordPayment(s.ctx, tenantAddr, s.payment(models.PaymentOnTime, "1000"))
	s.Require().NoError(err)
	s.Equal(models.Amount("1000"), p.Tenant.TotalRentPaid)
	s.Equal(100, p.Tenant.OnTimePaymentPercentage)
	s.Equal(570, p.Tenant.TrustScore)

	p, err = s.recorder.RecordPayment(s.ctx, tenantAddr, s.payment(models.PaymentMissed, "1000"))
	s.Require().NoError(err)
	s.Equal(50, p.Tenant.OnTimePaymentPercentage)
	s.Equal(models.Amount("2000"), p.Tenant.TotalRentPaid)

	stored, err := s.store.Get(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Len(stored.Tenant.PaymentHistory, 2)
	s.Equal(p.Tenant.TrustScore, stored.Tenant.TrustScore)
	s.Equal([]audit.Action{
		audit.ActionProfileInitialized,
		audit.ActionPaymentRecorded,
		audit.ActionPaymentRecorded,
	}, s.events.Actions(tenantAddr))
}

func (s *RecorderSuite) TestRecordPaymentSumsBeyondInt64() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	for range 3 {
		_, err = s.recorder.RecordPayment(s.ctx, tenantAddr, s.payment(models.PaymentOnTime, "9223372036854775807"))
		s.Require().NoError(err)
	}
	p, err := s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Equal(models.Amount("27670116110564327421"), p.Tenant.TotalRentPaid)
}

func (s *RecorderSuite) TestRecordPaymentValidation() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	s.Run("negative amount", func() {
		_, err := s.recorder.RecordPayment(s.ctx, tenantAddr, s.payment(models.PaymentOnTime, "-5"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("unknown status", func() {
		_, err := s.recorder.RecordPayment(s.ctx, tenantAddr, s.payment("early", "5"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RecorderSuite) TestMissingProfile() {
	s.Run("not found without auto-create", func() {
		_, err := s.recorder.RecordPayment(s.ctx, "0xghost", s.payment(models.PaymentOnTime, "1"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.store.Get(s.ctx, "0xghost")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("auto-create initializes the needed side", func() {
		rec := service.New(s.store, service.WithAutoCreate())
		p, err := rec.RecordPropertyManaged(s.ctx, "0xNewLandlord", models.PropertyManagementRecord{
			PropertyID:               "prop-7",
			MaintenanceResponseHours: 10,
		})
		s.Require().NoError(err)
		s.Equal(models.UserTypeLandlord, p.UserType)
		s.Equal("0xnewlandlord", p.Address)
		s.Equal(87, p.Landlord.TrustScore)
	})
}

func (s *RecorderSuite) TestForeignVersionReadsAsAbsent() {
	foreign := []byte(`{"version":"0.9","trustData":{"userAddress":"0xold","userType":"tenant"}}`)

	s.Run("initialize writes a fresh profile", func() {
		s.backend.Raw(profile.Key("0xold"), foreign)
		_, err := s.recorder.Profile(s.ctx, "0xold")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		p, err := s.recorder.Initialize(s.ctx, "0xold", models.UserTypeLandlord)
		s.Require().NoError(err)
		s.Equal(models.UserTypeLandlord, p.UserType)
	})

	s.Run("auto-create writes over it", func() {
		s.backend.Raw(profile.Key("0xolder"), foreign)
		rec := service.New(s.store, service.WithAutoCreate())
		p, err := rec.RecordPayment(s.ctx, "0xolder", s.payment(models.PaymentOnTime, "5"))
		s.Require().NoError(err)
		s.Len(p.Tenant.PaymentHistory, 1)
		s.Equal(models.Amount("5"), p.Tenant.TotalRentPaid)
	})
}

func (s *RecorderSuite) TestWrongUserType() {
	_, err := s.recorder.Initialize(s.ctx, landlordAddr, models.UserTypeLandlord)
	s.Require().NoError(err)

	_, err = s.recorder.RecordPayment(s.ctx, landlordAddr, s.payment(models.PaymentOnTime, "1"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.Equal(models.ReasonWrongUserType, dErrors.ReasonOf(err))

	_, err = s.recorder.AdjustBehavioralScore(s.ctx, landlordAddr, models.DimensionMaintenance, 50)
	s.Equal(models.ReasonWrongUserType, dErrors.ReasonOf(err))
}

func (s *RecorderSuite) TestAdjustBehavioralScoreClamps() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	p, err := s.recorder.AdjustBehavioralScore(s.ctx, tenantAddr, models.DimensionMaintenance, 150)
	s.Require().NoError(err)
	s.Equal(100, p.Tenant.MaintenanceScore)

	p, err = s.recorder.AdjustBehavioralScore(s.ctx, tenantAddr, models.DimensionMaintenance, -20)
	s.Require().NoError(err)
	s.Equal(0, p.Tenant.MaintenanceScore)
	// 8.5 * (35 + 0 + 0 + 10 + 5)
	s.Equal(425, p.Tenant.TrustScore)

	s.Contains(s.events.Actions(tenantAddr), audit.ActionScoreClamped)

	_, err = s.recorder.AdjustBehavioralScore(s.ctx, tenantAddr, models.Dimension("charm"), 50)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *RecorderSuite) TestClampsAreReportedOnlyWhenStored() {
	s.Run("missing profile reports nothing", func() {
		_, err := s.recorder.AdjustBehavioralScore(s.ctx, "0xghost", models.DimensionMaintenance, 500)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.events.Actions("0xghost"))
	})

	s.Run("wrong side reports nothing", func() {
		_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
		s.Require().NoError(err)
		_, err = s.recorder.AdjustBehavioralScore(s.ctx, tenantAddr, models.DimensionFairness, 500)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.NotContains(s.events.Actions(tenantAddr), audit.ActionScoreClamped)
	})

	s.Run("property condition clamp is reported", func() {
		_, err := s.recorder.Initialize(s.ctx, landlordAddr, models.UserTypeLandlord)
		s.Require().NoError(err)
		p, err := s.recorder.RecordPropertyManaged(s.ctx, landlordAddr, models.PropertyManagementRecord{
			PropertyID:             "a",
			PropertyConditionScore: 140,
		})
		s.Require().NoError(err)
		s.Equal(100, p.Landlord.PropertiesManaged[0].PropertyConditionScore)

		events, err := s.events.ListByAddress(s.ctx, landlordAddr)
		s.Require().NoError(err)
		var clamp *audit.Event
		for i := range events {
			if events[i].Action == audit.ActionScoreClamped {
				clamp = &events[i]
			}
		}
		s.Require().NotNil(clamp)
		s.Equal("property_condition", clamp.Subject)
		s.Equal("140->100", clamp.Detail)
	})
}

func (s *RecorderSuite) TestLandlordEvents() {
	_, err := s.recorder.Initialize(s.ctx, landlordAddr, models.UserTypeLandlord)
	s.Require().NoError(err)

	_, err = s.recorder.RecordPropertyManaged(s.ctx, landlordAddr, models.PropertyManagementRecord{PropertyID: "a", MaintenanceResponseHours: 400})
	s.Require().NoError(err)
	p, err := s.recorder.RecordPropertyManaged(s.ctx, landlordAddr, models.PropertyManagementRecord{PropertyID: "a", MaintenanceResponseHours: 10})
	s.Require().NoError(err)
	s.Len(p.Landlord.PropertiesManaged, 1)
	s.Equal(87, p.Landlord.TrustScore)

	p, err = s.recorder.AdjustBehavioralScore(s.ctx, landlordAddr, models.DimensionFairness, 100)
	s.Require().NoError(err)
	s.Equal(100, p.Landlord.FairnessScore)
	s.Equal(91, p.Landlord.TrustScore)

	p, err = s.recorder.RecordIncident(s.ctx, landlordAddr, models.IncidentUnauthorizedEntry)
	s.Require().NoError(err)
	s.Equal(1, p.Landlord.UnauthorizedEntryReports)

	p, err = s.recorder.RecordDepositReturn(s.ctx, landlordAddr, models.DepositReturnRecord{
		TenantAddress:    "0xTENANT",
		PropertyID:       "a",
		DepositAmount:    "2000",
		ReturnedAmount:   "1500",
		DeductionReasons: []string{"paint"},
		ReturnTimeInDays: 10,
	})
	s.Require().NoError(err)
	s.Require().Len(p.Landlord.DepositReturnHistory, 1)
	s.Equal("0xtenant", p.Landlord.DepositReturnHistory[0].TenantAddress)

	p, err = s.recorder.SetLicenseStatus(s.ctx, landlordAddr, models.LicenseSuspended)
	s.Require().NoError(err)
	s.Equal(models.LicenseSuspended, p.Landlord.LicenseStatus)
}

func (s *RecorderSuite) TestIncidentsFeedTenantScore() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	var p *models.Profile
	for range 2 {
		p, err = s.recorder.RecordIncident(s.ctx, tenantAddr, models.IncidentDispute)
		s.Require().NoError(err)
	}
	s.Equal(2, p.Tenant.Disputes)
	// 8.5 * (35 + 0 + 17 + 10 + 4)
	s.Equal(561, p.Tenant.TrustScore)
}

func (s *RecorderSuite) TestAddRoleAndSummary() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	p, err := s.recorder.AddRole(s.ctx, tenantAddr, models.SideLandlord)
	s.Require().NoError(err)
	s.Equal(models.UserTypeBoth, p.UserType)
	s.Equal(85, p.Landlord.TrustScore)

	summary, err := s.recorder.Summary(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Require().NotNil(summary.Tenant)
	s.Require().NotNil(summary.Landlord)
	s.Equal("Very Good", summary.Tenant.Label)
	s.Equal("Very Good", summary.Landlord.Label)
}

func (s *RecorderSuite) TestSimulatePayment() {
	_, err := s.recorder.Initialize(s.ctx, tenantAddr, models.UserTypeTenant)
	s.Require().NoError(err)

	p, err := s.recorder.SimulatePayment(s.ctx, tenantAddr, "prop-1", "500", false)
	s.Require().NoError(err)
	rec := p.Tenant.PaymentHistory[0]
	s.Equal(models.PaymentLate, rec.Status)
	s.Equal(4, rec.LateDays)
	s.Equal(5*24*time.Hour, rec.PaidDate.Sub(rec.DueDate))
	s.Equal(4, p.Tenant.AverageLateDays)
	s.Equal(0, p.Tenant.OnTimePaymentPercentage)
}

func (s *RecorderSuite) TestRentalEntries() {
	entry := models.RentalEntry{
		AgreementHash:   "0xabc",
		PropertyID:      "prop-1",
		LandlordAddress: landlordAddr,
		TenantAddress:   tenantAddr,
		StartDate:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		MonthlyRent:     "1000",
		Deposit:         "2000",
		Signature:       "0xsig",
	}

	applied, err := s.recorder.ApplyRental(s.ctx, tenantAddr, models.SideTenant, entry)
	s.Require().NoError(err)
	s.True(applied)
	applied, err = s.recorder.ApplyRental(s.ctx, tenantAddr, models.SideTenant, entry)
	s.Require().NoError(err)
	s.False(applied)

	p, err := s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Equal(models.UserTypeTenant, p.UserType)
	s.Len(p.RentalHistory, 1)
	s.Require().NotNil(p.CurrentRental)
	s.Equal("0xabc", p.CurrentRental.AgreementHash)

	ended, err := s.recorder.EndRental(s.ctx, tenantAddr, models.SideTenant, "0xabc",
		models.Termination{Reason: models.LeaveVoluntary, EarlyTermination: true})
	s.Require().NoError(err)
	s.True(ended)

	p, err = s.recorder.Profile(s.ctx, tenantAddr)
	s.Require().NoError(err)
	s.Nil(p.CurrentRental)
	s.Equal(models.RentalEnded, p.RentalHistory[0].Status)
	s.Require().Len(p.Tenant.TenancyHistory, 1)
	s.True(p.Tenant.TenancyHistory[0].EarlyTermination)
	s.Equal(landlordAddr, p.Tenant.TenancyHistory[0].LandlordAddress)

	removed, err := s.recorder.RemoveRental(s.ctx, tenantAddr, "0xabc")
	s.Require().NoError(err)
	s.True(removed)
	removed, err = s.recorder.RemoveRental(s.ctx, "0xunknown", "0xabc")
	s.Require().NoError(err)
	s.False(removed)
}
