package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"briq/internal/trust/models"
	"briq/internal/trust/score"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/sentinel"
	"briq/pkg/requestcontext"
)

func isAlreadyUsed(err error) bool {
	return errors.Is(err, sentinel.ErrAlreadyUsed)
}

// Initialize creates a profile with default sub-records for the user type.
// An existing profile yields a conflict; nothing is overwritten.
func (r *Recorder) Initialize(ctx context.Context, address string, userType models.UserType) (*models.Profile, error) {
	if models.NormalizeAddress(address) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if _, err := models.ParseUserType(string(userType)); err != nil {
		return nil, err
	}
	p, err := r.profiles.Initialize(ctx, address, userType)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		if isAlreadyUsed(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "profile already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize profile")
	}
	r.metrics.IncProfileCreated(string(userType))
	r.recorded(ctx, audit.ActionProfileInitialized, p, string(userType))
	return p, nil
}

// Profile returns the stored profile for address.
func (r *Recorder) Profile(ctx context.Context, address string) (*models.Profile, error) {
	return r.load(ctx, address, "")
}

// EnsureProfile returns the profile, creating it with userType when absent.
func (r *Recorder) EnsureProfile(ctx context.Context, address string, userType models.UserType) (*models.Profile, error) {
	if _, err := models.ParseUserType(string(userType)); err != nil {
		return nil, err
	}
	return r.load(ctx, address, userType)
}

// AddRole attaches the missing side to a profile, upgrading it to both.
func (r *Recorder) AddRole(ctx context.Context, address string, side models.Side) (*models.Profile, error) {
	if side != models.SideTenant && side != models.SideLandlord {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown role %q", side)
	}
	added := false
	p, err := r.mutate(ctx, "add_role", address, r.createFor(side), func(p *models.Profile, now time.Time) (bool, error) {
		added = p.AddRole(side, now)
		return added, nil
	})
	if err != nil {
		return nil, err
	}
	if added {
		r.recorded(ctx, audit.ActionRoleAdded, p, string(side))
	}
	return p, nil
}

// RecordPayment appends a rent payment and recomputes the payment aggregates
// and the tenant score over the full history.
func (r *Recorder) RecordPayment(ctx context.Context, address string, rec models.PaymentRecord) (*models.Profile, error) {
	amount, err := models.ParseAmount(string(rec.Amount))
	if err != nil {
		return nil, err
	}
	rec.Amount = amount
	if !rec.Status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown payment status %q", rec.Status)
	}
	if rec.LateDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "late days cannot be negative")
	}
	if rec.DueDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "due date is required")
	}
	rec.DueDate = models.StoredTime(rec.DueDate)
	rec.PaidDate = models.StoredTime(rec.PaidDate)

	p, err := r.mutate(ctx, "record_payment", address, r.createFor(models.SideTenant), func(p *models.Profile, now time.Time) (bool, error) {
		t, err := p.TenantSide()
		if err != nil {
			return false, err
		}
		t.PaymentHistory = append(t.PaymentHistory, rec)
		t.TotalRentPaid = t.TotalRentPaid.Add(rec.Amount)
		t.OnTimePaymentPercentage = score.OnTimePercentage(t.PaymentHistory)
		t.AverageLateDays = score.AverageLateDays(t.PaymentHistory)
		r.rescoreTenant(t, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.recorded(ctx, audit.ActionPaymentRecorded, p, rec.PropertyID,
		"status", rec.Status, "amount", rec.Amount.String())
	return p, nil
}

// SimulatePayment records a synthetic payment paid now: on time means it was
// due a day earlier, late means it was due five days earlier and counts four
// late days.
func (r *Recorder) SimulatePayment(ctx context.Context, address, propertyID string, amount models.Amount, onTime bool) (*models.Profile, error) {
	paid := models.StoredTime(requestcontext.Now(ctx))
	rec := models.PaymentRecord{
		Amount:     amount,
		PaidDate:   paid,
		PropertyID: propertyID,
	}
	if onTime {
		rec.DueDate = paid.Add(-24 * time.Hour)
		rec.Status = models.PaymentOnTime
	} else {
		rec.DueDate = paid.Add(-5 * 24 * time.Hour)
		rec.Status = models.PaymentLate
		rec.LateDays = 4
	}
	return r.RecordPayment(ctx, address, rec)
}

// RecordTenancy appends a completed tenancy and recomputes the tenant score.
func (r *Recorder) RecordTenancy(ctx context.Context, address string, rec models.TenancyRecord) (*models.Profile, error) {
	if err := validateTenancy(&rec); err != nil {
		return nil, err
	}
	p, err := r.mutate(ctx, "record_tenancy", address, r.createFor(models.SideTenant), func(p *models.Profile, now time.Time) (bool, error) {
		t, err := p.TenantSide()
		if err != nil {
			return false, err
		}
		t.TenancyHistory = append(t.TenancyHistory, rec)
		r.rescoreTenant(t, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.recorded(ctx, audit.ActionTenancyRecorded, p, rec.PropertyID, "reason", rec.ReasonForLeaving)
	return p, nil
}

func validateTenancy(rec *models.TenancyRecord) error {
	var err error
	if rec.MonthlyRent, err = models.ParseAmount(string(rec.MonthlyRent)); err != nil {
		return err
	}
	if rec.Deposit, err = models.ParseAmount(string(rec.Deposit)); err != nil {
		return err
	}
	if rec.ReasonForLeaving != "" && !rec.ReasonForLeaving.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown reason for leaving %q", rec.ReasonForLeaving)
	}
	if rec.LandlordRating < 0 || rec.LandlordRating > 5 || rec.TenantRating < 0 || rec.TenantRating > 5 {
		return dErrors.New(dErrors.CodeValidation, "ratings must be between 1 and 5 stars")
	}
	if !rec.EndDate.IsZero() && rec.EndDate.Before(rec.StartDate) {
		return dErrors.New(dErrors.CodeValidation, "tenancy cannot end before it starts")
	}
	rec.StartDate = models.StoredTime(rec.StartDate)
	rec.EndDate = models.StoredTime(rec.EndDate)
	return nil
}

// AdjustBehavioralScore sets a sub-score. Values outside 0-100 are clamped,
// never rejected; the clamp is logged and counted.
func (r *Recorder) AdjustBehavioralScore(ctx context.Context, address string, dim models.Dimension, value int) (*models.Profile, error) {
	if _, err := models.ParseDimension(string(dim)); err != nil {
		return nil, err
	}
	stored, clamped := models.ClampSubScore(value)

	p, err := r.mutate(ctx, "adjust_score", address, r.createFor(dim.Side()), func(p *models.Profile, now time.Time) (bool, error) {
		if dim.Side() == models.SideTenant {
			t, err := p.TenantSide()
			if err != nil {
				return false, err
			}
			switch dim {
			case models.DimensionMaintenance:
				t.MaintenanceScore = stored
			case models.DimensionCommunication:
				t.CommunicationScore = stored
			case models.DimensionCompliance:
				t.ComplianceScore = stored
			}
			r.rescoreTenant(t, now)
			return true, nil
		}
		l, err := p.LandlordSide()
		if err != nil {
			return false, err
		}
		switch dim {
		case models.DimensionLandlordCommunication:
			l.CommunicationScore = stored
		case models.DimensionFairness:
			l.FairnessScore = stored
		case models.DimensionProfessionalism:
			l.ProfessionalismScore = stored
		case models.DimensionDisputeResolution:
			l.DisputeResolutionScore = stored
		case models.DimensionLegalCompliance:
			l.LegalComplianceScore = stored
		}
		r.rescoreLandlord(l, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if clamped {
		r.reportClamp(ctx, p.Address, string(dim), value, stored)
	}
	r.recorded(ctx, audit.ActionScoreAdjusted, p, string(dim), "value", stored)
	return p, nil
}

// reportClamp records an out-of-range input that was stored clamped.
func (r *Recorder) reportClamp(ctx context.Context, address, field string, requested, stored int) {
	r.logger.WarnContext(ctx, "InvalidRangeClamped",
		"address", address,
		"dimension", field,
		"requested", requested,
		"stored", stored,
	)
	r.metrics.IncScoreClamped(field)
	r.emit(ctx, audit.ActionScoreClamped, address, field, fmt.Sprintf("%d->%d", requested, stored))
}

// RecordIncident increments the counter for a behavioral incident.
func (r *Recorder) RecordIncident(ctx context.Context, address string, incident models.Incident) (*models.Profile, error) {
	if _, err := models.ParseIncident(string(incident)); err != nil {
		return nil, err
	}
	p, err := r.mutate(ctx, "record_incident", address, r.createFor(incident.Side()), func(p *models.Profile, now time.Time) (bool, error) {
		if incident.Side() == models.SideLandlord {
			l, err := p.LandlordSide()
			if err != nil {
				return false, err
			}
			switch incident {
			case models.IncidentUnauthorizedEntry:
				l.UnauthorizedEntryReports++
			case models.IncidentDiscriminationComplaint:
				l.DiscriminationComplaints++
			}
			r.rescoreLandlord(l, now)
			return true, nil
		}
		t, err := p.TenantSide()
		if err != nil {
			return false, err
		}
		switch incident {
		case models.IncidentNoiseComplaint:
			t.NoiseComplaints++
		case models.IncidentDamageReport:
			t.DamageReports++
		case models.IncidentEviction:
			t.Evictions++
		case models.IncidentDispute:
			t.Disputes++
		}
		r.rescoreTenant(t, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.recorded(ctx, audit.ActionIncidentRecorded, p, string(incident))
	return p, nil
}

// RecordPropertyManaged stores a property's management record, replacing an
// earlier record for the same property.
func (r *Recorder) RecordPropertyManaged(ctx context.Context, address string, rec models.PropertyManagementRecord) (*models.Profile, error) {
	if rec.PropertyID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "property id is required")
	}
	if rec.MaintenanceResponseHours < 0 || rec.MaintenanceCompletionHours < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "maintenance times cannot be negative")
	}
	requested := rec.PropertyConditionScore
	var clamped bool
	rec.PropertyConditionScore, clamped = models.ClampSubScore(requested)
	p, err := r.mutate(ctx, "record_property", address, r.createFor(models.SideLandlord), func(p *models.Profile, now time.Time) (bool, error) {
		l, err := p.LandlordSide()
		if err != nil {
			return false, err
		}
		l.UpsertProperty(rec)
		r.rescoreLandlord(l, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if clamped {
		r.reportClamp(ctx, p.Address, "property_condition", requested, rec.PropertyConditionScore)
	}
	r.recorded(ctx, audit.ActionPropertyRecorded, p, rec.PropertyID)
	return p, nil
}

// RecordDepositReturn appends a deposit settlement to the landlord's history.
func (r *Recorder) RecordDepositReturn(ctx context.Context, address string, rec models.DepositReturnRecord) (*models.Profile, error) {
	var err error
	if rec.DepositAmount, err = models.ParseAmount(string(rec.DepositAmount)); err != nil {
		return nil, err
	}
	if rec.ReturnedAmount, err = models.ParseAmount(string(rec.ReturnedAmount)); err != nil {
		return nil, err
	}
	if rec.ReturnTimeInDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "return time cannot be negative")
	}
	rec.TenantAddress = models.NormalizeAddress(rec.TenantAddress)

	p, err := r.mutate(ctx, "record_deposit_return", address, r.createFor(models.SideLandlord), func(p *models.Profile, now time.Time) (bool, error) {
		l, err := p.LandlordSide()
		if err != nil {
			return false, err
		}
		l.DepositReturnHistory = append(l.DepositReturnHistory, rec)
		r.rescoreLandlord(l, now)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.recorded(ctx, audit.ActionDepositReturned, p, rec.PropertyID,
		"returned", rec.ReturnedAmount.String(), "days", strconv.Itoa(rec.ReturnTimeInDays))
	return p, nil
}

// SetLicenseStatus records the landlord's rental license status.
func (r *Recorder) SetLicenseStatus(ctx context.Context, address string, status models.LicenseStatus) (*models.Profile, error) {
	if _, err := models.ParseLicenseStatus(string(status)); err != nil {
		return nil, err
	}
	p, err := r.mutate(ctx, "set_license", address, r.createFor(models.SideLandlord), func(p *models.Profile, now time.Time) (bool, error) {
		l, err := p.LandlordSide()
		if err != nil {
			return false, err
		}
		if l.LicenseStatus == status {
			return false, nil
		}
		l.LicenseStatus = status
		l.LastUpdated = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	r.recorded(ctx, audit.ActionLicenseChanged, p, string(status))
	return p, nil
}

// Summary returns the headline scores of a profile.
func (r *Recorder) Summary(ctx context.Context, address string) (*models.Summary, error) {
	p, err := r.load(ctx, address, "")
	if err != nil {
		return nil, err
	}
	return Summarize(p), nil
}

// Summarize builds the summary view of p.
func Summarize(p *models.Profile) *models.Summary {
	s := &models.Summary{
		Address:       p.Address,
		UserType:      p.UserType,
		CurrentRental: p.CurrentRental,
		RentalCount:   len(p.RentalHistory),
	}
	if p.Tenant != nil {
		s.Tenant = &models.SideSummary{
			TrustScore: p.Tenant.TrustScore,
			MaxScore:   score.TenantMax,
			Label:      score.Label(p.Tenant.TrustScore, score.TenantMax),
			Records:    len(p.Tenant.PaymentHistory),
		}
	}
	if p.Landlord != nil {
		s.Landlord = &models.SideSummary{
			TrustScore: p.Landlord.TrustScore,
			MaxScore:   score.LandlordMax,
			Label:      score.Label(p.Landlord.TrustScore, score.LandlordMax),
			Records:    len(p.Landlord.PropertiesManaged),
		}
	}
	return s
}
