package service

import (
	"context"
	"time"

	"briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
)

// ApplyRental records one party's copy of an agreement. A missing profile is
// created for the side. Applying the same agreement hash twice is a no-op and
// reports applied=false.
func (r *Recorder) ApplyRental(ctx context.Context, address string, side models.Side, entry models.RentalEntry) (bool, error) {
	if entry.AgreementHash == "" {
		return false, dErrors.New(dErrors.CodeValidation, "agreement hash is required")
	}
	entry.Status = models.RentalActive
	entry.StartDate = models.StoredTime(entry.StartDate)
	entry.EndedAt = time.Time{}

	applied := false
	p, err := r.mutate(ctx, "apply_rental", address, models.ForSide(side), func(p *models.Profile, _ time.Time) (bool, error) {
		if p.FindRental(entry.AgreementHash) >= 0 {
			return false, nil
		}
		p.RentalHistory = append(p.RentalHistory, entry)
		if side == models.SideTenant {
			current := entry
			p.CurrentRental = &current
		}
		applied = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		r.logAudit(ctx, audit.ActionRentalApplied, p.Address, entry.AgreementHash, "side", side)
	}
	return applied, nil
}

// EndRental marks a party's copy of an agreement ended. For the tenant the
// current rental is cleared and, when the profile has a tenant side, the
// tenancy is appended to its history. Unknown or already ended entries are a
// no-op.
func (r *Recorder) EndRental(ctx context.Context, address string, side models.Side, agreementHash string, term models.Termination) (bool, error) {
	if term.Reason != "" && !term.Reason.IsValid() {
		return false, dErrors.Newf(dErrors.CodeValidation, "unknown reason for leaving %q", term.Reason)
	}
	ended := false
	p, err := r.mutate(ctx, "end_rental", address, "", func(p *models.Profile, now time.Time) (bool, error) {
		i := p.FindRental(agreementHash)
		if i < 0 || p.RentalHistory[i].Status == models.RentalEnded {
			return false, nil
		}
		entry := &p.RentalHistory[i]
		entry.Status = models.RentalEnded
		entry.EndedAt = now
		if p.CurrentRental != nil && p.CurrentRental.AgreementHash == agreementHash {
			p.CurrentRental = nil
		}
		if side == models.SideTenant && p.Tenant != nil {
			p.Tenant.TenancyHistory = append(p.Tenant.TenancyHistory, models.TenancyRecord{
				PropertyID:       entry.PropertyID,
				LandlordAddress:  entry.LandlordAddress,
				StartDate:        entry.StartDate,
				EndDate:          now,
				MonthlyRent:      entry.MonthlyRent,
				Deposit:          entry.Deposit,
				EarlyTermination: term.EarlyTermination,
				ReasonForLeaving: term.Reason,
			})
			r.rescoreTenant(p.Tenant, now)
		}
		ended = true
		return true, nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if ended {
		r.logAudit(ctx, audit.ActionRentalEnded, p.Address, agreementHash, "side", side, "reason", term.Reason)
	}
	return ended, nil
}

// RemoveRental deletes a party's copy of an agreement. Used to compensate a
// cancelled agreement; a missing profile or entry is a no-op.
func (r *Recorder) RemoveRental(ctx context.Context, address, agreementHash string) (bool, error) {
	removed := false
	p, err := r.mutate(ctx, "remove_rental", address, "", func(p *models.Profile, _ time.Time) (bool, error) {
		i := p.FindRental(agreementHash)
		if i < 0 {
			return false, nil
		}
		p.RentalHistory = append(p.RentalHistory[:i], p.RentalHistory[i+1:]...)
		if len(p.RentalHistory) == 0 {
			p.RentalHistory = nil
		}
		if p.CurrentRental != nil && p.CurrentRental.AgreementHash == agreementHash {
			p.CurrentRental = nil
		}
		removed = true
		return true, nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	if removed {
		r.logAudit(ctx, audit.ActionRentalRemoved, p.Address, agreementHash)
	}
	return removed, nil
}
