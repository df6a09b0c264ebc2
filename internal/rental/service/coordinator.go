package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"briq/internal/rental/models"
	trust "briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/sentinel"
)

// ReasonAlreadyRented marks a proposal rejected because the property is held.
const ReasonAlreadyRented = "already_rented"

// Proposal is a signed agreement handed in by the tenant's client.
type Proposal struct {
	Terms     models.Terms
	Hash      string
	Signature string
}

// Outcome reports how far an agreement got. Degraded means a ledger write
// failed: the agreement stays pending and the failure is not an error for
// the caller.
type Outcome struct {
	Agreement *models.Agreement
	Replayed  bool
	Degraded  bool
	Reason    string
}

// Draft is what a client needs to ask the tenant for a signature.
type Draft struct {
	Terms   models.Terms
	Hash    string
	Message string
}

// Draft normalizes terms, assigns a nonce when missing and renders the
// signature message.
func (c *Coordinator) Draft(terms models.Terms) (*Draft, error) {
	t, err := models.NewTerms(terms)
	if err != nil {
		return nil, err
	}
	hash := t.Hash()
	return &Draft{Terms: t, Hash: hash, Message: models.SignatureMessage(t, hash, c.currencyUnit)}, nil
}

// Propose registers a signed agreement and writes it into the landlord's and
// then the tenant's ledger. Proposing the same agreement hash again resumes or
// replays it without duplicating ledger entries. A property held by another
// pending or active agreement is rejected before anything is written.
func (c *Coordinator) Propose(ctx context.Context, p Proposal) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "rental.propose")
	defer span.End()

	if p.Terms.Nonce == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "nonce is required")
	}
	terms, err := models.NewTerms(p.Terms)
	if err != nil {
		return nil, err
	}
	a, err := models.NewAgreement(terms, p.Hash, p.Signature, c.now(ctx))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("briq.agreement_hash", a.Hash),
		attribute.String("briq.property_id", a.PropertyID),
	)

	existing, err := c.registry.FindByHash(ctx, a.Hash)
	switch {
	case err == nil:
		return c.replay(ctx, existing), nil
	case !errors.Is(err, sentinel.ErrNotFound):
		span.SetStatus(codes.Error, err.Error())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up agreement")
	}

	if err := c.ensureVacant(ctx, a.PropertyID); err != nil {
		c.metrics.IncProposal("rejected")
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := c.registry.Reserve(ctx, a); err != nil {
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			span.SetStatus(codes.Error, err.Error())
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve agreement")
		}
		// Lost a race: either the same agreement or a rival for the property.
		if existing, findErr := c.registry.FindByHash(ctx, a.Hash); findErr == nil {
			return c.replay(ctx, existing), nil
		}
		c.metrics.IncProposal("rejected")
		return nil, alreadyRented(a.PropertyID)
	}
	c.logAudit(ctx, audit.ActionAgreementProposed, a)

	out := c.apply(ctx, a)
	if out.Degraded {
		c.metrics.IncProposal("degraded")
		span.SetAttributes(attribute.String("briq.degraded", out.Reason))
	} else {
		c.metrics.IncProposal("activated")
	}
	c.refresh(ctx, a)
	return out, nil
}

func (c *Coordinator) ensureVacant(ctx context.Context, propertyID string) error {
	_, err := c.registry.FindHolding(ctx, propertyID)
	switch {
	case err == nil:
		return alreadyRented(propertyID)
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check property")
	}
}

func alreadyRented(propertyID string) error {
	return dErrors.WithReason(dErrors.CodeConflict, ReasonAlreadyRented,
		fmt.Sprintf("property %s already has an agreement", propertyID))
}

// replay handles a proposal whose hash is already registered. Pending
// agreements are resumed; anything else is reported as is.
func (c *Coordinator) replay(ctx context.Context, a *models.Agreement) *Outcome {
	c.metrics.IncProposal("replayed")
	if a.Status != models.StatusPending {
		return &Outcome{Agreement: a, Replayed: true}
	}
	out := c.apply(ctx, a)
	out.Replayed = true
	c.refresh(ctx, a)
	return out
}

// apply writes the missing ledger sides in order, landlord first, stopping at
// the first failure, then persists progress. Both sides present activates the
// agreement.
func (c *Coordinator) apply(ctx context.Context, a *models.Agreement) *Outcome {
	out := &Outcome{Agreement: a}
	entry := a.Entry()
	steps := []struct {
		side    trust.Side
		address string
		done    *bool
	}{
		{trust.SideLandlord, a.Landlord, &a.LandlordApplied},
		{trust.SideTenant, a.Tenant, &a.TenantApplied},
	}
	for _, step := range steps {
		if *step.done {
			continue
		}
		if _, err := c.ledger.ApplyRental(ctx, step.address, step.side, entry); err != nil {
			a.Attempts++
			a.LastError = fmt.Sprintf("%s ledger: %v", step.side, err)
			out.Degraded = true
			out.Reason = string(step.side) + "_ledger"
			c.metrics.IncLedgerFailure(string(step.side))
			c.logger.ErrorContext(ctx, "agreement ledger write failed",
				"agreement_hash", a.Hash,
				"side", step.side,
				"address", step.address,
				"error", err,
			)
			break
		}
		*step.done = true
	}

	now := c.now(ctx)
	a.UpdatedAt = now
	activated := a.FullyApplied()
	if activated {
		a.Status = models.StatusActive
		a.ActivatedAt = now
		a.LastError = ""
	}
	if err := c.registry.Update(ctx, a); err != nil {
		c.logger.ErrorContext(ctx, "failed to record agreement progress",
			"agreement_hash", a.Hash, "error", err)
		if activated {
			a.Status = models.StatusPending
			a.ActivatedAt = time.Time{}
		}
		if !out.Degraded {
			out.Degraded = true
			out.Reason = "registry"
		}
		c.emit(ctx, audit.ActionAgreementDegraded, a, out.Reason)
		return out
	}

	if activated {
		c.logAudit(ctx, audit.ActionAgreementActivated, a)
	} else {
		c.emit(ctx, audit.ActionAgreementDegraded, a, out.Reason)
	}
	return out
}

// Terminate ends the agreement holding a property. A pending agreement is
// cancelled instead. Ledger bookkeeping is best effort; the property is freed
// either way.
func (c *Coordinator) Terminate(ctx context.Context, propertyID string, term trust.Termination) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "rental.terminate")
	defer span.End()
	span.SetAttributes(attribute.String("briq.property_id", propertyID))

	if term.Reason != "" && !term.Reason.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown reason for leaving %q", term.Reason)
	}
	a, err := c.AgreementForProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusPending {
		return c.cancel(ctx, a)
	}

	out := &Outcome{Agreement: a}
	if _, err := c.ledger.EndRental(ctx, a.Landlord, trust.SideLandlord, a.Hash, trust.Termination{}); err != nil {
		out.Degraded, out.Reason = true, "landlord_ledger"
		c.logger.ErrorContext(ctx, "failed to end landlord rental entry", "agreement_hash", a.Hash, "error", err)
	}
	if _, err := c.ledger.EndRental(ctx, a.Tenant, trust.SideTenant, a.Hash, term); err != nil {
		out.Degraded, out.Reason = true, "tenant_ledger"
		c.logger.ErrorContext(ctx, "failed to end tenant rental entry", "agreement_hash", a.Hash, "error", err)
	}

	now := c.now(ctx)
	a.Status = models.StatusEnded
	a.EndReason = term.Reason
	a.EndedAt = now
	a.UpdatedAt = now
	if err := c.registry.Update(ctx, a); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to end agreement")
	}
	c.metrics.IncTermination()
	c.logAudit(ctx, audit.ActionAgreementTerminated, a, "reason", term.Reason, "early", term.EarlyTermination)
	c.refresh(ctx, a)
	return out, nil
}

// cancel compensates a pending agreement by removing whatever ledger entries
// it already wrote. The agreement stays pending if a removal fails.
func (c *Coordinator) cancel(ctx context.Context, a *models.Agreement) (*Outcome, error) {
	for _, address := range []string{a.Tenant, a.Landlord} {
		if _, err := c.ledger.RemoveRental(ctx, address, a.Hash); err != nil {
			c.logger.ErrorContext(ctx, "failed to remove rental entry",
				"agreement_hash", a.Hash, "address", address, "error", err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compensate agreement")
		}
	}
	now := c.now(ctx)
	a.Status = models.StatusCancelled
	a.LandlordApplied = false
	a.TenantApplied = false
	a.EndedAt = now
	a.UpdatedAt = now
	if err := c.registry.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel agreement")
	}
	c.logAudit(ctx, audit.ActionAgreementCancelled, a, "attempts", a.Attempts, "last_error", a.LastError)
	c.refresh(ctx, a)
	return &Outcome{Agreement: a}, nil
}

// AgreementForProperty returns the pending or active agreement of a property.
func (c *Coordinator) AgreementForProperty(ctx context.Context, propertyID string) (*models.Agreement, error) {
	a, err := c.registry.FindHolding(ctx, propertyID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "property has no agreement")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agreement")
	}
	return a, nil
}

// Agreement returns an agreement by hash in any state.
func (c *Coordinator) Agreement(ctx context.Context, hash string) (*models.Agreement, error) {
	a, err := c.registry.FindByHash(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "agreement not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agreement")
	}
	return a, nil
}

// AgreementsForLandlord lists every agreement a landlord is party to.
func (c *Coordinator) AgreementsForLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error) {
	address := trust.NormalizeAddress(landlord)
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	list, err := c.registry.ListByLandlord(ctx, address)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list agreements")
	}
	return list, nil
}
