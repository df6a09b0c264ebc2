package handler

import (
	"time"

	"briq/internal/rental/models"
	"briq/internal/rental/service"
)

type TermsResponse struct {
	PropertyID  string `json:"property_id"`
	Landlord    string `json:"landlord_address"`
	Tenant      string `json:"tenant_address"`
	MonthlyRent string `json:"monthly_rent"`
	Deposit     string `json:"deposit"`
	StartDate   string `json:"start_date"`
	Nonce       string `json:"nonce"`
}

// DraftResponse carries what a tenant signs before proposing.
type DraftResponse struct {
	Terms         TermsResponse `json:"terms"`
	AgreementHash string        `json:"agreement_hash"`
	Message       string        `json:"message"`
}

type AgreementResponse struct {
	TermsResponse
	AgreementHash   string     `json:"agreement_hash"`
	Status          string     `json:"status"`
	LandlordApplied bool       `json:"landlord_applied"`
	TenantApplied   bool       `json:"tenant_applied"`
	Attempts        int        `json:"attempts"`
	LastError       string     `json:"last_error,omitempty"`
	EndReason       string     `json:"end_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ActivatedAt     *time.Time `json:"activated_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

type OutcomeResponse struct {
	Agreement *AgreementResponse `json:"agreement"`
	Replayed  bool               `json:"replayed"`
	Degraded  bool               `json:"degraded"`
	Reason    string             `json:"reason,omitempty"`
}

type ListResponse struct {
	Agreements []*AgreementResponse `json:"agreements"`
}

func FromTerms(t models.Terms) TermsResponse {
	return TermsResponse{
		PropertyID:  t.PropertyID,
		Landlord:    t.Landlord,
		Tenant:      t.Tenant,
		MonthlyRent: t.MonthlyRent.String(),
		Deposit:     t.Deposit.String(),
		StartDate:   t.StartDate.UTC().Format(models.ISO8601),
		Nonce:       t.Nonce,
	}
}

func FromAgreement(a *models.Agreement) *AgreementResponse {
	return &AgreementResponse{
		TermsResponse:   FromTerms(a.Terms),
		AgreementHash:   a.Hash,
		Status:          string(a.Status),
		LandlordApplied: a.LandlordApplied,
		TenantApplied:   a.TenantApplied,
		Attempts:        a.Attempts,
		LastError:       a.LastError,
		EndReason:       string(a.EndReason),
		CreatedAt:       a.CreatedAt,
		ActivatedAt:     optionalTime(a.ActivatedAt),
		EndedAt:         optionalTime(a.EndedAt),
	}
}

func FromOutcome(out *service.Outcome) OutcomeResponse {
	return OutcomeResponse{
		Agreement: FromAgreement(out.Agreement),
		Replayed:  out.Replayed,
		Degraded:  out.Degraded,
		Reason:    out.Reason,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
