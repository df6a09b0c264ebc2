package handler

import (
	"time"

	"briq/internal/trust/models"
)

// ProfileResponse is the JSON view of a trust profile.
type ProfileResponse struct {
	Address       string                `json:"address"`
	UserType      models.UserType       `json:"user_type"`
	Tenant        *TenantResponse       `json:"tenant,omitempty"`
	Landlord      *LandlordResponse     `json:"landlord,omitempty"`
	CurrentRental *RentalEntryResponse  `json:"current_rental,omitempty"`
	RentalHistory []RentalEntryResponse `json:"rental_history"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Revision      uint64                `json:"revision"`
}

type TenantResponse struct {
	TrustScore              int               `json:"trust_score"`
	OnTimePaymentPercentage int               `json:"on_time_payment_percentage"`
	AverageLateDays         int               `json:"average_late_days"`
	TotalRentPaid           string            `json:"total_rent_paid"`
	MaintenanceScore        int               `json:"maintenance_score"`
	CommunicationScore      int               `json:"communication_score"`
	ComplianceScore         int               `json:"compliance_score"`
	NoiseComplaints         int               `json:"noise_complaints"`
	DamageReports           int               `json:"damage_reports"`
	Evictions               int               `json:"evictions"`
	Disputes                int               `json:"disputes"`
	Payments                []PaymentResponse `json:"payments"`
	Tenancies               []TenancyResponse `json:"tenancies"`
	LastUpdated             time.Time         `json:"last_updated"`
}

type PaymentResponse struct {
	Amount         string    `json:"amount"`
	DueDate        time.Time `json:"due_date"`
	PaidDate       time.Time `json:"paid_date"`
	Status         string    `json:"status"`
	LateDays       int       `json:"late_days"`
	PropertyID     string    `json:"property_id"`
	ProofReference string    `json:"proof_reference,omitempty"`
}

type TenancyResponse struct {
	PropertyID       string    `json:"property_id"`
	LandlordAddress  string    `json:"landlord_address"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	MonthlyRent      string    `json:"monthly_rent"`
	EarlyTermination bool      `json:"early_termination"`
	ReasonForLeaving string    `json:"reason_for_leaving,omitempty"`
}

type LandlordResponse struct {
	TrustScore               int                `json:"trust_score"`
	CommunicationScore       int                `json:"communication_score"`
	FairnessScore            int                `json:"fairness_score"`
	ProfessionalismScore     int                `json:"professionalism_score"`
	DisputeResolutionScore   int                `json:"dispute_resolution_score"`
	LegalComplianceScore     int                `json:"legal_compliance_score"`
	UnauthorizedEntryReports int                `json:"unauthorized_entry_reports"`
	DiscriminationComplaints int                `json:"discrimination_complaints"`
	LicenseStatus            string             `json:"license_status"`
	Properties               []PropertyResponse `json:"properties"`
	DepositReturns           int                `json:"deposit_returns"`
	LastUpdated              time.Time          `json:"last_updated"`
}

type PropertyResponse struct {
	PropertyID                 string  `json:"property_id"`
	MaintenanceResponseHours   float64 `json:"maintenance_response_hours"`
	MaintenanceCompletionHours float64 `json:"maintenance_completion_hours"`
	PropertyConditionScore     int     `json:"property_condition_score"`
}

type RentalEntryResponse struct {
	AgreementHash   string     `json:"agreement_hash"`
	PropertyID      string     `json:"property_id"`
	LandlordAddress string     `json:"landlord_address"`
	TenantAddress   string     `json:"tenant_address"`
	StartDate       time.Time  `json:"start_date"`
	MonthlyRent     string     `json:"monthly_rent"`
	Deposit         string     `json:"deposit"`
	Status          string     `json:"status"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// SummaryResponse is the JSON view of a trust summary.
type SummaryResponse struct {
	Address       string               `json:"address"`
	UserType      models.UserType      `json:"user_type"`
	Tenant        *SideSummaryResponse `json:"tenant,omitempty"`
	Landlord      *SideSummaryResponse `json:"landlord,omitempty"`
	CurrentRental *RentalEntryResponse `json:"current_rental,omitempty"`
	RentalCount   int                  `json:"rental_count"`
}

type SideSummaryResponse struct {
	TrustScore int    `json:"trust_score"`
	MaxScore   int    `json:"max_score"`
	Label      string `json:"label"`
	Records    int    `json:"records"`
}

// FromProfile converts a profile to its response.
func FromProfile(p *models.Profile) *ProfileResponse {
	resp := &ProfileResponse{
		Address:       p.Address,
		UserType:      p.UserType,
		RentalHistory: make([]RentalEntryResponse, 0, len(p.RentalHistory)),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Revision:      p.Revision,
	}
	if t := p.Tenant; t != nil {
		resp.Tenant = &TenantResponse{
			TrustScore:              t.TrustScore,
			OnTimePaymentPercentage: t.OnTimePaymentPercentage,
			AverageLateDays:         t.AverageLateDays,
			TotalRentPaid:           t.TotalRentPaid.String(),
			MaintenanceScore:        t.MaintenanceScore,
			CommunicationScore:      t.CommunicationScore,
			ComplianceScore:         t.ComplianceScore,
			NoiseComplaints:         t.NoiseComplaints,
			DamageReports:           t.DamageReports,
			Evictions:               t.Evictions,
			Disputes:                t.Disputes,
			Payments:                make([]PaymentResponse, 0, len(t.PaymentHistory)),
			Tenancies:               make([]TenancyResponse, 0, len(t.TenancyHistory)),
			LastUpdated:             t.LastUpdated,
		}
		for _, pay := range t.PaymentHistory {
			resp.Tenant.Payments = append(resp.Tenant.Payments, PaymentResponse{
				Amount:         pay.Amount.String(),
				DueDate:        pay.DueDate,
				PaidDate:       pay.PaidDate,
				Status:         string(pay.Status),
				LateDays:       pay.LateDays,
				PropertyID:     pay.PropertyID,
				ProofReference: pay.ProofReference,
			})
		}
		for _, ten := range t.TenancyHistory {
			resp.Tenant.Tenancies = append(resp.Tenant.Tenancies, TenancyResponse{
				PropertyID:       ten.PropertyID,
				LandlordAddress:  ten.LandlordAddress,
				StartDate:        ten.StartDate,
				EndDate:          ten.EndDate,
				MonthlyRent:      ten.MonthlyRent.String(),
				EarlyTermination: ten.EarlyTermination,
				ReasonForLeaving: string(ten.ReasonForLeaving),
			})
		}
	}
	if l := p.Landlord; l != nil {
		resp.Landlord = &LandlordResponse{
			TrustScore:               l.TrustScore,
			CommunicationScore:       l.CommunicationScore,
			FairnessScore:            l.FairnessScore,
			ProfessionalismScore:     l.ProfessionalismScore,
			DisputeResolutionScore:   l.DisputeResolutionScore,
			LegalComplianceScore:     l.LegalComplianceScore,
			UnauthorizedEntryReports: l.UnauthorizedEntryReports,
			DiscriminationComplaints: l.DiscriminationComplaints,
			LicenseStatus:            string(l.LicenseStatus),
			Properties:               make([]PropertyResponse, 0, len(l.PropertiesManaged)),
			DepositReturns:           len(l.DepositReturnHistory),
			LastUpdated:              l.LastUpdated,
		}
		for _, prop := range l.PropertiesManaged {
			resp.Landlord.Properties = append(resp.Landlord.Properties, PropertyResponse(prop))
		}
	}
	if p.CurrentRental != nil {
		current := fromRentalEntry(*p.CurrentRental)
		resp.CurrentRental = &current
	}
	for _, entry := range p.RentalHistory {
		resp.RentalHistory = append(resp.RentalHistory, fromRentalEntry(entry))
	}
	return resp
}

func fromRentalEntry(e models.RentalEntry) RentalEntryResponse {
	resp := RentalEntryResponse{
		AgreementHash:   e.AgreementHash,
		PropertyID:      e.PropertyID,
		LandlordAddress: e.LandlordAddress,
		TenantAddress:   e.TenantAddress,
		StartDate:       e.StartDate,
		MonthlyRent:     e.MonthlyRent.String(),
		Deposit:         e.Deposit.String(),
		Status:          string(e.Status),
	}
	if !e.EndedAt.IsZero() {
		ended := e.EndedAt
		resp.EndedAt = &ended
	}
	return resp
}

// FromSummary converts a summary to its response.
func FromSummary(s *models.Summary) *SummaryResponse {
	resp := &SummaryResponse{
		Address:     s.Address,
		UserType:    s.UserType,
		Tenant:      fromSide(s.Tenant),
		Landlord:    fromSide(s.Landlord),
		RentalCount: s.RentalCount,
	}
	if s.CurrentRental != nil {
		current := fromRentalEntry(*s.CurrentRental)
		resp.CurrentRental = &current
	}
	return resp
}

func fromSide(s *models.SideSummary) *SideSummaryResponse {
	if s == nil {
		return nil
	}
	return &SideSummaryResponse{
		TrustScore: s.TrustScore,
		MaxScore:   s.MaxScore,
		Label:      s.Label,
		Records:    s.Records,
	}
}
