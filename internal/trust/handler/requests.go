package handler

import (
	"strings"
	"time"

	"briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	bstrings "briq/pkg/platform/strings"
)

// InitializeRequest is the body of POST /profiles.
type InitializeRequest struct {
	Address  string `json:"address"`
	UserType string `json:"user_type"`

	userType models.UserType
}

func (r *InitializeRequest) Validate() error {
	r.Address = strings.TrimSpace(r.Address)
	if r.Address == "" {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	userType, err := models.ParseUserType(r.UserType)
	if err != nil {
		return err
	}
	r.userType = userType
	return nil
}

// RoleRequest is the body of POST /profiles/{address}/roles.
type RoleRequest struct {
	Role string `json:"role"`

	side models.Side
}

func (r *RoleRequest) Validate() error {
	switch side := models.Side(r.Role); side {
	case models.SideTenant, models.SideLandlord:
		r.side = side
		return nil
	}
	return dErrors.Newf(dErrors.CodeValidation, "unknown role %q", r.Role)
}

// PaymentRequest is the body of POST /profiles/{address}/payments.
type PaymentRequest struct {
	Amount         string    `json:"amount"`
	DueDate        time.Time `json:"due_date"`
	PaidDate       time.Time `json:"paid_date"`
	Status         string    `json:"status"`
	LateDays       int       `json:"late_days"`
	PropertyID     string    `json:"property_id"`
	ProofReference string    `json:"proof_reference,omitempty"`
}

// Validate only checks shape; the recorder owns the payment rules.
func (r *PaymentRequest) Validate() error {
	if r.Amount == "" {
		return dErrors.New(dErrors.CodeValidation, "amount is required")
	}
	return nil
}

func (r *PaymentRequest) record() models.PaymentRecord {
	return models.PaymentRecord{
		Amount:         models.Amount(r.Amount),
		DueDate:        r.DueDate,
		PaidDate:       r.PaidDate,
		Status:         models.PaymentStatus(r.Status),
		LateDays:       r.LateDays,
		PropertyID:     strings.TrimSpace(r.PropertyID),
		ProofReference: r.ProofReference,
	}
}

// SimulatePaymentRequest is the body of POST /profiles/{address}/payments/simulate.
type SimulatePaymentRequest struct {
	PropertyID string `json:"property_id"`
	Amount     string `json:"amount"`
	OnTime     bool   `json:"on_time"`

	amount models.Amount
}

func (r *SimulatePaymentRequest) Validate() error {
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return err
	}
	r.amount = amount
	return nil
}

// TenancyRequest is the body of POST /profiles/{address}/tenancies.
type TenancyRequest struct {
	PropertyID       string    `json:"property_id"`
	LandlordAddress  string    `json:"landlord_address"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	MonthlyRent      string    `json:"monthly_rent"`
	Deposit          string    `json:"deposit"`
	EarlyTermination bool      `json:"early_termination"`
	ReasonForLeaving string    `json:"reason_for_leaving"`
	LandlordRating   int       `json:"landlord_rating"`
	TenantRating     int       `json:"tenant_rating"`
}

func (r *TenancyRequest) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	return nil
}

func (r *TenancyRequest) record() models.TenancyRecord {
	return models.TenancyRecord{
		PropertyID:       strings.TrimSpace(r.PropertyID),
		LandlordAddress:  models.NormalizeAddress(r.LandlordAddress),
		StartDate:        r.StartDate,
		EndDate:          r.EndDate,
		MonthlyRent:      models.Amount(r.MonthlyRent),
		Deposit:          models.Amount(r.Deposit),
		EarlyTermination: r.EarlyTermination,
		ReasonForLeaving: models.LeaveReason(r.ReasonForLeaving),
		LandlordRating:   r.LandlordRating,
		TenantRating:     r.TenantRating,
	}
}

// ScoreRequest is the body of POST /profiles/{address}/scores. Values outside
// 0-100 are clamped, not rejected.
type ScoreRequest struct {
	Dimension string `json:"dimension"`
	Value     *int   `json:"value"`

	dimension models.Dimension
}

func (r *ScoreRequest) Validate() error {
	dim, err := models.ParseDimension(r.Dimension)
	if err != nil {
		return err
	}
	if r.Value == nil {
		return dErrors.New(dErrors.CodeValidation, "value is required")
	}
	r.dimension = dim
	return nil
}

// IncidentRequest is the body of POST /profiles/{address}/incidents.
type IncidentRequest struct {
	Kind string `json:"kind"`

	incident models.Incident
}

func (r *IncidentRequest) Validate() error {
	incident, err := models.ParseIncident(r.Kind)
	if err != nil {
		return err
	}
	r.incident = incident
	return nil
}

// PropertyRequest is the body of POST /profiles/{address}/properties.
type PropertyRequest struct {
	PropertyID                 string  `json:"property_id"`
	MaintenanceResponseHours   float64 `json:"maintenance_response_hours"`
	MaintenanceCompletionHours float64 `json:"maintenance_completion_hours"`
	PropertyConditionScore     int     `json:"property_condition_score"`
}

func (r *PropertyRequest) Validate() error {
	r.PropertyID = strings.TrimSpace(r.PropertyID)
	if r.PropertyID == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	return nil
}

func (r *PropertyRequest) record() models.PropertyManagementRecord {
	return models.PropertyManagementRecord{
		PropertyID:                 r.PropertyID,
		MaintenanceResponseHours:   r.MaintenanceResponseHours,
		MaintenanceCompletionHours: r.MaintenanceCompletionHours,
		PropertyConditionScore:     r.PropertyConditionScore,
	}
}

// DepositReturnRequest is the body of POST /profiles/{address}/deposit-returns.
type DepositReturnRequest struct {
	TenantAddress            string   `json:"tenant_address"`
	PropertyID               string   `json:"property_id"`
	DepositAmount            string   `json:"deposit_amount"`
	ReturnedAmount           string   `json:"returned_amount"`
	DeductionReasons         []string `json:"deduction_reasons,omitempty"`
	ReturnTimeInDays         int      `json:"return_time_in_days"`
	TenantSatisfactionRating int      `json:"tenant_satisfaction_rating"`
}

func (r *DepositReturnRequest) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return dErrors.New(dErrors.CodeValidation, "property_id is required")
	}
	return nil
}

func (r *DepositReturnRequest) record() models.DepositReturnRecord {
	return models.DepositReturnRecord{
		TenantAddress:            models.NormalizeAddress(r.TenantAddress),
		PropertyID:               strings.TrimSpace(r.PropertyID),
		DepositAmount:            models.Amount(r.DepositAmount),
		ReturnedAmount:           models.Amount(r.ReturnedAmount),
		DeductionReasons:         bstrings.DedupeAndTrim(r.DeductionReasons),
		ReturnTimeInDays:         r.ReturnTimeInDays,
		TenantSatisfactionRating: r.TenantSatisfactionRating,
	}
}

// LicenseRequest is the body of PUT /profiles/{address}/license.
type LicenseRequest struct {
	Status string `json:"status"`

	status models.LicenseStatus
}

func (r *LicenseRequest) Validate() error {
	status, err := models.ParseLicenseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}
