package profile

import (
	"encoding/json"
	"fmt"
	"time"

	"briq/internal/trust/models"
	"briq/pkg/platform/sentinel"
)

// SchemaVersion tags every persisted profile. Records carrying any other
// version are treated as absent and never migrated in place.
const SchemaVersion = "1.0"

// KeyPrefix namespaces profile keys in shared key-value media.
const KeyPrefix = "briq_trust_data_"

// ErrVersionMismatch is returned for records with a missing or foreign schema
// version. It matches sentinel.ErrNotFound.
var ErrVersionMismatch = fmt.Errorf("%w: profile schema version mismatch", sentinel.ErrNotFound)

// Key derives the storage key for an address. Case variants share one key.
func Key(address string) string {
	return KeyPrefix + models.NormalizeAddress(address)
}

type envelope struct {
	Version   string       `json:"version"`
	TrustData *trustDataV1 `json:"trustData"`
}

type trustDataV1 struct {
	UserAddress   string          `json:"userAddress"`
	UserType      string          `json:"userType"`
	TenantData    *tenantDataV1   `json:"tenantData,omitempty"`
	LandlordData  *landlordDataV1 `json:"landlordData,omitempty"`
	CreatedAt     int64           `json:"createdAt"`
	UpdatedAt     int64           `json:"updatedAt"`
	CurrentRental *rentalV1       `json:"currentRental,omitempty"`
	RentalHistory []rentalV1      `json:"rentalHistory,omitempty"`
}

type paymentV1 struct {
	Amount          string `json:"amount"`
	DueDate         int64  `json:"dueDate"`
	PaidDate        int64  `json:"paidDate"`
	Status          string `json:"status"`
	LateDays        int    `json:"lateDays"`
	PropertyID      string `json:"propertyId"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

type tenancyV1 struct {
	PropertyID       string `json:"propertyId"`
	LandlordAddress  string `json:"landlordAddress"`
	StartDate        int64  `json:"startDate"`
	EndDate          int64  `json:"endDate"`
	MonthlyRent      string `json:"monthlyRent"`
	Deposit          string `json:"deposit"`
	EarlyTermination bool   `json:"earlyTermination"`
	ReasonForLeaving string `json:"reasonForLeaving"`
	LandlordRating   int    `json:"landlordRating,omitempty"`
	TenantRating     int    `json:"tenantRating,omitempty"`
}

type tenantDataV1 struct {
	MonthlyPaymentRecords    []paymentV1 `json:"monthlyPaymentRecords"`
	PreviousTenancies        []tenancyV1 `json:"previousTenancies"`
	PropertyMaintenanceScore int         `json:"propertyMaintenanceScore"`
	CommunicationScore       int         `json:"communicationScore"`
	LeaseComplianceScore     int         `json:"leaseComplianceScore"`
	NoiseComplaints          int         `json:"noiseComplaints"`
	DamageReports            int         `json:"damageReports"`
	TotalRentPaid            string      `json:"totalRentPaid"`
	OnTimePaymentPercentage  int         `json:"onTimePaymentPercentage"`
	AverageLateDays          int         `json:"averageLateDays"`
	EvictionHistory          int         `json:"evictionHistory"`
	DisputeHistory           int         `json:"disputeHistory"`
	TrustScore               int         `json:"trustScore"`
	LastUpdated              int64       `json:"lastUpdated"`
}

type propertyV1 struct {
	PropertyID                string  `json:"propertyId"`
	MaintenanceResponseTime   float64 `json:"maintenanceResponseTime"`
	MaintenanceCompletionTime float64 `json:"maintenanceCompletionTime"`
	PropertyConditionScore    int     `json:"propertyConditionScore"`
}

type depositReturnV1 struct {
	TenantAddress            string   `json:"tenantAddress"`
	PropertyID               string   `json:"propertyId"`
	DepositAmount            string   `json:"depositAmount"`
	ReturnedAmount           string   `json:"returnedAmount"`
	DeductionReasons         []string `json:"deductionReasons"`
	ReturnTimeInDays         int      `json:"returnTimeInDays"`
	TenantSatisfactionRating int      `json:"tenantSatisfactionRating,omitempty"`
}

type landlordDataV1 struct {
	PropertiesManaged        []propertyV1      `json:"propertiesManaged"`
	DepositReturnHistory     []depositReturnV1 `json:"depositReturnHistory"`
	CommunicationScore       int               `json:"communicationScore"`
	FairnessScore            int               `json:"fairnessScore"`
	ProfessionalismScore     int               `json:"professionalismScore"`
	DisputeResolutionScore   int               `json:"disputeResolutionScore"`
	LegalComplianceScore     int               `json:"legalComplianceScore"`
	UnauthorizedEntryReports int               `json:"unauthorizedEntryReports"`
	DiscriminationComplaints int               `json:"discriminationComplaints"`
	LicenseStatus            string            `json:"licenseStatus"`
	TrustScore               int               `json:"trustScore"`
	LastUpdated              int64             `json:"lastUpdated"`
}

type rentalV1 struct {
	AgreementHash   string `json:"agreementHash"`
	PropertyID      string `json:"propertyId"`
	LandlordAddress string `json:"landlordAddress,omitempty"`
	TenantAddress   string `json:"tenantAddress,omitempty"`
	StartDate       int64  `json:"startDate"`
	MonthlyRent     string `json:"monthlyRent"`
	Deposit         string `json:"deposit"`
	Status          string `json:"status,omitempty"`
	Signature       string `json:"signature"`
	EndedAt         int64  `json:"endedAt,omitempty"`
}

// Encode serializes a profile into the versioned record format. Timestamps are
// stored as Unix milliseconds; sub-millisecond precision is dropped.
func Encode(p *models.Profile) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode profile: nil profile")
	}
	td := &trustDataV1{
		UserAddress: p.Address,
		UserType:    string(p.UserType),
		CreatedAt:   millis(p.CreatedAt),
		UpdatedAt:   millis(p.UpdatedAt),
	}
	if p.Tenant != nil {
		td.TenantData = encodeTenant(p.Tenant)
	}
	if p.Landlord != nil {
		td.LandlordData = encodeLandlord(p.Landlord)
	}
	if p.CurrentRental != nil {
		r := encodeRental(*p.CurrentRental)
		td.CurrentRental = &r
	}
	for _, r := range p.RentalHistory {
		td.RentalHistory = append(td.RentalHistory, encodeRental(r))
	}
	data, err := json.Marshal(envelope{Version: SchemaVersion, TrustData: td})
	if err != nil {
		return nil, fmt.Errorf("encode profile %s: %w", p.Address, err)
	}
	return data, nil
}

// Decode parses a stored record. A mismatched version yields ErrVersionMismatch;
// malformed JSON yields a plain error so callers can tell corruption from absence.
func Decode(data []byte) (*models.Profile, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if env.Version != SchemaVersion || env.TrustData == nil {
		return nil, ErrVersionMismatch
	}
	td := env.TrustData
	p := &models.Profile{
		Address:   models.NormalizeAddress(td.UserAddress),
		UserType:  models.UserType(td.UserType),
		CreatedAt: fromMillis(td.CreatedAt),
		UpdatedAt: fromMillis(td.UpdatedAt),
	}
	if td.TenantData != nil {
		p.Tenant = decodeTenant(td.TenantData)
	}
	if td.LandlordData != nil {
		p.Landlord = decodeLandlord(td.LandlordData)
	}
	if td.CurrentRental != nil {
		r := decodeRental(*td.CurrentRental)
		p.CurrentRental = &r
	}
	for _, r := range td.RentalHistory {
		p.RentalHistory = append(p.RentalHistory, decodeRental(r))
	}
	return p, nil
}

func encodeTenant(t *models.TenantRecord) *tenantDataV1 {
	out := &tenantDataV1{
		MonthlyPaymentRecords:    make([]paymentV1, 0, len(t.PaymentHistory)),
		PreviousTenancies:        make([]tenancyV1, 0, len(t.TenancyHistory)),
		PropertyMaintenanceScore: t.MaintenanceScore,
		CommunicationScore:       t.CommunicationScore,
		LeaseComplianceScore:     t.ComplianceScore,
		NoiseComplaints:          t.NoiseComplaints,
		DamageReports:            t.DamageReports,
		TotalRentPaid:            t.TotalRentPaid.String(),
		OnTimePaymentPercentage:  t.OnTimePaymentPercentage,
		AverageLateDays:          t.AverageLateDays,
		EvictionHistory:          t.Evictions,
		DisputeHistory:           t.Disputes,
		TrustScore:               t.TrustScore,
		LastUpdated:              millis(t.LastUpdated),
	}
	for _, p := range t.PaymentHistory {
		out.MonthlyPaymentRecords = append(out.MonthlyPaymentRecords, paymentV1{
			Amount:          p.Amount.String(),
			DueDate:         millis(p.DueDate),
			PaidDate:        millis(p.PaidDate),
			Status:          string(p.Status),
			LateDays:        p.LateDays,
			PropertyID:      p.PropertyID,
			TransactionHash: p.ProofReference,
		})
	}
	for _, r := range t.TenancyHistory {
		out.PreviousTenancies = append(out.PreviousTenancies, tenancyV1{
			PropertyID:       r.PropertyID,
			LandlordAddress:  r.LandlordAddress,
			StartDate:        millis(r.StartDate),
			EndDate:          millis(r.EndDate),
			MonthlyRent:      r.MonthlyRent.String(),
			Deposit:          r.Deposit.String(),
			EarlyTermination: r.EarlyTermination,
			ReasonForLeaving: string(r.ReasonForLeaving),
			LandlordRating:   r.LandlordRating,
			TenantRating:     r.TenantRating,
		})
	}
	return out
}

func decodeTenant(in *tenantDataV1) *models.TenantRecord {
	t := &models.TenantRecord{
		PaymentHistory:          make([]models.PaymentRecord, 0, len(in.MonthlyPaymentRecords)),
		TenancyHistory:          make([]models.TenancyRecord, 0, len(in.PreviousTenancies)),
		MaintenanceScore:        in.PropertyMaintenanceScore,
		CommunicationScore:      in.CommunicationScore,
		ComplianceScore:         in.LeaseComplianceScore,
		NoiseComplaints:         in.NoiseComplaints,
		DamageReports:           in.DamageReports,
		Evictions:               in.EvictionHistory,
		Disputes:                in.DisputeHistory,
		TotalRentPaid:           models.Amount(in.TotalRentPaid),
		OnTimePaymentPercentage: in.OnTimePaymentPercentage,
		AverageLateDays:         in.AverageLateDays,
		TrustScore:              in.TrustScore,
		LastUpdated:             fromMillis(in.LastUpdated),
	}
	if t.TotalRentPaid == "" {
		t.TotalRentPaid = models.ZeroAmount
	}
	for _, p := range in.MonthlyPaymentRecords {
		t.PaymentHistory = append(t.PaymentHistory, models.PaymentRecord{
			Amount:         models.Amount(p.Amount),
			DueDate:        fromMillis(p.DueDate),
			PaidDate:       fromMillis(p.PaidDate),
			Status:         models.PaymentStatus(p.Status),
			LateDays:       p.LateDays,
			PropertyID:     p.PropertyID,
			ProofReference: p.TransactionHash,
		})
	}
	for _, r := range in.PreviousTenancies {
		t.TenancyHistory = append(t.TenancyHistory, models.TenancyRecord{
			PropertyID:       r.PropertyID,
			LandlordAddress:  r.LandlordAddress,
			StartDate:        fromMillis(r.StartDate),
			EndDate:          fromMillis(r.EndDate),
			MonthlyRent:      models.Amount(r.MonthlyRent),
			Deposit:          models.Amount(r.Deposit),
			EarlyTermination: r.EarlyTermination,
			ReasonForLeaving: models.LeaveReason(r.ReasonForLeaving),
			LandlordRating:   r.LandlordRating,
			TenantRating:     r.TenantRating,
		})
	}
	return t
}

func encodeLandlord(l *models.LandlordRecord) *landlordDataV1 {
	out := &landlordDataV1{
		PropertiesManaged:        make([]propertyV1, 0, len(l.PropertiesManaged)),
		DepositReturnHistory:     make([]depositReturnV1, 0, len(l.DepositReturnHistory)),
		CommunicationScore:       l.CommunicationScore,
		FairnessScore:            l.FairnessScore,
		ProfessionalismScore:     l.ProfessionalismScore,
		DisputeResolutionScore:   l.DisputeResolutionScore,
		LegalComplianceScore:     l.LegalComplianceScore,
		UnauthorizedEntryReports: l.UnauthorizedEntryReports,
		DiscriminationComplaints: l.DiscriminationComplaints,
		LicenseStatus:            string(l.LicenseStatus),
		TrustScore:               l.TrustScore,
		LastUpdated:              millis(l.LastUpdated),
	}
	for _, p := range l.PropertiesManaged {
		out.PropertiesManaged = append(out.PropertiesManaged, propertyV1{
			PropertyID:                p.PropertyID,
			MaintenanceResponseTime:   p.MaintenanceResponseHours,
			MaintenanceCompletionTime: p.MaintenanceCompletionHours,
			PropertyConditionScore:    p.PropertyConditionScore,
		})
	}
	for _, d := range l.DepositReturnHistory {
		out.DepositReturnHistory = append(out.DepositReturnHistory, depositReturnV1{
			TenantAddress:            d.TenantAddress,
			PropertyID:               d.PropertyID,
			DepositAmount:            d.DepositAmount.String(),
			ReturnedAmount:           d.ReturnedAmount.String(),
			DeductionReasons:         d.DeductionReasons,
			ReturnTimeInDays:         d.ReturnTimeInDays,
			TenantSatisfactionRating: d.TenantSatisfactionRating,
		})
	}
	return out
}

func decodeLandlord(in *landlordDataV1) *models.LandlordRecord {
	l := &models.LandlordRecord{
		PropertiesManaged:        make([]models.PropertyManagementRecord, 0, len(in.PropertiesManaged)),
		DepositReturnHistory:     make([]models.DepositReturnRecord, 0, len(in.DepositReturnHistory)),
		CommunicationScore:       in.CommunicationScore,
		FairnessScore:            in.FairnessScore,
		ProfessionalismScore:     in.ProfessionalismScore,
		DisputeResolutionScore:   in.DisputeResolutionScore,
		LegalComplianceScore:     in.LegalComplianceScore,
		UnauthorizedEntryReports: in.UnauthorizedEntryReports,
		DiscriminationComplaints: in.DiscriminationComplaints,
		LicenseStatus:            models.LicenseStatus(in.LicenseStatus),
		TrustScore:               in.TrustScore,
		LastUpdated:              fromMillis(in.LastUpdated),
	}
	for _, p := range in.PropertiesManaged {
		l.PropertiesManaged = append(l.PropertiesManaged, models.PropertyManagementRecord{
			PropertyID:                 p.PropertyID,
			MaintenanceResponseHours:   p.MaintenanceResponseTime,
			MaintenanceCompletionHours: p.MaintenanceCompletionTime,
			PropertyConditionScore:     p.PropertyConditionScore,
		})
	}
	for _, d := range in.DepositReturnHistory {
		l.DepositReturnHistory = append(l.DepositReturnHistory, models.DepositReturnRecord{
			TenantAddress:            d.TenantAddress,
			PropertyID:               d.PropertyID,
			DepositAmount:            models.Amount(d.DepositAmount),
			ReturnedAmount:           models.Amount(d.ReturnedAmount),
			DeductionReasons:         d.DeductionReasons,
			ReturnTimeInDays:         d.ReturnTimeInDays,
			TenantSatisfactionRating: d.TenantSatisfactionRating,
		})
	}
	return l
}

func encodeRental(r models.RentalEntry) rentalV1 {
	return rentalV1{
		AgreementHash:   r.AgreementHash,
		PropertyID:      r.PropertyID,
		LandlordAddress: r.LandlordAddress,
		TenantAddress:   r.TenantAddress,
		StartDate:       millis(r.StartDate),
		MonthlyRent:     r.MonthlyRent.String(),
		Deposit:         r.Deposit.String(),
		Status:          string(r.Status),
		Signature:       r.Signature,
		EndedAt:         millis(r.EndedAt),
	}
}

func decodeRental(r rentalV1) models.RentalEntry {
	return models.RentalEntry{
		AgreementHash:   r.AgreementHash,
		PropertyID:      r.PropertyID,
		LandlordAddress: r.LandlordAddress,
		TenantAddress:   r.TenantAddress,
		StartDate:       fromMillis(r.StartDate),
		MonthlyRent:     models.Amount(r.MonthlyRent),
		Deposit:         models.Amount(r.Deposit),
		Status:          models.RentalStatus(r.Status),
		Signature:       r.Signature,
		EndedAt:         fromMillis(r.EndedAt),
	}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
