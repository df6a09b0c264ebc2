package models

import (
	"strings"
	"time"

	dErrors "briq/pkg/domain-errors"
)

// UserType is the tagged variant of a profile: which sub-records it owns.
type UserType string

const (
	UserTypeTenant   UserType = "tenant"
	UserTypeLandlord UserType = "landlord"
	UserTypeBoth     UserType = "both"
)

// ParseUserType validates a user type name.
func ParseUserType(s string) (UserType, error) {
	switch u := UserType(s); u {
	case UserTypeTenant, UserTypeLandlord, UserTypeBoth:
		return u, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown user type %q", s)
}

// Has reports whether the variant carries the given side.
func (u UserType) Has(side Side) bool {
	switch u {
	case UserTypeBoth:
		return true
	case UserTypeTenant:
		return side == SideTenant
	case UserTypeLandlord:
		return side == SideLandlord
	}
	return false
}

// ForSide is the variant a profile gets when it is created for one side.
func ForSide(side Side) UserType {
	if side == SideLandlord {
		return UserTypeLandlord
	}
	return UserTypeTenant
}

// LicenseStatus of a landlord's rental license.
type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "active"
	LicenseExpired   LicenseStatus = "expired"
	LicenseSuspended LicenseStatus = "suspended"
)

// ParseLicenseStatus validates a license status.
func ParseLicenseStatus(s string) (LicenseStatus, error) {
	switch l := LicenseStatus(s); l {
	case LicenseActive, LicenseExpired, LicenseSuspended:
		return l, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown license status %q", s)
}

// Starting values for a freshly initialized profile.
const (
	DefaultTenantSubScore     = 85
	DefaultTenantTrustScore   = 700
	DefaultLandlordSubScore   = 85
	DefaultLegalCompliance    = 90
	DefaultLandlordTrustScore = 85
	DefaultOnTimePaymentPct   = 100
)

// TenantRecord is the tenant side of a profile.
type TenantRecord struct {
	PaymentHistory []PaymentRecord
	TenancyHistory []TenancyRecord

	MaintenanceScore   int
	CommunicationScore int
	ComplianceScore    int

	NoiseComplaints int
	DamageReports   int
	Evictions       int
	Disputes        int

	TotalRentPaid           Amount
	OnTimePaymentPercentage int
	AverageLateDays         int

	// TrustScore is derived; only the recorder writes it.
	TrustScore  int
	LastUpdated time.Time
}

// LandlordRecord is the landlord side of a profile.
type LandlordRecord struct {
	PropertiesManaged    []PropertyManagementRecord
	DepositReturnHistory []DepositReturnRecord

	CommunicationScore     int
	FairnessScore          int
	ProfessionalismScore   int
	DisputeResolutionScore int
	LegalComplianceScore   int

	UnauthorizedEntryReports int
	DiscriminationComplaints int
	LicenseStatus            LicenseStatus

	// TrustScore is derived; only the recorder writes it.
	TrustScore  int
	LastUpdated time.Time
}

// UpsertProperty replaces the record for the same property or appends it.
func (l *LandlordRecord) UpsertProperty(rec PropertyManagementRecord) {
	for i := range l.PropertiesManaged {
		if l.PropertiesManaged[i].PropertyID == rec.PropertyID {
			l.PropertiesManaged[i] = rec
			return
		}
	}
	l.PropertiesManaged = append(l.PropertiesManaged, rec)
}

// Profile is the persisted trust record for one wallet address.
//
// Invariants:
//   - Address is lower-cased
//   - Tenant is non-nil iff UserType has the tenant side, same for Landlord
//   - score fields are a pure function of the other aggregate fields, except the
//     seeded starting score of a profile nothing has been recorded against yet
//   - RentalHistory holds at most one entry per agreement hash
type Profile struct {
	Address       string
	UserType      UserType
	Tenant        *TenantRecord
	Landlord      *LandlordRecord
	CurrentRental *RentalEntry
	RentalHistory []RentalEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Revision is maintained by the profile store for optimistic writes.
	Revision uint64
}

// NormalizeAddress is the canonical (lower-cased, trimmed) form of an address.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// NewProfile builds a profile with default sub-records for the variant.
func NewProfile(address string, userType UserType, now time.Time) (*Profile, error) {
	address = NormalizeAddress(address)
	if address == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile address cannot be empty")
	}
	p := &Profile{
		Address:   address,
		UserType:  userType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch userType {
	case UserTypeTenant:
		p.Tenant = NewTenantRecord(now)
	case UserTypeLandlord:
		p.Landlord = NewLandlordRecord(now)
	case UserTypeBoth:
		p.Tenant = NewTenantRecord(now)
		p.Landlord = NewLandlordRecord(now)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown user type %q", userType)
	}
	return p, nil
}

// NewTenantRecord returns the starting tenant side.
func NewTenantRecord(now time.Time) *TenantRecord {
	return &TenantRecord{
		PaymentHistory:          []PaymentRecord{},
		TenancyHistory:          []TenancyRecord{},
		MaintenanceScore:        DefaultTenantSubScore,
		CommunicationScore:      DefaultTenantSubScore,
		ComplianceScore:         DefaultTenantSubScore,
		TotalRentPaid:           ZeroAmount,
		OnTimePaymentPercentage: DefaultOnTimePaymentPct,
		TrustScore:              DefaultTenantTrustScore,
		LastUpdated:             now,
	}
}

// NewLandlordRecord returns the starting landlord side.
func NewLandlordRecord(now time.Time) *LandlordRecord {
	return &LandlordRecord{
		PropertiesManaged:      []PropertyManagementRecord{},
		DepositReturnHistory:   []DepositReturnRecord{},
		CommunicationScore:     DefaultLandlordSubScore,
		FairnessScore:          DefaultLandlordSubScore,
		ProfessionalismScore:   DefaultLandlordSubScore,
		DisputeResolutionScore: DefaultLandlordSubScore,
		LegalComplianceScore:   DefaultLegalCompliance,
		LicenseStatus:          LicenseActive,
		TrustScore:             DefaultLandlordTrustScore,
		LastUpdated:            now,
	}
}

// ReasonWrongUserType discriminates WrongUserType invariant errors.
const ReasonWrongUserType = "wrong_user_type"

// TenantSide returns the tenant sub-record or a WrongUserType error.
func (p *Profile) TenantSide() (*TenantRecord, error) {
	if !p.UserType.Has(SideTenant) || p.Tenant == nil {
		return nil, dErrors.WithReason(dErrors.CodeInvariantViolation, ReasonWrongUserType,
			"profile "+p.Address+" has no tenant record (user type "+string(p.UserType)+")")
	}
	return p.Tenant, nil
}

// LandlordSide returns the landlord sub-record or a WrongUserType error.
func (p *Profile) LandlordSide() (*LandlordRecord, error) {
	if !p.UserType.Has(SideLandlord) || p.Landlord == nil {
		return nil, dErrors.WithReason(dErrors.CodeInvariantViolation, ReasonWrongUserType,
			"profile "+p.Address+" has no landlord record (user type "+string(p.UserType)+")")
	}
	return p.Landlord, nil
}

// AddRole attaches the missing side, upgrading the variant to both. It reports
// whether anything changed.
func (p *Profile) AddRole(side Side, now time.Time) bool {
	if p.UserType.Has(side) {
		return false
	}
	switch side {
	case SideTenant:
		p.Tenant = NewTenantRecord(now)
	case SideLandlord:
		p.Landlord = NewLandlordRecord(now)
	}
	p.UserType = UserTypeBoth
	return true
}

// FindRental returns the index of the rental entry with the hash, or -1.
func (p *Profile) FindRental(agreementHash string) int {
	for i := range p.RentalHistory {
		if p.RentalHistory[i].AgreementHash == agreementHash {
			return i
		}
	}
	return -1
}

// StoredTime normalizes t to the precision profiles are persisted with (UTC,
// milliseconds) so a saved profile reads back equal.
func StoredTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}
