package models

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	trust "briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
)

// Status is the saga state of an agreement in the registry.
//
//	pending -> active -> ended
//	pending -> cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

// Holds reports whether an agreement in this state occupies its property.
func (s Status) Holds() bool {
	return s == StatusPending || s == StatusActive
}

// ISO8601 is the start date layout used in hashes and signature messages.
const ISO8601 = "2006-01-02T15:04:05.000Z"

const hashDomain = "briq-rental-v1"

// Terms are the signed fields of a rental agreement.
type Terms struct {
	PropertyID  string
	Landlord    string
	Tenant      string
	MonthlyRent trust.Amount
	Deposit     trust.Amount
	StartDate   time.Time
	// Nonce makes two otherwise identical agreements hash differently.
	Nonce string
}

// NewTerms normalizes and validates terms, assigning a nonce when missing.
func NewTerms(t Terms) (Terms, error) {
	t.PropertyID = strings.TrimSpace(t.PropertyID)
	t.Landlord = trust.NormalizeAddress(t.Landlord)
	t.Tenant = trust.NormalizeAddress(t.Tenant)
	if t.PropertyID == "" {
		return Terms{}, dErrors.New(dErrors.CodeValidation, "property id is required")
	}
	if t.Landlord == "" || t.Tenant == "" {
		return Terms{}, dErrors.New(dErrors.CodeValidation, "landlord and tenant addresses are required")
	}
	if t.Landlord == t.Tenant {
		return Terms{}, dErrors.New(dErrors.CodeValidation, "landlord and tenant must differ")
	}
	var err error
	if t.MonthlyRent, err = trust.ParseAmount(string(t.MonthlyRent)); err != nil {
		return Terms{}, err
	}
	if t.Deposit, err = trust.ParseAmount(string(t.Deposit)); err != nil {
		return Terms{}, err
	}
	if t.StartDate.IsZero() {
		return Terms{}, dErrors.New(dErrors.CodeValidation, "start date is required")
	}
	t.StartDate = trust.StoredTime(t.StartDate)
	if t.Nonce == "" {
		t.Nonce = uuid.NewString()
	}
	return t, nil
}

// Hash is the deterministic agreement hash: Keccak-256 over the canonical
// terms, hex encoded with a 0x prefix.
func (t Terms) Hash() string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(strings.Join([]string{
		hashDomain,
		t.PropertyID,
		t.Landlord,
		t.Tenant,
		t.MonthlyRent.String(),
		t.Deposit.String(),
		t.StartDate.UTC().Format(ISO8601),
		t.Nonce,
	}, "|")))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// SignatureMessage renders the text the tenant signs. unit is the currency
// unit amounts are expressed in.
func SignatureMessage(t Terms, agreementHash, unit string) string {
	var b strings.Builder
	b.WriteString("Rental Agreement Signature:\n\n")
	b.WriteString("Property ID: " + t.PropertyID + "\n")
	b.WriteString("Landlord: " + t.Landlord + "\n")
	b.WriteString("Tenant: " + t.Tenant + "\n")
	b.WriteString("Monthly Rent: " + t.MonthlyRent.String() + " " + unit + "\n")
	b.WriteString("Deposit: " + t.Deposit.String() + " " + unit + "\n")
	b.WriteString("Start Date: " + t.StartDate.UTC().Format(ISO8601) + "\n")
	b.WriteString("Agreement Hash: " + agreementHash + "\n\n")
	b.WriteString("By signing this message, I agree to rent this property under the terms specified above.")
	return b.String()
}

// Agreement is the registry record driving the two-ledger saga.
type Agreement struct {
	Terms
	Hash      string
	Signature string
	Status    Status

	// Per-ledger progress of the saga.
	LandlordApplied bool
	TenantApplied   bool
	Attempts        int
	LastError       string

	EndReason trust.LeaveReason

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ActivatedAt time.Time
	EndedAt     time.Time
}

// NewAgreement builds a pending agreement from validated terms.
func NewAgreement(t Terms, agreementHash, signature string, now time.Time) (*Agreement, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "signature is required")
	}
	if agreementHash != t.Hash() {
		return nil, dErrors.New(dErrors.CodeValidation, "agreement hash does not match terms")
	}
	return &Agreement{
		Terms:     t,
		Hash:      agreementHash,
		Signature: signature,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// FullyApplied reports whether both ledgers hold the agreement.
func (a *Agreement) FullyApplied() bool {
	return a.LandlordApplied && a.TenantApplied
}

// Entry is the ledger copy of the agreement for a profile.
func (a *Agreement) Entry() trust.RentalEntry {
	return trust.RentalEntry{
		AgreementHash:   a.Hash,
		PropertyID:      a.PropertyID,
		LandlordAddress: a.Landlord,
		TenantAddress:   a.Tenant,
		StartDate:       a.StartDate,
		MonthlyRent:     a.MonthlyRent,
		Deposit:         a.Deposit,
		Status:          trust.RentalActive,
		Signature:       a.Signature,
	}
}
