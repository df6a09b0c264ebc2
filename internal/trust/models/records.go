package models

import "time"

// PaymentStatus classifies a rent payment against its due date.
type PaymentStatus string

const (
	PaymentOnTime PaymentStatus = "on-time"
	PaymentLate   PaymentStatus = "late"
	PaymentMissed PaymentStatus = "missed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentOnTime, PaymentLate, PaymentMissed:
		return true
	}
	return false
}

// PaymentRecord is one rent payment. Immutable once appended to a history.
// PaidDate is the zero time for missed payments.
type PaymentRecord struct {
	Amount         Amount
	DueDate        time.Time
	PaidDate       time.Time
	Status         PaymentStatus
	LateDays       int
	PropertyID     string
	ProofReference string
}

// LeaveReason records why a tenancy ended.
type LeaveReason string

const (
	LeaveLeaseExpired LeaveReason = "lease-expired"
	LeaveEvicted      LeaveReason = "evicted"
	LeaveVoluntary    LeaveReason = "voluntary"
	LeaveBreach       LeaveReason = "breach"
)

func (r LeaveReason) IsValid() bool {
	switch r {
	case LeaveLeaseExpired, LeaveEvicted, LeaveVoluntary, LeaveBreach:
		return true
	}
	return false
}

// TenancyRecord is a completed tenancy. Ratings are 1-5 stars, 0 when not given.
type TenancyRecord struct {
	PropertyID       string
	LandlordAddress  string
	StartDate        time.Time
	EndDate          time.Time
	MonthlyRent      Amount
	Deposit          Amount
	EarlyTermination bool
	ReasonForLeaving LeaveReason
	LandlordRating   int
	TenantRating     int
}

// PropertyManagementRecord summarizes how a landlord runs one property.
// Times are average hours.
type PropertyManagementRecord struct {
	PropertyID                 string
	MaintenanceResponseHours   float64
	MaintenanceCompletionHours float64
	PropertyConditionScore     int
}

// DepositReturnRecord is one deposit settlement at the end of a tenancy.
type DepositReturnRecord struct {
	TenantAddress            string
	PropertyID               string
	DepositAmount            Amount
	ReturnedAmount           Amount
	DeductionReasons         []string
	ReturnTimeInDays         int
	TenantSatisfactionRating int
}

// RentalStatus is the lifecycle of a rental entry inside a profile.
type RentalStatus string

const (
	RentalActive RentalStatus = "active"
	RentalEnded  RentalStatus = "ended"
)

// RentalEntry is one party's copy of a signed rental agreement. The agreement
// hash is the join key between the landlord's and the tenant's copies.
type RentalEntry struct {
	AgreementHash   string
	PropertyID      string
	LandlordAddress string
	TenantAddress   string
	StartDate       time.Time
	MonthlyRent     Amount
	Deposit         Amount
	Status          RentalStatus
	Signature       string
	EndedAt         time.Time
}

// Termination describes how an active rental ended.
type Termination struct {
	Reason           LeaveReason
	EarlyTermination bool
}
