package models

// SideSummary is the headline view of one side of a profile.
type SideSummary struct {
	TrustScore int
	MaxScore   int
	Label      string
	// Records is the payment count for tenants and the properties count for landlords.
	Records int
}

// Summary is the trust overview of a profile. A nil side is absent.
type Summary struct {
	Address       string
	UserType      UserType
	Tenant        *SideSummary
	Landlord      *SideSummary
	CurrentRental *RentalEntry
	RentalCount   int
}
