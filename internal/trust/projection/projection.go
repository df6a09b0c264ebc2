// Package projection derives the public display view of a trust profile: an
// ordered trait list and the metadata document attached to the user's
// profile token.
package projection

import (
	"strconv"

	"briq/internal/trust/models"
)

// Platform is the value of the leading "Platform" trait.
const Platform = "Briq"

const lastUpdatedLayout = "2006-01-02T15:04:05.000Z"

// Trait names, in projection order.
const (
	TraitPlatform           = "Platform"
	TraitUserType           = "User Type"
	TraitAddress            = "Address"
	TraitTenantTrustScore   = "Tenant Trust Score"
	TraitOnTimePayment      = "On-Time Payment %"
	TraitTotalPayments      = "Total Payments"
	TraitPropertyCare       = "Property Care Score"
	TraitLandlordTrustScore = "Landlord Trust Score"
	TraitPropertiesManaged  = "Properties Managed"
	TraitCommunication      = "Communication Score"
	TraitFairness           = "Fairness Score"
	TraitLastUpdated        = "Last Updated"
)

// Trait is one display attribute.
type Trait struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Project maps a profile to its ordered trait list. It is a pure function:
// equal profiles give equal lists. Absent values project as "0".
func Project(p *models.Profile) []Trait {
	if p == nil {
		return nil
	}
	traits := make([]Trait, 0, 12)
	traits = append(traits,
		Trait{TraitPlatform, Platform},
		Trait{TraitUserType, string(p.UserType)},
		Trait{TraitAddress, DisplayAddress(p.Address)},
	)
	if t := p.Tenant; t != nil {
		traits = append(traits,
			Trait{TraitTenantTrustScore, strconv.Itoa(t.TrustScore)},
			Trait{TraitOnTimePayment, strconv.Itoa(t.OnTimePaymentPercentage)},
			Trait{TraitTotalPayments, strconv.Itoa(len(t.PaymentHistory))},
			Trait{TraitPropertyCare, strconv.Itoa(t.MaintenanceScore)},
		)
	}
	if l := p.Landlord; l != nil {
		traits = append(traits,
			Trait{TraitLandlordTrustScore, strconv.Itoa(l.TrustScore)},
			Trait{TraitPropertiesManaged, strconv.Itoa(len(l.PropertiesManaged))},
			Trait{TraitCommunication, strconv.Itoa(l.CommunicationScore)},
			Trait{TraitFairness, strconv.Itoa(l.FairnessScore)},
		)
	}
	lastUpdated := "0"
	if !p.UpdatedAt.IsZero() {
		lastUpdated = p.UpdatedAt.UTC().Format(lastUpdatedLayout)
	}
	return append(traits, Trait{TraitLastUpdated, lastUpdated})
}

// DisplayAddress renders the first six and last four characters of an
// address around "...". Short addresses overlap rather than being returned
// whole, so every address projects in the same shape.
func DisplayAddress(address string) string {
	return address[:min(6, len(address))] + "..." + address[max(0, len(address)-4):]
}
