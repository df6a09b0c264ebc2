package audit

import (
	"context"
	"time"
)

// EventCategory classifies ledger events by their primary purpose.
type EventCategory string

const (
	// CategoryLedger covers changes to a trust profile or a rental agreement.
	// These are the record of what the ledger did and must not be sampled.
	CategoryLedger EventCategory = "ledger"

	// CategoryOperations covers events useful for debugging: clamping,
	// degraded agreement writes, projection refreshes. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Action names one kind of ledger event.
type Action string

const (
	// Profile events
	ActionProfileInitialized Action = "profile_initialized"
	ActionRoleAdded          Action = "role_added"
	ActionPaymentRecorded    Action = "payment_recorded"
	ActionTenancyRecorded    Action = "tenancy_recorded"
	ActionScoreAdjusted      Action = "score_adjusted"
	ActionIncidentRecorded   Action = "incident_recorded"
	ActionPropertyRecorded   Action = "property_recorded"
	ActionDepositReturned    Action = "deposit_returned"
	ActionLicenseChanged     Action = "license_changed"
	ActionRentalApplied      Action = "rental_applied"
	ActionRentalEnded        Action = "rental_ended"
	ActionRentalRemoved      Action = "rental_removed"

	// Agreement events
	ActionAgreementProposed   Action = "agreement_proposed"
	ActionAgreementActivated  Action = "agreement_activated"
	ActionAgreementReconciled Action = "agreement_reconciled"
	ActionAgreementTerminated Action = "agreement_terminated"
	ActionAgreementCancelled  Action = "agreement_cancelled"

	// Operational events
	ActionScoreClamped      Action = "score_clamped"
	ActionSaveConflict      Action = "save_conflict"
	ActionAgreementDegraded Action = "agreement_degraded"
	ActionProjectionRefresh Action = "projection_refreshed"
	ActionProjectionFailed  Action = "projection_failed"
)

var actionCategories = map[Action]EventCategory{
	ActionScoreClamped:      CategoryOperations,
	ActionSaveConflict:      CategoryOperations,
	ActionAgreementDegraded: CategoryOperations,
	ActionProjectionRefresh: CategoryOperations,
	ActionProjectionFailed:  CategoryOperations,
}

// Category returns the EventCategory for the action.
// Unknown and profile/agreement actions are ledger events.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryLedger
}

// Event is emitted from domain logic to capture one ledger action. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Address is the wallet whose profile the event concerns.
	Address string
	Action  Action
	// Subject identifies what was acted on: an agreement hash, a property id,
	// a score dimension.
	Subject   string
	Detail    string
	RequestID string
	// Actor is the authenticated caller when different from Address.
	Actor string
}

// Store persists ledger events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted events for one address in append order.
type Reader interface {
	ListByAddress(ctx context.Context, address string) ([]Event, error)
}
