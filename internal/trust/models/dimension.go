package models

import (
	dErrors "briq/pkg/domain-errors"
)

// Side names which sub-record of a profile an operation touches.
type Side string

const (
	SideTenant   Side = "tenant"
	SideLandlord Side = "landlord"
)

// Dimension is a behavioral sub-score that callers may set directly.
type Dimension string

const (
	DimensionMaintenance   Dimension = "maintenance"
	DimensionCommunication Dimension = "communication"
	DimensionCompliance    Dimension = "compliance"

	DimensionLandlordCommunication Dimension = "landlord_communication"
	DimensionFairness              Dimension = "fairness"
	DimensionProfessionalism       Dimension = "professionalism"
	DimensionDisputeResolution     Dimension = "dispute_resolution"
	DimensionLegalCompliance       Dimension = "legal_compliance"
)

// Side returns the sub-record owning the dimension.
func (d Dimension) Side() Side {
	switch d {
	case DimensionMaintenance, DimensionCommunication, DimensionCompliance:
		return SideTenant
	default:
		return SideLandlord
	}
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(s)
	switch d {
	case DimensionMaintenance, DimensionCommunication, DimensionCompliance,
		DimensionLandlordCommunication, DimensionFairness, DimensionProfessionalism,
		DimensionDisputeResolution, DimensionLegalCompliance:
		return d, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown score dimension %q", s)
}

// Sub-score bounds.
const (
	MinSubScore = 0
	MaxSubScore = 100
)

// ClampSubScore bounds v to [0,100] and reports whether it had to.
func ClampSubScore(v int) (int, bool) {
	switch {
	case v < MinSubScore:
		return MinSubScore, true
	case v > MaxSubScore:
		return MaxSubScore, true
	}
	return v, false
}

// Incident is a counted behavioral event.
type Incident string

const (
	IncidentNoiseComplaint Incident = "noise_complaint"
	IncidentDamageReport   Incident = "damage_report"
	IncidentEviction       Incident = "eviction"
	IncidentDispute        Incident = "dispute"

	IncidentUnauthorizedEntry       Incident = "unauthorized_entry"
	IncidentDiscriminationComplaint Incident = "discrimination_complaint"
)

// Side returns the sub-record whose counter the incident increments.
func (i Incident) Side() Side {
	switch i {
	case IncidentUnauthorizedEntry, IncidentDiscriminationComplaint:
		return SideLandlord
	default:
		return SideTenant
	}
}

// ParseIncident validates an incident name.
func ParseIncident(s string) (Incident, error) {
	i := Incident(s)
	switch i {
	case IncidentNoiseComplaint, IncidentDamageReport, IncidentEviction, IncidentDispute,
		IncidentUnauthorizedEntry, IncidentDiscriminationComplaint:
		return i, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown incident %q", s)
}
