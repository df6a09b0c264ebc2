// Package score derives bounded trust scores from a profile's aggregate fields.
//
// Every function here is pure: the same aggregates always yield the same score,
// so recomputing on an unchanged record is a no-op.
package score

import (
	"math"

	"briq/internal/trust/models"
)

// Score bounds.
const (
	TenantMin   = 0
	TenantMax   = 850
	LandlordMin = 0
	LandlordMax = 100
)

// tenantScale maps the 0-100 weighted sum onto the 0-850 tenant range.
const tenantScale = 8.5

// Tenant computes the tenant trust score:
//
//	round(8.5 × (0.35·onTimePct + 0.30·min(100, 20×tenancies) + 0.20·maintenance
//	           + 0.10·max(0, 100−2×avgLateDays) + 0.05·max(0, 100−10×disputes)))
//
// clamped to [0,850].
func Tenant(t *models.TenantRecord) int {
	if t == nil {
		return TenantMin
	}
	// Explicit float64 conversions stop the compiler fusing multiply-adds, which
	// keeps scores identical across architectures.
	payment := float64(float64(t.OnTimePaymentPercentage) * 0.35)
	stability := float64(math.Min(100, float64(len(t.TenancyHistory)*20)) * 0.30)
	care := float64(float64(t.MaintenanceScore) * 0.20)
	capacity := float64(math.Max(0, 100-float64(t.AverageLateDays)*2) * 0.10)
	disputes := float64(math.Max(0, 100-float64(t.Disputes)*10) * 0.05)

	sum := float64(payment + stability)
	sum = float64(sum + care)
	sum = float64(sum + capacity)
	sum = float64(sum + disputes)

	return clamp(int(math.Round(float64(sum*tenantScale))), TenantMin, TenantMax)
}

// Landlord computes the landlord trust score:
//
//	round(0.25·fairness + 0.25·(100 − clamp(avgResponseHours, 0, 100))
//	    + 0.20·communication + 0.20·legalCompliance + 0.10·professionalism)
//
// clamped to [0,100]. With no managed properties the maintenance term is 0.
func Landlord(l *models.LandlordRecord) int {
	if l == nil {
		return LandlordMin
	}
	fairness := float64(float64(l.FairnessScore) * 0.25)
	maintenance := 0.0
	if avg, ok := AverageResponseHours(l.PropertiesManaged); ok {
		maintenance = float64((100 - math.Min(100, math.Max(0, avg))) * 0.25)
	}
	communication := float64(float64(l.CommunicationScore) * 0.20)
	legal := float64(float64(l.LegalComplianceScore) * 0.20)
	professionalism := float64(float64(l.ProfessionalismScore) * 0.10)

	sum := float64(fairness + maintenance)
	sum = float64(sum + communication)
	sum = float64(sum + legal)
	sum = float64(sum + professionalism)

	return clamp(int(math.Round(sum)), LandlordMin, LandlordMax)
}

// AverageResponseHours is the mean maintenance response time over managed
// properties. ok is false when there are none.
func AverageResponseHours(props []models.PropertyManagementRecord) (avg float64, ok bool) {
	if len(props) == 0 {
		return 0, false
	}
	total := 0.0
	for _, p := range props {
		total += p.MaintenanceResponseHours
	}
	return total / float64(len(props)), true
}

// OnTimePercentage is round(onTime / total × 100), or 100 with no payments.
func OnTimePercentage(payments []models.PaymentRecord) int {
	if len(payments) == 0 {
		return 100
	}
	onTime := 0
	for _, p := range payments {
		if p.Status == models.PaymentOnTime {
			onTime++
		}
	}
	return int(math.Round(float64(onTime) / float64(len(payments)) * 100))
}

// AverageLateDays is the rounded mean of LateDays over late payments only, 0 if none.
func AverageLateDays(payments []models.PaymentRecord) int {
	late, total := 0, 0
	for _, p := range payments {
		if p.Status != models.PaymentLate {
			continue
		}
		late++
		total += p.LateDays
	}
	if late == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(late)))
}

// Label buckets a score by its share of the maximum.
func Label(score, maxScore int) string {
	if maxScore <= 0 {
		return "Poor"
	}
	pct := float64(score) / float64(maxScore) * 100
	switch {
	case pct >= 90:
		return "Excellent"
	case pct >= 75:
		return "Very Good"
	case pct >= 60:
		return "Good"
	case pct >= 40:
		return "Fair"
	}
	return "Poor"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
