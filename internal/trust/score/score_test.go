package score

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"briq/internal/trust/models"
)

func newTenant() *models.TenantRecord {
	return models.NewTenantRecord(time.Unix(0, 0).UTC())
}

func newLandlord() *models.LandlordRecord {
	return models.NewLandlordRecord(time.Unix(0, 0).UTC())
}

func TestTenantFormula(t *testing.T) {
	t.Run("fresh tenant aggregates", func(t *testing.T) {
		// 8.5 × (35 + 0 + 17 + 10 + 5) = 569.5
		assert.Equal(t, 570, Tenant(newTenant()))
	})

	t.Run("one tenancy adds the stability term", func(t *testing.T) {
		rec := newTenant()
		rec.TenancyHistory = append(rec.TenancyHistory, models.TenancyRecord{PropertyID: "p1"})
		// 8.5 × (35 + 6 + 17 + 10 + 5) = 620.5
		assert.Equal(t, 621, Tenant(rec))
	})

	t.Run("stability term saturates at five tenancies", func(t *testing.T) {
		rec := newTenant()
		rec.MaintenanceScore = 100
		rec.TenancyHistory = make([]models.TenancyRecord, 9)
		assert.Equal(t, TenantMax, Tenant(rec))
	})

	t.Run("worst aggregates floor at zero", func(t *testing.T) {
		rec := newTenant()
		rec.OnTimePaymentPercentage = 0
		rec.MaintenanceScore = 0
		rec.AverageLateDays = 90
		rec.Disputes = 40
		assert.Equal(t, TenantMin, Tenant(rec))
	})

	t.Run("nil record", func(t *testing.T) {
		assert.Equal(t, TenantMin, Tenant(nil))
	})
}

func TestLandlordFormula(t *testing.T) {
	t.Run("no properties contributes zero maintenance", func(t *testing.T) {
		// 21.25 + 0 + 17 + 18 + 8.5
		assert.Equal(t, 65, Landlord(newLandlord()))
	})

	t.Run("fast responses raise the score", func(t *testing.T) {
		rec := newLandlord()
		rec.PropertiesManaged = []models.PropertyManagementRecord{
			{PropertyID: "p1", MaintenanceResponseHours: 10},
			{PropertyID: "p2", MaintenanceResponseHours: 30},
		}
		// maintenance = (100 - 20) × 0.25 = 20
		assert.Equal(t, 85, Landlord(rec))
	})

	t.Run("response time is clamped to 100 hours", func(t *testing.T) {
		rec := newLandlord()
		rec.PropertiesManaged = []models.PropertyManagementRecord{{PropertyID: "p1", MaintenanceResponseHours: 400}}
		assert.Equal(t, 65, Landlord(rec))
	})

	t.Run("negative response time is clamped to zero", func(t *testing.T) {
		rec := newLandlord()
		rec.PropertiesManaged = []models.PropertyManagementRecord{{PropertyID: "p1", MaintenanceResponseHours: -50}}
		assert.Equal(t, 90, Landlord(rec))
	})
}

func TestScoresStayInRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 2000; i++ {
		tenant := newTenant()
		tenant.OnTimePaymentPercentage = rng.IntN(101)
		tenant.MaintenanceScore = rng.IntN(101)
		tenant.AverageLateDays = rng.IntN(120)
		tenant.Disputes = rng.IntN(20)
		tenant.TenancyHistory = make([]models.TenancyRecord, rng.IntN(12))

		got := Tenant(tenant)
		assert.GreaterOrEqual(t, got, TenantMin)
		assert.LessOrEqual(t, got, TenantMax)
		assert.Equal(t, got, Tenant(tenant), "recomputation must be idempotent")

		landlord := newLandlord()
		landlord.FairnessScore = rng.IntN(101)
		landlord.CommunicationScore = rng.IntN(101)
		landlord.LegalComplianceScore = rng.IntN(101)
		landlord.ProfessionalismScore = rng.IntN(101)
		for j := rng.IntN(4); j > 0; j-- {
			landlord.PropertiesManaged = append(landlord.PropertiesManaged, models.PropertyManagementRecord{
				MaintenanceResponseHours: rng.Float64()*300 - 50,
			})
		}

		got = Landlord(landlord)
		assert.GreaterOrEqual(t, got, LandlordMin)
		assert.LessOrEqual(t, got, LandlordMax)
		assert.Equal(t, got, Landlord(landlord))
	}
}

func TestPaymentAggregates(t *testing.T) {
	assert.Equal(t, 100, OnTimePercentage(nil))
	assert.Equal(t, 0, AverageLateDays(nil))

	onTime := models.PaymentRecord{Status: models.PaymentOnTime}
	missed := models.PaymentRecord{Status: models.PaymentMissed}
	lateA := models.PaymentRecord{Status: models.PaymentLate, LateDays: 4}
	lateB := models.PaymentRecord{Status: models.PaymentLate, LateDays: 7}

	assert.Equal(t, 100, OnTimePercentage([]models.PaymentRecord{onTime}))
	assert.Equal(t, 50, OnTimePercentage([]models.PaymentRecord{onTime, missed}))
	assert.Equal(t, 33, OnTimePercentage([]models.PaymentRecord{onTime, missed, lateA}))

	// missed payments carry no late days into the average
	assert.Equal(t, 6, AverageLateDays([]models.PaymentRecord{lateA, missed, lateB, onTime}))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Excellent", Label(800, TenantMax))
	assert.Equal(t, "Very Good", Label(80, LandlordMax))
	assert.Equal(t, "Good", Label(60, LandlordMax))
	assert.Equal(t, "Fair", Label(350, TenantMax))
	assert.Equal(t, "Poor", Label(10, LandlordMax))
	assert.Equal(t, "Poor", Label(10, 0))
}
