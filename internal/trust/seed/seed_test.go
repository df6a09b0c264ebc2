package seed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briq/internal/rental/service"
	"briq/internal/rental/store/agreement"
	trustservice "briq/internal/trust/service"
	"briq/internal/trust/store/profile"
	"briq/pkg/requestcontext"
	"briq/pkg/testutil"
)

const (
	landlordAddr = "0xaaaa000000000000000000000000000000000001"
	tenantAddr   = "0xbbbb000000000000000000000000000000000002"
)

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("profiles:\n  - address: 0x1\n    karma: 3\n"))
	assert.Error(t, err)

	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Profiles)
}

func TestApplyFixtures(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := trustservice.New(profile.New(profile.NewInMemoryBackend()))
	registry := agreement.NewInMemoryStore()
	seeder := New(recorder, service.New(registry, recorder), logger)

	fixtures, err := LoadFile("testdata/fixtures.yaml")
	require.NoError(t, err)

	testutil.Given(t, "a fresh ledger", func(t *testing.T) {
		res, err := seeder.Apply(ctx, fixtures)
		require.NoError(t, err)

		testutil.Then(t, "every fixture is recorded", func(t *testing.T) {
			assert.Equal(t, 2, res.Profiles)
			assert.Equal(t, 1, res.Agreements)
			assert.Zero(t, res.Degraded)
			// landlord: 2 scores, 1 property, license; tenant: 2 payments, 1 score, 2 incidents
			assert.Equal(t, 9, res.Events)
		})

		testutil.Then(t, "the agreement is active on both ledgers", func(t *testing.T) {
			a, err := registry.FindHolding(ctx, "flat-12")
			require.NoError(t, err)
			assert.True(t, a.FullyApplied())

			tenant, err := recorder.Profile(ctx, tenantAddr)
			require.NoError(t, err)
			require.NotNil(t, tenant.CurrentRental)
			assert.Equal(t, a.Hash, tenant.CurrentRental.AgreementHash)
			assert.Equal(t, 2, tenant.Tenant.NoiseComplaints)
			assert.Len(t, tenant.Tenant.PaymentHistory, 2)

			landlord, err := recorder.Profile(ctx, landlordAddr)
			require.NoError(t, err)
			assert.Equal(t, 90, landlord.Landlord.FairnessScore)
			assert.Len(t, landlord.Landlord.PropertiesManaged, 1)
		})
	})

	testutil.When(t, "the same file is applied again", func(t *testing.T) {
		res, err := seeder.Apply(ctx, fixtures)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Skipped)
		assert.Zero(t, res.Events)
		assert.Equal(t, 1, res.Agreements)
	})
}

func TestAgreementWithoutNonceIsRejected(t *testing.T) {
	recorder := trustservice.New(profile.New(profile.NewInMemoryBackend()))
	seeder := New(recorder, service.New(agreement.NewInMemoryStore(), recorder), slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := seeder.Apply(context.Background(), &Fixtures{Agreements: []Agreement{{
		PropertyID:  "p1",
		Landlord:    landlordAddr,
		Tenant:      tenantAddr,
		MonthlyRent: "1",
		Deposit:     "1",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}}})
	assert.Error(t, err)
}
