package trust

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briq/internal/platform/config"
	"briq/internal/trust/models"
)

func TestNewWiresAutoCreate(t *testing.T) {
	ctx := context.Background()
	m, err := New(ctx, Deps{Ledger: config.Ledger{AutoCreate: true}})
	require.NoError(t, err)
	defer m.Close()

	p, err := m.Recorder.SimulatePayment(ctx, "0xabc", "p1", models.Amount("10"), true)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeTenant, p.UserType)

	meta, err := m.Refresher.Metadata(ctx, "0xabc")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.Attributes)
}

func TestNewWithSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "briq.db")
	m, err := New(ctx, Deps{Store: config.Store{ProfileBackend: config.BackendSQLite, SQLitePath: path}})
	require.NoError(t, err)

	_, err = m.Recorder.Initialize(ctx, "0xabc", models.UserTypeLandlord)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	reopened, err := New(ctx, Deps{Store: config.Store{ProfileBackend: config.BackendSQLite, SQLitePath: path}})
	require.NoError(t, err)
	defer reopened.Close()
	p, err := reopened.Recorder.Profile(ctx, "0xabc")
	require.NoError(t, err)
	assert.NotNil(t, p.Landlord)
}

func TestNewRejectsMissingClients(t *testing.T) {
	_, err := New(context.Background(), Deps{Store: config.Store{ProfileBackend: config.BackendPostgres}})
	assert.Error(t, err)
	_, err = New(context.Background(), Deps{Store: config.Store{ProfileBackend: config.BackendRedis}})
	assert.Error(t, err)
}
