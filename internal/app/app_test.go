package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briq/internal/platform/config"
	"briq/internal/trust/models"
)

func TestOpenInMemory(t *testing.T) {
	t.Setenv("BRIQ_PROFILE_BACKEND", "memory")
	cfg, err := config.Parse()
	require.NoError(t, err)

	a, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Trust.Recorder.Initialize(context.Background(), "0xabc", models.UserTypeTenant)
	require.NoError(t, err)
	assert.NotNil(t, a.Rental.Worker)
}

func TestOpenNeedsDatabaseURL(t *testing.T) {
	cfg := config.Config{Store: config.Store{AgreementBackend: config.BackendPostgres}}
	_, err := Open(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	assert.Error(t, err)
}
