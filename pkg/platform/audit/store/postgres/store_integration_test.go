//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/audit/store/postgres"
	"briq/pkg/testutil/containers"
)

func TestStoreListsByAddressInOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	store := postgres.New(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, pg.TruncateTables(ctx, "ledger_events"))

	for _, action := range []audit.Action{audit.ActionProfileInitialized, audit.ActionPaymentRecorded, audit.ActionScoreAdjusted} {
		require.NoError(t, store.Append(ctx, audit.Event{Address: "0xabc", Action: action}))
	}
	require.NoError(t, store.Append(ctx, audit.Event{Address: "0xdef", Action: audit.ActionRoleAdded}))

	events, err := store.ListByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, audit.ActionProfileInitialized, events[0].Action)
	assert.Equal(t, audit.ActionScoreAdjusted, events[2].Action)
}
