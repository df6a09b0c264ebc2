package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briq/internal/platform/config"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/audit/store/memory"
)

func TestOpenMemorySinkPublishes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink, err := Open(context.Background(), config.Config{}, nil, logger)
	require.NoError(t, err)
	defer sink.Close()

	pub := Publisher(sink.Store, config.Ledger{OpsSampleRate: 1}, nil, logger)
	pub.Emit(context.Background(), audit.Event{Address: "0xabc", Action: audit.ActionPaymentRecorded})

	events, err := sink.Store.(*memory.InMemoryStore).ListByAddress(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestOpenRejects(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := Open(context.Background(), config.Config{Ledger: config.Ledger{EventSink: config.BackendPostgres}}, nil, logger)
	assert.Error(t, err)
	_, err = Open(context.Background(), config.Config{Ledger: config.Ledger{EventSink: "s3"}}, nil, logger)
	assert.Error(t, err)
}
