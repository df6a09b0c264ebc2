package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/audit/store/memory"
	"briq/pkg/requestcontext"
)

type failingStore struct{ calls int }

func (f *failingStore) Append(context.Context, audit.Event) error {
	f.calls++
	return errors.New("sink down")
}

func TestPublisherEnrichesEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithActor(ctx, "0xactor")

	p.Emit(ctx, audit.Event{Address: "0xabc", Action: audit.ActionPaymentRecorded, Subject: "prop-1"})

	events, err := store.ListByAddress(ctx, "0xabc")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, now, events[0].Timestamp)
	assert.Equal(t, audit.CategoryLedger, events[0].Category)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.Equal(t, "0xactor", events[0].Actor)
}

func TestPublisherSamplesOnlyOperationalEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	p := New(store, WithSampler(NewSampler(0)))
	ctx := context.Background()

	p.Emit(ctx, audit.Event{Address: "0xabc", Action: audit.ActionScoreClamped})
	p.Emit(ctx, audit.Event{Address: "0xabc", Action: audit.ActionScoreAdjusted})

	assert.Equal(t, []audit.Action{audit.ActionScoreAdjusted}, store.Actions("0xabc"))
}

func TestPublisherOpensCircuitAfterFailures(t *testing.T) {
	store := &failingStore{}
	cb := NewCircuitBreaker(2, time.Hour)
	p := New(store, WithCircuitBreaker(cb))
	ctx := context.Background()

	for range 5 {
		p.Emit(ctx, audit.Event{Address: "0xabc", Action: audit.ActionPaymentRecorded})
	}
	assert.Equal(t, 2, store.calls)
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerHalfOpens(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.False(t, cb.Allow())

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.False(t, cb.Allow(), "a failed half-open attempt reopens the circuit")

	now = now.Add(2 * time.Minute)
	assert.True(t, cb.Allow())
	cb.RecordSuccess()
	assert.False(t, cb.IsOpen())
}

func TestSamplerClampsRates(t *testing.T) {
	s := NewSampler(3)
	assert.True(t, s.ShouldSample("anything"))
	s.SetRate("noisy", -1)
	assert.False(t, s.ShouldSample("noisy"))
}
