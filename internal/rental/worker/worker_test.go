package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briq/internal/rental/service"
)

type countingReconciler struct {
	runs atomic.Int32
	err  error
}

func (c *countingReconciler) Run(context.Context) (service.Report, error) {
	n := c.runs.Add(1)
	return service.Report{Scanned: int(n)}, c.err
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTriggerRecordsLastReport(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, "", quiet())

	w.Trigger(context.Background())
	report, err := w.Last()
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)

	rec.err = errors.New("registry down")
	w.Trigger(context.Background())
	_, err = w.Last()
	assert.EqualError(t, err, "registry down")
}

func TestTriggerSkipsCancelledContext(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, "", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.Trigger(ctx)
	assert.Zero(t, rec.runs.Load())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	w := New(&countingReconciler{}, "every now and then", quiet())
	assert.Error(t, w.Start(context.Background()))
}

func TestScheduleRuns(t *testing.T) {
	rec := &countingReconciler{}
	w := New(rec, "@every 1s", quiet())
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Eventually(t, func() bool { return rec.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
