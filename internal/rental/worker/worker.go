// Package worker runs the agreement reconciler on a cron schedule.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"briq/internal/rental/service"
)

// Reconciler is the pass the worker schedules.
type Reconciler interface {
	Run(ctx context.Context) (service.Report, error)
}

// Worker triggers reconcile passes. Overlapping runs are skipped.
type Worker struct {
	reconciler Reconciler
	spec       string
	logger     *slog.Logger
	cron       *cron.Cron

	mu      sync.Mutex
	last    service.Report
	lastErr error
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// New builds a worker for a standard cron spec or descriptor such as
// "@every 1m".
func New(reconciler Reconciler, spec string, opts ...Option) *Worker {
	w := &Worker{reconciler: reconciler, spec: spec, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	cl := cronLogger{w.logger}
	w.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return w
}

// Start schedules the reconciler. An empty spec leaves the worker idle so
// passes only run through Trigger.
func (w *Worker) Start(ctx context.Context) error {
	if w.spec == "" {
		w.logger.InfoContext(ctx, "reconcile schedule disabled")
		return nil
	}
	if _, err := w.cron.AddFunc(w.spec, func() { w.Trigger(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", w.spec, err)
	}
	w.cron.Start()
	w.logger.InfoContext(ctx, "reconcile schedule started", "schedule", w.spec)
	return nil
}

// Stop halts the schedule and waits for a running pass.
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}

// Trigger runs one pass now and records its result.
func (w *Worker) Trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := w.reconciler.Run(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "reconcile pass failed", "error", err)
	}
	w.mu.Lock()
	w.last, w.lastErr = report, err
	w.mu.Unlock()
}

// Last returns the result of the most recent pass.
func (w *Worker) Last() (service.Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.lastErr
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
