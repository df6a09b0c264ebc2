package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"briq/internal/app"
	"briq/internal/platform/config"
	"briq/internal/platform/httpserver"
	"briq/internal/platform/logger"
	"briq/internal/platform/metrics"
	"briq/internal/platform/middleware"
	"briq/internal/platform/tracing"
	"briq/pkg/platform/httputil"
)

// main wires configuration, infrastructure and modules, then serves HTTP until
// interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(config.Log{}).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		log.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	a, err := app.Open(ctx, cfg, log, app.NewMetrics())
	if err != nil {
		log.Error("failed to open backends", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Rental.Worker.Start(ctx); err != nil {
		log.Error("failed to start reconcile worker", "error", err)
		os.Exit(1)
	}
	defer a.Rental.Worker.Stop()

	var validator middleware.JWTValidator
	if cfg.Server.JWTSigningKey != "" {
		validator = middleware.NewHS256Validator(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	} else {
		log.Warn("BRIQ_JWT_SIGNING_KEY not set, mutating routes are unauthenticated")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(metrics.New()))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	a.Trust.Handler(log, validator).Register(r)
	a.Rental.Handler(log, validator, cfg.Server.AdminToken).Register(r)

	log.Info("starting briq",
		"addr", cfg.Server.Addr,
		"profile_backend", cfg.Store.ProfileBackend,
		"agreement_backend", cfg.Store.AgreementBackend,
		"event_sink", cfg.Ledger.EventSink,
	)
	if err := httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, r), cfg.Server.ShutdownTimeout, log); err != nil {
		log.Error("server error", "error", err)
	}
}
