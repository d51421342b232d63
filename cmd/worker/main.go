package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
	"github.com/snow-ghost/thoughtsearch/pkg/observability"
	"github.com/snow-ghost/thoughtsearch/worker"
	"github.com/snow-ghost/thoughtsearch/worker/telemetry"
)

func main() {
	config := worker.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.NewManager(observability.Config{
		ServiceName:    "thoughtsearch-worker",
		ServiceVersion: "1.0.0",
		Environment:    config.Environment,
		JaegerEndpoint: config.JaegerEndpoint,
		LogLevel:       config.LogLevel,
		LogFormat:      config.LogFormat,
		Accounting: accounting.Config{
			UseSQLite: config.AccountingDB != "",
			DBPath:    config.AccountingDB,
		},
	})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	logger := obs.Logger()

	w, err := worker.NewWorker(ctx, config, obs)
	if err != nil {
		logger.Error("failed to build worker", "error", err)
		_ = obs.Shutdown(context.Background())
		os.Exit(1)
	}

	tel := telemetry.NewTelemetry(obs, w.Type(), w.Caps().String())
	tel.Protection = w.Components().ProtectionStats

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("/solve", worker.NewIngestor(w, config.RequestTimeout))
	mux.Handle("/solve/stream", worker.NewStreamIngestor(w, config.RequestTimeout))
	mux.HandleFunc("/health", tel.HealthHandler)
	mux.Handle("/metrics", tel.MetricsHandler())
	mux.HandleFunc("/runs", tel.RunsHandler)

	server := &http.Server{
		Addr:              ":" + config.WorkerPort,
		Handler:           tel.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("worker starting",
			"port", config.WorkerPort,
			"worker_type", w.Type(),
			"capabilities", w.Caps().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("worker shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := w.Components().Close(shutdownCtx); err != nil {
		logger.Error("failed to release components", "error", err)
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Printf("observability shutdown: %v", err)
	}
}
