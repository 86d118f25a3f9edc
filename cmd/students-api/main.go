// main is the entry point of the enrollment API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus env overrides)
//  2. Initialise the logger
//  3. Open the configured student store (SQLite or PostgreSQL)
//  4. Hash the admin credentials and build the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until SIGINT / SIGTERM arrives
//  7. Gracefully shut down, then close the store
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/http/handlers/auth"
	"github.com/aanand-mishra/enrollment-api/internal/http/middleware"
	"github.com/aanand-mishra/enrollment-api/internal/http/router"
	"github.com/aanand-mishra/enrollment-api/internal/storage/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad reads the YAML config (and .env, if present) and exits if
	// anything is missing. If it returns, the config is valid.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Handlers log through slog's package-level functions, so the
	// configured logger is also installed as the default.
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.1.0"),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// The store is created once here and handed to every handler; nothing
	// else opens a connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := backend.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.StorageDriver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised",
		slog.String("driver", cfg.StorageDriver),
		slog.String("location", backend.Describe(cfg)))

	// ── 4. Register HTTP Routes ───────────────────────────────────────────
	// The admin password is hashed once here; the plaintext from the
	// config is not kept anywhere else.
	creds, err := auth.NewCredentials(cfg.Admin)
	if err != nil {
		log.Error("failed to prepare admin credentials", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// A private registry instead of the global default, so /metrics only
	// exposes what this process registers: Go runtime, process and the
	// per-route collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// router.New owns the route table and wraps it in request id,
	// logging, recovery and CORS middleware.
	handler := router.New(router.Deps{
		Store:          store,
		Credentials:    creds,
		Metrics:        middleware.NewMetrics(reg),
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// ── 5. Create the HTTP Server ─────────────────────────────────────────
	// Timeouts come from config (10s / 10s / 60s by default) so a slow
	// client cannot hold a connection open forever.
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 6. Start Server in a Goroutine ────────────────────────────────────
	// ListenAndServe returns http.ErrServerClosed once Shutdown is called;
	// anything else is a real failure.
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ── 7. Wait for Shutdown Signal ───────────────────────────────────────
	// Buffered so the signal is not lost if main is briefly busy.
	//   os.Interrupt   = Ctrl+C (SIGINT)
	//   syscall.SIGTERM = sent by `kill <pid>` or container orchestrators
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serverErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
		exitCode = 1
	}

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	// In-flight requests get shutdownTimeout to finish. The store is closed
	// only after the server stops handing it work.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}
	cancelShutdown()

	if err := store.Close(); err != nil {
		log.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}

	log.Info("server stopped", slog.Int("exit_code", exitCode))
	os.Exit(exitCode)
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging / production: JSON output, DEBUG and INFO respectively.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
