// Package main is the entry point for the Teltrip reporting API server.
//
// It loads configuration, builds the OCS client and aggregation service,
// wires the HTTP chassis (middleware, routing, health check, metrics), and
// serves until interrupted. Graceful shutdown is handled via OS signal
// interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"teltrip/internal/aggregate"
	"teltrip/internal/api/handlers"
	"teltrip/internal/auth"
	"teltrip/internal/config"
	"teltrip/internal/core"
	"teltrip/internal/ocs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on
// error.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("teltrip reporting API starting",
		"environment", cfg.Environment,
		"port", cfg.Server.Port,
		"login_enabled", cfg.Auth.LoginEnabled(),
	)

	// The per-call deadline is enforced via context cancellation inside the
	// client; the http.Client itself carries no timeout.
	client := ocs.NewClient(&http.Client{}, ocs.ClientConfig{
		BaseURL: cfg.OCS.BaseURL,
		Token:   cfg.OCS.Token,
		Timeout: cfg.OCS.Timeout,
		Logger:  logger,
	})

	cache, err := aggregate.NewTemplateCostCache()
	if err != nil {
		return fmt.Errorf("creating template cost cache: %w", err)
	}
	service := aggregate.NewService(client, cache, cfg.OCS.DefaultAccountID, logger)

	sessions := auth.NewService(cfg.Auth, logger)

	srv, err := core.NewServer(cfg, sessions, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	authHandler := handlers.NewAuthHandler(sessions, logger)
	reportHandler := handlers.NewReportHandler(service, logger)
	accountsHandler := handlers.NewAccountsHandler(service, logger)

	srv.MountRoutes(
		[]core.RouteRegistrar{
			func(r chi.Router) { authHandler.RegisterRoutes(r) },
		},
		[]core.RouteRegistrar{
			func(r chi.Router) { reportHandler.RegisterRoutes(r) },
			func(r chi.Router) { accountsHandler.RegisterRoutes(r) },
		},
	)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}

// newLogger builds the JSON structured logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
