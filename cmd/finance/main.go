package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"finance/internal/backend"
	"finance/internal/cli"
	apphttp "finance/internal/http"
	applog "finance/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, nil)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               ":" + cfg.Port,
		UserIDHeader:       cfg.UserIDHeader,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	}, res.Backend)
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting finance server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events_enabled", res.EventsEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
