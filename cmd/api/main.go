package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sitebuilder-backend/internal/app"
	"sitebuilder-backend/internal/config"
	"sitebuilder-backend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Error(err, "Site builder stopped with an error", nil)
		os.Exit(1)
	}
	logger.Info("Site builder exited gracefully", nil)
}

func run() error {
	envErr := godotenv.Load()

	cfg := config.New()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if envErr != nil {
		logger.Info("No .env file found, using environment variables", nil)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received", nil)
	case runErr = <-serverErr:
		logger.Error(runErr, "Server failed, closing editor sessions", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	return runErr
}
