// Package cli holds the start-up steps shared by the rewards commands.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rewards/internal/config"
	"rewards/internal/log"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(level, component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadAndValidateConfig always returns the loaded config so the caller can
// build a logger before reporting a validation error.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	return cfg, cfg.Validate()
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.InfoContext(ctx, "Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// GracefulShutdown runs each step in order under one shared deadline and
// returns every failure.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "Shutdown completed with errors", log.FieldError, err, log.FieldOperation, log.OpShutdown)
	case ctx.Err() != nil:
		logger.WarnContext(ctx, "Shutdown timeout reached", log.FieldOperation, log.OpShutdown)
	default:
		logger.InfoContext(ctx, "Shutdown complete", log.FieldOperation, log.OpShutdown)
	}
	return err
}
