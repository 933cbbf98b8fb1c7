package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rewards/internal/backend"
	"rewards/internal/cli"
	apphttp "rewards/internal/http"
	"rewards/internal/log"
	"rewards/internal/report"
	"rewards/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize rewards source", log.FieldError, err, "data_source", cfg.DataSource)
		os.Exit(1)
	}

	svc := services.NewReportService(res.Reader, report.Options{
		IncludeLedger: cfg.LedgerEnabled,
		Ledger:        cfg.Ledger(),
	}, res.Publisher)

	srv := apphttp.NewServer(cfg.Addr(), svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger.WithComponent(log.ComponentHTTP),
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting rewards server",
			"addr", cfg.Addr(),
			log.FieldSource, svc.Source(),
			"ledger_enabled", cfg.LedgerEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
			exitCode = 1
		}
	}

	if err := cli.GracefulShutdown(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error { return svc.Close() },
	); err != nil {
		exitCode = 1
	}
	logger.Info("Server stopped")
	os.Exit(exitCode)
}
