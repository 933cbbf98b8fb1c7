// Command rewards-notifier logs every report-computed event published by the
// rewards server.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"rewards/internal/amqp"
	"rewards/internal/cli"
	"rewards/internal/log"
	"rewards/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentNotifier)
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	w := worker.NewReportWorker()
	logger.Info("Starting rewards-notifier", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	exitCode := 0
	if err := client.ConsumeWithRetry(ctx, w.HandleReportComputed); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err, log.FieldOperation, log.OpConsume)
		exitCode = 1
	}

	_ = cli.GracefulShutdown(logger, 10*time.Second, func(context.Context) error { return client.Close() })
	for source, m := range w.Latest() {
		logger.Info("Last report seen", log.FieldSource, source,
			"total_earned", m.TotalEarned, "total_entries", m.TotalEntries, "at", m.Timestamp)
	}
	logger.Info("Notifier stopped", "events_received", w.Received())
	os.Exit(exitCode)
}
