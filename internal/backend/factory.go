package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rewards/internal/amqp"
	"rewards/internal/services"
	"rewards/internal/source"
	"rewards/internal/source/google"
	"rewards/internal/source/postgres"
	"rewards/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dial is replaced in tests.
	dial func(url, exchange, queue string) (services.EventPublisher, error)
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		dial:   dialAMQP,
	}
}

func dialAMQP(url, exchange, queue string) (services.EventPublisher, error) {
	client, err := amqp.NewClient(url, exchange, queue)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Create builds the configured reader. A failing AMQP connection is logged
// and the backend continues without events.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}

	var (
		reader source.TableReader
		err    error
	)
	switch config.Type {
	case CSVSource:
		reader = source.NewCSVFile(config.CSVPath, config.Mapping)
	case SQLiteSource:
		reader = storage.NewReader(config.SQLiteDBPath)
	case SheetsSource:
		reader, err = google.New(ctx, config.Google, config.Mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets source: %w", err)
		}
	case PostgresSource:
		reader, err = postgres.New(ctx, config.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL source: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}

	publisher := f.publisher(config)

	f.logger.Info("Initialized rewards source",
		"source", reader.Name(),
		"type", config.Type.String(),
		"amqp_enabled", publisher != nil)

	return &Result{Reader: reader, Publisher: publisher}, nil
}

func (f *DefaultFactory) publisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	p, err := f.dial(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return p
}
