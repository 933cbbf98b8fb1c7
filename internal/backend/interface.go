package backend

import (
	"context"
	"slices"

	"rewards/internal/loader"
	"rewards/internal/services"
	"rewards/internal/source"
	"rewards/internal/source/google"
	"rewards/internal/source/postgres"
)

// Result is the reader selected by configuration plus the optional event
// publisher. Publisher is a nil interface when events are disabled.
type Result struct {
	Reader    source.TableReader
	Publisher services.EventPublisher
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type SourceType

	// CSV file
	CSVPath string
	Mapping loader.Mapping

	// SQLite ledger file
	SQLiteDBPath string

	// Google Sheets
	Google google.Config

	// PostgreSQL rewards table
	Postgres postgres.Config

	// AMQP is optional for every source.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type SourceType string

const (
	CSVSource      SourceType = "csv"
	SQLiteSource   SourceType = "sqlite"
	SheetsSource   SourceType = "sheets"
	PostgresSource SourceType = "postgres"
)

func (st SourceType) String() string {
	return string(st)
}

func (st SourceType) IsValid() bool {
	return slices.Contains(GetSourceTypes(), st)
}
