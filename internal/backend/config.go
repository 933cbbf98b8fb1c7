package backend

import (
	"errors"
	"fmt"
	"strings"

	"rewards/internal/config"
	"rewards/internal/source/google"
	"rewards/internal/source/postgres"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	sourceType := SourceType(appConfig.DataSource)
	if !sourceType.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s (supported: %s)",
			appConfig.DataSource, strings.Join(GetSourceTypeStrings(), ", "))
	}

	return Config{
		Type: sourceType,

		CSVPath: appConfig.CSVPath,
		Mapping: appConfig.Mapping(),

		SQLiteDBPath: appConfig.SQLiteDBPath,

		Google: google.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			Range:           appConfig.GoogleSheetRange,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},

		Postgres: postgres.Config{
			URL:   appConfig.PostgresURL,
			Table: appConfig.PostgresTable,
		},

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %s (supported: %s)", c.Type, strings.Join(GetSourceTypeStrings(), ", "))
	}

	switch c.Type {
	case CSVSource:
		if c.CSVPath == "" {
			return errors.New("CSV path is required for csv source")
		}
	case SQLiteSource:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite source")
		}
	case SheetsSource:
		if c.Google.SpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets source")
		}
	case PostgresSource:
		if c.Postgres.URL == "" {
			return errors.New("PostgreSQL URL is required for postgres source")
		}
	}

	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetSourceTypes lists the supported sources in documentation order.
func GetSourceTypes() []SourceType {
	return []SourceType{CSVSource, SQLiteSource, SheetsSource, PostgresSource}
}

func GetSourceTypeStrings() []string {
	types := GetSourceTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
