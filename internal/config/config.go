package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"rewards/internal/ledger"
	"rewards/internal/loader"
)

// Data sources selectable with DATA_SOURCE.
const (
	SourceCSV      = "csv"
	SourceSQLite   = "sqlite"
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

var (
	validSources   = []string{SourceCSV, SourceSQLite, SourceSheets, SourcePostgres}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	// HTTP Server
	Host               string
	Port               string
	RateLimitPerMinute int
	// TrustedProxies are extra CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	LogLevel string

	// Source selection
	DataSource string

	// CSV file and column mapping (also used by the import tool)
	CSVPath      string
	AliasColumn  string
	DateColumn   string
	AmountColumn string
	SkipRows     int
	Delimiter    string

	// SQLite ledger file
	SQLiteDBPath string

	// PostgreSQL rewards table
	PostgresURL   string
	PostgresTable string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetRange         string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Ledger
	LedgerEnabled         bool
	LedgerStartingBalance string
	LedgerMonthlyExpenses string

	// AMQP (optional; empty URL disables report events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "5010"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DataSource: strings.ToLower(getEnv("DATA_SOURCE", SourceCSV)),

		CSVPath:      getEnv("REWARDS_CSV_PATH", "rewards.csv"),
		AliasColumn:  getEnv("REWARDS_ALIAS_COLUMN", "licenseId"),
		DateColumn:   getEnv("REWARDS_DATE_COLUMN", "date"),
		AmountColumn: getEnv("REWARDS_AMOUNT_COLUMN", "amount_usd"),
		SkipRows:     getEnvInt("REWARDS_SKIP_ROWS", 0),
		Delimiter:    getEnv("REWARDS_DELIMITER", ","),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rewards.db"),

		PostgresURL:   getEnv("POSTGRES_URL", ""),
		PostgresTable: getEnv("POSTGRES_TABLE", "rewards"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetRange:         getEnv("GOOGLE_SHEET_RANGE", "Rewards!A:Z"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		LedgerEnabled:         getEnvBool("LEDGER_ENABLED", true),
		LedgerStartingBalance: getEnv("LEDGER_STARTING_BALANCE", "-5000"),
		LedgerMonthlyExpenses: getEnv("LEDGER_MONTHLY_EXPENSES", "0"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rewards"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "report_events"),
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be 0 (disabled) or positive", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR such as 203.0.113.0/24", cidr))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if !slices.Contains(validSources, c.DataSource) {
		errors = append(errors, fmt.Sprintf("invalid data source '%s': must be one of %v", c.DataSource, validSources))
	}

	for name, v := range map[string]string{
		"REWARDS_ALIAS_COLUMN":  c.AliasColumn,
		"REWARDS_DATE_COLUMN":   c.DateColumn,
		"REWARDS_AMOUNT_COLUMN": c.AmountColumn,
	} {
		if strings.TrimSpace(v) == "" {
			errors = append(errors, fmt.Sprintf("%s cannot be empty", name))
		}
	}
	if c.SkipRows < 0 {
		errors = append(errors, fmt.Sprintf("invalid skip rows %d: must not be negative", c.SkipRows))
	}
	if _, err := parseDelimiter(c.Delimiter); err != nil {
		errors = append(errors, err.Error())
	}

	switch c.DataSource {
	case SourceCSV:
		if c.CSVPath == "" {
			errors = append(errors, "CSV path cannot be empty when using csv source")
		}
	case SourceSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite source")
		}
	case SourcePostgres:
		if c.PostgresURL == "" {
			errors = append(errors, "PostgreSQL URL is required when using postgres source")
		} else if u, err := url.Parse(c.PostgresURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid PostgreSQL URL: must use the postgres:// or postgresql:// scheme")
		}
		if strings.TrimSpace(c.PostgresTable) == "" {
			errors = append(errors, "PostgreSQL table cannot be empty when using postgres source")
		}
	case SourceSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets source")
		}
		hasJSON := c.GoogleServiceAccountJSON != ""
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasJSON && !hasFile && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets source")
		}
		if hasFile && !hasJSON {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := decimal.NewFromString(c.LedgerStartingBalance); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger starting balance '%s': must be a decimal number", c.LedgerStartingBalance))
	}
	if _, err := decimal.NewFromString(c.LedgerMonthlyExpenses); err != nil {
		errors = append(errors, fmt.Sprintf("invalid ledger monthly expenses '%s': must be a decimal number", c.LedgerMonthlyExpenses))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Mapping builds the loader column mapping. Call after Validate.
func (c *Config) Mapping() loader.Mapping {
	comma, err := parseDelimiter(c.Delimiter)
	if err != nil {
		comma = ','
	}
	return loader.Mapping{
		AliasColumn:  c.AliasColumn,
		DateColumn:   c.DateColumn,
		AmountColumn: c.AmountColumn,
		SkipRows:     c.SkipRows,
		Comma:        comma,
	}
}

// Ledger builds the ledger balance assumptions. Call after Validate.
func (c *Config) Ledger() ledger.Config {
	cfg := ledger.DefaultConfig()
	if d, err := decimal.NewFromString(c.LedgerStartingBalance); err == nil {
		cfg.StartingBalance = d
	}
	if d, err := decimal.NewFromString(c.LedgerMonthlyExpenses); err == nil {
		cfg.MonthlyExpenses = d
	}
	return cfg
}

// parseDelimiter accepts one character, or "tab" / "\t" for a tab.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`, "\t":
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter '%s': must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter '%s': not usable as a field separator", s)
	}
	return r, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
