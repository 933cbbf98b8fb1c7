// Command rewards-import converts a rewards CSV export into the SQLite ledger
// file read by DATA_SOURCE=sqlite. Existing rows are replaced.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/labstack/gommon/bytes"

	"rewards/internal/cli"
	"rewards/internal/loader"
	"rewards/internal/log"
	"rewards/internal/storage"
)

func main() {
	cli.LoadEnvFile()

	cfg, cfgErr := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentImport)
	if cfgErr != nil {
		logger.Error("Configuration validation failed", log.FieldError, cfgErr)
		os.Exit(1)
	}

	csvPath := flag.String("csv", cfg.CSVPath, "rewards CSV export to import")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite ledger file to write")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if info, err := os.Stat(*csvPath); err == nil {
		logger.Info("Importing rewards CSV", "csv", *csvPath, "size", bytes.Format(info.Size()))
	}
	tbl, err := loader.Load(*csvPath, cfg.Mapping())
	if err != nil {
		logger.Error("Failed to load CSV", log.FieldError, err, "csv", *csvPath, log.FieldOperation, log.OpRead)
		os.Exit(1)
	}

	repo, err := storage.OpenForImport(*dbPath)
	if err != nil {
		logger.Error("Failed to open SQLite ledger file", log.FieldError, err, "db", *dbPath)
		os.Exit(1)
	}
	defer repo.Close()

	n, err := repo.ReplaceAll(ctx, tbl)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, "db", *dbPath, log.FieldOperation, log.OpImport)
		repo.Close()
		os.Exit(1)
	}

	logger.Info("Import complete",
		"csv", *csvPath,
		"db", *dbPath,
		log.FieldEntries, n,
		"duration_ms", time.Since(start).Milliseconds())
}
