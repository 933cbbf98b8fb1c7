// Package storage keeps reward rows in a SQLite ledger file.
//
// The dashboard only reads the file (Reader); cmd/rewards-import owns the
// write side (Repository), which runs migrations and replaces the content.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"rewards/internal/core"
	"rewards/internal/loader"
	"rewards/internal/source"
)

// Reader loads the rewards table from an existing ledger file.
type Reader struct {
	path string
}

var _ source.TableReader = (*Reader)(nil)

func NewReader(dbPath string) *Reader {
	return &Reader{path: dbPath}
}

// ReadTable opens the file for the duration of the call. A missing file
// yields core.ErrDataSourceNotFound; it is never created here.
func (r *Reader) ReadTable(ctx context.Context) (core.Table, error) {
	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, core.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", r.path, err)
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := New(db).ListRewards(ctx)
	if err != nil {
		if isNoSuchTable(err) {
			return nil, fmt.Errorf("%s has no rewards table: %w", r.path, core.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	return toTable(rows)
}

// isNoSuchTable matches SQLite's "no such table" error, which modernc
// reports as a generic SQLITE_ERROR.
func isNoSuchTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}

func (r *Reader) Name() string {
	return "sqlite:" + filepath.Base(r.path)
}

// toTable re-validates stored rows with the loader's rules.
// Line in a MalformedRowError is the row id.
func toTable(rows []Reward) (core.Table, error) {
	out := make(core.Table, 0, len(rows))
	for _, row := range rows {
		tx, err := loader.Validate(int(row.ID), row.Alias, row.Date, row.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// Repository is the write side of the ledger file.
type Repository struct {
	db      *sql.DB
	queries *Queries
}

// OpenForImport creates the file and its directory when needed and
// migrates it to the latest schema.
func OpenForImport(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceAll swaps the stored rows for tbl in a single transaction.
func (r *Repository) ReplaceAll(ctx context.Context, tbl core.Table) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteAllRewards(ctx); err != nil {
		return 0, fmt.Errorf("delete rewards: %w", err)
	}
	for i, t := range tbl {
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		err := q.InsertReward(ctx, InsertRewardParams{
			Alias:  t.Alias,
			Date:   t.Date.String(),
			Amount: t.Amount.String(),
		})
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Rewards imported", "rows", len(tbl))
	return len(tbl), nil
}

// Count returns the number of stored rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountRewards(ctx)
	if err != nil {
		return 0, fmt.Errorf("count rewards: %w", err)
	}
	return n, nil
}
