// Package postgres reads the rewards table from a PostgreSQL database.
//
// The table needs alias, date and amount columns plus an ordering id:
//
//	CREATE TABLE rewards (
//	    id     BIGSERIAL PRIMARY KEY,
//	    alias  TEXT NOT NULL,
//	    date   DATE NOT NULL,
//	    amount NUMERIC NOT NULL
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rewards/internal/core"
	"rewards/internal/loader"
	"rewards/internal/source"
)

const DefaultTable = "rewards"

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

type Config struct {
	URL   string
	Table string
}

type Client struct {
	pool  *pgxpool.Pool
	table string
	query string
}

var _ source.TableReader = (*Client)(nil)

type record struct {
	ID     int64
	Alias  string
	Date   string
	Amount string
}

// New parses cfg and prepares a pool. The pool connects lazily, so an
// unreachable server surfaces on the first ReadTable.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("postgres URL is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	return &Client{pool: pool, table: table, query: selectQuery(table)}, nil
}

// selectQuery casts on the server so DATE, TIMESTAMP and NUMERIC columns
// all arrive as text the loader already parses.
func selectQuery(table string) string {
	return fmt.Sprintf(`SELECT id, alias, "date"::date::text, amount::text FROM %s ORDER BY id`,
		pgx.Identifier{table}.Sanitize())
}

func (c *Client) ReadTable(ctx context.Context) (core.Table, error) {
	rows, err := c.pool.Query(ctx, c.query)
	if err != nil {
		return nil, c.wrap(err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[record])
	if err != nil {
		return nil, c.wrap(err)
	}
	return toTable(records)
}

func (c *Client) wrap(err error) error {
	if isUndefinedTable(err) {
		return fmt.Errorf("postgres table %s: %w", c.table, core.ErrDataSourceNotFound)
	}
	return fmt.Errorf("query postgres table %s: %w", c.table, err)
}

func (c *Client) Name() string {
	return "postgres:" + c.table
}

// Close releases the pool.
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

// toTable applies the loader's rules. Line in a MalformedRowError is the row id.
func toTable(records []record) (core.Table, error) {
	out := make(core.Table, 0, len(records))
	for _, r := range records {
		tx, err := loader.Validate(int(r.ID), r.Alias, r.Date, r.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}
