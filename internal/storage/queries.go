package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Reward struct {
	ID     int64
	Alias  string
	Date   string
	Amount string
}

const listRewards = `SELECT id, alias, date, amount FROM rewards ORDER BY id`

func (q *Queries) ListRewards(ctx context.Context) ([]Reward, error) {
	rows, err := q.db.QueryContext(ctx, listRewards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reward
	for rows.Next() {
		var i Reward
		if err := rows.Scan(&i.ID, &i.Alias, &i.Date, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertReward = `INSERT INTO rewards (alias, date, amount) VALUES (?, ?, ?)`

type InsertRewardParams struct {
	Alias  string
	Date   string
	Amount string
}

func (q *Queries) InsertReward(ctx context.Context, arg InsertRewardParams) error {
	_, err := q.db.ExecContext(ctx, insertReward, arg.Alias, arg.Date, arg.Amount)
	return err
}

const deleteAllRewards = `DELETE FROM rewards`

func (q *Queries) DeleteAllRewards(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRewards)
	return err
}

const countRewards = `SELECT COUNT(*) FROM rewards`

func (q *Queries) CountRewards(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRewards)
	var count int64
	err := row.Scan(&count)
	return count, err
}
