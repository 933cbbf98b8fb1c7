// Package ledger builds the running-balance table: one row per calendar month,
// each month opening with the previous month's closing balance.
package ledger

import (
	"github.com/shopspring/decimal"

	"rewards/internal/core"
	"rewards/internal/stats"
)

// LabelLayout formats the reference and through columns (dd/mm/yy).
const LabelLayout = "02/01/06"

const (
	firstReference = "-"
	totalLabel     = "TOTAL"
)

// Config carries the balance assumptions applied to every ledger.
type Config struct {
	StartingBalance decimal.Decimal
	MonthlyExpenses decimal.Decimal
}

// DefaultConfig starts at -5000 with no monthly expenses.
func DefaultConfig() Config {
	return Config{
		StartingBalance: decimal.NewFromInt(-5000),
		MonthlyExpenses: decimal.Zero,
	}
}

// Row is one month of the ledger.
type Row struct {
	Reference   string          `json:"reference"`
	Through     string          `json:"through"`
	PeriodStart core.Date       `json:"period_start"`
	PeriodEnd   core.Date       `json:"period_end"`
	Opening     decimal.Decimal `json:"opening"`
	Expenses    decimal.Decimal `json:"expenses"`
	Gross       decimal.Decimal `json:"gross"`
	Net         decimal.Decimal `json:"net"`
	Closing     decimal.Decimal `json:"closing"`
}

// Total is the trailing summary row.
type Total struct {
	Label          string          `json:"label"`
	Expenses       decimal.Decimal `json:"expenses"`
	Gross          decimal.Decimal `json:"gross"`
	Net            decimal.Decimal `json:"net"`
	ClosingPercent string          `json:"closing_percent"`
}

type Ledger struct {
	StartingBalance decimal.Decimal `json:"starting_balance"`
	Rows            []Row           `json:"rows"`
	Total           Total           `json:"total"`
}

// Build walks the monthly buckets of tbl in ascending order. tbl is only read.
func Build(tbl core.Table, cfg Config) Ledger {
	months := stats.Monthly(tbl)
	l := Ledger{
		StartingBalance: cfg.StartingBalance,
		Rows:            make([]Row, 0, len(months)),
	}

	opening := cfg.StartingBalance
	for i, m := range months {
		start := m.Key.Start()
		next := m.Key.Next().Start()

		ref := firstReference
		if i > 0 {
			ref = start.Format(LabelLayout)
		}

		net := m.Sum.Sub(cfg.MonthlyExpenses)
		closing := opening.Add(net)
		l.Rows = append(l.Rows, Row{
			Reference:   ref,
			Through:     next.Format(LabelLayout),
			PeriodStart: start,
			PeriodEnd:   next.AddDays(-1),
			Opening:     opening,
			Expenses:    cfg.MonthlyExpenses,
			Gross:       m.Sum,
			Net:         net,
			Closing:     closing,
		})
		opening = closing
	}

	l.Total = total(l.Rows, cfg.StartingBalance)
	return l
}

func total(rows []Row, start decimal.Decimal) Total {
	t := Total{
		Label:    totalLabel,
		Expenses: decimal.Zero,
		Gross:    decimal.Zero,
		Net:      decimal.Zero,
	}
	for _, r := range rows {
		t.Expenses = t.Expenses.Add(r.Expenses)
		t.Gross = t.Gross.Add(r.Gross)
		t.Net = t.Net.Add(r.Net)
	}
	t.ClosingPercent = closingPercent(rows, start)
	return t
}

// closingPercent is (last closing - start) / |start| * 100 with one decimal,
// or a bare "%" when there is nothing to measure against.
func closingPercent(rows []Row, start decimal.Decimal) string {
	if len(rows) == 0 || start.IsZero() {
		return "%"
	}
	last := rows[len(rows)-1].Closing
	pct := last.Sub(start).Div(start.Abs()).Mul(decimal.NewFromInt(100))
	return pct.StringFixed(1) + "%"
}
