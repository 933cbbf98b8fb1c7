package ledger

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

func tx(alias string, y, m, d int, amount string) core.Transaction {
	return core.Transaction{Alias: alias, Date: core.NewDate(y, m, d), Amount: decimal.RequireFromString(amount)}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildRunningBalance(t *testing.T) {
	l := Build(core.Table{
		tx("A", 2024, 1, 1, "100"),
		tx("A", 2024, 2, 1, "200"),
		tx("B", 2024, 2, 1, "50"),
	}, DefaultConfig())

	if len(l.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(l.Rows))
	}

	want := []struct {
		ref, through         string
		opening, gross, clos string
	}{
		{"-", "01/02/24", "-5000", "100", "-4900"},
		{"01/02/24", "01/03/24", "-4900", "250", "-4650"},
	}
	for i, w := range want {
		r := l.Rows[i]
		if r.Reference != w.ref || r.Through != w.through {
			t.Errorf("row %d labels: got (%s, %s), want (%s, %s)", i, r.Reference, r.Through, w.ref, w.through)
		}
		if !r.Opening.Equal(dec(w.opening)) || !r.Gross.Equal(dec(w.gross)) || !r.Closing.Equal(dec(w.clos)) {
			t.Errorf("row %d balances: opening=%s gross=%s closing=%s", i, r.Opening, r.Gross, r.Closing)
		}
		if !r.Net.Equal(r.Gross) || !r.Expenses.IsZero() {
			t.Errorf("row %d: net=%s expenses=%s", i, r.Net, r.Expenses)
		}
	}

	if l.Rows[1].PeriodStart.String() != "2024-02-01" || l.Rows[1].PeriodEnd.String() != "2024-02-29" {
		t.Fatalf("period: %s..%s", l.Rows[1].PeriodStart, l.Rows[1].PeriodEnd)
	}

	if l.Total.Label != "TOTAL" || !l.Total.Gross.Equal(dec("350")) || !l.Total.Net.Equal(dec("350")) {
		t.Fatalf("total: %+v", l.Total)
	}
	if l.Total.ClosingPercent != "7.0%" {
		t.Fatalf("closing percent: got %q", l.Total.ClosingPercent)
	}
}

func TestBuildChainsBalances(t *testing.T) {
	l := Build(core.Table{
		tx("A", 2023, 11, 15, "12.5"),
		tx("A", 2024, 3, 2, "-3"),
		tx("B", 2023, 12, 31, "7.25"),
		tx("A", 2024, 1, 1, "0.1"),
	}, Config{StartingBalance: dec("-100"), MonthlyExpenses: dec("2")})

	if l.Rows[0].Through != "01/12/23" || l.Rows[1].Through != "01/01/24" {
		t.Fatalf("year rollover labels: %s %s", l.Rows[0].Through, l.Rows[1].Through)
	}
	if !l.Rows[0].Opening.Equal(dec("-100")) {
		t.Fatalf("first opening: %s", l.Rows[0].Opening)
	}
	for i := 1; i < len(l.Rows); i++ {
		prev, cur := l.Rows[i-1], l.Rows[i]
		if !cur.Opening.Equal(prev.Closing) {
			t.Fatalf("row %d opening %s != previous closing %s", i, cur.Opening, prev.Closing)
		}
		if !cur.Closing.Equal(prev.Closing.Add(cur.Net)) {
			t.Fatalf("row %d closing %s", i, cur.Closing)
		}
		if !cur.Net.Equal(cur.Gross.Sub(dec("2"))) {
			t.Fatalf("row %d net %s gross %s", i, cur.Net, cur.Gross)
		}
	}
	if !l.Total.Expenses.Equal(dec("8")) {
		t.Fatalf("total expenses: %s", l.Total.Expenses)
	}
	// Closing: -100 + 16.85 - 8 = -91.15 → 8.85% → "8.9%"
	if l.Total.ClosingPercent != "8.9%" {
		t.Fatalf("closing percent: %q", l.Total.ClosingPercent)
	}
}

func TestBuildEmpty(t *testing.T) {
	l := Build(nil, DefaultConfig())
	if len(l.Rows) != 0 {
		t.Fatalf("expected no rows")
	}
	if l.Total.ClosingPercent != "%" {
		t.Fatalf("expected bare %% placeholder, got %q", l.Total.ClosingPercent)
	}
	if !l.Total.Gross.IsZero() {
		t.Fatalf("expected zero gross, got %s", l.Total.Gross)
	}
}

func TestClosingPercentZeroStart(t *testing.T) {
	l := Build(core.Table{tx("A", 2024, 1, 1, "10")}, Config{StartingBalance: decimal.Zero})
	if l.Total.ClosingPercent != "%" {
		t.Fatalf("expected placeholder for zero start, got %q", l.Total.ClosingPercent)
	}
}

func TestLedgerJSON(t *testing.T) {
	raw, err := json.Marshal(Build(core.Table{tx("A", 2024, 1, 1, "100")}, DefaultConfig()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"period_start":"2024-01-01"`, `"period_end":"2024-01-31"`, `"closing_percent":"2.0%"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("json missing %s: %s", want, raw)
		}
	}
}
