// Package stats computes the descriptive statistics served by the dashboard.
//
// Sums are accumulated with shopspring/decimal and rounded only when copied
// into the Report, so the same table always produces the same report.
package stats

import (
	"math"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

const (
	amountPlaces    = 4
	breakdownPlaces = 2
	growthPlaces    = 2
)

var hundred = decimal.NewFromInt(100)

// Compute builds the report for tbl. It returns nil for an empty table.
// tbl is only read.
func Compute(tbl core.Table) *Report {
	if tbl.Empty() {
		return nil
	}

	lo, hi := tbl.DateBounds()
	daily := Daily(tbl)
	weekly := Weekly(tbl)
	monthly := Monthly(tbl)
	entities := groupByAlias(tbl)

	r := &Report{
		TotalEarned:  round(tbl.Sum(), amountPlaces),
		TotalEntries: tbl.Len(),
		EntityCount:  len(entities),
		DateRange: DateRange{
			Start: lo.String(),
			End:   hi.String(),
			Days:  lo.DaysUntil(hi) + 1,
		},
		ByEntity:          entityStats(entities),
		AvgPerDay:         round(mean(sums(daily)), amountPlaces),
		AvgPerWeek:        round(mean(sums(weekly)), amountPlaces),
		AvgPerMonth:       round(mean(sums(monthly)), amountPlaces),
		TotalMonths:       len(monthly),
		MonthlyBreakdown:  breakdown(monthly),
		WeeklyChange:      lastChange(sums(weekly)),
		MonthlyChange:     lastChange(sums(monthly)),
		DailyChange:       lastChange(sums(daily)),
		GrowthRate:        growthRate(tbl, lo, hi),
		DailyTimeline:     timeline(daily),
		PerEntityTimeline: entityTimelines(entities),
	}
	r.BestDay, r.WorstDay = extremes(daily)
	r.Last7Days = window(daily, hi, 7)
	r.Last14Days = window(daily, hi, 14)
	r.Last30Days = window(daily, hi, 30)
	return r
}

// PercentChange returns (curr-prev)/prev*100, or zero when prev is not positive.
func PercentChange(curr, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return curr.Sub(prev).Div(prev).Mul(hundred)
}

func lastChange(series []decimal.Decimal) *Change {
	n := len(series)
	if n < 2 {
		return nil
	}
	curr, prev := series[n-1], series[n-2]
	return &Change{
		Amount:  round(curr.Sub(prev), amountPlaces),
		Percent: round(PercentChange(curr, prev), amountPlaces),
	}
}

// growthRate compares the halves of the date span split at its midpoint instant.
// There is no fallback when the first half sums to zero: the field is omitted.
func growthRate(tbl core.Table, lo, hi core.Date) *float64 {
	mid := lo.Add(hi.Sub(lo.Time) / 2)
	first, second := decimal.Zero, decimal.Zero
	for _, tx := range tbl {
		if tx.Date.Before(mid) {
			first = first.Add(tx.Amount)
		} else {
			second = second.Add(tx.Amount)
		}
	}
	if first.IsZero() {
		return nil
	}
	g := round(second.Sub(first).Div(first).Mul(hundred), growthPlaces)
	return &g
}

// extremes picks the highest and lowest daily sums; ties keep the earliest date.
func extremes(daily []Bucket[core.Date]) (best, worst DayAmount) {
	hi, lo := daily[0], daily[0]
	for _, b := range daily[1:] {
		if b.Sum.GreaterThan(hi.Sum) {
			hi = b
		}
		if b.Sum.LessThan(lo.Sum) {
			lo = b
		}
	}
	best = DayAmount{Date: hi.Key.String(), Amount: round(hi.Sum, amountPlaces)}
	worst = DayAmount{Date: lo.Key.String(), Amount: round(lo.Sum, amountPlaces)}
	return best, worst
}

// window aggregates the trailing days [today-(days-1), today].
func window(daily []Bucket[core.Date], today core.Date, days int) *Window {
	cutoff := today.AddDays(-(days - 1))
	total := decimal.Zero
	var perDay []decimal.Decimal
	entries := 0
	for _, b := range daily {
		if b.Key.Before(cutoff.Time) || b.Key.After(today.Time) {
			continue
		}
		total = total.Add(b.Sum)
		perDay = append(perDay, b.Sum)
		entries += b.Count
	}
	if entries == 0 {
		return nil
	}
	return &Window{
		Total:     round(total, amountPlaces),
		AvgPerDay: round(mean(perDay), amountPlaces),
		Entries:   entries,
	}
}

func breakdown(monthly []Bucket[MonthKey]) Breakdown {
	out := make(Breakdown, len(monthly))
	for i, b := range monthly {
		out[i] = MonthAmount{Month: b.Key.String(), Amount: round(b.Sum, breakdownPlaces)}
	}
	return out
}

func timeline(daily []Bucket[core.Date]) Timeline {
	tl := Timeline{
		Dates:   make([]string, len(daily)),
		Amounts: make([]float64, len(daily)),
	}
	for i, b := range daily {
		tl.Dates[i] = b.Key.String()
		tl.Amounts[i] = round(b.Sum, amountPlaces)
	}
	return tl
}

// groupByAlias splits tbl into per-alias views, preserving row order within each alias.
func groupByAlias(tbl core.Table) map[string]core.Table {
	out := make(map[string]core.Table)
	for _, tx := range tbl {
		out[tx.Alias] = append(out[tx.Alias], tx)
	}
	return out
}

func entityStats(entities map[string]core.Table) map[string]EntityStats {
	out := make(map[string]EntityStats, len(entities))
	for alias, rows := range entities {
		amounts := make([]decimal.Decimal, len(rows))
		for i, tx := range rows {
			amounts[i] = tx.Amount
		}
		es := EntityStats{
			Total:       round(rows.Sum(), amountPlaces),
			AvgPerEntry: round(mean(amounts), amountPlaces),
			Entries:     len(rows),
		}
		if sd, ok := sampleStdDev(amounts); ok {
			v := roundFloat(sd, amountPlaces)
			es.StdDev = &v
		}
		out[alias] = es
	}
	return out
}

func entityTimelines(entities map[string]core.Table) map[string]Timeline {
	out := make(map[string]Timeline, len(entities))
	for alias, rows := range entities {
		out[alias] = timeline(Daily(rows))
	}
	return out
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}

// sampleStdDev uses the n-1 denominator and is undefined below two values.
func sampleStdDev(values []decimal.Decimal) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	m := mean(values)
	ss := decimal.Zero
	for _, v := range values {
		d := v.Sub(m)
		ss = ss.Add(d.Mul(d))
	}
	variance := ss.Div(decimal.NewFromInt(int64(n - 1)))
	return math.Sqrt(variance.InexactFloat64()), true
}

func round(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

func roundFloat(f float64, places int32) float64 {
	return round(decimal.NewFromFloat(f), places)
}
