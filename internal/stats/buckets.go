package stats

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

// Bucket is a group of transactions sharing a key, reduced to a sum.
type Bucket[K comparable] struct {
	Key   K
	Sum   decimal.Decimal
	Count int
}

// WeekKey identifies an ISO calendar week.
type WeekKey struct {
	Year int
	Week int
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// String formats the month as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Start returns the first day of the month.
func (k MonthKey) Start() core.Date {
	return core.NewDate(k.Year, int(k.Month), 1)
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Daily sums amounts per calendar date, ascending by date.
func Daily(tbl core.Table) []Bucket[core.Date] {
	return sumBy(tbl, func(tx core.Transaction) core.Date { return tx.Date }, func(a, b core.Date) int {
		return a.Compare(b.Time)
	})
}

// Weekly sums amounts per ISO week, ascending by (year, week).
func Weekly(tbl core.Table) []Bucket[WeekKey] {
	return sumBy(tbl, func(tx core.Transaction) WeekKey {
		y, w := tx.Date.ISOWeek()
		return WeekKey{Year: y, Week: w}
	}, func(a, b WeekKey) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Week, b.Week)
	})
}

// Monthly sums amounts per calendar month, ascending by (year, month).
func Monthly(tbl core.Table) []Bucket[MonthKey] {
	return sumBy(tbl, func(tx core.Transaction) MonthKey {
		return MonthKey{Year: tx.Date.Year(), Month: tx.Date.Month()}
	}, func(a, b MonthKey) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
}

// sumBy groups without touching tbl and returns buckets sorted by compare.
func sumBy[K comparable](tbl core.Table, key func(core.Transaction) K, compare func(a, b K) int) []Bucket[K] {
	index := make(map[K]int)
	var out []Bucket[K]
	for _, tx := range tbl {
		k := key(tx)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Bucket[K]{Key: k, Sum: decimal.Zero})
		}
		out[i].Sum = out[i].Sum.Add(tx.Amount)
		out[i].Count++
	}
	slices.SortStableFunc(out, func(a, b Bucket[K]) int { return compare(a.Key, b.Key) })
	return out
}

func sums[K comparable](buckets []Bucket[K]) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = b.Sum
	}
	return out
}
