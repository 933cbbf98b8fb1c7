package stats

import (
	"bytes"
	"encoding/json"
)

// Report is the full analytics bundle for one transaction table.
// It is built once by Compute and never mutated afterwards.
type Report struct {
	TotalEarned  float64                `json:"total_earned"`
	TotalEntries int                    `json:"total_entries"`
	EntityCount  int                    `json:"entity_count"`
	DateRange    DateRange              `json:"date_range"`
	ByEntity     map[string]EntityStats `json:"by_entity"`

	AvgPerDay float64   `json:"avg_per_day"`
	BestDay   DayAmount `json:"best_day"`
	WorstDay  DayAmount `json:"worst_day"`

	Last7Days  *Window `json:"last_7_days,omitempty"`
	Last14Days *Window `json:"last_14_days,omitempty"`
	Last30Days *Window `json:"last_30_days,omitempty"`

	AvgPerWeek   float64 `json:"avg_per_week"`
	WeeklyChange *Change `json:"weekly_change,omitempty"`

	AvgPerMonth      float64   `json:"avg_per_month"`
	TotalMonths      int       `json:"total_months"`
	MonthlyBreakdown Breakdown `json:"monthly_breakdown"`
	MonthlyChange    *Change   `json:"monthly_change,omitempty"`

	DailyChange *Change  `json:"daily_change,omitempty"`
	GrowthRate  *float64 `json:"growth_rate,omitempty"`

	DailyTimeline     Timeline            `json:"daily_timeline"`
	PerEntityTimeline map[string]Timeline `json:"per_entity_timeline"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// EntityStats summarizes one alias. StdDev is nil for a single entry.
type EntityStats struct {
	Total       float64  `json:"total"`
	AvgPerEntry float64  `json:"avg_per_entry"`
	Entries     int      `json:"entries"`
	StdDev      *float64 `json:"std_dev"`
}

type DayAmount struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Window covers the trailing N days ending at the latest date in the table.
type Window struct {
	Total     float64 `json:"total"`
	AvgPerDay float64 `json:"avg_per_day"`
	Entries   int     `json:"entries"`
}

// Change compares the last two buckets of a series.
type Change struct {
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

// Timeline holds parallel arrays sorted ascending by date.
type Timeline struct {
	Dates   []string  `json:"dates"`
	Amounts []float64 `json:"amounts"`
}

type MonthAmount struct {
	Month  string
	Amount float64
}

// Breakdown is an ordered month → amount mapping, encoded as a JSON object
// whose keys keep chronological order.
type Breakdown []MonthAmount

func (b Breakdown) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Month)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.Amount)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
