// Package loader turns delimited reward records into a validated core.Table.
//
// All sources (CSV files, spreadsheet ranges) go through FromRecords so the
// column mapping and row validation rules are applied identically.
package loader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

// CanonicalAlias is the canonical name of the entity identifier column.
const CanonicalAlias = "alias"

// Mapping describes how source columns map onto transaction fields.
type Mapping struct {
	// AliasColumn is renamed to "alias". When the header lacks it, a literal
	// "alias" column is used instead.
	AliasColumn  string
	DateColumn   string
	AmountColumn string
	// SkipRows is the number of preamble rows before the header.
	SkipRows int
	Comma    rune
}

// DefaultMapping matches the rewards export: licenseId/alias, date, amount_usd.
func DefaultMapping() Mapping {
	return Mapping{
		AliasColumn:  "licenseId",
		DateColumn:   "date",
		AmountColumn: "amount_usd",
		Comma:        ',',
	}
}

var dateLayouts = []string{
	core.DateLayout,
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339,
	time.RFC3339Nano,
}

// Load reads the file at path. A missing file yields core.ErrDataSourceNotFound.
func Load(path string, m Mapping) (core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, core.ErrDataSourceNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := Read(f, m)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return table, nil
}

// Read parses delimited text from r. The SkipRows preamble lines are
// discarded unparsed, so they may hold anything, stray quotes included.
func Read(r io.Reader, m Mapping) (core.Table, error) {
	if m.SkipRows < 0 {
		return nil, fmt.Errorf("invalid skip rows %d", m.SkipRows)
	}
	br := bufio.NewReader(r)
	skipped := 0
	for ; skipped < m.SkipRows; skipped++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read preamble: %w", err)
		}
	}

	cr := csv.NewReader(br)
	if m.Comma != 0 {
		cr.Comma = m.Comma
	}
	// Preamble rows may have a different shape than the data.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if skipped < m.SkipRows {
		return core.Table{}, nil
	}
	// Placeholders keep MalformedRowError lines counted from the top of the file.
	return FromRecords(append(make([][]string, m.SkipRows), records...), m)
}

// FromRecords validates raw records. The first record after SkipRows is the header.
// Any unparseable row aborts the load with a *core.MalformedRowError.
func FromRecords(records [][]string, m Mapping) (core.Table, error) {
	if m.SkipRows < 0 {
		return nil, fmt.Errorf("invalid skip rows %d", m.SkipRows)
	}
	if len(records) <= m.SkipRows {
		return core.Table{}, nil
	}

	header := normalizeHeader(records[m.SkipRows])
	cols, err := resolveColumns(header, m)
	if err != nil {
		return nil, err
	}

	table := make(core.Table, 0, len(records)-m.SkipRows-1)
	for i := m.SkipRows + 1; i < len(records); i++ {
		row := records[i]
		if blank(row) {
			continue
		}
		line := i + 1
		tx, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		table = append(table, tx)
	}
	return table, nil
}

type columns struct {
	alias, date, amount          int
	aliasName, dateName, amtName string
}

func resolveColumns(header []string, m Mapping) (columns, error) {
	c := columns{
		alias:     indexOf(header, m.AliasColumn),
		aliasName: m.AliasColumn,
		date:      indexOf(header, m.DateColumn),
		dateName:  m.DateColumn,
		amount:    indexOf(header, m.AmountColumn),
		amtName:   m.AmountColumn,
	}
	if c.alias == -1 && m.AliasColumn != CanonicalAlias {
		c.alias = indexOf(header, CanonicalAlias)
		c.aliasName = CanonicalAlias
	}

	missing := make([]string, 0, 3)
	if c.alias == -1 {
		missing = append(missing, m.AliasColumn)
	}
	if c.date == -1 {
		missing = append(missing, m.DateColumn)
	}
	if c.amount == -1 {
		missing = append(missing, m.AmountColumn)
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: %s; got headers=%v", core.ErrMissingColumn, strings.Join(missing, ","), header)
	}
	return c, nil
}

func parseRow(row []string, c columns, line int) (core.Transaction, error) {
	return parseFields(line,
		[3]string{c.aliasName, c.dateName, c.amtName},
		safeGet(row, c.alias), safeGet(row, c.date), safeGet(row, c.amount))
}

// Validate applies the row rules to one stored record (database sources).
// Errors name the alias, date and amount columns and carry line unchanged.
func Validate(line int, alias, date, amount string) (core.Transaction, error) {
	return parseFields(line, [3]string{"alias", "date", "amount"}, alias, date, amount)
}

func parseFields(line int, names [3]string, rawAlias, rawDate, rawAmount string) (core.Transaction, error) {
	alias := strings.TrimSpace(rawAlias)
	if alias == "" {
		return core.Transaction{}, &core.MalformedRowError{Line: line, Column: names[0], Value: alias, Err: core.ErrEmptyAlias}
	}

	date, err := ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, &core.MalformedRowError{Line: line, Column: names[1], Value: rawDate, Err: err}
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return core.Transaction{}, &core.MalformedRowError{Line: line, Column: names[2], Value: rawAmount, Err: err}
	}

	return core.Transaction{Alias: alias, Date: date, Amount: amount}, nil
}

// ParseDate accepts the supported calendar date layouts and keeps the date as written.
func ParseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, core.ErrZeroDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a plain decimal amount. No currency symbol is expected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	return decimal.NewFromString(s)
}

func normalizeHeader(row []string) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if i == 0 {
			v = strings.TrimPrefix(v, "\ufeff")
		}
		out[i] = strings.TrimSpace(v)
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if v == target {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
