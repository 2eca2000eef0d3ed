// Package tabular models externally parsed tables as loose rows with
// lower-cased column names. Source files arrive from spreadsheets the firm
// maintains by hand, so every accessor here tolerates missing columns and
// malformed cell values instead of failing.
package tabular

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one record. Keys are lower-cased, trimmed column names.
type Row map[string]string

// Table is an ordered collection of rows sharing a column set.
type Table []Row

// Get returns the trimmed cell value, or "" when the column is absent.
func (r Row) Get(col string) string {
	return strings.TrimSpace(r[col])
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t) == 0 }

// Pick returns the first candidate column name present in the table.
// Presence means the first row carries the key; loaders produce uniform rows.
func (t Table) Pick(candidates ...string) (string, bool) {
	if t.Empty() {
		return "", false
	}
	for _, c := range candidates {
		if _, ok := t[0][c]; ok {
			return c, true
		}
	}
	return "", false
}

// Normalize lower-cases and trims every column name in place.
func (t Table) Normalize() Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[strings.ToLower(strings.TrimSpace(k))] = v
		}
		out = append(out, nr)
	}
	return out
}

// Int parses a cell as an integer. Decimal-shaped values ("6.0") are accepted.
func Int(s string) (int, bool) {
	d, ok := Decimal(s)
	if !ok {
		return 0, false
	}
	return int(d.IntPart()), true
}

// Decimal parses a cell as a decimal amount. Spaces and a leading currency
// sign are stripped first.
func Decimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	"02/01/2006",
}

// Date parses a cell against the known date layouts.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Period parses a fiscal period ("YYYY-MM", "YYYY/MM" or "YYYYMM") to the
// first day of that month.
func Period(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) == 6 && isDigits(s) {
		s = s[:4] + "-" + s[4:]
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
