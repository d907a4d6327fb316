// Package validate runs sanity checks over collected tables: required
// columns or line items, missing cells, implausible prices and stale data.
package validate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// Kind is the shape of table a check set applies to.
type Kind string

const (
	KindHistorical      Kind = "historical"
	KindBalanceSheet    Kind = "balance_sheet"
	KindIncomeStatement Kind = "income_statement"
	KindCashFlow        Kind = "cash_flow"
)

// KindOf infers the kind from a table name such as "AAA.NS_balance_sheet".
// Names matching no statement are treated as historical.
func KindOf(name string) Kind {
	lower := strings.ToLower(name)
	for _, k := range []Kind{KindBalanceSheet, KindIncomeStatement, KindCashFlow} {
		if strings.Contains(lower, string(k)) {
			return k
		}
	}
	return KindHistorical
}

var required = map[Kind][]string{
	KindHistorical:      {"Open", "High", "Low", "Close", "Volume"},
	KindBalanceSheet:    {"Total Assets", "Total Liabilities Net Minority Interest"},
	KindIncomeStatement: {"Total Revenue", "Net Income"},
	KindCashFlow:        {"Operating Cash Flow", "Free Cash Flow"},
}

const (
	maxPrice  = 1e6
	maxVolume = 1e12
)

// Issue is one failed check.
type Issue struct {
	Check  string `yaml:"check"`
	Detail string `yaml:"detail"`
}

// Report is the outcome of validating one table. NonTradingDays lists bars
// dated on days the symbol's exchange was closed; they do not fail the
// report.
type Report struct {
	Name           string   `yaml:"name"`
	Kind           Kind     `yaml:"kind"`
	OK             bool     `yaml:"ok"`
	Issues         []Issue  `yaml:"issues,omitempty"`
	Fresh          bool     `yaml:"fresh"`
	Freshness      string   `yaml:"freshness"`
	NonTradingDays []string `yaml:"non_trading_days,omitempty"`
}

// Validator checks tables against fixed expectations.
type Validator struct {
	// MaxAge bounds the age of the newest bar in a historical series.
	MaxAge time.Duration
	// StatementMaxAge bounds the age of the newest period of a statement.
	StatementMaxAge time.Duration

	now func() time.Time
}

// New creates a Validator allowing 30 day old prices and statements up to
// 550 days past their fiscal year end.
func New() *Validator {
	return &Validator{
		MaxAge:          30 * 24 * time.Hour,
		StatementMaxAge: 550 * 24 * time.Hour,
		now:             time.Now,
	}
}

// Run validates every named table and returns the reports sorted by name.
func (v *Validator) Run(tables map[string]*table.Table) []Report {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	reports := make([]Report, 0, len(names))
	for _, name := range names {
		reports = append(reports, v.Validate(name, KindOf(name), tables[name]))
	}
	return reports
}

// Validate checks a single table of the given kind.
func (v *Validator) Validate(name string, kind Kind, t *table.Table) Report {
	r := Report{Name: name, Kind: kind}
	if t.Empty() {
		r.Issues = []Issue{{Check: "error", Detail: "Empty table"}}
		r.Freshness = "Empty table"
		return r
	}

	if kind == KindHistorical {
		r.Issues = checkHistorical(t)
		r.Fresh, r.Freshness = v.freshness(latestLabel(t), v.MaxAge)
		r.NonTradingDays = nonTradingDays(t, calendarFor(symbolOf(name)))
	} else {
		r.Issues = checkStatement(kind, t)
		r.Fresh, r.Freshness = v.freshness(latestColumn(t), v.StatementMaxAge)
	}
	r.OK = len(r.Issues) == 0
	return r
}

func checkHistorical(t *table.Table) []Issue {
	var issues []Issue
	if missing := missingColumns(t, required[KindHistorical]); len(missing) > 0 {
		issues = append(issues, Issue{"missing_columns", strings.Join(missing, ", ")})
	}
	if nulls := nullCounts(t); nulls != "" {
		issues = append(issues, Issue{"null_values", nulls})
	}

	for _, col := range []string{"Open", "High", "Low", "Close"} {
		if rows := outOfRange(t, col, 0, maxPrice); len(rows) > 0 {
			issues = append(issues, Issue{col + "_anomalies", strings.Join(rows, ", ")})
		}
	}
	if rows := outOfRange(t, "Volume", 0, maxVolume); len(rows) > 0 {
		issues = append(issues, Issue{"Volume_anomalies", strings.Join(rows, ", ")})
	}

	o, h, l, c := t.ColumnIndex("Open"), t.ColumnIndex("High"), t.ColumnIndex("Low"), t.ColumnIndex("Close")
	if o >= 0 && h >= 0 && l >= 0 && c >= 0 {
		var bad []string
		for _, row := range t.Rows {
			vo, vh, vl, vc := row.Values[o], row.Values[h], row.Values[l], row.Values[c]
			if vh < vl || vh < vo || vh < vc || vl > vo || vl > vc {
				bad = append(bad, rowName(row))
			}
		}
		if len(bad) > 0 {
			issues = append(issues, Issue{"price_inconsistencies", strings.Join(bad, ", ")})
		}
	}
	return issues
}

func checkStatement(kind Kind, t *table.Table) []Issue {
	var issues []Issue
	var missing []string
	for _, item := range required[kind] {
		if _, ok := t.Find(itemLabel(t), item); !ok {
			missing = append(missing, item)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{"missing_items", strings.Join(missing, ", ")})
	}
	if nulls := nullCounts(t); nulls != "" {
		issues = append(issues, Issue{"null_values", nulls})
	}

	if kind == KindBalanceSheet {
		if row, ok := t.Find(itemLabel(t), "Total Assets"); ok {
			var negative []string
			for i, v := range row.Values {
				if v < 0 {
					negative = append(negative, t.Columns[i])
				}
			}
			if len(negative) > 0 {
				issues = append(issues, Issue{"negative_assets", strings.Join(negative, ", ")})
			}
		}
	}
	return issues
}

// itemLabel returns the line item column: "Item" when present, else the
// last label column.
func itemLabel(t *table.Table) string {
	if t.LabelIndex("Item") >= 0 || len(t.Labels) == 0 {
		return "Item"
	}
	return t.Labels[len(t.Labels)-1]
}

// nonTradingDays returns the daily bars falling on exchange holidays or
// weekends. Intraday labels are checked by their date part.
func nonTradingDays(t *table.Table, cal tradingCalendar) []string {
	idx := t.LabelIndex(fetcher.DateLabel)
	if idx < 0 {
		return nil
	}
	var out []string
	for _, row := range t.Rows {
		label := row.Labels[idx]
		if len(label) < len("2006-01-02") {
			continue
		}
		d, err := time.Parse("2006-01-02", label[:10])
		if err != nil {
			continue
		}
		if !cal.isTradingDay(d.Year(), d.Month(), d.Day()) {
			out = append(out, label)
		}
	}
	return out
}

func missingColumns(t *table.Table, want []string) []string {
	var out []string
	for _, c := range want {
		if t.ColumnIndex(c) < 0 {
			out = append(out, c)
		}
	}
	return out
}

// nullCounts lists columns holding missing cells as "Close: 2, Volume: 1".
func nullCounts(t *table.Table) string {
	var parts []string
	for i, c := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if table.IsMissing(row.Values[i]) {
				n++
			}
		}
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", c, n))
		}
	}
	return strings.Join(parts, ", ")
}

func outOfRange(t *table.Table, col string, lo, hi float64) []string {
	idx := t.ColumnIndex(col)
	if idx < 0 {
		return nil
	}
	var out []string
	for _, row := range t.Rows {
		if v := row.Values[idx]; v < lo || v > hi {
			out = append(out, rowName(row))
		}
	}
	return out
}

func rowName(row table.Row) string {
	return strings.Join(row.Labels, "/")
}

// latestLabel returns the newest date in the Date label column.
func latestLabel(t *table.Table) string {
	idx := t.LabelIndex(fetcher.DateLabel)
	if idx < 0 {
		return ""
	}
	latest := ""
	for _, row := range t.Rows {
		if d := row.Labels[idx]; d > latest {
			latest = d
		}
	}
	return latest
}

// latestColumn returns the newest date among the data column names.
func latestColumn(t *table.Table) string {
	latest := ""
	for _, c := range t.Columns {
		if c > latest {
			latest = c
		}
	}
	return latest
}

func (v *Validator) freshness(latest string, maxAge time.Duration) (bool, string) {
	if len(latest) < len("2006-01-02") {
		return false, fmt.Sprintf("Error checking data freshness: no date in %q", latest)
	}
	date, err := time.Parse("2006-01-02", latest[:10])
	if err != nil {
		return false, fmt.Sprintf("Error checking data freshness: %v", err)
	}

	age := int(v.now().Sub(date).Hours() / 24)
	maxDays := int(maxAge.Hours() / 24)
	if age > maxDays {
		return false, fmt.Sprintf("Data is %d days old (max allowed: %d)", age, maxDays)
	}
	return true, "Data is fresh"
}
