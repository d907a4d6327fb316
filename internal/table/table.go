// Package table holds the small tabular type shared by the provider, the
// collector and the file exporters.
package table

import (
	"fmt"
	"math"
)

// Tabler is implemented by anything that can be flattened into a Table.
type Tabler interface {
	Table() (*Table, error)
}

// Row is a single table row. Labels and Values are parallel to the owning
// table's Labels and Columns.
type Row struct {
	Labels []string
	Values []float64
}

// Table is a set of rows keyed by one or more string label columns and
// carrying float64 data columns. Missing cells are NaN.
type Table struct {
	Labels  []string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given label and data column names.
func New(labels, columns []string) *Table {
	return &Table{
		Labels:  append([]string(nil), labels...),
		Columns: append([]string(nil), columns...),
	}
}

// Missing returns the value used for an absent cell.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v marks an absent cell.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Append adds a row. The label and value counts must match the table shape.
func (t *Table) Append(labels []string, values []float64) error {
	if len(labels) != len(t.Labels) {
		return fmt.Errorf("row has %d labels, table has %d", len(labels), len(t.Labels))
	}
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row{
		Labels: append([]string(nil), labels...),
		Values: append([]float64(nil), values...),
	})
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Table returns t itself so a *Table satisfies Tabler.
func (t *Table) Table() (*Table, error) {
	if t == nil {
		return nil, fmt.Errorf("nil table")
	}
	return t, nil
}

// ColumnIndex returns the position of the named data column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// LabelIndex returns the position of the named label column, or -1.
func (t *Table) LabelIndex(name string) int {
	for i, l := range t.Labels {
		if l == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named data column.
func (t *Table) Column(name string) ([]float64, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Values[idx]
	}
	return out, true
}

// Find returns the first row whose label in the named label column equals key.
func (t *Table) Find(label, key string) (Row, bool) {
	idx := t.LabelIndex(label)
	if idx < 0 {
		return Row{}, false
	}
	for _, r := range t.Rows {
		if r.Labels[idx] == key {
			return r, true
		}
	}
	return Row{}, false
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	out := New(t.Labels, t.Columns)
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out.Rows = append(out.Rows, t.Rows[:n]...)
	return out
}

// Equal reports whether two tables have the same shape and cells.
// Missing cells compare equal to each other.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !equalStrings(t.Labels, o.Labels) || !equalStrings(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		a, b := t.Rows[i], o.Rows[i]
		if !equalStrings(a.Labels, b.Labels) || len(a.Values) != len(b.Values) {
			return false
		}
		for j := range a.Values {
			if IsMissing(a.Values[j]) && IsMissing(b.Values[j]) {
				continue
			}
			if a.Values[j] != b.Values[j] {
				return false
			}
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Stack concatenates tables vertically under a new leading label column.
// keys[i] is written into that column for every row of tables[i]. Nil and
// empty tables are skipped. Data columns are the union of all inputs in
// first-seen order; cells absent from an input are missing.
func Stack(label string, keys []string, tables []*Table) (*Table, error) {
	if len(keys) != len(tables) {
		return nil, fmt.Errorf("stack: %d keys for %d tables", len(keys), len(tables))
	}

	var inner []string
	var columns []string
	seen := make(map[string]int)
	shaped := false
	for _, t := range tables {
		if t.Empty() {
			continue
		}
		if !shaped {
			inner = t.Labels
			shaped = true
		} else if !equalStrings(inner, t.Labels) {
			return nil, fmt.Errorf("stack: label columns %v do not match %v", t.Labels, inner)
		}
		for _, c := range t.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	out := New(append([]string{label}, inner...), columns)
	for i, t := range tables {
		if t.Empty() {
			continue
		}
		for _, r := range t.Rows {
			values := make([]float64, len(columns))
			for j := range values {
				values[j] = Missing()
			}
			for j, c := range t.Columns {
				values[seen[c]] = r.Values[j]
			}
			out.Rows = append(out.Rows, Row{
				Labels: append([]string{keys[i]}, r.Labels...),
				Values: values,
			})
		}
	}
	return out, nil
}
