package collector

import (
	"fmt"
	"sort"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// DataType selects what CollectAll fetches for each symbol.
type DataType string

const (
	Fundamental DataType = "fundamental"
	Historical  DataType = "historical"
)

// ParseDataType maps s to a DataType. Anything other than "fundamental"
// selects historical data.
func ParseDataType(s string) DataType {
	if DataType(s) == Fundamental {
		return Fundamental
	}
	return Historical
}

// Dataset is the per-symbol payload stored in a ResultSet: a
// FundamentalRecord or a historical series table.
type Dataset interface {
	table.Tabler
	Empty() bool
}

// Statement keys of a FundamentalRecord, used as labels when it is
// flattened into one table.
const (
	KeyInfo            = "info"
	KeyBalanceSheet    = "balance_sheet"
	KeyIncomeStatement = "income_statement"
	KeyCashFlow        = "cash_flow"

	// StatementLabel names the label column holding the keys above.
	StatementLabel = "Statement"
	itemLabel      = "Item"
	valueColumn    = "Value"
)

// FundamentalRecord holds one symbol's company info and annual statements.
// The zero value is the empty record.
type FundamentalRecord struct {
	Info            map[string]any
	BalanceSheet    *table.Table
	IncomeStatement *table.Table
	CashFlow        *table.Table
}

var _ Dataset = FundamentalRecord{}

// Empty reports whether the record carries no data at all.
func (r FundamentalRecord) Empty() bool {
	return len(r.Info) == 0 && r.BalanceSheet.Empty() && r.IncomeStatement.Empty() && r.CashFlow.Empty()
}

// InfoTable returns the numeric info fields as an Item/Value table sorted
// by field name. Text fields are omitted.
func (r FundamentalRecord) InfoTable() *table.Table {
	out := table.New([]string{itemLabel}, []string{valueColumn})
	keys := make([]string, 0, len(r.Info))
	for k := range r.Info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var v float64
		switch n := r.Info[k].(type) {
		case float64:
			v = n
		case int:
			v = float64(n)
		case int64:
			v = float64(n)
		default:
			continue
		}
		out.Rows = append(out.Rows, table.Row{Labels: []string{k}, Values: []float64{v}})
	}
	return out
}

// Table flattens the record into a single table labelled by statement and
// line item.
func (r FundamentalRecord) Table() (*table.Table, error) {
	return table.Stack(StatementLabel,
		[]string{KeyInfo, KeyBalanceSheet, KeyIncomeStatement, KeyCashFlow},
		[]*table.Table{r.InfoTable(), r.BalanceSheet, r.IncomeStatement, r.CashFlow},
	)
}

// Entry is the outcome for one symbol. A failed entry holds the empty
// Dataset for its data type and the error that emptied it.
type Entry struct {
	Symbol string
	Data   Dataset
	Err    error
}

// OK reports whether the symbol was collected without error.
func (e Entry) OK() bool {
	return e.Err == nil
}

// ResultSet maps every requested symbol to its Entry, in request order.
type ResultSet struct {
	dataType DataType
	order    []string
	entries  map[string]Entry
}

func newResultSet(dataType DataType, capacity int) *ResultSet {
	return &ResultSet{
		dataType: dataType,
		order:    make([]string, 0, capacity),
		entries:  make(map[string]Entry, capacity),
	}
}

func (rs *ResultSet) set(e Entry) {
	if _, ok := rs.entries[e.Symbol]; !ok {
		rs.order = append(rs.order, e.Symbol)
	}
	rs.entries[e.Symbol] = e
}

// DataType returns the kind of data the set holds.
func (rs *ResultSet) DataType() DataType { return rs.dataType }

// Symbols returns the symbols in collection order.
func (rs *ResultSet) Symbols() []string {
	return append([]string(nil), rs.order...)
}

// Get returns the entry for symbol.
func (rs *ResultSet) Get(symbol string) (Entry, bool) {
	e, ok := rs.entries[symbol]
	return e, ok
}

// Len returns the number of symbols in the set.
func (rs *ResultSet) Len() int { return len(rs.order) }

// Entries returns all entries in collection order.
func (rs *ResultSet) Entries() []Entry {
	out := make([]Entry, 0, len(rs.order))
	for _, s := range rs.order {
		out = append(out, rs.entries[s])
	}
	return out
}

// Failed returns the entries that carry an error.
func (rs *ResultSet) Failed() []Entry {
	var out []Entry
	for _, e := range rs.Entries() {
		if !e.OK() {
			out = append(out, e)
		}
	}
	return out
}

// Table stacks every symbol's data under a leading Symbol label column.
// Empty entries contribute no rows.
func (rs *ResultSet) Table() (*table.Table, error) {
	keys := make([]string, 0, len(rs.order))
	tables := make([]*table.Table, 0, len(rs.order))
	for _, e := range rs.Entries() {
		if e.Data == nil || e.Data.Empty() {
			continue
		}
		t, err := e.Data.Table()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Symbol, err)
		}
		keys = append(keys, e.Symbol)
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		empty := rs.emptyTable()
		return table.New(append([]string{"Symbol"}, empty.Labels...), empty.Columns), nil
	}
	return table.Stack("Symbol", keys, tables)
}

// emptyTable gives an all-failed set a header to write.
func (rs *ResultSet) emptyTable() *table.Table {
	if rs.dataType == Fundamental {
		return table.New([]string{StatementLabel, itemLabel}, nil)
	}
	return fetcher.EmptyHistory()
}

func emptyFor(dataType DataType) Dataset {
	if dataType == Fundamental {
		return FundamentalRecord{}
	}
	return fetcher.EmptyHistory()
}
