package collector

import (
	"errors"
	"testing"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/testutil"
)

func TestFundamentalRecord_Empty(t *testing.T) {
	if !(FundamentalRecord{}).Empty() {
		t.Error("zero record is not empty")
	}
	rec := FundamentalRecord{Info: map[string]any{"sector": "Energy"}}
	if rec.Empty() {
		t.Error("record with info reports empty")
	}
}

func TestFundamentalRecord_Table(t *testing.T) {
	rec := FundamentalRecord{
		Info:         map[string]any{"sector": "Energy", "beta": 0.8, "marketCap": 1.5e9},
		BalanceSheet: testutil.StatementTable([]string{"2024-03-31"}, map[string][]float64{"Total Assets": {1000}}),
		CashFlow:     testutil.StatementTable([]string{"2023-03-31"}, map[string][]float64{"Free Cash Flow": {80}}),
	}

	got, err := rec.Table()
	if err != nil {
		t.Fatalf("Table() returned unexpected error: %v", err)
	}
	if got.Len() != 4 {
		t.Fatalf("Table() has %d rows, want 4 (2 info, 2 statement)", got.Len())
	}

	row, ok := got.Find("Item", "beta")
	if !ok || row.Labels[0] != KeyInfo || row.Values[got.ColumnIndex(valueColumn)] != 0.8 {
		t.Errorf("beta row = %+v, want info row with value 0.8", row)
	}
	if _, ok := got.Find("Item", "sector"); ok {
		t.Error("text info field was included")
	}

	row, ok = got.Find("Item", "Free Cash Flow")
	if !ok || row.Labels[0] != KeyCashFlow {
		t.Errorf("Free Cash Flow row = %+v, want cash_flow row", row)
	}
	if want := []string{valueColumn, "2024-03-31", "2023-03-31"}; len(got.Columns) != len(want) {
		t.Errorf("Columns = %v, want %v", got.Columns, want)
	}
}

func TestResultSet_AllFailedTable(t *testing.T) {
	rs := newResultSet(Historical, 2)
	rs.set(Entry{Symbol: "AAA.NS", Data: emptyFor(Historical), Err: errors.New("down")})
	rs.set(Entry{Symbol: "BBB.NS", Data: emptyFor(Historical), Err: errors.New("down")})

	got, err := rs.Table()
	if err != nil {
		t.Fatalf("Table() returned unexpected error: %v", err)
	}
	if !got.Empty() {
		t.Errorf("Table() has %d rows, want 0", got.Len())
	}
	if len(got.Labels) != 2 || len(got.Columns) != len(fetcher.HistoryColumns) {
		t.Errorf("Table() shape = %v/%v, want Symbol, Date and history columns", got.Labels, got.Columns)
	}
}

func TestResultSet_SetKeepsOrder(t *testing.T) {
	rs := newResultSet(Fundamental, 2)
	rs.set(Entry{Symbol: "BBB.NS", Data: FundamentalRecord{}})
	rs.set(Entry{Symbol: "AAA.NS", Data: FundamentalRecord{}})
	rs.set(Entry{Symbol: "BBB.NS", Data: FundamentalRecord{}, Err: errors.New("late")})

	if got := rs.Symbols(); len(got) != 2 || got[0] != "BBB.NS" || got[1] != "AAA.NS" {
		t.Errorf("Symbols() = %v, want [BBB.NS AAA.NS]", got)
	}
	if e, _ := rs.Get("BBB.NS"); e.OK() {
		t.Error("second set did not replace the entry")
	}
}
