// Package testutil provides mock providers for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// MockTicker is a mock implementation of the fetcher.Ticker interface.
// Unset funcs return empty, successful results.
type MockTicker struct {
	SymbolName          string
	InfoFunc            func(ctx context.Context) (map[string]any, error)
	BalanceSheetFunc    func(ctx context.Context) (*table.Table, error)
	IncomeStatementFunc func(ctx context.Context) (*table.Table, error)
	CashFlowFunc        func(ctx context.Context) (*table.Table, error)
	HistoryFunc         func(ctx context.Context, period, interval string) (*table.Table, error)
}

// Symbol implements the fetcher.Ticker interface
func (m *MockTicker) Symbol() string { return m.SymbolName }

// Info implements the fetcher.Ticker interface
func (m *MockTicker) Info(ctx context.Context) (map[string]any, error) {
	if m.InfoFunc != nil {
		return m.InfoFunc(ctx)
	}
	return map[string]any{}, nil
}

// BalanceSheet implements the fetcher.Ticker interface
func (m *MockTicker) BalanceSheet(ctx context.Context) (*table.Table, error) {
	if m.BalanceSheetFunc != nil {
		return m.BalanceSheetFunc(ctx)
	}
	return StatementTable(nil, nil), nil
}

// IncomeStatement implements the fetcher.Ticker interface
func (m *MockTicker) IncomeStatement(ctx context.Context) (*table.Table, error) {
	if m.IncomeStatementFunc != nil {
		return m.IncomeStatementFunc(ctx)
	}
	return StatementTable(nil, nil), nil
}

// CashFlow implements the fetcher.Ticker interface
func (m *MockTicker) CashFlow(ctx context.Context) (*table.Table, error) {
	if m.CashFlowFunc != nil {
		return m.CashFlowFunc(ctx)
	}
	return StatementTable(nil, nil), nil
}

// History implements the fetcher.Ticker interface
func (m *MockTicker) History(ctx context.Context, period, interval string) (*table.Table, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, period, interval)
	}
	return fetcher.EmptyHistory(), nil
}

// MockProvider is a mock implementation of the fetcher.Provider interface.
// It records every symbol it is asked for.
type MockProvider struct {
	TickerFunc func(ctx context.Context, symbol string) (fetcher.Ticker, error)

	mu    sync.Mutex
	calls []string
}

// Ticker implements the fetcher.Provider interface
func (m *MockProvider) Ticker(ctx context.Context, symbol string) (fetcher.Ticker, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if m.TickerFunc != nil {
		return m.TickerFunc(ctx, symbol)
	}
	return &MockTicker{SymbolName: symbol}, nil
}

// Calls returns the symbols requested so far, in order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// NewMockProvider creates a provider serving the given tickers by symbol.
// Unknown symbols fail with a client error.
func NewMockProvider(tickers map[string]*MockTicker) *MockProvider {
	return &MockProvider{
		TickerFunc: func(ctx context.Context, symbol string) (fetcher.Ticker, error) {
			t, ok := tickers[symbol]
			if !ok {
				return nil, fetcher.NewClientError(404, fmt.Sprintf("no data for %s", symbol))
			}
			return t, nil
		},
	}
}

// StatementTable builds an Item-labelled statement table with one value
// column per date.
func StatementTable(dates []string, rows map[string][]float64) *table.Table {
	t := table.New([]string{"Item"}, dates)
	for item, values := range rows {
		t.Append([]string{item}, values)
	}
	return t
}

// HistoryTable builds a daily series with the given closes. The other price
// columns are derived from the close.
func HistoryTable(start string, closes ...float64) *table.Table {
	t := fetcher.EmptyHistory()
	day := 0
	for _, c := range closes {
		date := fmt.Sprintf("%s-%02d", start, day+1)
		t.Append([]string{date}, []float64{c, c + 1, c - 1, c, 1000, 0, 0})
		day++
	}
	return t
}

// NewHealthyTicker returns a ticker that answers every query with data.
func NewHealthyTicker(symbol string) *MockTicker {
	return &MockTicker{
		SymbolName: symbol,
		InfoFunc: func(ctx context.Context) (map[string]any, error) {
			return map[string]any{"symbol": symbol, "longName": symbol + " Ltd", "marketCap": 1.5e9}, nil
		},
		BalanceSheetFunc: func(ctx context.Context) (*table.Table, error) {
			return StatementTable([]string{"2024-03-31"}, map[string][]float64{"Total Assets": {1000}}), nil
		},
		IncomeStatementFunc: func(ctx context.Context) (*table.Table, error) {
			return StatementTable([]string{"2024-03-31"}, map[string][]float64{"Net Income": {120}}), nil
		},
		CashFlowFunc: func(ctx context.Context) (*table.Table, error) {
			return StatementTable([]string{"2024-03-31"}, map[string][]float64{"Free Cash Flow": {80}}), nil
		},
		HistoryFunc: func(ctx context.Context, period, interval string) (*table.Table, error) {
			return HistoryTable("2024-01", 10, 11, 12), nil
		},
	}
}
