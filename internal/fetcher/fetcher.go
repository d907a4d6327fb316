package fetcher

import (
	"context"
	"regexp"

	"stockcollector/internal/table"
)

// Provider is the upstream market-data source. It hands out one Ticker
// handle per symbol; the handle performs the actual remote queries.
type Provider interface {
	// Ticker returns a handle for the given exchange-qualified symbol.
	// Returns an error if no handle can be created for it.
	Ticker(ctx context.Context, symbol string) (Ticker, error)
}

// Ticker exposes exactly the per-symbol queries the collector uses.
// Payloads are passed through as the provider defines them.
type Ticker interface {
	Symbol() string

	// Info returns descriptive company metadata.
	Info(ctx context.Context) (map[string]any, error)

	// BalanceSheet, IncomeStatement and CashFlow return statement tables with
	// line items as rows and fiscal period end dates as columns.
	BalanceSheet(ctx context.Context) (*table.Table, error)
	IncomeStatement(ctx context.Context) (*table.Table, error)
	CashFlow(ctx context.Context) (*table.Table, error)

	// History returns OHLCV bars for a provider-defined period and interval,
	// e.g. "1y" and "1d". An empty table is a valid answer.
	History(ctx context.Context, period, interval string) (*table.Table, error)
}

// DateLabel names the label column of historical series.
const DateLabel = "Date"

// HistoryColumns are the data columns of every historical series.
var HistoryColumns = []string{"Open", "High", "Low", "Close", "Volume", "Dividends", "Stock Splits"}

// EmptyHistory returns a historical series with no rows.
func EmptyHistory() *table.Table {
	return table.New([]string{DateLabel}, HistoryColumns)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^&]*$`)

// ValidSymbol reports whether s looks like an exchange-qualified ticker,
// e.g. RELIANCE.NS, ^NSEI or BRK-B.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}
