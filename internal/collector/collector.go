// Package collector fetches fundamentals or price history for a fixed set
// of symbols under a shared rate limit, one symbol at a time.
//
// No operation returns an error across its boundary. Failures are logged
// with the symbol or filename and surface as empty values, so one bad
// symbol never stops a batch.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stockcollector/internal/export"
	"stockcollector/internal/fetcher"
	"stockcollector/internal/ratelimit"
	"stockcollector/internal/table"
)

const (
	// DefaultSymbolDelay is the pause between two symbols in CollectAll.
	DefaultSymbolDelay = time.Second
	DefaultPeriod      = "1y"
	DefaultInterval    = "1d"
)

// Collector gathers market data for its symbols from a Provider.
type Collector struct {
	provider fetcher.Provider
	symbols  []string
	limiter  *ratelimit.Limiter
	api      ratelimit.API
	delay    time.Duration
	period   string
	interval string
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Collector.
type Option func(*Collector)

// WithLimiter replaces the process-wide limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Collector) { c.limiter = l }
}

// WithAPI selects the limiter bucket FetchSingle waits on. It defaults to
// ratelimit.APIYahoo.
func WithAPI(api ratelimit.API) Option {
	return func(c *Collector) { c.api = api }
}

// WithSymbolDelay sets the pause between symbols. Zero disables it.
func WithSymbolDelay(d time.Duration) Option {
	return func(c *Collector) { c.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithHistoryWindow sets the period and interval CollectAll requests
// historical data for.
func WithHistoryWindow(period, interval string) Option {
	return func(c *Collector) {
		c.period = period
		c.interval = interval
	}
}

// New creates a Collector for symbols. The symbol list is copied and must be
// non-empty, valid and free of duplicates.
func New(provider fetcher.Provider, symbols []string, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("collector: nil provider")
	}
	if len(symbols) == 0 {
		return nil, errors.New("collector: no symbols")
	}
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if !fetcher.ValidSymbol(s) {
			return nil, fmt.Errorf("collector: invalid symbol %q", s)
		}
		if seen[s] {
			return nil, fmt.Errorf("collector: duplicate symbol %q", s)
		}
		seen[s] = true
	}

	c := &Collector{
		provider: provider,
		symbols:  append([]string(nil), symbols...),
		limiter:  ratelimit.GetLimiter(),
		api:      ratelimit.APIYahoo,
		delay:    DefaultSymbolDelay,
		period:   DefaultPeriod,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Symbols returns a copy of the collector's symbol list.
func (c *Collector) Symbols() []string {
	return append([]string(nil), c.symbols...)
}

// FetchSingle waits for the shared rate limiter and asks the provider for a
// handle to symbol. The wait blocks until the limit allows the call.
func (c *Collector) FetchSingle(ctx context.Context, symbol string) fetcher.Result[fetcher.Ticker] {
	if err := c.limiter.Wait(ctx, c.api); err != nil {
		// The wait only fails on a done or too short context.
		err = fetcher.NewTimeoutError(err)
		c.logger.Error("Error fetching data", zap.String("symbol", symbol), zap.Error(err))
		return fetcher.Failure[fetcher.Ticker](symbol, nil, err)
	}

	ticker, err := c.provider.Ticker(ctx, symbol)
	if err == nil && ticker == nil {
		err = fetcher.NewValidationError("provider returned no handle")
	}
	if err != nil {
		c.logger.Error("Error fetching data", zap.String("symbol", symbol), zap.Error(err))
		return fetcher.Failure[fetcher.Ticker](symbol, nil, err)
	}
	return fetcher.Success(symbol, ticker)
}

// GetFundamentals returns symbol's info and annual statements. Any failure
// yields the empty record.
func (c *Collector) GetFundamentals(ctx context.Context, symbol string) fetcher.Result[FundamentalRecord] {
	handle := c.FetchSingle(ctx, symbol)
	if !handle.OK() {
		return fetcher.Failure(symbol, FundamentalRecord{}, handle.Error)
	}

	record, err := extractFundamentals(ctx, handle.Value)
	if err != nil {
		c.logger.Error("Error getting fundamentals", zap.String("symbol", symbol), zap.Error(err))
		return fetcher.Failure(symbol, FundamentalRecord{}, err)
	}
	return fetcher.Success(symbol, record)
}

func extractFundamentals(ctx context.Context, t fetcher.Ticker) (FundamentalRecord, error) {
	var (
		r   FundamentalRecord
		err error
	)
	if r.Info, err = t.Info(ctx); err != nil {
		return FundamentalRecord{}, fmt.Errorf("info: %w", err)
	}
	if r.BalanceSheet, err = t.BalanceSheet(ctx); err != nil {
		return FundamentalRecord{}, fmt.Errorf("balance sheet: %w", err)
	}
	if r.IncomeStatement, err = t.IncomeStatement(ctx); err != nil {
		return FundamentalRecord{}, fmt.Errorf("income statement: %w", err)
	}
	if r.CashFlow, err = t.CashFlow(ctx); err != nil {
		return FundamentalRecord{}, fmt.Errorf("cash flow: %w", err)
	}
	return r, nil
}

// GetHistorical returns symbol's price history for period and interval,
// which are passed to the provider as is. Empty strings select the
// collector's configured window ("1y" and "1d" unless overridden). Any
// failure yields an empty series; so does a provider with no bars, without
// an error.
func (c *Collector) GetHistorical(ctx context.Context, symbol, period, interval string) fetcher.Result[*table.Table] {
	if period == "" {
		period = c.period
	}
	if interval == "" {
		interval = c.interval
	}

	handle := c.FetchSingle(ctx, symbol)
	if !handle.OK() {
		return fetcher.Failure(symbol, fetcher.EmptyHistory(), handle.Error)
	}

	series, err := handle.Value.History(ctx, period, interval)
	if err != nil {
		c.logger.Error("Error getting historical data", zap.String("symbol", symbol), zap.Error(err))
		return fetcher.Failure(symbol, fetcher.EmptyHistory(), err)
	}
	if series == nil {
		series = fetcher.EmptyHistory()
	}
	return fetcher.Success(symbol, series)
}

// CollectAll fetches dataType for every symbol in order and returns a
// ResultSet holding exactly one entry per symbol. Symbols are separated by
// the configured delay. Once ctx is done the remaining symbols are recorded
// as failed without being fetched.
func (c *Collector) CollectAll(ctx context.Context, dataType DataType) *ResultSet {
	if dataType != Fundamental {
		dataType = Historical
	}
	rs := newResultSet(dataType, len(c.symbols))

	for i, symbol := range c.symbols {
		if err := ctx.Err(); err != nil {
			rs.set(Entry{Symbol: symbol, Data: emptyFor(dataType), Err: fetcher.NewNetworkError(err)})
			continue
		}

		c.logger.Info("Collecting data", zap.String("symbol", symbol), zap.String("type", string(dataType)))
		entry := c.collectOne(ctx, symbol, dataType)
		rs.set(entry)
		if entry.OK() {
			c.logger.Info("Collected data", zap.String("symbol", symbol), zap.Bool("empty", entry.Data.Empty()))
		}

		if i < len(c.symbols)-1 && c.delay > 0 {
			_ = c.sleep(ctx, c.delay)
		}
	}

	if failed := len(rs.Failed()); failed > 0 {
		c.logger.Warn("Collection finished with failures", zap.Int("failed", failed), zap.Int("total", rs.Len()))
	}
	return rs
}

func (c *Collector) collectOne(ctx context.Context, symbol string, dataType DataType) (entry Entry) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			c.logger.Error("Error processing symbol", zap.String("symbol", symbol), zap.Error(err))
			entry = Entry{Symbol: symbol, Data: emptyFor(dataType), Err: err}
		}
	}()

	if dataType == Fundamental {
		r := c.GetFundamentals(ctx, symbol)
		return Entry{Symbol: symbol, Data: r.Value, Err: r.Error}
	}
	r := c.GetHistorical(ctx, symbol, c.period, c.interval)
	return Entry{Symbol: symbol, Data: r.Value, Err: r.Error}
}

// SaveData writes data to filename, as Parquet when the name ends in
// ".parquet" and as CSV otherwise. Errors are logged and reported only as
// false.
func (c *Collector) SaveData(data table.Tabler, filename string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Error saving data", zap.String("filename", filename), zap.Any("panic", r))
			ok = false
		}
	}()

	if err := export.Save(data, filename); err != nil {
		c.logger.Error("Error saving data", zap.String("filename", filename), zap.Error(err))
		return false
	}
	c.logger.Info("Saved data", zap.String("filename", filename), zap.String("format", string(export.FormatFor(filename))))
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
