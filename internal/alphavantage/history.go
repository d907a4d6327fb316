package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// seriesFunctions maps Yahoo style intervals to Alpha Vantage functions
// and the key holding their bars.
var seriesFunctions = map[string]struct {
	function string
	key      string
}{
	"1d":  {"TIME_SERIES_DAILY", "Time Series (Daily)"},
	"1wk": {"TIME_SERIES_WEEKLY", "Weekly Time Series"},
	"1mo": {"TIME_SERIES_MONTHLY", "Monthly Time Series"},
}

type bar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// History retrieves bars for a Yahoo style period ("1mo", "1y", "max", ...)
// and interval ("1d", "1wk" or "1mo"). Dividends and splits are reported as
// zero.
func (t *Ticker) History(ctx context.Context, period, interval string) (*table.Table, error) {
	series, ok := seriesFunctions[interval]
	if !ok {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unsupported interval %q", interval))
	}
	now := t.client.now()
	since, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}

	params := map[string]string{}
	if series.function == "TIME_SERIES_DAILY" {
		// compact holds the latest 100 bars
		params["outputsize"] = "compact"
		if since.IsZero() || now.Sub(since) > 100*24*time.Hour {
			params["outputsize"] = "full"
		}
	}

	body, err := t.client.query(ctx, series.function, t.symbol, params)
	if err != nil {
		return nil, err
	}

	out := fetcher.EmptyHistory()
	raw, ok := body[series.key]
	if !ok {
		return out, nil
	}
	var bars map[string]bar
	if err := json.Unmarshal(raw, &bars); err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("%s for %s: %v", series.function, t.symbol, err))
	}

	dates := make([]string, 0, len(bars))
	for d := range bars {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	cutoff := since.Format("2006-01-02")
	for _, d := range dates {
		if !since.IsZero() && d < cutoff {
			continue
		}
		b := bars[d]
		values := []float64{value(b.Open), value(b.High), value(b.Low), value(b.Close), value(b.Volume), 0, 0}
		if err := out.Append([]string{d}, values); err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
	}
	return out, nil
}

func value(s string) float64 {
	if v, ok := number(s); ok {
		return v
	}
	return table.Missing()
}

// periodStart returns the first date covered by period. "max" has no
// start and returns the zero time.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "max":
		return time.Time{}, nil
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "1d":
		return now.AddDate(0, 0, -1), nil
	case "5d":
		return now.AddDate(0, 0, -5), nil
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	case "10y":
		return now.AddDate(-10, 0, 0), nil
	}
	return time.Time{}, fetcher.NewValidationError(fmt.Sprintf("unsupported period %q", period))
}
