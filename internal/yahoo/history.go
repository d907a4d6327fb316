package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
		Splits map[string]struct {
			Date        int64   `json:"date"`
			Numerator   float64 `json:"numerator"`
			Denominator float64 `json:"denominator"`
		} `json:"splits"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// History retrieves OHLCV bars for the given range and interval. Both are
// passed to Yahoo verbatim. A symbol with no bars yields an empty table.
func (t *Ticker) History(ctx context.Context, period, interval string) (*table.Table, error) {
	var resp chartResponse

	err := t.client.get(ctx, "/v8/finance/chart/{symbol}", t.symbol, map[string]string{
		"range":          period,
		"interval":       interval,
		"includePrePost": "false",
		"events":         "div,splits",
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("chart error for %s: %s", t.symbol, resp.Chart.Error.Description))
	}

	out := fetcher.EmptyHistory()
	if len(resp.Chart.Result) == 0 {
		return out, nil
	}

	r := resp.Chart.Result[0]
	if len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return out, nil
	}

	loc := time.UTC
	if r.Meta.ExchangeTimezoneName != "" {
		if tz, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = tz
		}
	}
	layout := dateLayout(interval)

	dividends := make(map[int64]float64, len(r.Events.Dividends))
	for _, d := range r.Events.Dividends {
		dividends[d.Date] = d.Amount
	}
	splits := make(map[int64]float64, len(r.Events.Splits))
	for _, s := range r.Events.Splits {
		if s.Denominator != 0 {
			splits[s.Date] = s.Numerator / s.Denominator
		}
	}

	q := r.Indicators.Quote[0]
	type bar struct {
		ts     int64
		values []float64
	}
	bars := make([]bar, 0, len(r.Timestamp))

	for i, ts := range r.Timestamp {
		o, h, l, c := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if table.IsMissing(o) && table.IsMissing(h) && table.IsMissing(l) && table.IsMissing(c) {
			continue // null bars (holidays etc.)
		}
		bars = append(bars, bar{
			ts:     ts,
			values: []float64{o, h, l, c, at(q.Volume, i), dividends[ts], splits[ts]},
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].ts < bars[j].ts })
	for _, b := range bars {
		label := time.Unix(b.ts, 0).In(loc).Format(layout)
		if err := out.Append([]string{label}, b.values); err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
	}

	return out, nil
}

// at returns s[i] or a missing value when the slot is null or absent.
func at(s []*float64, i int) float64 {
	if i >= len(s) || s[i] == nil {
		return table.Missing()
	}
	return *s[i]
}

// dateLayout keeps the time of day only for intraday intervals (1m, 1h, ...).
func dateLayout(interval string) string {
	if strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h") {
		return "2006-01-02 15:04:05-07:00"
	}
	return "2006-01-02"
}
