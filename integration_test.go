package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockcollector/internal/collector"
	"stockcollector/internal/export"
	"stockcollector/internal/fetcher"
	"stockcollector/internal/ratelimit"
	"stockcollector/internal/validate"
	"stockcollector/internal/yahoo"
)

// newYahooServer serves chart, quoteSummary and timeseries responses for
// AAA.NS and 404s for every other symbol.
func newYahooServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if !strings.Contains(r.URL.Path, "AAA.NS") {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
			return
		}

		switch {
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			now := time.Now().UTC().Truncate(24 * time.Hour)
			ts := []int64{now.Add(-48 * time.Hour).Unix(), now.Add(-24 * time.Hour).Unix(), now.Unix()}
			fmt.Fprintf(w, `{"chart":{"result":[{
				"meta":{"symbol":"AAA.NS","exchangeTimezoneName":"UTC"},
				"timestamp":[%d,%d,%d],
				"indicators":{"quote":[{
					"open":[100,101,102],"high":[102,103,104],"low":[99,100,101],
					"close":[101,102,103],"volume":[1000,1100,1200]
				}]}
			}],"error":null}}`, ts[0], ts[1], ts[2])
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/"):
			w.Write([]byte(`{"quoteSummary":{"result":[{
				"price":{"longName":"AAA Industries","marketCap":{"raw":2500000000,"fmt":"2.5B"}},
				"summaryDetail":{"trailingPE":{"raw":21.4,"fmt":"21.40"}}
			}],"error":null}}`))
		case strings.HasPrefix(r.URL.Path, "/ws/fundamentals-timeseries/"):
			w.Write([]byte(`{"timeseries":{"result":[
				{"meta":{"type":["annualTotalAssets"]},"annualTotalAssets":[{"asOfDate":"2024-03-31","reportedValue":{"raw":1000}}]},
				{"meta":{"type":["annualTotalRevenue"]},"annualTotalRevenue":[{"asOfDate":"2024-03-31","reportedValue":{"raw":800}}]},
				{"meta":{"type":["annualFreeCashFlow"]},"annualFreeCashFlow":[{"asOfDate":"2024-03-31","reportedValue":{"raw":90}}]}
			],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newIntegrationCollector(t *testing.T, baseURL string) (*collector.Collector, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	client := yahoo.NewClient(baseURL, yahoo.Options{Timeout: 5 * time.Second, Logger: log})
	c, err := collector.New(client, []string{"AAA.NS", "BBB.NS"},
		collector.WithLimiter(ratelimit.New()),
		collector.WithSymbolDelay(0),
		collector.WithLogger(log),
	)
	if err != nil {
		t.Fatalf("collector.New() returned unexpected error: %v", err)
	}
	return c, logs
}

// TestIntegration_Fundamentals runs a fundamental collection against a mock
// Yahoo server and exports the result.
func TestIntegration_Fundamentals(t *testing.T) {
	server := newYahooServer(t)
	defer server.Close()

	c, logs := newIntegrationCollector(t, server.URL)
	rs := c.CollectAll(context.Background(), collector.Fundamental)

	if got := rs.Symbols(); len(got) != 2 || got[0] != "AAA.NS" || got[1] != "BBB.NS" {
		t.Fatalf("Symbols() = %v, want [AAA.NS BBB.NS]", got)
	}

	aaa, _ := rs.Get("AAA.NS")
	rec, ok := aaa.Data.(collector.FundamentalRecord)
	if !ok || !aaa.OK() || rec.Empty() {
		t.Fatalf("AAA.NS entry = %+v, want a record", aaa)
	}
	if rec.Info["longName"] != "AAA Industries" || rec.Info["trailingPE"] != 21.4 {
		t.Errorf("Info = %v", rec.Info)
	}
	if row, ok := rec.BalanceSheet.Find("Item", "Total Assets"); !ok || row.Values[0] != 1000 {
		t.Errorf("balance sheet Total Assets = %+v, %v", row, ok)
	}

	bbb, _ := rs.Get("BBB.NS")
	if bbb.OK() || !bbb.Data.Empty() {
		t.Errorf("BBB.NS entry = %+v, want failed empty record", bbb)
	}
	if fetcher.TypeOf(bbb.Err) != fetcher.ErrorTypeClient {
		t.Errorf("BBB.NS error type = %q, want client", fetcher.TypeOf(bbb.Err))
	}
	if logs.FilterMessage("Error getting fundamentals").Len() != 1 {
		t.Error("BBB.NS failure was not logged")
	}

	path := filepath.Join(t.TempDir(), "fundamentals.parquet")
	if !c.SaveData(rs, path) {
		t.Fatal("SaveData() = false, want true")
	}
	saved, err := export.Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if _, ok := saved.Find("Item", "Total Revenue"); !ok {
		t.Error("saved fundamentals lack Total Revenue")
	}
}

// TestIntegration_Historical collects, saves as CSV and validates price
// history end to end.
func TestIntegration_Historical(t *testing.T) {
	server := newYahooServer(t)
	defer server.Close()

	c, _ := newIntegrationCollector(t, server.URL)
	rs := c.CollectAll(context.Background(), collector.Historical)

	if rs.Len() != 2 || len(rs.Failed()) != 1 {
		t.Fatalf("ResultSet has %d entries and %d failures, want 2 and 1", rs.Len(), len(rs.Failed()))
	}

	r := c.GetHistorical(context.Background(), "AAA.NS", "1y", "1d")
	if !r.OK() || r.Value.Len() != 3 {
		t.Fatalf("GetHistorical() = %+v, want 3 bars", r)
	}

	path := filepath.Join(t.TempDir(), "AAA.NS_historical.csv")
	if !c.SaveData(r.Value, path) {
		t.Fatal("SaveData() = false, want true")
	}
	loaded, err := export.Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !loaded.Equal(r.Value) {
		t.Errorf("Load() = %+v, want %+v", loaded, r.Value)
	}

	report := validate.New().Validate("AAA.NS_historical", validate.KindHistorical, loaded)
	if !report.OK || !report.Fresh {
		t.Errorf("report = %+v, want passing and fresh", report)
	}
}
