package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if len(cfg.Symbols) != len(DefaultSymbols) {
		t.Fatalf("len(Symbols) = %d, want %d", len(cfg.Symbols), len(DefaultSymbols))
	}
	for i, s := range DefaultSymbols {
		if cfg.Symbols[i] != s {
			t.Errorf("Symbols[%d] = %q, want %q", i, cfg.Symbols[i], s)
		}
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"SymbolDelay", cfg.SymbolDelay, time.Second},
		{"Yahoo.BaseURL", cfg.Yahoo.BaseURL, "https://query2.finance.yahoo.com"},
		{"Yahoo.RetryCount", cfg.Yahoo.RetryCount, 0},
		{"Provider", cfg.Provider, "yahoo"},
		{"AlphaVantage.BaseURL", cfg.AlphaVantage.BaseURL, "https://www.alphavantage.co/query"},
		{"RateLimit.Calls", cfg.RateLimit.Calls, 2000},
		{"RateLimit.Period", cfg.RateLimit.Period, time.Hour},
		{"History.Period", cfg.History.Period, "1y"},
		{"History.Interval", cfg.History.Interval, "1d"},
		{"Output.Dir", cfg.Output.Dir, "data"},
		{"Output.Format", cfg.Output.Format, "parquet"},
		{"Log.Level", cfg.Log.Level, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKCOLLECTOR_SYMBOLS", "aaa.ns, BBB.NS")
	t.Setenv("STOCKCOLLECTOR_RATE_LIMIT_CALLS", "5")
	t.Setenv("STOCKCOLLECTOR_RATE_LIMIT_PERIOD", "1m")
	t.Setenv("STOCKCOLLECTOR_YAHOO_BASE_URL", "http://localhost:9999")
	t.Setenv("STOCKCOLLECTOR_OUTPUT_FORMAT", "csv")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if strings.Join(cfg.Symbols, ",") != "AAA.NS,BBB.NS" {
		t.Errorf("Symbols = %v, want [AAA.NS BBB.NS]", cfg.Symbols)
	}
	if cfg.RateLimit.Calls != 5 {
		t.Errorf("RateLimit.Calls = %d, want 5", cfg.RateLimit.Calls)
	}
	if cfg.RateLimit.Period != time.Minute {
		t.Errorf("RateLimit.Period = %v, want 1m", cfg.RateLimit.Period)
	}
	if cfg.Yahoo.BaseURL != "http://localhost:9999" {
		t.Errorf("Yahoo.BaseURL = %q, want http://localhost:9999", cfg.Yahoo.BaseURL)
	}
	if cfg.Output.Format != "csv" {
		t.Errorf("Output.Format = %q, want csv", cfg.Output.Format)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collector.yaml")
	content := `
symbols:
  - TCS.NS
  - INFY.NS
symbol_delay: 250ms
history:
  period: 6mo
  interval: 1wk
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if strings.Join(cfg.Symbols, ",") != "TCS.NS,INFY.NS" {
		t.Errorf("Symbols = %v, want [TCS.NS INFY.NS]", cfg.Symbols)
	}
	if cfg.SymbolDelay != 250*time.Millisecond {
		t.Errorf("SymbolDelay = %v, want 250ms", cfg.SymbolDelay)
	}
	if cfg.History.Period != "6mo" || cfg.History.Interval != "1wk" {
		t.Errorf("History = %+v, want 6mo/1wk", cfg.History)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_AlphaVantageEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKCOLLECTOR_PROVIDER", "alphavantage")
	t.Setenv("STOCKCOLLECTOR_ALPHAVANTAGE_API_KEY", "demo")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.Provider != ProviderAlphaVantage {
		t.Errorf("Provider = %q, want alphavantage", cfg.Provider)
	}
	if cfg.AlphaVantage.APIKey != "demo" {
		t.Errorf("AlphaVantage.APIKey = %q, want demo", cfg.AlphaVantage.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing explicit file, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Symbols:     []string{"AAA.NS"},
			SymbolDelay: time.Second,
			Provider:    ProviderYahoo,
			Yahoo:       YahooConfig{BaseURL: "http://localhost"},
			RateLimit:   RateLimitConfig{Calls: 10, Period: time.Minute},
			Output:      OutputConfig{Dir: "data", Format: "parquet"},
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErrText string
	}{
		{"valid", func(*Config) {}, ""},
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbols must not be empty"},
		{"invalid symbol", func(c *Config) { c.Symbols = []string{"bad symbol"} }, `invalid symbol "bad symbol"`},
		{"duplicate symbol", func(c *Config) { c.Symbols = []string{"AAA.NS", "AAA.NS"} }, `duplicate symbol "AAA.NS"`},
		{"zero calls", func(c *Config) { c.RateLimit.Calls = 0 }, "rate_limit.calls"},
		{"zero period", func(c *Config) { c.RateLimit.Period = 0 }, "rate_limit.period"},
		{"negative delay", func(c *Config) { c.SymbolDelay = -time.Second }, "symbol_delay"},
		{"unknown format", func(c *Config) { c.Output.Format = "xlsx" }, `unknown output.format "xlsx"`},
		{"valid schedule", func(c *Config) { c.Schedule = "30 16 * * 1-5" }, ""},
		{"unknown provider", func(c *Config) { c.Provider = "bloomberg" }, `unknown provider "bloomberg"`},
		{"alphavantage without key", func(c *Config) { c.Provider = ProviderAlphaVantage }, "alphavantage.api_key must be set"},
		{"alphavantage", func(c *Config) {
			c.Provider = ProviderAlphaVantage
			c.AlphaVantage = AlphaVantageConfig{BaseURL: "http://localhost", APIKey: "demo"}
		}, ""},
		{"invalid schedule", func(c *Config) { c.Schedule = "every day" }, `invalid schedule "every day"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErrText == "" {
				if err != nil {
					t.Errorf("Validate() returned unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrText) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrText)
			}
		})
	}
}
