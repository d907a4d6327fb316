package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"stockcollector/internal/fetcher"
)

// DefaultSymbols is the Nifty 50 subset collected when no symbols are configured.
var DefaultSymbols = []string{
	"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "INFY.NS", "HINDUNILVR.NS",
	"ICICIBANK.NS", "HDFC.NS", "SBIN.NS", "BHARTIARTL.NS", "ITC.NS",
}

// YahooConfig holds the upstream provider settings.
type YahooConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// AlphaVantageConfig holds the Alpha Vantage provider settings.
type AlphaVantageConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
}

// Provider names accepted by the provider key.
const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
)

// RateLimitConfig is the process-wide ceiling of Calls per Period.
type RateLimitConfig struct {
	Calls  int           `mapstructure:"calls"`
	Period time.Duration `mapstructure:"period"`
}

// HistoryConfig is the window requested for historical series.
type HistoryConfig struct {
	Period   string `mapstructure:"period"`
	Interval string `mapstructure:"interval"`
}

// OutputConfig controls where collection runs are written.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // "parquet" or "csv"
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile string `mapstructure:"output_file"` // file path to store logs (optional)
}

// Config holds all configuration for the collector.
type Config struct {
	Symbols      []string           `mapstructure:"symbols"`
	SymbolDelay  time.Duration      `mapstructure:"symbol_delay"`
	Schedule     string             `mapstructure:"schedule"` // cron spec for repeated collection (optional)
	Provider     string             `mapstructure:"provider"` // "yahoo" or "alphavantage"
	Yahoo        YahooConfig        `mapstructure:"yahoo"`
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	History      HistoryConfig      `mapstructure:"history"`
	Output       OutputConfig       `mapstructure:"output"`
	Log          LogConfig          `mapstructure:"log"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables. Environment variables take precedence over config
// file values.
//
// When file is empty, config.yaml is looked up in the working directory and
// in $HOME/.stockcollector; a missing file is not an error.
//
// Environment variables use the STOCKCOLLECTOR_ prefix with dots replaced by
// underscores, for example:
//   - STOCKCOLLECTOR_SYMBOLS (comma separated)
//   - STOCKCOLLECTOR_YAHOO_BASE_URL
//   - STOCKCOLLECTOR_ALPHAVANTAGE_API_KEY
//   - STOCKCOLLECTOR_RATE_LIMIT_CALLS
//   - STOCKCOLLECTOR_LOG_LEVEL
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("STOCKCOLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.stockcollector")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Symbols = normalizeSymbols(cfg.Symbols)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("symbols", DefaultSymbols)
	v.SetDefault("symbol_delay", time.Second)
	v.SetDefault("schedule", "")

	v.SetDefault("yahoo.base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("yahoo.timeout", 30*time.Second)
	v.SetDefault("yahoo.retry_count", 0)

	v.SetDefault("provider", ProviderYahoo)

	v.SetDefault("alphavantage.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("alphavantage.api_key", "")
	v.SetDefault("alphavantage.timeout", 30*time.Second)
	v.SetDefault("alphavantage.retry_count", 0)

	v.SetDefault("rate_limit.calls", 2000)
	v.SetDefault("rate_limit.period", time.Hour)

	v.SetDefault("history.period", "1y")
	v.SetDefault("history.interval", "1d")

	v.SetDefault("output.dir", "data")
	v.SetDefault("output.format", "parquet")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
}

// normalizeSymbols trims, upper-cases and splits comma separated entries.
func normalizeSymbols(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, s := range strings.Split(entry, ",") {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Validate checks the configuration for values the collector cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Symbols) == 0 {
		problems = append(problems, "symbols must not be empty")
	}
	seen := make(map[string]bool)
	for _, s := range c.Symbols {
		if !fetcher.ValidSymbol(s) {
			problems = append(problems, fmt.Sprintf("invalid symbol %q", s))
		}
		if seen[s] {
			problems = append(problems, fmt.Sprintf("duplicate symbol %q", s))
		}
		seen[s] = true
	}

	if c.RateLimit.Calls <= 0 {
		problems = append(problems, "rate_limit.calls must be positive")
	}
	if c.RateLimit.Period <= 0 {
		problems = append(problems, "rate_limit.period must be positive")
	}
	if c.SymbolDelay < 0 {
		problems = append(problems, "symbol_delay must not be negative")
	}
	switch c.Provider {
	case ProviderYahoo:
		if c.Yahoo.BaseURL == "" {
			problems = append(problems, "yahoo.base_url must be set")
		}
	case ProviderAlphaVantage:
		if c.AlphaVantage.BaseURL == "" {
			problems = append(problems, "alphavantage.base_url must be set")
		}
		if c.AlphaVantage.APIKey == "" {
			problems = append(problems, "alphavantage.api_key must be set")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown provider %q", c.Provider))
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid schedule %q: %v", c.Schedule, err))
		}
	}
	switch c.Output.Format {
	case "parquet", "csv":
	default:
		problems = append(problems, fmt.Sprintf("unknown output.format %q", c.Output.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
