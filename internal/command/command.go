// Package command implements the stockcollector subcommands.
package command

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"stockcollector/internal/alphavantage"
	"stockcollector/internal/collector"
	"stockcollector/internal/config"
	"stockcollector/internal/fetcher"
	"stockcollector/internal/logger"
	"stockcollector/internal/ratelimit"
	"stockcollector/internal/yahoo"
)

var configFile = flag.String("config", "", "path to the config file (default: ./config.yaml or $HOME/.stockcollector/config.yaml)")

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(&collectCmd{}, "collection")
	c.Register(&historyCmd{}, "collection")
	c.Register(&fundamentalsCmd{}, "collection")

	c.Register(&inspectCmd{}, "data")
	c.Register(&validateCmd{}, "data")
}

// app bundles what every collecting command needs.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	collector *collector.Collector
}

// newApp loads the configuration, builds the logger and wires the
// configured provider into a collector. symbols, when set, replaces the configured list.
func newApp(symbols string) (*app, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if symbols != "" {
		cfg.Symbols = nil
		for _, s := range strings.Split(symbols, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	provider, api := newProvider(cfg, log)
	ratelimit.GetLimiter().Configure(api, cfg.RateLimit.Calls, cfg.RateLimit.Period)

	c, err := collector.New(provider, cfg.Symbols,
		collector.WithAPI(api),
		collector.WithLogger(log),
		collector.WithSymbolDelay(cfg.SymbolDelay),
		collector.WithHistoryWindow(cfg.History.Period, cfg.History.Interval),
	)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return &app{cfg: cfg, log: log, collector: c}, nil
}

// newProvider returns the client for cfg.Provider and the rate limiter
// bucket its calls are charged to.
func newProvider(cfg *config.Config, log *zap.Logger) (fetcher.Provider, ratelimit.API) {
	if cfg.Provider == config.ProviderAlphaVantage {
		return alphavantage.NewClient(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey, alphavantage.Options{
			Timeout:    cfg.AlphaVantage.Timeout,
			RetryCount: cfg.AlphaVantage.RetryCount,
			Logger:     log,
		}), ratelimit.APIAlphaVantage
	}
	return yahoo.NewClient(cfg.Yahoo.BaseURL, yahoo.Options{
		Timeout:    cfg.Yahoo.Timeout,
		RetryCount: cfg.Yahoo.RetryCount,
		Logger:     log,
	}), ratelimit.APIYahoo
}

func (a *app) close() {
	_ = a.log.Sync()
}

// printMarkdown renders md for the terminal, falling back to plain text.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func fail(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}
