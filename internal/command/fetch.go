package command

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type historyCmd struct {
	symbol   string
	period   string
	interval string
	out      string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "fetch the price history of one symbol" }
func (*historyCmd) Usage() string {
	return `history -s <symbol> [-period 1y] [-interval 1d] [-o <file>]

  Fetches OHLCV bars for one symbol and prints the last rows. With -o the
  series is saved, as Parquet when the file name ends in .parquet and as
  CSV otherwise.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "symbol to fetch, e.g. RELIANCE.NS")
	f.StringVar(&c.period, "period", "", "history range, e.g. 1mo, 1y, max (default: history.period)")
	f.StringVar(&c.interval, "interval", "", "bar interval, e.g. 1d, 1wk (default: history.interval)")
	f.StringVar(&c.out, "o", "", "file to save the series to")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "-s is required")
		return subcommands.ExitUsageError
	}
	symbol := strings.ToUpper(c.symbol)

	a, err := newApp(symbol)
	if err != nil {
		return fail("Error loading configuration: %v", err)
	}
	defer a.close()

	r := a.collector.GetHistorical(ctx, symbol, c.period, c.interval)
	if !r.OK() {
		return fail("Error fetching history for %s: %v", symbol, r.Error)
	}

	md := fmt.Sprintf("# %s\n\n%d bars\n\n", symbol, r.Value.Len())
	if r.Value.Len() > 10 {
		tail := r.Value.Head(0)
		tail.Rows = r.Value.Rows[r.Value.Len()-10:]
		md += tableMarkdown(tail, 10)
	} else {
		md += tableMarkdown(r.Value, 10)
	}
	printMarkdown(md)

	if c.out != "" && !a.collector.SaveData(r.Value, c.out) {
		return fail("Error saving %s", c.out)
	}
	return subcommands.ExitSuccess
}

type fundamentalsCmd struct {
	symbol string
	out    string
}

func (*fundamentalsCmd) Name() string     { return "fundamentals" }
func (*fundamentalsCmd) Synopsis() string { return "fetch the fundamentals of one symbol" }
func (*fundamentalsCmd) Usage() string {
	return `fundamentals -s <symbol> [-o <file>]

  Fetches company info and the annual balance sheet, income statement and
  cash flow for one symbol and prints them. With -o the statements are
  saved as one table labelled by statement and line item.
`
}

func (c *fundamentalsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "symbol to fetch, e.g. RELIANCE.NS")
	f.StringVar(&c.out, "o", "", "file to save the fundamentals to")
}

func (c *fundamentalsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" {
		fmt.Fprintln(os.Stderr, "-s is required")
		return subcommands.ExitUsageError
	}
	symbol := strings.ToUpper(c.symbol)

	a, err := newApp(symbol)
	if err != nil {
		return fail("Error loading configuration: %v", err)
	}
	defer a.close()

	r := a.collector.GetFundamentals(ctx, symbol)
	if !r.OK() {
		return fail("Error fetching fundamentals for %s: %v", symbol, r.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", symbol)
	for _, key := range []string{"longName", "sector", "industry", "currency", "marketCap", "trailingPE", "priceToBook"} {
		if v, ok := r.Value.Info[key]; ok {
			fmt.Fprintf(&b, "- **%s**: %v\n", key, v)
		}
	}
	for _, p := range datasetParts(collectorEntry(symbol, r.Value))[1:] {
		t, err := p.data.Table()
		if err != nil || t.Empty() {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s", p.name, tableMarkdown(t, t.Len()))
	}
	printMarkdown(b.String())

	if c.out != "" && !a.collector.SaveData(r.Value, c.out) {
		return fail("Error saving %s", c.out)
	}
	return subcommands.ExitSuccess
}
