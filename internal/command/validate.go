package command

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"
	"gopkg.in/yaml.v3"

	"stockcollector/internal/export"
	"stockcollector/internal/table"
	"stockcollector/internal/validate"
)

type validateCmd struct {
	run    string
	symbol string
	asYAML bool
}

func (*validateCmd) Name() string     { return "validate" }
func (*validateCmd) Synopsis() string { return "check the data of a collection run" }
func (*validateCmd) Usage() string {
	return `validate [-run <dir>] [-s <symbol>] [-yaml]

  Runs the data checks over every per-symbol file of a collection run (the
  latest one by default): required columns and line items, missing values,
  price ranges and consistency, and freshness. Exits non-zero when any
  file fails.
`
}

func (c *validateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.run, "run", "", "run directory (default: latest run under output.dir)")
	f.StringVar(&c.symbol, "s", "", "only files of this symbol")
	f.BoolVar(&c.asYAML, "yaml", false, "print the reports as YAML")
}

func (c *validateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := resolveRun(c.run)
	if err != nil {
		return fail("Error finding run: %v", err)
	}

	tables, err := loadRun(dir, strings.ToUpper(c.symbol))
	if err != nil {
		return fail("Error loading %s: %v", dir, err)
	}
	if len(tables) == 0 {
		return fail("No data files in %s", dir)
	}

	reports := validate.New().Run(tables)

	if c.asYAML {
		out, err := yaml.Marshal(reports)
		if err != nil {
			return fail("Error encoding reports: %v", err)
		}
		os.Stdout.Write(out)
	} else {
		printMarkdown(reportsMarkdown(dir, reports))
	}

	for _, r := range reports {
		if !r.OK {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

// loadRun reads the per-symbol files of a run keyed by file name without
// extension. Combined "_all" files are skipped.
func loadRun(dir, prefix string) (map[string]*table.Table, error) {
	files, err := dataFiles(dir, prefix)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]*table.Table, len(files))
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if strings.HasSuffix(name, "_all") || strings.HasSuffix(name, "_info") {
			continue
		}
		t, err := export.Load(file)
		if err != nil {
			return nil, err
		}
		tables[name] = t
	}
	return tables, nil
}

func reportsMarkdown(dir string, reports []validate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation of %s\n\n", dir)
	b.WriteString("| File | Status | Fresh | Issues |\n|:---|:---:|:---:|:---|\n")
	for _, r := range reports {
		status := "ok"
		if !r.OK {
			status = "FAIL"
		}
		fresh := "yes"
		if !r.Fresh {
			fresh = "no"
		}
		var issues []string
		for _, i := range r.Issues {
			issues = append(issues, i.Check+": "+i.Detail)
		}
		if len(r.NonTradingDays) > 0 {
			issues = append(issues, "non_trading_days: "+strings.Join(r.NonTradingDays, ", "))
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", r.Name, status, fresh, escapeCell(strings.Join(issues, "; ")))
	}
	return b.String()
}
