package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/subcommands"

	"stockcollector/internal/config"
	"stockcollector/internal/export"
	"stockcollector/internal/table"
)

var runDirPattern = regexp.MustCompile(`^\d{8}_\d{6}$`)

// latestRun returns the newest timestamped run directory inside outDir.
func latestRun(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() && runDirPattern.MatchString(e.Name()) {
			runs = append(runs, e.Name())
		}
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no collection runs in %s", outDir)
	}
	sort.Strings(runs)
	return filepath.Join(outDir, runs[len(runs)-1]), nil
}

// dataFiles lists the csv and parquet files in dir whose name starts with
// prefix, sorted by name.
func dataFiles(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		switch filepath.Ext(name) {
		case ".csv", ".parquet":
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// resolveRun picks the explicit run directory or the latest one under the
// configured output directory.
func resolveRun(run string) (string, error) {
	if run != "" {
		return run, nil
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return "", err
	}
	return latestRun(cfg.Output.Dir)
}

type inspectCmd struct {
	run    string
	symbol string
	rows   int
}

func (*inspectCmd) Name() string     { return "inspect" }
func (*inspectCmd) Synopsis() string { return "show the files of a collection run" }
func (*inspectCmd) Usage() string {
	return `inspect [-run <dir>] [-s <symbol>] [-n 5]

  Loads the files of a collection run (the latest one by default) and
  prints each file's shape, columns and first rows.
`
}

func (c *inspectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.run, "run", "", "run directory (default: latest run under output.dir)")
	f.StringVar(&c.symbol, "s", "", "only files of this symbol")
	f.IntVar(&c.rows, "n", 5, "number of rows to show per file")
}

func (c *inspectCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dir, err := resolveRun(c.run)
	if err != nil {
		return fail("Error finding run: %v", err)
	}

	files, err := dataFiles(dir, strings.ToUpper(c.symbol))
	if err != nil {
		return fail("Error listing %s: %v", dir, err)
	}
	if len(files) == 0 {
		return fail("No data files in %s", dir)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", dir)
	var errs []error
	for _, file := range files {
		t, err := export.Load(file)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		b.WriteString(describe(filepath.Base(file), t, c.rows))
	}
	printMarkdown(b.String())

	if err := errors.Join(errs...); err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}

// describe renders a short summary of t: shape, columns and the first rows.
func describe(name string, t *table.Table, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s\n\n", name)
	fmt.Fprintf(&b, "- Shape: %d rows x %d columns\n", t.Len(), len(t.Labels)+len(t.Columns))
	fmt.Fprintf(&b, "- Index: %s\n", strings.Join(t.Labels, ", "))
	fmt.Fprintf(&b, "- Columns: %s\n\n", strings.Join(t.Columns, ", "))
	if !t.Empty() {
		b.WriteString(tableMarkdown(t, rows))
	}
	return b.String()
}
