package command

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stockcollector/internal/collector"
	"stockcollector/internal/export"
)

// runLayout names run directories under output.dir.
const runLayout = "20060102_150405"

type collectCmd struct {
	dataType string
	symbols  string
	outDir   string
	format   string
	schedule string
}

func (*collectCmd) Name() string     { return "collect" }
func (*collectCmd) Synopsis() string { return "collect data for all configured symbols" }
func (*collectCmd) Usage() string {
	return `collect [-type fundamental|historical] [-symbols A.NS,B.NS] [-out <dir>] [-format parquet|csv] [-schedule <cron>]

  Collects fundamentals or price history for every symbol and writes one
  file per symbol and dataset plus a combined file into a new timestamped
  directory under the output directory. With -schedule the collection
  repeats on the cron schedule until interrupted.
`
}

func (c *collectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataType, "type", string(collector.Historical), "data to collect: fundamental or historical")
	f.StringVar(&c.symbols, "symbols", "", "comma separated symbols, overriding the configured list")
	f.StringVar(&c.outDir, "out", "", "output directory (default: output.dir)")
	f.StringVar(&c.format, "format", "", "file format: parquet or csv (default: output.format)")
	f.StringVar(&c.schedule, "schedule", "", "cron schedule for repeated collection (default: schedule)")
}

func (c *collectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(c.symbols)
	if err != nil {
		return fail("Error loading configuration: %v", err)
	}
	defer a.close()

	outDir := firstNonEmpty(c.outDir, a.cfg.Output.Dir)
	format := export.Format(firstNonEmpty(c.format, a.cfg.Output.Format))
	if format != export.FormatParquet && format != export.FormatCSV {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", format)
		return subcommands.ExitUsageError
	}
	dataType := collector.ParseDataType(c.dataType)

	schedule := firstNonEmpty(c.schedule, a.cfg.Schedule)
	if schedule == "" {
		run := collectRun(ctx, a, dataType, outDir, format)
		printMarkdown(run.markdown())
		if run.collected == 0 {
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := newScheduler(schedule, a.log, func() {
		run := collectRun(ctx, a, dataType, outDir, format)
		a.log.Info("Scheduled collection finished",
			zap.String("dir", run.dir),
			zap.Int("collected", run.collected),
			zap.Int("failed", len(run.failed)),
		)
	})
	if err != nil {
		return fail("Error registering schedule %q: %v", schedule, err)
	}

	sched.Start()
	a.log.Info("Scheduler started", zap.String("schedule", schedule), zap.String("type", string(dataType)))
	<-ctx.Done()
	<-sched.Stop().Done()
	a.log.Info("Scheduler stopped")
	return subcommands.ExitSuccess
}

// newScheduler registers job on the cron spec. A firing that arrives while
// the previous run is still going is skipped, so runs never overlap.
func newScheduler(spec string, log *zap.Logger, job func()) (*cron.Cron, error) {
	cl := cronLogger{log.Sugar()}
	sched := cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	if _, err := sched.AddFunc(spec, job); err != nil {
		return nil, err
	}
	return sched, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.log.Warnw("Skipping scheduled collection, previous run still in progress", keysAndValues...)
		return
	}
	l.log.Debugw("cron "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw("cron "+msg, append(keysAndValues, "error", err)...)
}

// runResult summarises one collection run.
type runResult struct {
	dir       string
	dataType  collector.DataType
	files     []string
	collected int
	failed    map[string]error
	saveErrs  int
}

// collectRun collects dataType and writes the results into a new run
// directory below outDir.
func collectRun(ctx context.Context, a *app, dataType collector.DataType, outDir string, format export.Format) runResult {
	dir := filepath.Join(outDir, time.Now().Format(runLayout))
	rs := a.collector.CollectAll(ctx, dataType)
	return writeRun(a.collector, rs, dir, format)
}

// writeRun saves every non-empty dataset of rs into dir, one file per
// symbol and statement, plus the combined table as <type>_all.
func writeRun(c *collector.Collector, rs *collector.ResultSet, dir string, format export.Format) runResult {
	res := runResult{dir: dir, dataType: rs.DataType(), failed: make(map[string]error)}

	for _, e := range rs.Entries() {
		if !e.OK() {
			res.failed[e.Symbol] = e.Err
			continue
		}
		if e.Data.Empty() {
			continue
		}
		res.collected++

		for _, p := range datasetParts(e) {
			if p.data.Empty() {
				continue
			}
			path := filepath.Join(dir, e.Symbol+"_"+p.name+format.Ext())
			if c.SaveData(p.data, path) {
				res.files = append(res.files, path)
			} else {
				res.saveErrs++
			}
		}
	}

	if res.collected > 0 {
		path := filepath.Join(dir, string(rs.DataType())+"_all"+format.Ext())
		if c.SaveData(rs, path) {
			res.files = append(res.files, path)
		} else {
			res.saveErrs++
		}
	}
	return res
}

func (r runResult) markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Collection run %s\n\n", filepath.Base(r.dir))
	fmt.Fprintf(&b, "- Data: %s\n- Symbols collected: %d\n- Symbols failed: %d\n- Files written: %d\n", r.dataType, r.collected, len(r.failed), len(r.files))
	if r.saveErrs > 0 {
		fmt.Fprintf(&b, "- Save errors: %d\n", r.saveErrs)
	}
	if len(r.failed) > 0 {
		fmt.Fprintf(&b, "\n## Failures\n\n| Symbol | Error |\n|:---|:---|\n")
		for _, s := range sortedKeys(r.failed) {
			fmt.Fprintf(&b, "| %s | %s |\n", s, escapeCell(r.failed[s].Error()))
		}
	}
	if len(r.files) > 0 {
		fmt.Fprintf(&b, "\n## Files\n\n")
		for _, f := range r.files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
