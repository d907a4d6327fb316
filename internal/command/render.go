package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"stockcollector/internal/collector"
	"stockcollector/internal/table"
)

// part is one file-sized piece of a symbol's dataset.
type part struct {
	name string
	data collector.Dataset
}

// datasetParts splits an entry into the files written for it: the series
// itself for historical data, one table per statement for fundamentals.
func datasetParts(e collector.Entry) []part {
	rec, ok := e.Data.(collector.FundamentalRecord)
	if !ok {
		return []part{{name: string(collector.Historical), data: e.Data}}
	}
	parts := []part{{name: collector.KeyInfo, data: rec.InfoTable()}}
	for _, p := range []struct {
		name string
		t    *table.Table
	}{
		{collector.KeyBalanceSheet, rec.BalanceSheet},
		{collector.KeyIncomeStatement, rec.IncomeStatement},
		{collector.KeyCashFlow, rec.CashFlow},
	} {
		if p.t != nil {
			parts = append(parts, part{name: p.name, data: p.t})
		}
	}
	return parts
}

// tableMarkdown renders the first n rows of t as a markdown table.
func tableMarkdown(t *table.Table, n int) string {
	var b strings.Builder
	header := append(append([]string(nil), t.Labels...), t.Columns...)
	if len(header) == 0 {
		return ""
	}

	b.WriteString("|")
	for _, h := range header {
		fmt.Fprintf(&b, " %s |", escapeCell(h))
	}
	b.WriteString("\n|")
	for range t.Labels {
		b.WriteString(":---|")
	}
	for range t.Columns {
		b.WriteString("---:|")
	}
	b.WriteString("\n")

	for _, row := range t.Head(n).Rows {
		b.WriteString("|")
		for _, l := range row.Labels {
			fmt.Fprintf(&b, " %s |", escapeCell(l))
		}
		for _, v := range row.Values {
			fmt.Fprintf(&b, " %s |", formatValue(v))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(v float64) string {
	if table.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func collectorEntry(symbol string, data collector.Dataset) collector.Entry {
	return collector.Entry{Symbol: symbol, Data: data}
}
