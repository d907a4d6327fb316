// Package export writes tables to flat files and reads them back.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stockcollector/internal/table"
)

// Format is an on-disk table encoding.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// FormatFor picks the encoding from the filename: a ".parquet" suffix means
// Parquet, anything else CSV.
func FormatFor(filename string) Format {
	if strings.HasSuffix(filename, ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatParquet {
		return ".parquet"
	}
	return ".csv"
}

// Save converts data to a table and writes it to filename, replacing any
// existing file. Parent directories are created as needed.
func Save(data table.Tabler, filename string) error {
	if data == nil {
		return fmt.Errorf("save %s: no data", filename)
	}
	t, err := data.Table()
	if err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	if err := checkShape(t); err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %w", filename, err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}

	switch FormatFor(filename) {
	case FormatParquet:
		err = WriteParquet(f, t)
	default:
		err = WriteCSV(f, t)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("save %s: %w", filename, err)
	}
	return nil
}

// Load reads a table previously written by Save.
func Load(filename string) (*table.Table, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	defer f.Close()

	var t *table.Table
	switch FormatFor(filename) {
	case FormatParquet:
		info, serr := f.Stat()
		if serr != nil {
			return nil, fmt.Errorf("load %s: %w", filename, serr)
		}
		t, err = ReadParquet(f, info.Size())
	default:
		t, err = ReadCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return t, nil
}

// checkShape rejects tables that cannot be written as a header: no columns
// at all, or a name used twice.
func checkShape(t *table.Table) error {
	if len(t.Labels)+len(t.Columns) == 0 {
		return fmt.Errorf("table has no columns")
	}
	seen := make(map[string]bool, len(t.Labels)+len(t.Columns))
	for _, name := range append(append([]string(nil), t.Labels...), t.Columns...) {
		if seen[name] {
			return fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
	}
	return nil
}
