package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"stockcollector/internal/table"
)

// WriteCSV writes t with a header row of label names followed by column
// names. Missing cells are left empty.
func WriteCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)

	header := append(append([]string(nil), t.Labels...), t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, r := range t.Rows {
		copy(record, r.Labels)
		for i, v := range r.Values {
			if table.IsMissing(v) {
				record[len(t.Labels)+i] = ""
			} else {
				record[len(t.Labels)+i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. Every column up to and
// including the last one holding a non-numeric cell is a label column, so a
// numeric looking symbol such as 1234 or NAN stays a label. The first column
// is always a label.
func ReadCSV(r io.Reader) (*table.Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}

	header, body := records[0], records[1:]
	nlabels := min(1, len(header))
	for col := len(header) - 1; col >= nlabels; col-- {
		if textColumn(body, col) {
			nlabels = col + 1
			break
		}
	}

	t := table.New(header[:nlabels], header[nlabels:])
	for line, rec := range body {
		values := make([]float64, len(header)-nlabels)
		for i, cell := range rec[nlabels:] {
			if cell == "" {
				values[i] = table.Missing()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("read csv: line %d column %q: %w", line+2, header[nlabels+i], err)
			}
			values[i] = v
		}
		if err := t.Append(rec[:nlabels], values); err != nil {
			return nil, fmt.Errorf("read csv: line %d: %w", line+2, err)
		}
	}
	return t, nil
}

func textColumn(body [][]string, col int) bool {
	for _, rec := range body {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(rec[col], 64); err != nil {
			return true
		}
	}
	return false
}
