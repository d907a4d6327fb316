package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"stockcollector/internal/table"
)

// Metadata keys recording column roles and order, which the Parquet schema
// itself does not preserve.
const (
	labelsKey  = "stockcollector.labels"
	columnsKey = "stockcollector.columns"
)

// WriteParquet writes t as a single row group. Label columns are required
// strings, data columns optional doubles with missing cells stored as null.
func WriteParquet(w io.Writer, t *table.Table) error {
	group := parquet.Group{}
	for _, name := range t.Labels {
		group[name] = parquet.String()
	}
	for _, name := range t.Columns {
		group[name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
	}
	schema := parquet.NewSchema("table", group)

	labels, err := leaves(schema, t.Labels)
	if err != nil {
		return err
	}
	columns, err := leaves(schema, t.Columns)
	if err != nil {
		return err
	}

	labelsJSON, _ := json.Marshal(t.Labels)
	columnsJSON, _ := json.Marshal(t.Columns)

	pw := parquet.NewWriter(w, schema,
		parquet.KeyValueMetadata(labelsKey, string(labelsJSON)),
		parquet.KeyValueMetadata(columnsKey, string(columnsJSON)),
	)

	width := len(t.Labels) + len(t.Columns)
	rows := make([]parquet.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(parquet.Row, width)
		for i, leaf := range labels {
			row[leaf.ColumnIndex] = parquet.ValueOf(r.Labels[i]).Level(0, leaf.MaxDefinitionLevel, leaf.ColumnIndex)
		}
		for i, leaf := range columns {
			v := r.Values[i]
			if table.IsMissing(v) {
				row[leaf.ColumnIndex] = parquet.NullValue().Level(0, 0, leaf.ColumnIndex)
			} else {
				row[leaf.ColumnIndex] = parquet.ValueOf(v).Level(0, leaf.MaxDefinitionLevel, leaf.ColumnIndex)
			}
		}
		rows = append(rows, row)
	}

	if _, err := pw.WriteRows(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return pw.Close()
}

func leaves(schema *parquet.Schema, names []string) ([]parquet.LeafColumn, error) {
	out := make([]parquet.LeafColumn, len(names))
	for i, name := range names {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("parquet schema has no column %q", name)
		}
		out[i] = leaf
	}
	return out, nil
}

// ReadParquet reads a file written by WriteParquet. Files without the
// column metadata fall back to the schema: byte array columns become labels,
// everything else data, in schema order.
func ReadParquet(r io.ReaderAt, size int64) (*table.Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	schema := f.Schema()

	labelNames, columnNames, err := columnRoles(f)
	if err != nil {
		return nil, err
	}
	labels, err := leaves(schema, labelNames)
	if err != nil {
		return nil, err
	}
	columns, err := leaves(schema, columnNames)
	if err != nil {
		return nil, err
	}

	t := table.New(labelNames, columnNames)
	buf := make([]parquet.Row, 64)

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				if err := appendRow(t, row, labels, columns); err != nil {
					rows.Close()
					return nil, err
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close parquet rows: %w", err)
		}
	}
	return t, nil
}

func appendRow(t *table.Table, row parquet.Row, labels, columns []parquet.LeafColumn) error {
	byColumn := make(map[int]parquet.Value, len(row))
	for _, v := range row {
		byColumn[v.Column()] = v
	}

	labelValues := make([]string, len(labels))
	for i, leaf := range labels {
		if v, ok := byColumn[leaf.ColumnIndex]; ok && !v.IsNull() {
			labelValues[i] = string(v.ByteArray())
		}
	}
	values := make([]float64, len(columns))
	for i, leaf := range columns {
		v, ok := byColumn[leaf.ColumnIndex]
		switch {
		case !ok || v.IsNull():
			values[i] = table.Missing()
		case v.Kind() == parquet.Double:
			values[i] = v.Double()
		case v.Kind() == parquet.Float:
			values[i] = float64(v.Float())
		case v.Kind() == parquet.Int64:
			values[i] = float64(v.Int64())
		case v.Kind() == parquet.Int32:
			values[i] = float64(v.Int32())
		default:
			return fmt.Errorf("parquet column %q: unsupported kind %s", t.Columns[i], v.Kind())
		}
	}
	return t.Append(labelValues, values)
}

func columnRoles(f *parquet.File) (labels, columns []string, err error) {
	rawLabels, okLabels := f.Lookup(labelsKey)
	rawColumns, okColumns := f.Lookup(columnsKey)
	if okLabels && okColumns {
		if err := json.Unmarshal([]byte(rawLabels), &labels); err != nil {
			return nil, nil, fmt.Errorf("parquet metadata %s: %w", labelsKey, err)
		}
		if err := json.Unmarshal([]byte(rawColumns), &columns); err != nil {
			return nil, nil, fmt.Errorf("parquet metadata %s: %w", columnsKey, err)
		}
		return labels, columns, nil
	}

	for _, field := range f.Schema().Fields() {
		if field.Leaf() && field.Type().Kind() == parquet.ByteArray {
			labels = append(labels, field.Name())
		} else {
			columns = append(columns, field.Name())
		}
	}
	return labels, columns, nil
}
