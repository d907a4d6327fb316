package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stockcollector/internal/table"
)

func sampleHistory(t *testing.T) *table.Table {
	t.Helper()
	tbl := table.New([]string{"Date"}, []string{"Open", "High", "Low", "Close", "Volume"})
	rows := []struct {
		date   string
		values []float64
	}{
		{"2024-01-01", []float64{10, 11, 9, 10.5, 1000}},
		{"2024-01-02", []float64{10.5, 12, 10, 11.75, 2500}},
		{"2024-01-03", []float64{11.75, 11.9, 11, table.Missing(), 0}},
	}
	for _, r := range rows {
		if err := tbl.Append([]string{r.date}, r.values); err != nil {
			t.Fatalf("Append() returned unexpected error: %v", err)
		}
	}
	return tbl
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"out.parquet", FormatParquet},
		{"data/AAA.NS_historical.parquet", FormatParquet},
		{"out.csv", FormatCSV},
		{"out.txt", FormatCSV},
		{"out", FormatCSV},
		{"out.parquet.bak", FormatCSV},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FormatFor(tt.filename); got != tt.want {
				t.Errorf("FormatFor(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestSaveLoad_Parquet(t *testing.T) {
	want := sampleHistory(t)
	path := filepath.Join(t.TempDir(), "out.parquet")

	if err := Save(want, path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("Load() returned %d rows, want 3", got.Len())
	}
	if !got.Equal(want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSaveLoad_CSV(t *testing.T) {
	want := sampleHistory(t)
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := Save(want, path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() returned unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Date,Open,High,Low,Close,Volume\n") {
		t.Errorf("csv header = %q", strings.SplitN(string(raw), "\n", 2)[0])
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSave_OtherExtensionWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	if err := Save(sampleHistory(t), path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() returned unexpected error: %v", err)
	}
	if !strings.HasPrefix(string(raw), "Date,") {
		t.Errorf("out.txt does not hold csv: %q", raw)
	}
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Save(sampleHistory(t), path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	small := table.New([]string{"Date"}, []string{"Close"})
	small.Append([]string{"2024-02-01"}, []float64{42})
	if err := Save(small, path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !got.Equal(small) {
		t.Errorf("Load() = %+v, want %+v", got, small)
	}
}

func TestSave_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "nested", "out.parquet")
	if err := Save(sampleHistory(t), path); err != nil {
		t.Fatalf("Save() returned unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Stat() returned unexpected error: %v", err)
	}
}

func TestSave_Errors(t *testing.T) {
	dup := table.New([]string{"Date"}, []string{"Close", "Close"})

	tests := []struct {
		name string
		data table.Tabler
	}{
		{"nil data", nil},
		{"duplicate columns", dup},
		{"no columns", table.New(nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Save(tt.data, filepath.Join(t.TempDir(), "out.parquet")); err == nil {
				t.Error("Save() expected error, got nil")
			}
		})
	}
}

func TestSaveLoad_EmptyTable(t *testing.T) {
	want := table.New([]string{"Date"}, []string{"Open", "Close"})

	for _, name := range []string{"empty.csv", "empty.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Save(want, path); err != nil {
				t.Fatalf("Save() returned unexpected error: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestReadCSV_MultipleLabels(t *testing.T) {
	in := "Symbol,Item,2023-03-31,2022-03-31\n" +
		"AAA.NS,Total Assets,1000,900\n" +
		"AAA.NS,Total Debt,300,\n"

	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() returned unexpected error: %v", err)
	}

	want := table.New([]string{"Symbol", "Item"}, []string{"2023-03-31", "2022-03-31"})
	want.Append([]string{"AAA.NS", "Total Assets"}, []float64{1000, 900})
	want.Append([]string{"AAA.NS", "Total Debt"}, []float64{300, table.Missing()})

	if !got.Equal(want) {
		t.Errorf("ReadCSV() = %+v, want %+v", got, want)
	}
}

func TestSaveLoad_NumericLookingSymbols(t *testing.T) {
	for _, symbol := range []string{"NAN", "INF", "1234"} {
		t.Run(symbol, func(t *testing.T) {
			want := table.New([]string{"Symbol", "Date"}, []string{"Close"})
			want.Append([]string{symbol, "2024-01-02"}, []float64{101.5})
			want.Append([]string{symbol, "2024-01-03"}, []float64{102})

			path := filepath.Join(t.TempDir(), "historical_all.csv")
			if err := Save(want, path); err != nil {
				t.Fatalf("Save() returned unexpected error: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() returned unexpected error: %v", err)
			}
			if !got.Equal(want) {
				t.Errorf("Load() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestReadCSV_NumericSingleLabel(t *testing.T) {
	in := "Symbol,Close\n1234,10\n5678,11\n"

	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() returned unexpected error: %v", err)
	}
	want := table.New([]string{"Symbol"}, []string{"Close"})
	want.Append([]string{"1234"}, []float64{10})
	want.Append([]string{"5678"}, []float64{11})

	if !got.Equal(want) {
		t.Errorf("ReadCSV() = %+v, want %+v", got, want)
	}
}

func TestReadCSV_BadNumber(t *testing.T) {
	in := "Date,Close\n2024-01-01,10\n2024-01-02,oops\n"
	// "oops" makes Close look like a label column, leaving no data columns.
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() returned unexpected error: %v", err)
	}
	if len(got.Labels) != 2 || len(got.Columns) != 0 {
		t.Errorf("ReadCSV() labels=%v columns=%v, want 2 labels and no columns", got.Labels, got.Columns)
	}
}

func TestWriteCSV_MissingCells(t *testing.T) {
	tbl := table.New([]string{"Item"}, []string{"a", "b"})
	tbl.Append([]string{"x"}, []float64{table.Missing(), 1.5})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatalf("WriteCSV() returned unexpected error: %v", err)
	}
	if got, want := buf.String(), "Item,a,b\nx,,1.5\n"; got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}
