package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DateLayout is the on-disk format of the index column.
const DateLayout = "2006-01-02"

// WriteCSV writes the header (index name, then columns) and one row per date
// in ascending order. Missing cells are written empty.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{t.IndexName}, t.columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(header))
	for _, d := range t.Dates() {
		row := t.rows[d]
		rec[0] = d.Format(DateLayout)
		for i, c := range t.columns {
			if v, ok := row[c]; ok {
				rec[i+1] = strconv.FormatFloat(v, 'f', -1, 64)
			} else {
				rec[i+1] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", rec[0], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := New(header[0])
	for _, c := range header[1:] {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := time.Parse(DateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", line, err)
		}
		row, ok := t.rows[d]
		if !ok {
			row = make(map[string]float64)
			t.rows[d] = row
		}
		for i, cell := range rec[1:] {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, t.columns[i], err)
			}
			row[t.columns[i]] = v
		}
	}
	return t, nil
}

// WriteFile writes the table as CSV to path, creating parent directories.
func (t *Table) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile loads a CSV written by WriteFile.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
