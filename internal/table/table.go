package table

import (
	"fmt"
	"sort"
	"time"

	"PriceHarvest/internal/model"
)

// DefaultIndexName is the header of the date column in every written file.
const DefaultIndexName = "timestamp"

// Table is a date-indexed wide table with one float column per asset.
// Cells with no observation are absent.
type Table struct {
	IndexName string
	columns   []string
	colIndex  map[string]struct{}
	rows      map[time.Time]map[string]float64
}

// New creates an empty table.
func New(indexName string) *Table {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	return &Table{
		IndexName: indexName,
		colIndex:  make(map[string]struct{}),
		rows:      make(map[time.Time]map[string]float64),
	}
}

// AddSeries outer-aligns s into the table as a column named after the asset.
func (t *Table) AddSeries(s *model.AssetSeries) error {
	if err := t.AddColumn(s.AssetID); err != nil {
		return err
	}
	for _, p := range s.Points {
		t.Set(p.Date, s.AssetID, p.Price)
	}
	return nil
}

// AddColumn appends an empty column.
func (t *Table) AddColumn(name string) error {
	if name == "" {
		return fmt.Errorf("table: empty column name")
	}
	if name == t.IndexName {
		return fmt.Errorf("table: column %q clashes with index", name)
	}
	if _, ok := t.colIndex[name]; ok {
		return fmt.Errorf("table: duplicate column %q", name)
	}
	t.colIndex[name] = struct{}{}
	t.columns = append(t.columns, name)
	return nil
}

// Set stores a value; the date is normalized to its UTC day.
func (t *Table) Set(date time.Time, col string, v float64) {
	d := model.Day(date)
	row, ok := t.rows[d]
	if !ok {
		row = make(map[string]float64)
		t.rows[d] = row
	}
	row[col] = v
}

// Value returns the cell at (date, col).
func (t *Table) Value(date time.Time, col string) (float64, bool) {
	row, ok := t.rows[model.Day(date)]
	if !ok {
		return 0, false
	}
	v, ok := row[col]
	return v, ok
}

// HasColumn reports whether col exists.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.colIndex[col]
	return ok
}

// HasDate reports whether any column has an observation on date.
func (t *Table) HasDate(date time.Time) bool {
	_, ok := t.rows[model.Day(date)]
	return ok
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Dates returns the index in ascending order.
func (t *Table) Dates() []time.Time {
	out := make([]time.Time, 0, len(t.rows))
	for d := range t.rows {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }
