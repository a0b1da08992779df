package model

import (
	"fmt"
	"iter"
	"math"
	"regexp"
	"strconv"
)

// decimalLiteral matches plain decimal numbers such as 42, -3.5 or 1.2E-3.
// Leading zeros, signs other than minus, hex, underscores and NaN/Inf
// spellings are not numbers in a data file.
var decimalLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// Table is an ordered grid of named columns sourced from one section
// (sheet) of a data file.
//
// Cells hold int64, float64, bool or string values. Every row has exactly
// len(Columns) cells once the table has been validated.
type Table struct {
	// Name is the section or sheet name the table was loaded from.
	Name string `json:"name"`

	// Columns holds the header names in their original order.
	Columns []string `json:"columns"`

	// Rows holds the data rows in their original order.
	Rows [][]any `json:"rows"`
}

// NewTable creates an empty table with the given name and columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{
		Name:    name,
		Columns: columns,
		Rows:    make([][]any, 0),
	}
}

// AppendRow adds a row to the table. The row must have one cell per column.
func (t *Table) AppendRow(cells ...any) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("%w: table %q row %d has %d cells, want %d",
			ErrInvalidTable, t.Name, len(t.Rows)+1, len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Validate checks that column names are non-empty and unique and that every
// row has one cell per column.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if c == "" {
			return fmt.Errorf("%w: table %q column %d has no name", ErrInvalidTable, t.Name, i+1)
		}
		if seen[c] {
			return fmt.Errorf("%w: table %q has duplicate column %q", ErrInvalidTable, t.Name, c)
		}
		seen[c] = true
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: table %q row %d has %d cells, want %d",
				ErrInvalidTable, t.Name, i+1, len(row), len(t.Columns))
		}
	}
	return nil
}

// Column returns the cells of the named column in row order.
func (t *Table) Column(name string) ([]any, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}

// StringColumn returns the named column formatted as strings.
func (t *Table) StringColumn(name string) ([]string, bool) {
	cells, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	values := make([]string, len(cells))
	for i, c := range cells {
		values[i] = FormatCell(c)
	}
	return values, true
}

// NumericColumn returns the named column as float64 values.
// The second result is false if the column is missing or any cell is not numeric.
func (t *Table) NumericColumn(name string) ([]float64, bool) {
	cells, ok := t.Column(name)
	if !ok || len(cells) == 0 {
		return nil, false
	}
	values := make([]float64, len(cells))
	for i, c := range cells {
		f, ok := ToFloat(c)
		if !ok {
			return nil, false
		}
		values[i] = f
	}
	return values, true
}

// FormatCell renders a cell value as display text.
func FormatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int64:
		return strconv.FormatInt(c, 10)
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprint(c)
	}
}

// ToFloat converts a numeric cell to float64.
func ToFloat(v any) (float64, bool) {
	switch c := v.(type) {
	case int64:
		return float64(c), true
	case int:
		return float64(c), true
	case float64:
		return c, true
	default:
		return 0, false
	}
}

// ParseCell converts raw cell text to int64, float64 or string.
// Only plain decimal literals become numbers, so identifiers such as
// "007" keep their text. Empty text stays an empty string.
func ParseCell(s string) any {
	if !decimalLiteral.MatchString(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// TableSet maps section names to tables and remembers insertion order.
// A nil *TableSet behaves like an empty set.
type TableSet struct {
	order  []string
	tables map[string]*Table
}

// NewTableSet creates an empty TableSet.
func NewTableSet() *TableSet {
	return &TableSet{
		order:  make([]string, 0),
		tables: make(map[string]*Table),
	}
}

// Add appends a table under its Name. Names must be unique within the set.
func (ts *TableSet) Add(t *Table) error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrInvalidTable)
	}
	if _, ok := ts.tables[t.Name]; ok {
		return fmt.Errorf("%w: duplicate section %q", ErrInvalidTable, t.Name)
	}
	ts.order = append(ts.order, t.Name)
	ts.tables[t.Name] = t
	return nil
}

// Get returns the table stored under name.
func (ts *TableSet) Get(name string) (*Table, bool) {
	if ts == nil {
		return nil, false
	}
	t, ok := ts.tables[name]
	return t, ok
}

// Len returns the number of tables.
func (ts *TableSet) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.order)
}

// Names returns the section names in insertion order.
func (ts *TableSet) Names() []string {
	if ts == nil {
		return nil
	}
	names := make([]string, len(ts.order))
	copy(names, ts.order)
	return names
}

// All iterates over the tables in insertion order.
func (ts *TableSet) All() iter.Seq2[string, *Table] {
	return func(yield func(string, *Table) bool) {
		if ts == nil {
			return
		}
		for _, name := range ts.order {
			if !yield(name, ts.tables[name]) {
				return
			}
		}
	}
}
