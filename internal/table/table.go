// Package table holds the in-memory dataset a session asks questions about.
//
// A Table is column-major: each Column carries its own typed values, and a
// missing cell is always nil regardless of the column type.
package table

import (
	"fmt"
	"time"
)

// ColumnType is the inferred type of a column.
type ColumnType string

// Column types produced by inference.
const (
	TypeNumeric ColumnType = "numeric"
	TypeText    ColumnType = "text"
	TypeDate    ColumnType = "date"
)

// IsNumeric reports whether values of this type are float64.
func (t ColumnType) IsNumeric() bool {
	return t == TypeNumeric
}

// Column is a named, typed sequence of values.
//
// Values hold float64 for numeric columns, string for text columns and
// time.Time for date columns. Missing cells are nil.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// ColumnInfo is the name and type of one column, as exposed to prompts.
type ColumnInfo struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
}

// Table is a rectangular dataset loaded from a file.
type Table struct {
	// Name is the base name of the source file.
	Name string
	// Source is the path the table was loaded from.
	Source   string
	LoadedAt time.Time
	Columns  []*Column
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in header order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Schema returns the name and type of every column in header order.
func (t *Table) Schema() []ColumnInfo {
	out := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = ColumnInfo{Name: c.Name, Type: c.Type}
	}
	return out
}

// Row returns the values of row i across all columns.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]any {
	if n < 0 || n > t.NumRows() {
		n = t.NumRows()
	}
	rows := make([][]any, n)
	for i := range n {
		rows[i] = t.Row(i)
	}
	return rows
}

// FormatValue renders a cell the way it is shown to users and stored in SQL.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(val)
	case time.Time:
		return FormatDate(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatDate renders a date as an ISO date, adding the clock only when set.
func FormatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}
