package query

import (
	"fmt"

	"github.com/leapstack-labs/leapask/internal/table"
)

// ResultTable is the output of a query.
type ResultTable struct {
	Columns []string `json:"columns" yaml:"columns"`
	Rows    [][]any  `json:"rows" yaml:"rows"`
}

// Scalar returns the single value of a one-row, one-column result.
func (r *ResultTable) Scalar() (any, bool) {
	if len(r.Columns) != 1 || len(r.Rows) != 1 {
		return nil, false
	}
	return r.Rows[0][0], true
}

// Text is a one-line description of the result.
func (r *ResultTable) Text() string {
	if v, ok := r.Scalar(); ok {
		return fmt.Sprintf("%s = %s", r.Columns[0], formatCell(v))
	}
	switch len(r.Rows) {
	case 0:
		return "The query returned no rows."
	case 1:
		return fmt.Sprintf("The query returned 1 row with %d columns.", len(r.Columns))
	default:
		return fmt.Sprintf("The query returned %d rows.", len(r.Rows))
	}
}

// Table returns the columns and rows for tabular renderers.
func (r *ResultTable) Table() ([]string, [][]any) {
	return r.Columns, r.Rows
}

func formatCell(v any) string {
	switch val := v.(type) {
	case int64:
		return fmt.Sprintf("%d", val)
	case nil:
		return "NULL"
	default:
		return table.FormatValue(val)
	}
}
