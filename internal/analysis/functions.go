package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/leapstack-labs/leapask/internal/table"
)

// outlierFactor scales the IQR into the outlier fences.
const outlierFactor = 1.5

// ShapeOf returns the row and column counts of t.
func ShapeOf(t *table.Table) Shape {
	return Shape{Rows: t.NumRows(), Columns: t.NumColumns()}
}

// Describe summarizes a numeric column.
func Describe(t *table.Table, column string) (Stats, error) {
	col, err := numericColumn(t, column)
	if err != nil {
		return Stats{}, err
	}
	xs, _ := presentValues(col)
	if len(xs) == 0 {
		return Stats{}, &EmptyColumnError{Column: col.Name}
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	s := Stats{
		Column: col.Name,
		Count:  len(xs),
		Mean:   stat.Mean(xs, nil),
		Min:    floats.Min(xs),
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    floats.Max(xs),
	}
	if len(xs) > 1 {
		std := stat.StdDev(xs, nil)
		s.Std = &std
	}
	return s, nil
}

// Mean returns the arithmetic mean of the non-missing values of a column.
func Mean(t *table.Table, column string) (Scalar, error) {
	col, err := numericColumn(t, column)
	if err != nil {
		return Scalar{}, err
	}
	xs, _ := presentValues(col)
	if len(xs) == 0 {
		return Scalar{}, &EmptyColumnError{Column: col.Name}
	}
	return Scalar{
		Name:  fmt.Sprintf("mean(%s)", col.Name),
		Value: stat.Mean(xs, nil),
		Count: len(xs),
	}, nil
}

// UniqueValues returns the distinct non-missing values of a column in order
// of first occurrence.
func UniqueValues(t *table.Table, column string) (Values, error) {
	col, err := lookupColumn(t, column)
	if err != nil {
		return Values{}, err
	}

	out := Values{Column: col.Name, Values: []any{}}
	seen := make(map[any]struct{})
	for _, v := range col.Values {
		if v == nil {
			out.Missing++
			continue
		}
		key := v
		if tm, ok := v.(time.Time); ok {
			key = tm.UnixNano()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Values = append(out.Values, v)
	}
	return out, nil
}

// DetectOutliers flags values strictly outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func DetectOutliers(t *table.Table, column string) (Outliers, error) {
	col, err := numericColumn(t, column)
	if err != nil {
		return Outliers{}, err
	}
	xs, rows := presentValues(col)
	if len(xs) == 0 {
		return Outliers{}, &EmptyColumnError{Column: col.Name}
	}

	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	return outliersWithin(col.Name, xs, rows, q1, q3), nil
}

func outliersWithin(column string, xs []float64, rows []int, q1, q3 float64) Outliers {
	iqr := q3 - q1
	o := Outliers{
		Column: column,
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
		Lower:  q1 - outlierFactor*iqr,
		Upper:  q3 + outlierFactor*iqr,
		Points: []Point{},
	}
	for i, x := range xs {
		if x < o.Lower || x > o.Upper {
			o.Points = append(o.Points, Point{Row: rows[i], Value: x})
		}
	}
	return o
}

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks at position (n-1)q.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// lookupColumn finds a column by exact name, then by a unique
// case-insensitive match.
func lookupColumn(t *table.Table, name string) (*table.Column, error) {
	if col, ok := t.Column(name); ok {
		return col, nil
	}
	var match *table.Column
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			if match != nil {
				match = nil
				break
			}
			match = c
		}
	}
	if match == nil {
		return nil, &ColumnNotFoundError{Column: name, Available: t.ColumnNames()}
	}
	return match, nil
}

func numericColumn(t *table.Table, name string) (*table.Column, error) {
	col, err := lookupColumn(t, name)
	if err != nil {
		return nil, err
	}
	if allMissing(col) {
		return nil, &EmptyColumnError{Column: col.Name}
	}
	if !col.Type.IsNumeric() {
		return nil, &ColumnTypeError{Column: col.Name, Actual: col.Type, Want: table.TypeNumeric}
	}
	return col, nil
}

// allMissing reports whether col has no values at all. The loader types such
// a column as text, so it is checked before the column type.
func allMissing(col *table.Column) bool {
	for _, v := range col.Values {
		if v != nil {
			return false
		}
	}
	return true
}

// presentValues returns the non-missing values of a numeric column and the
// row index each one came from.
func presentValues(col *table.Column) ([]float64, []int) {
	xs := make([]float64, 0, len(col.Values))
	rows := make([]int, 0, len(col.Values))
	for i, v := range col.Values {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		xs = append(xs, f)
		rows = append(rows, i)
	}
	return xs, rows
}
