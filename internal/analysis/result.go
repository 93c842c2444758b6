package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapask/internal/table"
)

// Result is the output of an analysis function.
//
// Text is a one-line answer for chat output. Table lays the result out as
// rows for tabular renderers.
type Result interface {
	Kind() Kind
	Text() string
	Table() (columns []string, rows [][]any)
}

// Shape is the result of shape.
type Shape struct {
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`
}

func (Shape) Kind() Kind { return KindShape }

func (s Shape) Text() string {
	return fmt.Sprintf("The dataset has %d rows and %d columns.", s.Rows, s.Columns)
}

func (s Shape) Table() ([]string, [][]any) {
	return []string{"rows", "columns"}, [][]any{{s.Rows, s.Columns}}
}

// Stats is the result of describe. Std is nil with fewer than two values.
type Stats struct {
	Column string   `json:"column" yaml:"column"`
	Count  int      `json:"count" yaml:"count"`
	Mean   float64  `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    float64  `json:"min" yaml:"min"`
	Q1     float64  `json:"q1" yaml:"q1"`
	Median float64  `json:"median" yaml:"median"`
	Q3     float64  `json:"q3" yaml:"q3"`
	Max    float64  `json:"max" yaml:"max"`
}

func (Stats) Kind() Kind { return KindDescribe }

func (s Stats) Text() string {
	return fmt.Sprintf("Summary of %q over %d values: mean %s, min %s, median %s, max %s.",
		s.Column, s.Count, num(s.Mean), num(s.Min), num(s.Median), num(s.Max))
}

func (s Stats) Table() ([]string, [][]any) {
	var std any
	if s.Std != nil {
		std = *s.Std
	}
	return []string{"statistic", s.Column}, [][]any{
		{"count", s.Count},
		{"mean", s.Mean},
		{"std", std},
		{"min", s.Min},
		{"25%", s.Q1},
		{"50%", s.Median},
		{"75%", s.Q3},
		{"max", s.Max},
	}
}

// Scalar is a single named number, the result of mean.
type Scalar struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	Count int     `json:"count" yaml:"count"`
}

func (Scalar) Kind() Kind { return KindMean }

func (s Scalar) Text() string {
	return fmt.Sprintf("%s = %s", s.Name, num(s.Value))
}

func (s Scalar) Table() ([]string, [][]any) {
	return []string{s.Name}, [][]any{{s.Value}}
}

// Values is the result of unique_values.
type Values struct {
	Column  string `json:"column" yaml:"column"`
	Values  []any  `json:"values" yaml:"values"`
	Missing int    `json:"missing" yaml:"missing"`
}

func (Values) Kind() Kind { return KindUniqueValues }

func (v Values) Text() string {
	parts := make([]string, len(v.Values))
	for i, x := range v.Values {
		parts[i] = table.FormatValue(x)
	}
	return fmt.Sprintf("%q has %d distinct values: %s", v.Column, len(v.Values), strings.Join(parts, ", "))
}

func (v Values) Table() ([]string, [][]any) {
	rows := make([][]any, len(v.Values))
	for i, x := range v.Values {
		rows[i] = []any{x}
	}
	return []string{v.Column}, rows
}

// Point is one flagged value.
type Point struct {
	Row   int     `json:"row" yaml:"row"`
	Value float64 `json:"value" yaml:"value"`
}

// Outliers is the result of detect_outliers.
type Outliers struct {
	Column string  `json:"column" yaml:"column"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Q3     float64 `json:"q3" yaml:"q3"`
	IQR    float64 `json:"iqr" yaml:"iqr"`
	Lower  float64 `json:"lower" yaml:"lower"`
	Upper  float64 `json:"upper" yaml:"upper"`
	Points []Point `json:"points" yaml:"points"`
}

func (Outliers) Kind() Kind { return KindDetectOutliers }

func (o Outliers) Text() string {
	if len(o.Points) == 0 {
		return fmt.Sprintf("No outliers in %q (values outside [%s, %s]).", o.Column, num(o.Lower), num(o.Upper))
	}
	return fmt.Sprintf("Found %d outliers in %q outside [%s, %s].", len(o.Points), o.Column, num(o.Lower), num(o.Upper))
}

func (o Outliers) Table() ([]string, [][]any) {
	rows := make([][]any, len(o.Points))
	for i, p := range o.Points {
		rows[i] = []any{p.Row, p.Value}
	}
	return []string{"row", o.Column}, rows
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
