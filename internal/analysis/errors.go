package analysis

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapask/internal/table"
)

// UnknownFunctionError is returned when a name is not in the registry.
type UnknownFunctionError struct {
	Name      string
	Available []string
}

func (e *UnknownFunctionError) Error() string {
	return fmt.Sprintf("unknown analysis function %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// MissingArgumentError is returned when a required argument is absent or blank.
type MissingArgumentError struct {
	Function string
	Argument string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q", e.Function, e.Argument)
}

// InvalidArgumentError is returned when an argument has the wrong type.
type InvalidArgumentError struct {
	Function string
	Argument string
	Value    any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %q must be a string, got %T", e.Function, e.Argument, e.Value)
}

// ColumnNotFoundError is returned when a column does not exist in the table.
type ColumnNotFoundError struct {
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

// ColumnTypeError is returned when a column has the wrong type for a function.
type ColumnTypeError struct {
	Column string
	Actual table.ColumnType
	Want   table.ColumnType
}

func (e *ColumnTypeError) Error() string {
	return fmt.Sprintf("column %q is %s, want %s", e.Column, e.Actual, e.Want)
}

// EmptyColumnError is returned when a column has no non-missing values.
type EmptyColumnError struct {
	Column string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("column %q has no non-missing values", e.Column)
}
