package table

import "fmt"

// LoadError is returned when a file cannot be turned into a table.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NotLoadedError is returned when a table is requested before any load.
type NotLoadedError struct{}

func (e *NotLoadedError) Error() string {
	return "no dataset loaded\nHint: load a CSV or Excel file first"
}
