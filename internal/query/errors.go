package query

import "fmt"

// QuerySyntaxError is returned for malformed query text.
type QuerySyntaxError struct {
	Query  string
	Reason string
	Err    error
}

func (e *QuerySyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query syntax error: %v", e.Err)
	}
	return "query syntax error: " + e.Reason
}

func (e *QuerySyntaxError) Unwrap() error {
	return e.Err
}

// QueryExecutionError is returned when a well-formed query fails to run.
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// ForbiddenOperationError is returned for statements that could modify data.
// Such statements are never sent to the engine.
type ForbiddenOperationError struct {
	Query   string
	Keyword string
}

func (e *ForbiddenOperationError) Error() string {
	return fmt.Sprintf("forbidden operation %s: only read-only SELECT queries are allowed", e.Keyword)
}
