// Package query runs generated SQL against the loaded table.
//
// Every query passes Check before it reaches the engine, and the table is
// materialized into the engine as DefaultTableName whenever it changes.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/table"
)

// DefaultTableName is the name the loaded table is queried under.
const DefaultTableName = "df"

// Executor runs read-only queries through an adapter.
type Executor struct {
	adapter   adapter.Adapter
	tableName string
	logger    *slog.Logger

	mu     sync.Mutex
	synced *table.Table
}

// NewExecutor creates an executor over a connected adapter.
func NewExecutor(a adapter.Adapter, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{adapter: a, tableName: DefaultTableName, logger: logger}
}

// TableName returns the SQL name of the loaded table.
func (e *Executor) TableName() string {
	return e.tableName
}

// Dialect returns the engine's SQL dialect name.
func (e *Executor) Dialect() string {
	return e.adapter.DialectName()
}

// Sync materializes t in the engine unless it is already the current table.
func (e *Executor) Sync(ctx context.Context, t *table.Table) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncLocked(ctx, t)
}

func (e *Executor) syncLocked(ctx context.Context, t *table.Table) error {
	if e.synced == t {
		return nil
	}
	if err := e.adapter.LoadTable(ctx, e.tableName, t); err != nil {
		return fmt.Errorf("failed to materialize table: %w", err)
	}
	e.synced = t
	e.logger.Debug("table synced", "table", e.tableName, "rows", t.NumRows())
	return nil
}

// Describe materializes t and returns the engine's view of it: the SQL
// column types and the stored row count.
func (e *Executor) Describe(ctx context.Context, t *table.Table) (*adapter.Metadata, error) {
	if t == nil {
		return nil, &table.NotLoadedError{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.syncLocked(ctx, t); err != nil {
		return nil, err
	}
	return e.adapter.TableMetadata(ctx, e.tableName)
}

// Run checks queryText, then executes it against t.
func (e *Executor) Run(ctx context.Context, queryText string, t *table.Table) (*ResultTable, error) {
	if t == nil {
		return nil, &table.NotLoadedError{}
	}
	if err := Check(queryText); err != nil {
		e.logger.Warn("query rejected", "query", queryText, "error", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.syncLocked(ctx, t); err != nil {
		return nil, &QueryExecutionError{Query: queryText, Err: err}
	}

	e.logger.Debug("running query", "query", queryText)
	rows, err := e.adapter.Query(ctx, queryText)
	if err != nil {
		return nil, classify(queryText, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify(queryText, err)
	}

	res := &ResultTable{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(queryText, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(queryText, err)
	}

	e.logger.Debug("query finished", "rows", len(res.Rows), "columns", len(cols))
	return res, nil
}

// syntaxMarkers are driver message fragments that indicate a parse failure.
var syntaxMarkers = []string{
	"syntax error",
	"incomplete input",
	"parser error",
	"unrecognized token",
	"unterminated",
}

// classify maps a driver error to QuerySyntaxError or QueryExecutionError.
func classify(queryText string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, m := range syntaxMarkers {
		if strings.Contains(msg, m) {
			return &QuerySyntaxError{Query: queryText, Err: err}
		}
	}
	return &QueryExecutionError{Query: queryText, Err: err}
}
