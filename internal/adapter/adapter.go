// Package adapter provides the embedded SQL engines a loaded table is
// materialized into for querying.
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapask/internal/table"
)

// Config holds the configuration for opening an engine.
type Config struct {
	// Type selects the registered adapter (e.g., "sqlite", "duckdb").
	Type string

	// Path is the database file. Empty or ":memory:" keeps it in memory.
	Path string

	// Options contains additional driver-specific options.
	Options map[string]string
}

// Column describes one column of a materialized table.
type Column struct {
	Name     string
	Type     string
	Position int
}

// Metadata holds metadata about a materialized table.
type Metadata struct {
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter defines the interface that all SQL engines implement.
type Adapter interface {
	// Connect opens the engine using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the engine.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// LoadTable replaces the named table with the contents of t.
	LoadTable(ctx context.Context, name string, t *table.Table) error

	// TableMetadata returns the columns and row count of a table.
	TableMetadata(ctx context.Context, name string) (*Metadata, error)

	// DialectName returns the SQL dialect name shown to the model.
	DialectName() string
}
