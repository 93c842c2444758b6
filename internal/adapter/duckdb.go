package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapask/internal/table"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register(Engine{
		Name:        "duckdb",
		Description: "Embedded DuckDB",
		New:         func(logger *slog.Logger) Adapter { return NewDuckDBAdapter(logger) },
	})
}

// DuckDBAdapter implements the Adapter interface for DuckDB.
type DuckDBAdapter struct {
	BaseSQLAdapter
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter(logger *slog.Logger) *DuckDBAdapter {
	return &DuckDBAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" or an empty path for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// LoadTable replaces name with the contents of t.
func (a *DuckDBAdapter) LoadTable(ctx context.Context, name string, t *table.Table) error {
	return a.ReplaceTable(ctx, name, t, duckdbType)
}

// TableMetadata retrieves metadata for a table using information_schema.
func (a *DuckDBAdapter) TableMetadata(ctx context.Context, name string) (*Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	query := `
		SELECT
			column_name,
			data_type,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := a.DB.QueryContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}

	var count int64
	//nolint:gosec // identifier is quoted
	if err := a.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(name)).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	return &Metadata{Name: name, Columns: columns, RowCount: count}, nil
}

// DialectName returns "duckdb".
func (a *DuckDBAdapter) DialectName() string {
	return "duckdb"
}

func duckdbType(t table.ColumnType) string {
	if t.IsNumeric() {
		return "DOUBLE"
	}
	return "VARCHAR"
}

// Ensure DuckDBAdapter implements Adapter interface
var _ Adapter = (*DuckDBAdapter)(nil)
