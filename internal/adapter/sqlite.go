package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapask/internal/table"

	_ "modernc.org/sqlite" // sqlite driver
)

func init() {
	Register(Engine{
		Name:        "sqlite",
		Description: "Embedded SQLite (default)",
		New:         func(logger *slog.Logger) Adapter { return NewSQLiteAdapter(logger) },
	})
}

// SQLiteAdapter implements Adapter on an embedded SQLite database.
//
// Outside LoadTable the connection runs with query_only set, so statements
// that write are refused by the engine itself.
type SQLiteAdapter struct {
	BaseSQLAdapter
}

// NewSQLiteAdapter creates a new SQLite adapter instance.
func NewSQLiteAdapter(logger *slog.Logger) *SQLiteAdapter {
	return &SQLiteAdapter{BaseSQLAdapter: BaseSQLAdapter{Logger: logger}}
}

// Connect opens the database. An empty path opens an in-memory database.
func (a *SQLiteAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// A single connection keeps one in-memory database and one pragma state.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	if err := a.setQueryOnly(ctx, true); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

// LoadTable replaces name with the contents of t.
func (a *SQLiteAdapter) LoadTable(ctx context.Context, name string, t *table.Table) error {
	if err := a.setQueryOnly(ctx, false); err != nil {
		return err
	}
	loadErr := a.ReplaceTable(ctx, name, t, sqliteType)
	if err := a.setQueryOnly(ctx, true); err != nil && loadErr == nil {
		return err
	}
	return loadErr
}

// TableMetadata retrieves metadata for a table.
func (a *SQLiteAdapter) TableMetadata(ctx context.Context, name string) (*Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, "SELECT name, type, cid FROM pragma_table_info(?) ORDER BY cid", name)
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

// DialectName returns "sqlite".
func (a *SQLiteAdapter) DialectName() string {
	return "sqlite"
}

func (a *SQLiteAdapter) setQueryOnly(ctx context.Context, on bool) error {
	mode := "OFF"
	if on {
		mode = "ON"
	}
	if err := a.Exec(ctx, "PRAGMA query_only = "+mode); err != nil {
		return fmt.Errorf("failed to set query_only: %w", err)
	}
	return nil
}

func sqliteType(t table.ColumnType) string {
	if t.IsNumeric() {
		return "REAL"
	}
	return "TEXT"
}

// Ensure SQLiteAdapter implements Adapter interface
var _ Adapter = (*SQLiteAdapter)(nil)
