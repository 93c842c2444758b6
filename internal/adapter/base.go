package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/leapask/internal/table"
)

// TypeMapper maps a column type to the engine's SQL type.
type TypeMapper func(table.ColumnType) string

// BaseSQLAdapter provides the database/sql plumbing shared by adapters.
// Embed it in concrete adapters to get Close, Exec, Query and a generic
// table loader.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		b.logger().Debug("closing database connection")
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.DB.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
// The driver error is returned unwrapped so callers can classify it.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	return &Rows{Rows: rows}, nil
}

// ReplaceTable drops name and recreates it from t inside one transaction.
func (b *BaseSQLAdapter) ReplaceTable(ctx context.Context, name string, t *table.Table, typeOf TypeMapper) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if t.NumColumns() == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quoted := QuoteIdent(name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(name, t, typeOf)); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", t.NumColumns()), ", ")
	//nolint:gosec // identifiers are quoted
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range t.NumRows() {
		if _, err := stmt.ExecContext(ctx, SQLValues(t.Row(i))...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	b.logger().Debug("table materialized", "table", name, "rows", t.NumRows(), "columns", t.NumColumns())
	return nil
}

// CreateTableSQL builds the CREATE TABLE statement for t.
func CreateTableSQL(name string, t *table.Table, typeOf TypeMapper) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = QuoteIdent(c.Name) + " " + typeOf(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(defs, ", "))
}

// SQLValues converts table cells to driver arguments. Dates become ISO text.
func SQLValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if tm, ok := v.(time.Time); ok {
			out[i] = table.FormatDate(tm)
			continue
		}
		out[i] = v
	}
	return out
}

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}
