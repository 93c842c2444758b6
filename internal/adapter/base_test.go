package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/table"
)

func sampleTable() *table.Table {
	return &table.Table{Columns: []*table.Column{
		{Name: "Age", Type: table.TypeNumeric, Values: []any{25.0, nil}},
		{Name: `Home "City"`, Type: table.TypeText, Values: []any{"NY", "LA"}},
		{Name: "Joined", Type: table.TypeDate, Values: []any{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil}},
	}}
}

func TestCreateTableSQL(t *testing.T) {
	got := CreateTableSQL("df", sampleTable(), sqliteType)
	assert.Equal(t, `CREATE TABLE "df" ("Age" REAL, "Home ""City""" TEXT, "Joined" TEXT)`, got)

	got = CreateTableSQL("df", sampleTable(), duckdbType)
	assert.Equal(t, `CREATE TABLE "df" ("Age" DOUBLE, "Home ""City""" VARCHAR, "Joined" VARCHAR)`, got)
}

func TestSQLValues(t *testing.T) {
	row := sampleTable().Row(0)
	assert.Equal(t, []any{25.0, "NY", "2024-03-01"}, SQLValues(row))
}

func TestBaseSQLAdapter_NotConnected(t *testing.T) {
	base := &BaseSQLAdapter{}
	ctx := context.Background()

	require.NoError(t, base.Close())
	require.Error(t, base.Exec(ctx, "SELECT 1"))
	_, err := base.Query(ctx, "SELECT 1")
	require.Error(t, err)
	require.Error(t, base.ReplaceTable(ctx, "df", sampleTable(), sqliteType))
}

func TestBaseSQLAdapter_ReplaceTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "df"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "df"`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(`INSERT INTO "df" VALUES \(\?, \?, \?\)`)
	prep.ExpectExec().WithArgs(25.0, "NY", "2024-03-01").WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WithArgs(nil, "LA", nil).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	base := &BaseSQLAdapter{DB: db}
	require.NoError(t, base.ReplaceTable(context.Background(), "df", sampleTable(), sqliteType))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_ReplaceTableRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "df"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "df"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	base := &BaseSQLAdapter{DB: db}
	err = base.ReplaceTable(context.Background(), "df", sampleTable(), sqliteType)
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}
