package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_Allowed(t *testing.T) {
	tests := []string{
		`SELECT COUNT(*) FROM df WHERE "City" = 'NY'`,
		`select * from df;`,
		`SELECT * FROM df;;`,
		`WITH ny AS (SELECT * FROM df WHERE City = 'NY') SELECT COUNT(*) FROM ny`,
		`(SELECT 1) UNION (SELECT 2)`,
		`VALUES (1), (2)`,
		`SELECT 'DELETE FROM df' AS note FROM df`,
		`SELECT "update" FROM df`,
		"SELECT `Drop Rate` FROM df",
		`SELECT [Set] FROM df`,
		`SELECT REPLACE(City, 'N', 'M') FROM df`,
		`SELECT COUNT(*) AS load FROM df`,
		`SELECT df.set FROM df`,
		"-- count rows\nSELECT COUNT(*) FROM df",
		`/* delete? no */ SELECT 1`,
		`SELECT COUNT(*) FROM pragma_table_info('df')`,
		`SELECT 'it''s' FROM df`,
	}

	for _, q := range tests {
		t.Run(q, func(t *testing.T) {
			assert.NoError(t, Check(q))
		})
	}
}

func TestCheck_Forbidden(t *testing.T) {
	tests := []struct {
		query   string
		keyword string
	}{
		{`DELETE FROM df`, "DELETE"},
		{`update df set Age = 0`, "UPDATE"},
		{`DROP TABLE df`, "DROP"},
		{`INSERT INTO df VALUES (1, 'x')`, "INSERT"},
		{`REPLACE INTO df VALUES (1, 'x')`, "REPLACE"},
		{`PRAGMA writable_schema = 1`, "PRAGMA"},
		{`ATTACH DATABASE 'x.db' AS x`, "ATTACH"},
		{`WITH x AS (SELECT 1) DELETE FROM df`, "DELETE"},
		{`SELECT 1 FROM df WHERE 1 = (DELETE FROM df)`, "DELETE"},
		{"/* hi */ DROP TABLE df", "DROP"},
		{`COPY df TO 'out.csv'`, "COPY"},
		{`EXPLAIN SELECT 1`, "EXPLAIN"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := Check(tt.query)
			var forbidden *ForbiddenOperationError
			require.ErrorAs(t, err, &forbidden)
			assert.Equal(t, tt.keyword, forbidden.Keyword)
		})
	}
}

func TestCheck_Syntax(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"only semicolon", ";"},
		{"comment only", "-- nothing"},
		{"unterminated string", `SELECT 'abc FROM df`},
		{"unterminated identifier", `SELECT "abc FROM df`},
		{"unterminated comment", `SELECT 1 /* open`},
		{"multiple statements", `SELECT 1; SELECT 2`},
		{"hidden second statement", `SELECT 1; DROP TABLE df`},
		{"no keyword", `42`},
		{"misspelled keyword", `SELEC * FROM df`},
		{"prose", `how many rows are there`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.query)
			var syntax *QuerySyntaxError
			require.ErrorAs(t, err, &syntax, "got %v", err)
		})
	}
}

func TestLooksLikeStatement(t *testing.T) {
	assert.True(t, LooksLikeStatement("SELECT 1"))
	assert.True(t, LooksLikeStatement("  with x as (select 1) select * from x"))
	assert.True(t, LooksLikeStatement("DELETE FROM df"))
	assert.True(t, LooksLikeStatement("SELECT 'unterminated"))
	assert.False(t, LooksLikeStatement("The answer is 2."))
	assert.False(t, LooksLikeStatement(""))
}
