package table

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapask/internal/testutil"
)

func TestLoadFile_CSVSchema(t *testing.T) {
	path := testutil.WriteFile(t, "mixed.csv",
		"Name,Age,Joined,Salary\n"+
			"Ann,25,2023-01-05,\"$1,200\"\n"+
			"Bob,,2023-02-10,900\n"+
			"Cid,31,2023-03-15,N/A\n")

	tbl, err := LoadFile(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, "mixed", tbl.Name)
	assert.Equal(t, []ColumnInfo{
		{Name: "Name", Type: TypeText},
		{Name: "Age", Type: TypeNumeric},
		{Name: "Joined", Type: TypeDate},
		{Name: "Salary", Type: TypeNumeric},
	}, tbl.Schema())
	assert.Equal(t, 3, tbl.NumRows())

	age, ok := tbl.Column("Age")
	require.True(t, ok)
	assert.Equal(t, []any{25.0, nil, 31.0}, age.Values)

	salary, _ := tbl.Column("Salary")
	assert.Equal(t, []any{1200.0, 900.0, nil}, salary.Values)

	joined, _ := tbl.Column("Joined")
	assert.Equal(t, time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), joined.Values[1])
}

func TestLoadFile_XLSX(t *testing.T) {
	path := testutil.WriteXLSX(t, "people.xlsx", [][]any{
		{"", "Age", "City"},
		{0, 25, "NY"},
		{1, 40, "LA"},
		{2, 30, "NY"},
	})

	tbl, err := LoadFile(path, Options{})
	require.NoError(t, err)

	// The pandas index column is dropped.
	assert.Equal(t, []ColumnInfo{
		{Name: "Age", Type: TypeNumeric},
		{Name: "City", Type: TypeText},
	}, tbl.Schema())
	assert.Equal(t, []any{40.0, "LA"}, tbl.Row(1))
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported extension", "data.json", `{"a":1}`},
		{"empty file", "empty.csv", ""},
		{"blank header", "blank.csv", ",,\n"},
		{"only index column", "index.csv", ",\n0\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, tt.file, tt.content)
			_, err := LoadFile(path, Options{})
			var le *LoadError
			require.True(t, errors.As(err, &le), "want LoadError, got %v", err)
			assert.Equal(t, path, le.Path)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile("/nonexistent/data.csv", Options{})
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Error(t, le.Unwrap())
}

func TestFromRecords_Headers(t *testing.T) {
	tbl, err := FromRecords([][]string{
		{"a", "", "a", "b", ""},
		{"1", "x", "2", "y"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "b"}, tbl.ColumnNames())
	// Short rows are padded with missing cells.
	b, _ := tbl.Column("b")
	assert.Equal(t, []any{"y"}, b.Values)
}

func TestFromRecords_SemicolonCSV(t *testing.T) {
	path := testutil.WriteFile(t, "euro.csv", "City;Population\nParis;2100000\nLyon;515000\n")
	tbl, err := LoadFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"City", "Population"}, tbl.ColumnNames())
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  ColumnType
	}{
		{"integers", []string{"1", "2", "3"}, TypeNumeric},
		{"floats with missing", []string{"1.5", "", "NaN", "2"}, TypeNumeric},
		{"mostly numeric", []string{"1", "2", "3", "4", "x"}, TypeNumeric},
		{"mostly text", []string{"1", "a", "b"}, TypeText},
		{"dates", []string{"2024-01-01", "2024-02-01"}, TypeDate},
		{"us dates", []string{"01/31/2024", "02/01/2024"}, TypeDate},
		{"all missing", []string{"", "null", "N/A"}, TypeText},
		{"empty", nil, TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(tt.cells))
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "25", FormatValue(25.0))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "2024-01-02", FormatValue(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-02 03:04:05", FormatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Equal(t, "NY", FormatValue("NY"))
}

func TestStore(t *testing.T) {
	store := NewStore(Options{}, testutil.NewTestLogger(t))

	_, err := store.Current()
	var nle *NotLoadedError
	require.ErrorAs(t, err, &nle)
	_, err = store.Schema()
	require.ErrorAs(t, err, &nle)
	assert.False(t, store.Loaded())

	_, err = store.Load(testutil.WritePeopleCSV(t))
	require.NoError(t, err)

	schema, err := store.Schema()
	require.NoError(t, err)
	assert.Equal(t, []ColumnInfo{{"Age", TypeNumeric}, {"City", TypeText}}, schema)

	cols, rows, err := store.Preview(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "City"}, cols)
	assert.Equal(t, [][]any{{25.0, "NY"}, {40.0, "LA"}}, rows)

	// A failed load keeps the previous table.
	_, err = store.Load(testutil.WriteFile(t, "bad.xyz", "x"))
	require.Error(t, err)
	current, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, "people", current.Name)

	store.Clear()
	assert.False(t, store.Loaded())
}
