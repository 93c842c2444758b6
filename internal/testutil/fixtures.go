package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PeopleCSV is the small Age/City dataset used across tests.
const PeopleCSV = "Age,City\n25,NY\n40,LA\n30,NY\n"

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// WritePeopleCSV writes PeopleCSV to a temp file.
func WritePeopleCSV(t testing.TB) string {
	t.Helper()
	return WriteFile(t, "people.csv", PeopleCSV)
}

// WriteXLSX writes rows to the first sheet of a new workbook.
func WriteXLSX(t testing.TB, name string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, f.SaveAs(path))
	return path
}
