package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// indexColumn is the header pandas writes for an exported index.
const indexColumn = "Unnamed: 0"

// Options controls how a file is read.
type Options struct {
	// Sheet selects a worksheet in a spreadsheet. Empty means the first sheet.
	Sheet string
}

// SupportedExtensions lists the file extensions LoadFile accepts.
var SupportedExtensions = []string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}

// LoadFile reads a CSV or spreadsheet file into a Table.
func LoadFile(path string, opts Options) (*Table, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		records, err = readDelimited(path, ext)
	case ".xlsx", ".xlsm":
		records, err = readSpreadsheet(path, opts.Sheet)
	default:
		return nil, &LoadError{
			Path:   path,
			Reason: fmt.Sprintf("unsupported file type %q (supported: %s)", ext, strings.Join(SupportedExtensions, ", ")),
		}
	}
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{Path: path, Reason: "unreadable file", Err: err}
	}

	t, err := FromRecords(records)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: err.Error()}
	}
	t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t.Source = path
	t.LoadedAt = time.Now()
	return t, nil
}

// FromRecords builds a Table from a header row followed by data rows.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	headers := normalizeHeaders(records[0])
	keep := make([]int, 0, len(headers))
	for i, h := range headers {
		if h == indexColumn {
			continue
		}
		keep = append(keep, i)
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("zero columns")
	}

	data := records[1:]
	t := &Table{Columns: make([]*Column, 0, len(keep))}
	for _, idx := range keep {
		cells := make([]string, len(data))
		for r, row := range data {
			if idx < len(row) {
				cells[r] = row[idx]
			}
		}
		typ := InferType(cells)
		t.Columns = append(t.Columns, &Column{
			Name:   headers[idx],
			Type:   typ,
			Values: convert(cells, typ),
		})
	}
	return t, nil
}

// normalizeHeaders trims names, fills blanks and de-duplicates.
func normalizeHeaders(raw []string) []string {
	// Trailing blank headers with no data are spreadsheet padding.
	end := len(raw)
	for end > 0 && strings.TrimSpace(raw[end-1]) == "" {
		end--
	}

	seen := make(map[string]int, end)
	out := make([]string, end)
	for i := range end {
		name := strings.TrimSpace(strings.TrimPrefix(raw[i], "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func readDelimited(path, ext string) ([][]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	comma := ','
	if ext == ".tsv" {
		comma = '\t'
	} else {
		first, _ := br.Peek(4096)
		comma = sniffDelimiter(string(first))
	}

	r := csv.NewReader(br)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the first line.
func sniffDelimiter(sample string) rune {
	line, _, _ := strings.Cut(sample, "\n")
	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func readSpreadsheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &LoadError{Path: path, Reason: "workbook has no sheets"}
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	// Skip blank leading rows so the first populated row is the header.
	for len(rows) > 0 && isBlankRow(rows[0]) {
		rows = rows[1:]
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
