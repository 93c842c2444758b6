package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	dataset "github.com/leapstack-labs/leapask/internal/table"
)

// Table formats accepted by RenderTable.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

var titleCase = cases.Title(language.English)

// Table writes rows in the effective mode.
func (r *Renderer) Table(cols []string, rows [][]any) error {
	return r.TableAs(r.tableFormat(), cols, rows)
}

// TableAs writes rows in an explicit format.
func (r *Renderer) TableAs(format string, cols []string, rows [][]any) error {
	return RenderTable(r.out, format, cols, rows)
}

func (r *Renderer) tableFormat() string {
	switch r.EffectiveMode() {
	case ModeJSON:
		return FormatJSON
	case ModeMarkdown:
		return FormatMarkdown
	default:
		return FormatText
	}
}

// RenderTable writes cols and rows to w as text, markdown, csv or json.
func RenderTable(w io.Writer, format string, cols []string, rows [][]any) error {
	if format == FormatJSON {
		records := make([]map[string]any, len(rows))
		for i, row := range rows {
			rec := make(map[string]any, len(cols))
			for j, col := range cols {
				if j < len(row) {
					rec[col] = row[j]
				}
			}
			records[i] = rec
		}
		enc := newJSONEncoder(w)
		return enc.Encode(records)
	}

	if len(rows) == 0 && format != FormatCSV {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)
	for _, row := range rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = formatCell(v)
		}
		t.AppendRow(out)
	}

	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		t.RenderMarkdown()
	case FormatCSV:
		t.RenderCSV()
	default:
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
	}
	return nil
}

// Schema writes the column names and types.
func (r *Renderer) Schema(cols []dataset.ColumnInfo) error {
	rows := make([][]any, len(cols))
	for i, c := range cols {
		typ := string(c.Type)
		if r.EffectiveMode() == ModeText {
			typ = titleCase.String(typ)
		}
		rows[i] = []any{c.Name, typ}
	}
	return r.Table([]string{"column", "type"}, rows)
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return dataset.FormatValue(val)
	}
}
