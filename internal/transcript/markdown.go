package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leapstack-labs/leapask/internal/router"
	"github.com/leapstack-labs/leapask/internal/table"
)

type markdownExporter struct{}

func (markdownExporter) Extension() string   { return ".md" }
func (markdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }

func (markdownExporter) Export(tr *Transcript, w io.Writer) error {
	var b strings.Builder

	title := tr.Dataset
	if title == "" {
		title = "dataset"
	}
	fmt.Fprintf(&b, "# Questions about %s\n\n", title)
	if tr.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`  \n", tr.Source)
	}
	if !tr.LoadedAt.IsZero() {
		fmt.Fprintf(&b, "Loaded: %s  \n", tr.LoadedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Exported: %s\n", tr.ExportedAt.Format(time.RFC3339))

	for i, turn := range tr.Turns {
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, turn.Question)

		switch turn.Decision.Kind {
		case router.KindQuery:
			fmt.Fprintf(&b, "```sql\n%s\n```\n\n", turn.Decision.Query)
		case router.KindFunction:
			fmt.Fprintf(&b, "Function: `%s`\n\n", turn.Decision.String())
		}

		fmt.Fprintf(&b, "%s\n", turn.Answer)
		if turn.Result != nil {
			cols, rows := turn.Result.Table()
			if len(cols) > 0 && len(rows) > 1 {
				b.WriteString("\n")
				writeTable(&b, cols, rows)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, cols []string, rows [][]any) {
	b.WriteString("| " + strings.Join(escapeAll(cols), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(cols)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = escapeCell(table.FormatValue(v))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func escapeAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = escapeCell(s)
	}
	return out
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
