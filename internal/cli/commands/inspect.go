package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/adapter"
	"github.com/leapstack-labs/leapask/internal/cli/output"
	"github.com/leapstack-labs/leapask/internal/table"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the schema and first rows of a data file",
		Long: `Load a CSV or Excel file and print its inferred column types and a
preview of the leading rows.`,
		Example: `  leapask inspect people.csv
  leapask inspect sales.xlsx --sheet Q3 --rows 10
  leapask inspect people.csv -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}

	cmd.Flags().Int("rows", table.DefaultPreviewRows, "Number of preview rows")

	return cmd
}

func runInspect(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	s, err := cmdCtx.LoadSession(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	t, err := s.Table()
	if err != nil {
		return err
	}
	meta, err := s.Executor().Describe(ctx, t)
	if err != nil {
		return err
	}
	eng := newEngineOutput(s.Executor().Dialect(), meta)
	return renderDataset(cmdCtx.Renderer, t, cmdCtx.Cfg.Chat.PreviewRows, eng)
}

// datasetOutput is the json form of a dataset summary.
type datasetOutput struct {
	Name    string             `json:"name"`
	Source  string             `json:"source"`
	Rows    int                `json:"rows"`
	Columns int                `json:"columns"`
	Schema  []table.ColumnInfo `json:"schema"`
	Preview previewOutput      `json:"preview"`
	Engine  *engineOutput      `json:"engine,omitempty"`
}

type previewOutput struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// engineOutput is the table as the SQL engine stores it.
type engineOutput struct {
	Dialect string         `json:"dialect"`
	Table   string         `json:"table"`
	Rows    int64          `json:"rows"`
	Columns []engineColumn `json:"columns"`
}

type engineColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func newEngineOutput(dialect string, meta *adapter.Metadata) *engineOutput {
	eng := &engineOutput{Dialect: dialect, Table: meta.Name, Rows: meta.RowCount, Columns: []engineColumn{}}
	for _, c := range meta.Columns {
		eng.Columns = append(eng.Columns, engineColumn{Name: c.Name, Type: c.Type})
	}
	return eng
}

// renderDataset prints the name, shape, schema and a preview of t, plus the
// engine's column types when eng is set.
func renderDataset(r *output.Renderer, t *table.Table, previewRows int, eng *engineOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(datasetOutput{
			Name:    t.Name,
			Source:  t.Source,
			Rows:    t.NumRows(),
			Columns: t.NumColumns(),
			Schema:  t.Schema(),
			Preview: previewOutput{Columns: t.ColumnNames(), Rows: t.Head(previewRows)},
			Engine:  eng,
		})
	}

	r.Header(1, t.Name)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Source", t.Source))
		r.Println(output.FormatKeyValue("Shape", fmt.Sprintf("%d rows x %d columns", t.NumRows(), t.NumColumns())))
	} else {
		r.Muted(fmt.Sprintf("%s (%d rows x %d columns)", t.Source, t.NumRows(), t.NumColumns()))
	}
	r.Println("")

	r.Header(2, "Schema")
	if err := r.Schema(t.Schema()); err != nil {
		return err
	}
	if eng != nil {
		r.Println("")
		r.Header(2, fmt.Sprintf("SQL table %s (%s)", eng.Table, eng.Dialect))
		rows := make([][]any, len(eng.Columns))
		for i, c := range eng.Columns {
			rows[i] = []any{c.Name, c.Type}
		}
		if err := r.Table([]string{"column", "sql type"}, rows); err != nil {
			return err
		}
	}
	if previewRows <= 0 {
		return nil
	}

	r.Println("")
	r.Header(2, "Preview")
	return r.Table(t.ColumnNames(), t.Head(previewRows))
}
