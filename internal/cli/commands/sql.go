package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/cli/output"
	"github.com/leapstack-labs/leapask/internal/query"
)

// SQLOptions holds options for the sql command.
type SQLOptions struct {
	Run bool
}

// NewSQLCommand creates the sql command.
func NewSQLCommand() *cobra.Command {
	opts := &SQLOptions{}

	cmd := &cobra.Command{
		Use:   "sql <file> <question>",
		Short: "Translate a question into SQL",
		Long: `Ask the language model for the SQL query that answers a question.

The query is printed without running it. Use --run to execute it through
the same read-only guard the chat uses.`,
		Example: `  leapask sql sales.csv "total revenue per region"
  leapask sql sales.csv "total revenue per region" --run`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(cmd, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Run, "run", false, "Execute the generated query")

	return cmd
}

// sqlOutput is the json form of the sql command.
type sqlOutput struct {
	Question string             `json:"question"`
	Query    string             `json:"query"`
	Result   *query.ResultTable `json:"result,omitempty"`
}

func runSQL(cmd *cobra.Command, path, question string, opts *SQLOptions) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.Cfg.ValidateLLM(); err != nil {
		return err
	}

	s, err := cmdCtx.LoadSession(ctx, path, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	rt, err := cmdCtx.NewRouter(ctx, s.Executor().Dialect())
	if err != nil {
		return err
	}
	t, err := s.Table()
	if err != nil {
		return err
	}

	sqlText, err := rt.Translate(ctx, question, t.Schema())
	if err != nil {
		return err
	}

	var res *query.ResultTable
	if opts.Run {
		res, err = s.Executor().Run(ctx, sqlText, t)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(sqlOutput{Question: question, Query: sqlText, Result: res})
	case output.ModeMarkdown:
		r.Println(output.FormatCodeBlock("sql", sqlText))
	default:
		r.Println(r.Styles().Code.Render(sqlText))
	}

	if res == nil {
		return nil
	}
	r.Println("")
	cols, rows := res.Table()
	return r.Table(cols, rows)
}
