package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/cli/output"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <file> [SQL]",
		Short: "Run a read-only SQL query against a data file",
		Long: `Load a CSV or Excel file as the table "df" and run SQL against it.

No language model is involved. Statements that modify data or schema are
rejected before they reach the engine. The SQL is taken from the
arguments, from --input, or from piped stdin.`,
		Example: `  # Execute SQL directly
  leapask query people.csv 'SELECT City, COUNT(*) FROM df GROUP BY City'

  # Read SQL from a file
  leapask query people.csv --input report.sql

  # Pipe SQL in and print CSV
  echo 'SELECT * FROM df' | leapask query people.csv --format csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Result format: table, json, csv, md (default: follows --output)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	format, err := tableFormat(opts.Format)
	if err != nil {
		return err
	}

	sqlQuery, err := readSQL(cmd, args[1:], opts.Input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	s, err := cmdCtx.LoadSession(ctx, args[0], false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	t, err := s.Table()
	if err != nil {
		return err
	}
	res, err := s.Executor().Run(ctx, sqlQuery, t)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	cols, rows := res.Table()
	if format == "" {
		return cmdCtx.Renderer.Table(cols, rows)
	}
	return cmdCtx.Renderer.TableAs(format, cols, rows)
}

// readSQL determines the SQL source: arguments, then the input file, then
// piped stdin.
func readSQL(cmd *cobra.Command, args []string, input string) (string, error) {
	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case input != "":
		content, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	default:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && isTerminal(f) {
			return "", errors.New("no SQL given (pass it as an argument, with --input or on stdin)")
		}
		content, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	}

	sqlQuery = strings.TrimSuffix(strings.TrimSpace(sqlQuery), ";")
	if strings.TrimSpace(sqlQuery) == "" {
		return "", errors.New("no SQL given (pass it as an argument, with --input or on stdin)")
	}
	return sqlQuery, nil
}

// tableFormat maps a --format value to a table format. Empty means the
// renderer's mode decides.
func tableFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		return "", nil
	case "table", "text":
		return output.FormatText, nil
	case "md", "markdown":
		return output.FormatMarkdown, nil
	case "csv":
		return output.FormatCSV, nil
	case "json":
		return output.FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q (use table, json, csv or md)", format)
	}
}
