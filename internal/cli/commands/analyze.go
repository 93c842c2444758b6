package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/analysis"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Column string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file> <function>",
		Short: "Run an analysis function on a data file",
		Long: `Run one of the built-in analysis functions directly, without the
language model. See 'leapask functions' for the list.`,
		Example: `  leapask analyze people.csv shape
  leapask analyze people.csv describe --column Age
  leapask analyze people.csv detect_outliers -c Age -o json`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 1 {
				return analysis.NewRegistry().Names(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Column, "column", "c", "", "Column to analyze")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path, function string, opts *AnalyzeOptions) error {
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

	args := map[string]any{}
	if opts.Column != "" {
		args["column"] = opts.Column
	}

	res, err := s.Registry().Dispatch(t, strings.ToLower(function), args)
	if err != nil {
		return analyzeError(err)
	}
	return cmdCtx.Renderer.Result(res)
}

// analyzeError adds flag hints to argument errors.
func analyzeError(err error) error {
	var missing *analysis.MissingArgumentError
	if errors.As(err, &missing) {
		return fmt.Errorf("%w\nHint: pass the column with --column", err)
	}
	var unknown *analysis.UnknownFunctionError
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w\nHint: run 'leapask functions' to list them", err)
	}
	return err
}
