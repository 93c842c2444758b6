package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <file> <question>",
		Short: "Answer one question about a data file",
		Long: `Load a CSV or Excel file and answer a single question about it.

The question is routed by the language model to either a read-only SQL
query over the table "df" or one of the built-in analysis functions.
Words after the file are joined into one question, so quoting is optional.`,
		Example: `  leapask ask sales.csv "What is the average revenue?"
  leapask ask people.xlsx how many rows have City as NY
  leapask ask people.csv "Find outliers in Age" -o json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
	return cmd
}

func runAsk(cmd *cobra.Command, path, question string) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	s, err := cmdCtx.LoadSession(ctx, path, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	reply, err := s.Ask(ctx, question)
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.Reply(reply)
}
