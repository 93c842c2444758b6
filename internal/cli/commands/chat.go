package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/cli/config"
	"github.com/leapstack-labs/leapask/internal/table"
)

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [file]",
		Short: "Ask questions about a data file interactively",
		Long: `Start an interactive session over a CSV or Excel file.

Each line is a question in plain language. The language model answers it
with a read-only SQL query or one of the built-in analysis functions.
Lines starting with a dot are commands; type .help to list them.

When stdin is not a terminal, questions are read from it one per line.`,
		Example: `  # Start with a dataset
  leapask chat sales.csv

  # Start empty and load later with .load
  leapask chat

  # Reload whenever the file changes
  leapask chat sales.csv --watch

  # Answer a batch of questions
  leapask chat sales.csv < questions.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, args)
		},
	}

	cmd.Flags().Bool("keep-history", false, "Keep the history when a new dataset is loaded")
	cmd.Flags().String("history-file", config.DefaultHistoryFile, "Readline history file (empty disables it)")
	cmd.Flags().Bool("watch", false, "Reload the dataset when the file changes")
	cmd.Flags().Int("rows", table.DefaultPreviewRows, "Number of preview rows")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cmdCtx := NewCommandContext(cmd)

	s, err := cmdCtx.OpenSession(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	repl := newChatREPL(cmdCtx, s)
	defer repl.stopWatch()

	if len(args) == 1 {
		repl.load(ctx, args[0])
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return repl.runInteractive(ctx)
	}
	return repl.runLines(ctx, in)
}
