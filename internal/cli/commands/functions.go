package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapask/internal/analysis"
	"github.com/leapstack-labs/leapask/internal/cli/output"
)

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the built-in analysis functions",
		Long: `List the analysis functions a question can be routed to, with their
arguments. The same functions can be run directly with 'leapask analyze'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			return renderFunctions(cmdCtx.Renderer, analysis.NewRegistry())
		},
	}
}

func renderFunctions(r *output.Renderer, reg *analysis.Registry) error {
	descs := reg.Descriptors()
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(descs)
	}

	rows := make([][]any, len(descs))
	for i, d := range descs {
		rows[i] = []any{signature(d), d.Description}
	}
	return r.Table([]string{"function", "description"}, rows)
}

// signature renders a descriptor as name(arg, ...).
func signature(d analysis.Descriptor) string {
	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}
	return d.Name + "(" + strings.Join(names, ", ") + ")"
}
