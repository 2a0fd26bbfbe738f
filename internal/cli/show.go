package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <note-id>",
		Short:         "Print a note in full",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return withEnv(rootOpts, func(ctx context.Context, e *env) error {
				n, err := e.worker.GetNote(ctx, id)
				if err != nil {
					return err
				}
				f := &Formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				if rootOpts.Format == "json" {
					return f.JSON(n)
				}
				f.Textf("%s", FormatNote(n))
				return nil
			})
		},
	}
}
