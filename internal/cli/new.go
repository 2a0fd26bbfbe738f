package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Body string
	Pin  bool
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a note",
		Long: `Create a note with the given title.

The body is taken from --body when provided, otherwise read from stdin.

Example:
  echo "milk eggs" | inkwell new Groceries`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "note body (otherwise read from stdin)")
	cmd.Flags().BoolVar(&opts.Pin, "pin", false, "pin the new note")

	return cmd
}

func runNew(opts *NewOptions, title string, cmd *cobra.Command) error {
	body := opts.Body
	if body == "" && !cmd.Flags().Changed("body") {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading body from stdin: %w", err)
		}
		body = string(raw)
	}

	return withEnv(opts.RootOptions, func(ctx context.Context, e *env) error {
		id, err := e.worker.CreateNote(ctx, title, body, opts.Pin)
		if err != nil {
			return err
		}

		f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if opts.Format == "json" {
			return f.JSON(map[string]any{"id": id, "pinned": opts.Pin})
		}
		suffix := ""
		if opts.Pin {
			suffix = " (pinned)"
		}
		f.Textf("Created note #%d%s\n", id, suffix)
		return nil
	})
}
