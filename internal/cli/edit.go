package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/inkwell/internal/notes"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Title     string
	Body      string
	Pin       bool
	Unpin     bool
	Archive   bool
	Unarchive bool
	Expect    int64
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <note-id>",
		Short: "Change a note's content or flags",
		Long: `Update a note's title, body, pinned, or archived state.

--expect takes the note's last known updated timestamp; the edit is
rejected if the note changed since then.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return runEdit(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.Body, "body", "", "new body")
	cmd.Flags().BoolVar(&opts.Pin, "pin", false, "pin the note")
	cmd.Flags().BoolVar(&opts.Unpin, "unpin", false, "unpin the note")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "archive the note")
	cmd.Flags().BoolVar(&opts.Unarchive, "unarchive", false, "unarchive the note")
	cmd.Flags().Int64Var(&opts.Expect, "expect", 0, "last known updated timestamp (rejects concurrent edits)")
	cmd.MarkFlagsMutuallyExclusive("pin", "unpin")
	cmd.MarkFlagsMutuallyExclusive("archive", "unarchive")

	return cmd
}

func runEdit(opts *EditOptions, id int64, cmd *cobra.Command) error {
	var patch notes.Patch
	if cmd.Flags().Changed("title") {
		patch.Title = &opts.Title
	}
	if cmd.Flags().Changed("body") {
		patch.Body = &opts.Body
	}

	var flags notes.Flags
	if opts.Pin || opts.Unpin {
		v := opts.Pin
		flags.Pinned = &v
	}
	if opts.Archive || opts.Unarchive {
		v := opts.Archive
		flags.Archived = &v
	}

	return withEnv(opts.RootOptions, func(ctx context.Context, e *env) error {
		if patch.Title != nil || patch.Body != nil {
			if err := e.worker.UpdateNote(ctx, id, patch, opts.Expect); err != nil {
				return err
			}
		}
		if flags.Pinned != nil || flags.Archived != nil {
			if err := e.worker.SetFlags(ctx, id, flags); err != nil {
				return err
			}
		}

		f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if opts.Format == "json" {
			n, err := e.worker.GetNote(ctx, id)
			if err != nil {
				return err
			}
			return f.JSON(n)
		}
		f.Textf("Updated note #%d\n", id)
		return nil
	})
}
