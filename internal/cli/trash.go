package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/inkwell/internal/notes"
)

// NewTrashCommand creates the trash command group.
func NewTrashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Manage the trash",
		Long: `Trash, restore, and purge notes.

Trashed notes keep their tags and pinned/archived flags and reappear
unchanged on restore. Automatic purging follows the configured
retention window; purge acts immediately.`,
	}

	cmd.AddCommand(newTrashPutCommand(rootOpts))
	cmd.AddCommand(newTrashListCommand(rootOpts))
	cmd.AddCommand(newTrashRestoreCommand(rootOpts))
	cmd.AddCommand(newTrashPurgeCommand(rootOpts))

	return cmd
}

func newTrashPutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "put <note-id>",
		Short:         "Move a note to the trash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				if err := e.worker.TrashNote(ctx, id); err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"note_id": id})
				}
				f.Textf("Moved note #%d to trash\n", id)
				return nil
			})
		},
	}
}

func newTrashListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List trashed notes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				list, err := e.worker.ListNotes(ctx, notes.ListOptions{View: notes.ViewTrash})
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(list)
				}
				f.Textf("%s", FormatNotes(list))
				return nil
			})
		},
	}
}

func newTrashRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "restore <note-id>",
		Short:         "Restore a note from the trash",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				if err := e.worker.RestoreNote(ctx, id); err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"note_id": id})
				}
				f.Textf("Restored note #%d\n", id)
				return nil
			})
		},
	}
}

func newTrashPurgeCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:           "purge",
		Short:         "Permanently remove trashed notes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				return fmt.Errorf("refusing to purge without --all (purging is permanent)")
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				removed, err := e.worker.PurgeAllTrashed(ctx)
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"removed": removed})
				}
				f.Textf("Purged %d note%s\n", removed, plural(int(removed)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "confirm purging every trashed note")
	return cmd
}
