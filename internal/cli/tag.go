package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewTagCommand creates the tag command group.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	cmd.AddCommand(newTagAddCommand(rootOpts))
	cmd.AddCommand(newTagRemoveCommand(rootOpts))
	cmd.AddCommand(newTagListCommand(rootOpts))
	cmd.AddCommand(newTagRenameCommand(rootOpts))
	cmd.AddCommand(newTagMergeCommand(rootOpts))
	cmd.AddCommand(newTagDeleteCommand(rootOpts))

	return cmd
}

func newTagAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <note-id> <tag>",
		Short:         "Attach a tag to a note",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				if err := e.worker.AddTag(ctx, id, args[1]); err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"note_id": id, "tag": args[1]})
				}
				f.Textf("Added tag %q to note #%d\n", args[1], id)
				return nil
			})
		},
	}
}

func newTagRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <note-id> <tag>",
		Short:         "Remove a tag from a note",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNoteID(args[0])
			if err != nil {
				return err
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				if err := e.worker.RemoveTag(ctx, id, args[1]); err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"note_id": id, "tag": args[1]})
				}
				f.Textf("Removed tag %q from note #%d\n", args[1], id)
				return nil
			})
		},
	}
}

func newTagListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list [note-id]",
		Short:         "List tags, or the tags of one note",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

				if len(args) == 1 {
					id, err := parseNoteID(args[0])
					if err != nil {
						return err
					}
					tags, err := e.worker.TagsForNote(ctx, id)
					if err != nil {
						return err
					}
					if opts.Format == "json" {
						return f.JSON(tags)
					}
					if len(tags) == 0 {
						f.Textf("(no tags)\n")
						return nil
					}
					for _, t := range tags {
						f.Textf("- %s\n", t)
					}
					return nil
				}

				tags, err := e.worker.ListTags(ctx)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return f.JSON(tags)
				}
				if len(tags) == 0 {
					f.Textf("(no tags)\n")
					return nil
				}
				for _, t := range tags {
					f.Textf("- %s (%d)\n", t.Name, t.NoteCount)
				}
				return nil
			})
		},
	}
}

func newTagRenameCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rename <from> <to>",
		Short:         "Rename a tag across all notes",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				if err := e.worker.RenameTag(ctx, args[0], args[1]); err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"from": args[0], "to": args[1]})
				}
				f.Textf("Renamed tag %q to %q\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newTagMergeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <target> <source...>",
		Short: "Merge source tags into a target tag",
		Long: `Merge one or more source tags into a target tag.

Every association held by a source is re-pointed to the target,
deduplicating where a note already holds both; source tags are then
deleted. Empty, duplicate, unknown, and self-referential sources are
skipped and reported rather than failing the merge.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				report, err := e.worker.MergeTags(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(report)
				}
				f.Textf("%s", FormatMergeReport(report))
				return nil
			})
		},
	}
}

func newTagDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <tag>",
		Short:         "Delete a tag from all notes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				detached, err := e.worker.DeleteTag(ctx, args[0])
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"tag": args[0], "detached": detached})
				}
				f.Textf("Deleted tag %q (removed from %d note%s)\n",
					args[0], detached, plural(int(detached)))
				return nil
			})
		},
	}
}

func parseNoteID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &invalidIDError{raw: raw}
	}
	return id, nil
}

type invalidIDError struct{ raw string }

func (e *invalidIDError) Error() string {
	return "invalid note id " + strconv.Quote(e.raw)
}
