package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/inkwell/internal/journal"
)

// NewRecoverCommand creates the recover command group for autosave
// snapshots left behind by an unclean exit.
func NewRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Inspect and apply crash-recovery drafts",
		Long: `List, restore, or discard autosaved drafts.

Drafts are numbered newest first; the numbers shown by "recover list"
address the other subcommands. A restored draft is re-applied to its
note, or saved as a new note when the original no longer exists.`,
	}

	cmd.AddCommand(newRecoverListCommand(rootOpts))
	cmd.AddCommand(newRecoverRestoreCommand(rootOpts))
	cmd.AddCommand(newRecoverDiscardCommand(rootOpts))

	return cmd
}

func newRecoverListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List recovered drafts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				recs, err := e.journal.ListRecovery()
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(recs)
				}
				if len(recs) == 0 {
					f.Textf("No recovered drafts.\n")
					return nil
				}
				for i, rec := range recs {
					f.Textf("%d. %s\n", i+1, recoveredLabel(rec))
					if preview := rec.Preview(2); preview != "" {
						f.Textf("   %s\n", preview)
					}
				}
				return nil
			})
		},
	}
}

func newRecoverRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "restore <draft-number>",
		Short:         "Re-apply a recovered draft",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(opts, func(ctx context.Context, e *env) error {
				rec, err := recoveredAt(e, args[0])
				if err != nil {
					return err
				}
				id, err := e.worker.RestoreDraft(ctx, e.journal, rec)
				if err != nil {
					return err
				}
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"note_id": id})
				}
				f.Textf("Restored draft into note #%d\n", id)
				return nil
			})
		},
	}
}

func newRecoverDiscardCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:           "discard [draft-number]",
		Short:         "Discard recovered drafts without applying them",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("give either a draft number or --all")
			}
			return withEnv(opts, func(ctx context.Context, e *env) error {
				f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
				if all {
					removed, err := e.journal.DiscardAll()
					if err != nil {
						return err
					}
					if opts.Format == "json" {
						return f.JSON(map[string]any{"discarded": removed})
					}
					f.Textf("Discarded %d draft%s\n", removed, plural(removed))
					return nil
				}

				rec, err := recoveredAt(e, args[0])
				if err != nil {
					return err
				}
				if err := e.journal.Discard(rec); err != nil {
					return err
				}
				if opts.Format == "json" {
					return f.JSON(map[string]any{"discarded": 1})
				}
				f.Textf("Discarded draft %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "discard every recovered draft")
	return cmd
}

// recoveredAt resolves a 1-based draft number from "recover list".
func recoveredAt(e *env, arg string) (journal.Recovered, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return journal.Recovered{}, fmt.Errorf("invalid draft number %q", arg)
	}
	recs, err := e.journal.ListRecovery()
	if err != nil {
		return journal.Recovered{}, err
	}
	if n > len(recs) {
		return journal.Recovered{}, fmt.Errorf("no draft %d (have %d)", n, len(recs))
	}
	return recs[n-1], nil
}

func recoveredLabel(rec journal.Recovered) string {
	target := "new note"
	if rec.Snapshot.NoteID > 0 {
		target = fmt.Sprintf("note #%d", rec.Snapshot.NoteID)
	}
	title := rec.Snapshot.Title
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s  %s  saved %s", target, title, formatAge(rec.Age))
}
