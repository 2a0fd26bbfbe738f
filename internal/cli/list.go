package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/inkwell/internal/notes"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Archived bool
	Trash    bool
	Sort     string
	Desc     bool
	Limit    int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Long: `List notes in the active view, or the archive/trash with flags.

Sorting applies to list views only; search results are ranked by
relevance instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Archived, "archived", false, "list archived notes")
	cmd.Flags().BoolVar(&opts.Trash, "trash", false, "list trashed notes")
	cmd.Flags().StringVar(&opts.Sort, "sort", "updated", "sort key (updated|created|title)")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum notes (default from config)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	view := notes.ViewActive
	switch {
	case opts.Trash:
		view = notes.ViewTrash
	case opts.Archived:
		view = notes.ViewArchived
	}

	var sort notes.SortKey
	switch opts.Sort {
	case "updated":
		sort = notes.SortUpdated
	case "created":
		sort = notes.SortCreated
	case "title":
		sort = notes.SortTitle
	default:
		return fmt.Errorf("invalid sort %q: must be updated, created, or title", opts.Sort)
	}

	return withEnv(opts.RootOptions, func(ctx context.Context, e *env) error {
		limit := opts.Limit
		if limit <= 0 {
			limit = e.cfg.Search.ResultLimit
		}

		list, err := e.worker.ListNotes(ctx, notes.ListOptions{
			View:       view,
			Sort:       sort,
			Descending: opts.Desc,
			Limit:      limit,
		})
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
}
