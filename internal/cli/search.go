package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/inkwell/internal/search"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Regex bool
	Limit int
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search notes",
		Long: `Run a structured search query and print ranked results with snippets.

Queries mix free text with qualifiers:
  tag:home            require a tag (repeatable, ANDed)
  title:plan          restrict a term to the title
  created:2024-01-01..2024-02-01
  updated:2024-06-01..  (open-ended ranges)
  -draft              exclude a term

With --regex the qualifier-stripped query is applied as one
case-insensitive pattern to title and body.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Regex, "regex", false, "treat the query as a regex pattern")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum results (default from config)")

	return cmd
}

func runSearch(opts *SearchOptions, raw string, cmd *cobra.Command) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("search query cannot be empty")
	}

	return withEnv(opts.RootOptions, func(ctx context.Context, e *env) error {
		limit := opts.Limit
		if limit <= 0 {
			limit = e.cfg.Search.ResultLimit
		}

		results, err := e.worker.Search(ctx, search.Request{
			Raw:   raw,
			Regex: opts.Regex,
			Limit: limit,
		})
		if err != nil {
			return err
		}

		f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		if opts.Format == "json" {
			return f.JSON(results)
		}
		f.Textf("%s", FormatResults(results))
		return nil
	})
}
