package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:           "backup",
		Short:         "Snapshot the database file",
		Long:          "Checkpoint the write-ahead log and copy the database into the backup directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(rootOpts, func(ctx context.Context, e *env) error {
				f := &Formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

				if list {
					backups, err := e.worker.ListBackups(ctx)
					if err != nil {
						return err
					}
					if rootOpts.Format == "json" {
						return f.JSON(backups)
					}
					if len(backups) == 0 {
						f.Textf("No backups recorded.\n")
						return nil
					}
					for _, b := range backups {
						f.Textf("%s  %s\n",
							time.Unix(b.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05"), b.Path)
					}
					return nil
				}

				b, err := e.worker.Backup(ctx, e.cfg.Storage.Path, e.cfg.Storage.BackupDir)
				if err != nil {
					return err
				}
				if rootOpts.Format == "json" {
					return f.JSON(b)
				}
				f.Textf("Backed up to %s\n", b.Path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list recorded backups instead of creating one")
	return cmd
}
