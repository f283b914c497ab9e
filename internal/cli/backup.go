package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/backup"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and prune snapshots of the data file",
		Long: `Snapshots are timestamped copies of the data file, kept in the configured
backup directory (by default next to the data file), optionally compressed
with zstd.`,
	}

	cmd.AddCommand(newBackupCreateCommand(rootOpts))
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupRestoreCommand(rootOpts))
	cmd.AddCommand(newBackupPruneCommand(rootOpts))

	return cmd
}

func newBackupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create",
		Short:         "Snapshot the data file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			snap, err := eng.SnapshotBackup()
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				return f.Success(snap)
			}
			fmt.Fprintf(f.Writer, "Created backup %s\n", snap.Path)
			return nil
		},
	}
}

func newBackupListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List snapshots, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			snaps, err := eng.ListBackups()
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				if snaps == nil {
					snaps = []backup.Snapshot{}
				}
				return f.Success(snaps)
			}
			writeSnapshots(f.Writer, snaps)
			return nil
		},
	}
}

func writeSnapshots(w io.Writer, snaps []backup.Snapshot) {
	if len(snaps) == 0 {
		fmt.Fprintln(w, "No backups")
		return
	}
	for _, s := range snaps {
		fmt.Fprintf(w, "%-48s  %s  %10d bytes\n", s.Name, s.CreatedAt.UTC().Format(time.RFC3339), s.Size)
	}
}

func newBackupRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <name>",
		Short: "Replace the data file with a snapshot",
		Long: `Replace the data file with a snapshot named as shown by "backup list".
The snapshot is checked before anything is replaced; take a fresh backup
first if the current data may still be needed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			snap, err := eng.RestoreBackup(args[0])
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				return f.Success(snap)
			}
			fmt.Fprintf(f.Writer, "Restored %s\n", snap.Name)
			return nil
		},
	}
}

// PruneOptions holds flags for the backup prune command.
type PruneOptions struct {
	*RootOptions
	Keep int
}

func newBackupPruneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PruneOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "prune",
		Short:         "Delete all but the newest snapshots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)

			if opts.Keep < 0 {
				return f.Fail(usageErrorf("--keep must not be negative, got %d", opts.Keep))
			}
			eng, err := opts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			removed, err := eng.PruneBackups(opts.Keep)
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				if removed == nil {
					removed = []backup.Snapshot{}
				}
				return f.Success(removed)
			}
			fmt.Fprintf(f.Writer, "Removed %d backup(s)\n", len(removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "number of newest snapshots to keep (required)")
	_ = cmd.MarkFlagRequired("keep")

	return cmd
}
