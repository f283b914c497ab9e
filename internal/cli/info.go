package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "info",
		Short:         "Show the data file, its last save and its satellites",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			eng, err := rootOpts.openEngine()
			if err != nil {
				return f.Fail(err)
			}
			info, err := eng.Info()
			if err != nil {
				return f.Fail(err)
			}

			if f.IsJSON() {
				return f.Success(info)
			}

			w := f.Writer
			fmt.Fprintf(w, "Data file:        %s\n", info.DataFile)
			fmt.Fprintf(w, "Records:          %d\n", info.Records)
			fmt.Fprintf(w, "Next serial:      %d\n", info.NextSerial)
			fmt.Fprintf(w, "Duplicate groups: %d\n", info.Duplicates)
			if info.SavedAt.IsZero() {
				fmt.Fprintln(w, "Last saved:       never")
			} else {
				fmt.Fprintf(w, "Last saved:       %s (generation %s)\n", info.SavedAt.UTC().Format(time.RFC3339), info.Generation)
			}
			fmt.Fprintf(w, "Photo directory:  %s\n", info.PhotoDir)
			fmt.Fprintf(w, "Backups:          %d in %s\n", info.Backups, info.BackupDir)
			return nil
		},
	}
	return cmd
}
