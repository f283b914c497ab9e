package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/fs"
	"github.com/roach88/patientbook/internal/merge"
	"github.com/roach88/patientbook/internal/tabular"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	RenumberAll bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge records from another data file or an export",
		Long: `Merge records from another patientbook data file (.db, .sqlite) or a
CSV or JSON export into the data file.

Imported records are always added; nothing already stored is overwritten.
An incoming record whose serial number is missing or already taken gets the
next free number. The merge is saved once and is all-or-nothing.

Example:
  patientbook import clinic_b.db
  patientbook import legacy.csv --renumber`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.RenumberAll, "renumber", false, "give every imported record a new serial number")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	report, err := eng.ImportFile(path, merge.Options{RenumberAll: opts.RenumberAll})
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(report)
	}
	fmt.Fprintf(f.Writer, "Imported %d record(s) from %s (%d kept their serial number, %d reassigned)\n",
		report.Added, path, report.Kept, len(report.Reassigned))
	for _, r := range report.Reassigned {
		if r.Old == 0 {
			fmt.Fprintf(f.Writer, "  record %d: no serial -> %d\n", r.Index+1, r.New)
			continue
		}
		fmt.Fprintf(f.Writer, "  record %d: %d -> %d\n", r.Index+1, r.Old, r.New)
	}
	return nil
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Query  queryFlags
	Output string
	As     string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records as CSV or JSON",
		Long: `Export every record matching the filters, in sort order, as CSV or JSON.

Without --output the export is written to stdout. The format is taken from
--as, else from the output file extension, else CSV.

Example:
  patientbook export -o patients.csv
  patientbook export --as json --gender Female --sort start_date`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	opts.Query.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVar(&opts.As, "as", "", "export format (csv|json)")

	return cmd
}

// exportResult is the JSON payload of an export written to a file.
type exportResult struct {
	Path    string         `json:"path"`
	Format  tabular.Format `json:"format"`
	Records int            `json:"records"`
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	q, err := opts.Query.build(cmd)
	if err != nil {
		return f.Fail(err)
	}
	format, err := exportFormat(opts.As, opts.Output)
	if err != nil {
		return f.Fail(err)
	}

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	records := eng.Export(q)
	f.VerboseLog("exporting %d record(s) as %s", len(records), format)

	if opts.Output == "" {
		if err := tabular.Write(f.Writer, format, records); err != nil {
			return f.Fail(fmt.Errorf("write export: %w", err))
		}
		return nil
	}

	err = fs.WriteFileAtomic(fs.Default, opts.Output, 0o644, func(w io.Writer) error {
		return tabular.Write(w, format, records)
	})
	if err != nil {
		return f.Fail(fmt.Errorf("write export %s: %w", opts.Output, err))
	}

	if f.IsJSON() {
		return f.Success(exportResult{Path: opts.Output, Format: format, Records: len(records)})
	}
	fmt.Fprintf(f.Writer, "Exported %d record(s) to %s\n", len(records), opts.Output)
	return nil
}

// exportFormat resolves the export format from --as or the output path.
func exportFormat(as, output string) (tabular.Format, error) {
	if as != "" {
		format, err := tabular.ParseFormat(as)
		if err != nil {
			return "", usageErrorf("--as: %v", err)
		}
		return format, nil
	}
	if output != "" {
		if format, ok := tabular.FormatFromPath(output); ok {
			return format, nil
		}
	}
	return tabular.FormatCSV, nil
}
