package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/record"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Serial int64
	Fields patientFlags
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a patient record",
		Long: `Add a patient record.

The serial number is allocated (one above the highest in use) unless
--serial is given, in which case it must not already exist.

Example:
  patientbook add --name "Asha Rao" --age 34 --gender Female --phone "98450 00001"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Serial, "serial", 0, "explicit serial number")
	opts.Fields.register(cmd)
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.Serial < 0 {
		return f.Fail(usageErrorf("--serial must be positive, got %d", opts.Serial))
	}
	patch, err := opts.Fields.patch(cmd)
	if err != nil {
		return f.Fail(err)
	}
	p := patch.Apply(record.Patient{SerialNo: opts.Serial})
	if p.Name == "" {
		return f.Fail(usageErrorf("--name must not be empty"))
	}

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	created, err := eng.Create(p)
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(created)
	}
	fmt.Fprintf(f.Writer, "Added patient %d (%s)\n", created.SerialNo, created.Name)
	return nil
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <serial>",
		Short:         "Show one patient record",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runShow(opts *RootOptions, cmd *cobra.Command, arg string) error {
	f := opts.formatter(cmd)

	serials, err := parseSerials([]string{arg})
	if err != nil {
		return f.Fail(err)
	}
	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	p, err := eng.Get(serials[0])
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(p)
	}
	writePatient(f.Writer, p)
	return nil
}

// writePatient prints every column of p, one per line.
func writePatient(w io.Writer, p record.Patient) {
	cells := p.Cells()
	for i, col := range record.Columns {
		fmt.Fprintf(w, "%-20s %s\n", col+":", orDash(cells[i]))
	}
}

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Fields   patientFlags
	ClearAge bool
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <serial>",
		Short: "Change fields of a patient record",
		Long: `Change fields of a patient record. Only the flags given are changed;
an empty value clears a text field or date.

Example:
  patientbook edit 12 --treatment Physiotherapy --end 2024-03-01
  patientbook edit 12 --clear-age`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(opts, cmd, args[0])
		},
	}

	opts.Fields.register(cmd)
	cmd.Flags().BoolVar(&opts.ClearAge, "clear-age", false, "unset the age")
	cmd.MarkFlagsMutuallyExclusive("age", "clear-age")

	return cmd
}

func runEdit(opts *EditOptions, cmd *cobra.Command, arg string) error {
	f := opts.formatter(cmd)

	serials, err := parseSerials([]string{arg})
	if err != nil {
		return f.Fail(err)
	}
	patch, err := opts.Fields.patch(cmd)
	if err != nil {
		return f.Fail(err)
	}
	if opts.ClearAge {
		patch.Age = record.ClearAge()
	}
	if patch.IsEmpty() {
		return f.Fail(usageErrorf("nothing to change: give at least one field flag"))
	}

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	updated, err := eng.Update(serials[0], patch)
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(updated)
	}
	fmt.Fprintf(f.Writer, "Updated patient %d\n", updated.SerialNo)
	return nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <serial>...",
		Short: "Delete patient records",
		Long: `Delete one or more patient records in a single save. Serial numbers
that do not exist are ignored. Photos owned by deleted records are removed.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, cmd, args)
		},
	}
	return cmd
}

// countResult is the JSON payload of commands that report a count.
type countResult struct {
	Serials []int64 `json:"serials"`
	Count   int     `json:"count"`
}

func runDelete(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := opts.formatter(cmd)

	serials, err := parseSerials(args)
	if err != nil {
		return f.Fail(err)
	}
	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	removed, err := eng.Delete(serials...)
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(countResult{Serials: serials, Count: removed})
	}
	fmt.Fprintf(f.Writer, "Deleted %d record(s)\n", removed)
	return nil
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <old-serial> <new-serial>",
		Short: "Change the serial number of a record",
		Long: `Change the serial number of a record. The new number must be free.
When several records share the old number, the first one is moved.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(rootOpts, cmd, args)
		},
	}
	return cmd
}

// renameResult is the JSON payload of the rename command.
type renameResult struct {
	Old     int64          `json:"old"`
	New     int64          `json:"new"`
	Patient record.Patient `json:"patient"`
}

func runRename(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := opts.formatter(cmd)

	serials, err := parseSerials(args)
	if err != nil {
		return f.Fail(err)
	}
	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	renamed, err := eng.RenameIdentifier(serials[0], serials[1])
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(renameResult{Old: serials[0], New: serials[1], Patient: renamed})
	}
	fmt.Fprintf(f.Writer, "Renamed patient %d to %d\n", serials[0], serials[1])
	return nil
}
