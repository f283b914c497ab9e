package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/query"
	"github.com/roach88/patientbook/internal/record"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Query    queryFlags
	Page     int
	PageSize int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patient records a page at a time",
		Long: `List patient records matching the filters, sorted and paginated.

Records without a value for the sort column are listed last.

Example:
  patientbook list --search "knee" --sort age --desc
  patientbook list --gender Female --min-age 30 --page 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	opts.Query.register(cmd)
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "records per page (default from config)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	q, err := opts.Query.build(cmd)
	if err != nil {
		return f.Fail(err)
	}
	if opts.Page < 1 {
		return f.Fail(usageErrorf("--page must be at least 1, got %d", opts.Page))
	}
	if opts.PageSize < 0 {
		return f.Fail(usageErrorf("--page-size must not be negative, got %d", opts.PageSize))
	}
	q.Page = opts.Page - 1
	q.PageSize = opts.PageSize

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	res := eng.Query(q)

	if f.IsJSON() {
		return f.Success(res)
	}
	writeListText(f.Writer, res)
	return nil
}

const (
	listHeaderFormat = "%-6s  %-20s  %-4s  %-11s  %-16s  %s\n"
	listRowFormat    = "%-6d  %-20s  %-4s  %-11s  %-16s  %s\n"
)

// writeListText prints one page as a fixed-width table with a page footer.
func writeListText(w io.Writer, res query.Result) {
	if res.Total == 0 {
		fmt.Fprintln(w, "No records found")
		return
	}
	if len(res.Records) == 0 {
		fmt.Fprintf(w, "No records on page %d (%d records in %d page(s))\n", res.Page+1, res.Total, res.Pages)
		return
	}

	fmt.Fprintf(w, listHeaderFormat, "SERIAL", "NAME", "AGE", "GENDER", "PHONE", "SYMPTOMS")
	for _, p := range res.Records {
		writeListRow(w, p)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Page %d of %d (%d records)\n", res.Page+1, res.Pages, res.Total)
}

func writeListRow(w io.Writer, p record.Patient) {
	fmt.Fprintf(w, listRowFormat,
		p.SerialNo,
		orDash(p.Name),
		formatAge(p.Age),
		p.Gender,
		orDash(p.Phone),
		orDash(p.Symptoms),
	)
}
