package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/dedup"
	"github.com/roach88/patientbook/internal/engine"
)

// NewDupsCommand creates the dups command.
func NewDupsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dups",
		Short: "Show groups of likely duplicate records",
		Long: `Show groups of records that are likely the same person.

Records are linked when they share a name (ignoring case, accents and
spacing), an email address, a phone number (digits only) or an Aadhar
number. Linking is transitive. Records marked with "dismiss" are left out,
except that records sharing a serial number are always grouped.

Resolve a group with "edit", "delete", "rename" or "dismiss".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDups(rootOpts, cmd)
		},
	}
	return cmd
}

func runDups(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	groups := eng.FindDuplicateGroups()

	if f.IsJSON() {
		if groups == nil {
			groups = []dedup.Group{}
		}
		return f.Success(groups)
	}
	writeDupsText(f.Writer, groups)
	return nil
}

const dupsRowFormat = "  %-6d  %-20s  %-4s  %-16s  %s\n"

// writeDupsText prints each group with the fields that matter for review.
func writeDupsText(w io.Writer, groups []dedup.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No likely duplicates")
		return
	}

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Group %d: serials %s (matched by %s)\n", i+1, joinSerials(g.Serials()), joinKeys(g.Keys))
		for _, p := range g.Records {
			fmt.Fprintf(w, dupsRowFormat,
				p.SerialNo,
				orDash(p.Name),
				formatAge(p.Age),
				orDash(p.Phone),
				orDash(p.Email),
			)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d group(s)\n", len(groups))
}

func joinSerials(serials []int64) string {
	parts := make([]string, len(serials))
	for i, s := range serials {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return strings.Join(parts, ", ")
}

func joinKeys(keys []dedup.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// NewDismissCommand creates the dismiss command.
func NewDismissCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dismiss <serial>...",
		Short: "Mark records as reviewed and not duplicates",
		Long: `Mark records as reviewed and not duplicates, so "dups" no longer
reports them. Every serial number must exist.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetDismissed(rootOpts, cmd, args, true)
		},
	}
	return cmd
}

// NewUndismissCommand creates the undismiss command.
func NewUndismissCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "undismiss <serial>...",
		Short:         "Include dismissed records in duplicate detection again",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetDismissed(rootOpts, cmd, args, false)
		},
	}
	return cmd
}

func runSetDismissed(opts *RootOptions, cmd *cobra.Command, args []string, dismissed bool) error {
	f := opts.formatter(cmd)

	serials, err := parseSerials(args)
	if err != nil {
		return f.Fail(err)
	}
	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}

	apply, verb := (*engine.Engine).DismissDuplicate, "Dismissed"
	if !dismissed {
		apply, verb = (*engine.Engine).RestoreDuplicate, "Restored"
	}
	changed, err := apply(eng, serials...)
	if err != nil {
		return f.Fail(err)
	}

	if f.IsJSON() {
		return f.Success(countResult{Serials: serials, Count: changed})
	}
	fmt.Fprintf(f.Writer, "%s %d record(s)\n", verb, changed)
	return nil
}
