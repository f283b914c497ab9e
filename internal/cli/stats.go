package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/patientbook/internal/stats"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Query queryFlags
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize records matching the filters",
		Long: `Summarize records matching the filters: counts by gender, average age,
the most common symptom and the average length of completed treatments.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	opts.Query.register(cmd)

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	q, err := opts.Query.build(cmd)
	if err != nil {
		return f.Fail(err)
	}
	eng, err := opts.openEngine()
	if err != nil {
		return f.Fail(err)
	}
	summary := eng.Stats(q)

	if f.IsJSON() {
		return f.Success(summary)
	}
	writeStatsText(f.Writer, summary)
	return nil
}

func writeStatsText(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Patients: %d\n", s.Total)
	for _, g := range s.Genders {
		fmt.Fprintf(w, "  %-12s %4d  %5.1f%%\n", g.Gender, g.Count, g.Percent)
	}

	if s.AverageAge != nil {
		fmt.Fprintf(w, "Average age: %.1f (%d with age)\n", *s.AverageAge, s.WithAge)
	} else {
		fmt.Fprintln(w, "Average age: -")
	}
	if s.MostCommonSymptom != nil {
		fmt.Fprintf(w, "Most common symptom: %s (%d)\n", *s.MostCommonSymptom, s.MostCommonSymptomSeen)
	} else {
		fmt.Fprintln(w, "Most common symptom: -")
	}
	if s.AverageTreatmentDays != nil {
		fmt.Fprintf(w, "Average treatment: %.1f days (%d completed)\n", *s.AverageTreatmentDays, s.CompletedTreatments)
	} else {
		fmt.Fprintln(w, "Average treatment: -")
	}
}
