package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"regportal/internal/report"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the total and per-course registration counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recs, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			return writeStats(cmd.OutOrStdout(), report.Summarize(recs))
		},
	}
}

func writeStats(w io.Writer, s report.Summary) error {
	if _, err := fmt.Fprintf(w, "Total registrations: %d\n", s.Total); err != nil {
		return err
	}
	if s.Total == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COURSE\tCOUNT")
	for _, c := range s.Courses {
		fmt.Fprintf(tw, "%s\t%d\n", c.Course, c.Count)
	}
	return tw.Flush()
}
