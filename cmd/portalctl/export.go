package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"regportal/internal/registration"
	"regportal/internal/report"
)

func newExportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every registration to stdout",
		Long: `Dump every registration, oldest first.

Examples:
  portalctl export --format csv > registrations.csv
  portalctl export --format json | jq '.[].course'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			recs, err := loadRecords(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			return writeCSV(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format: csv or json")
	return cmd
}

// writeCSV uses the dashboard layout: one column per optional field.
func writeCSV(w io.Writer, recs []registration.Record) error {
	d := report.BuildDashboard(report.Summarize(recs), "")
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(d.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeJSON(w io.Writer, recs []registration.Record) error {
	if recs == nil {
		recs = []registration.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}
