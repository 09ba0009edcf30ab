package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/rainfall-badyears/internal/export"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		flags  analysisFlags
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the bad-years table to a CSV or XLSX file",
		Long: `Run an analysis and write its bad-years table. The default output file is
named after the analysis, e.g. bad_years_threshold_500_JJAS_Nigeria.csv.
Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "csv" && format != "xlsx" {
				return fmt.Errorf("unsupported export format %q", format)
			}

			cat := a.catalog()
			req, err := flags.request(cmd, cat)
			if err != nil {
				return err
			}
			report, err := a.service(cat).Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			var data []byte
			if format == "xlsx" {
				data, err = export.FormatXLSX(report.BadYears)
			} else {
				data, err = export.FormatCSV(report.BadYears)
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = export.Filename(report, format)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			a.logger.Info("export written", "path", output, "bad_years", len(report.BadYears.Rows))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv, xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}
