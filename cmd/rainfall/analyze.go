package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	"github.com/couchcryptid/rainfall-badyears/internal/adapter/chart"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/spf13/cobra"
)

// analysisFlags are the request flags shared by analyze and export.
type analysisFlags struct {
	country    string
	seasons    []string
	regions    []string
	threshold  float64
	percentage float64
	from       int
	to         int
	anchor     bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.country, "country", "", "country of the catalog to analyze")
	fl.StringSliceVar(&f.seasons, "season", nil, "season(s) to analyze, repeatable")
	fl.StringSliceVar(&f.regions, "region", nil, "region(s) to analyze, repeatable (default: every region of the first season)")
	fl.Float64Var(&f.threshold, "threshold", 0, "flag years with rainfall at or below this many mm")
	fl.Float64Var(&f.percentage, "percentage", 0, "flag the driest percentage of years, in (0, 100]")
	fl.IntVar(&f.from, "from", 0, "first calendar year to include")
	fl.IntVar(&f.to, "to", 0, "last calendar year to include")
	fl.BoolVar(&f.anchor, "anchor-current-year", false, "map the last index of each series onto the current year")

	_ = cmd.MarkFlagRequired("country")
	_ = cmd.MarkFlagRequired("season")
	cmd.MarkFlagsOneRequired("threshold", "percentage")
	cmd.MarkFlagsMutuallyExclusive("threshold", "percentage")
}

func (f *analysisFlags) request(cmd *cobra.Command, cat *catalog.Catalog) (domain.AnalysisRequest, error) {
	req := domain.AnalysisRequest{
		Country:           f.country,
		Seasons:           f.seasons,
		Regions:           f.regions,
		YearFrom:          f.from,
		YearTo:            f.to,
		AnchorCurrentYear: f.anchor,
	}
	if cmd.Flags().Changed("threshold") {
		req.Mode = domain.MethodThreshold
		req.ThresholdMM = &f.threshold
	} else {
		req.Mode = domain.MethodFrequency
		req.Percentage = &f.percentage
	}

	if len(req.Regions) == 0 && len(req.Seasons) > 0 {
		entries, err := cat.Regions(req.Country, req.Seasons[0])
		if err != nil {
			return domain.AnalysisRequest{}, err
		}
		for _, e := range entries {
			req.Regions = append(req.Regions, e.ID.Region)
		}
	}
	return req, nil
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		flags     analysisFlags
		asJSON    bool
		all       bool
		chartPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Flag bad years and print the result",
		Example: `  rainfall analyze --country Nigeria --season JJAS --threshold 500
  rainfall analyze --country Nigeria --season JJAS,JJA --region Kano --percentage 20 --chart kano.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := a.catalog()
			req, err := flags.request(cmd, cat)
			if err != nil {
				return err
			}

			report, err := a.service(cat).Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			for _, f := range report.Failures {
				a.logger.Warn("series skipped", "column", f.Column, "error", f.Error)
			}

			if chartPath != "" {
				if err := writeChart(chartPath, report); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			if all {
				return printComparison(out, report.Comparison)
			}
			return printBadYears(out, report.BadYears)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "print every year, not only bad years")
	cmd.Flags().StringVar(&chartPath, "chart", "", "also write a PNG chart to this path")
	return cmd
}

func writeChart(path string, report domain.Report) error {
	opts := chart.Options{Title: fmt.Sprintf("%s %s rainfall", report.Country, strings.Join(report.Seasons, ", "))}
	if report.Mode == domain.MethodThreshold {
		threshold := report.Parameter
		opts.ThresholdMM = &threshold
	}
	png, err := chart.RenderPNG(report.Comparison, opts)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return os.WriteFile(path, png, 0o644)
}

// printBadYears writes the bad-years table aligned in columns. Flagged values
// carry a trailing "*"; missing values print as "-".
func printBadYears(w io.Writer, table domain.BadYearsTable) error {
	if len(table.Rows) == 0 {
		_, err := fmt.Fprintln(w, "no bad years")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Year\t%s\tFlagged By\n", strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Year, formatCells(row.Cells), strings.Join(row.FlaggedBy, ", "))
	}
	return tw.Flush()
}

func printComparison(w io.Writer, table domain.ComparisonTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Year\t%s\n", strings.Join(table.Columns, "\t"))
	for _, row := range table.Rows {
		fmt.Fprintf(tw, "%d\t%s\n", row.Year, formatCells(row.Cells))
	}
	return tw.Flush()
}

func formatCells(cells []domain.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		if !c.HasData() {
			parts[i] = "-"
			continue
		}
		parts[i] = strconv.FormatFloat(*c.RainfallMM, 'f', 2, 64)
		if c.Bad {
			parts[i] += "*"
		}
	}
	return strings.Join(parts, "\t")
}
