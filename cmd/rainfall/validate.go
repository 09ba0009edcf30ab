package main

import (
	"context"
	"fmt"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate [country]",
		Short: "Check that every series file of the catalog loads",
		Long: `Load every series of the catalog, or of one country, and report files that
do not follow the two-column (index, rainfall) layout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := a.catalog()
			entries, err := cat.All()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				entries = filterCountry(entries, args[0])
				if len(entries) == 0 {
					return fmt.Errorf("%w: country %s", domain.ErrSeriesNotFound, args[0])
				}
			}

			bar := progressbar.NewOptions(len(entries),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetVisibility(!quiet),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("validating series"),
				progressbar.OptionClearOnFinish(),
			)

			mapping := domain.YearMapping{BaseYear: a.v.GetInt("base_year")}
			var failed int
			for _, e := range entries {
				if err := validateOne(cmd.Context(), cat, e, mapping); err != nil {
					if ctxErr := cmd.Context().Err(); ctxErr != nil {
						return ctxErr
					}
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", e.File, err)
				}
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			fmt.Fprintf(cmd.OutOrStdout(), "%d series checked, %d failed\n", len(entries), failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d series failed validation", failed, len(entries))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

func validateOne(ctx context.Context, cat *catalog.Catalog, e catalog.Entry, mapping domain.YearMapping) error {
	rc, err := cat.Open(ctx, e.ID)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = domain.LoadSeries(rc, e.ID, mapping)
	return err
}

func filterCountry(entries []catalog.Entry, country string) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if e.ID.Country == country {
			out = append(out, e)
		}
	}
	return out
}
