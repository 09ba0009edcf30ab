package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [country [season]]",
		Short: "List countries, seasons or regions",
		Long: `With no arguments, list the countries of the catalog. With a country,
list its seasons. With a country and a season, list its regions.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := a.catalog()

			var (
				names []string
				err   error
			)
			switch len(args) {
			case 0:
				names, err = cat.Countries()
			case 1:
				names, err = cat.Seasons(args[0])
			default:
				entries, rerr := cat.Regions(args[0], args[1])
				for _, e := range entries {
					names = append(names, e.ID.Region)
				}
				err = rerr
			}
			if err != nil {
				return err
			}

			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
