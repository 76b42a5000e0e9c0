package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IBM/API-BLEND/internal/driver"
)

func newCatalogCmd(g *globalFlags) *cobra.Command {
	var (
		saveDir  string
		datasets []string
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the API catalogs written by seq or topv2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("save-dir") {
				cfg.SaveDir = saveDir
			}
			if cmd.Flags().Changed("datasets") {
				cfg.Datasets = datasets
			}
			if cfg.SaveDir == "" {
				return fmt.Errorf("--save-dir is required")
			}

			out := cmd.OutOrStdout()
			for _, ds := range cfg.Datasets {
				catalog, err := driver.ReadCatalog(cfg.SaveDir, ds)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%d APIs)", ds, len(catalog))))
				for _, intent := range slices.Sorted(maps.Keys(catalog)) {
					fmt.Fprintf(out, "  %s(%s)\n", intent, strings.Join(catalog[intent].Parameters, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&saveDir, "save-dir", "", "output directory of a seq or topv2 run")
	cmd.Flags().StringSliceVar(&datasets, "datasets", nil, "datasets to print (default ATIS,SNIPS)")
	return cmd
}
