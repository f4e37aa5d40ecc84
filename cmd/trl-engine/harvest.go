// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trl-engine/internal/harvest"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <technology...>",
	Short: "Fetch patents and publications for a technology",
	Long: `Harvest searches PatentsView for patents and OpenAlex for publications
matching the technology and upserts the results into the record store.
Backends run concurrently; one failing backend does not stop the other.

A PatentsView API key is read from .secrets/patentsview-api-key or the
harvest.patentsview_api_key setting.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().Int("from-year", 0, "earliest year to fetch (default: start of the feature window)")
	harvestCmd.Flags().Int("max-results", 0, "per-backend result cap (default 100)")

	viper.BindPFlag("harvest.max_results", harvestCmd.Flags().Lookup("max-results"))

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fromYear, _ := cmd.Flags().GetInt("from-year")
	if fromYear == 0 {
		fromYear = time.Now().Year() - int(cfg.Features.WindowYears)
	}

	backend, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	q := harvest.Query{
		Technology: strings.Join(args, " "),
		FromYear:   fromYear,
		MaxResults: cfg.Harvest.MaxResults,
	}
	logger.Debug("harvesting", "technology", q.Technology, "from_year", q.FromYear)

	_, err = harvest.Run(ctx, q, harvest.Backends(cfg.Harvest), backend, cmd.OutOrStdout())
	return err
}
