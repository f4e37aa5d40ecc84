// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trl-engine/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Load seed files into the record store",
	Long: `Ingest reads patents, publications and market_reports seed files
(.yaml, .yml or .json) from dir and upserts them into the record store.
Records are keyed by id, so re-running ingest replaces rather than
duplicates. Missing seed files are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	backend, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	summary, err := store.Ingest(ctx, backend, args[0], cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d seed file(s) failed to load", summary.Failed)
	}
	return nil
}
