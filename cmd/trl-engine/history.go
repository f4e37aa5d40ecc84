// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trl-engine/internal/store"
	"github.com/pdiddy/trl-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [technology...]",
	Short: "List or export recorded assessments",
	Long: `History lists past assessments newest first. With a technology it
shows only that technology's records, matched without regard to case.

Use --export yaml or --export json to write the full selection to stdout
instead of a table. --limit does not apply to exports unless set.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum number of records (default 50 for listing, all for export)")
	historyCmd.Flags().String("export", "", "export format: yaml or json")
	historyCmd.Flags().Bool("json", false, "output the listing as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("--limit must be positive")
	}
	q := store.HistoryQuery{Technology: strings.Join(args, " "), Limit: limit}

	backend, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if format, _ := cmd.Flags().GetString("export"); format != "" {
		return store.ExportHistory(ctx, backend, q, store.ExportFormat(format), cmd.OutOrStdout())
	}

	records, err := backend.List(ctx, q)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	printHistory(cmd.OutOrStdout(), records)
	return nil
}

func printHistory(w io.Writer, records []types.AssessmentRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No assessments recorded.")
		return
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-5s  %-11s  %s\n",
		"Recorded", "Technology", "TRL", "Status", "Confidence")
	fmt.Fprintln(w, strings.Repeat("-", 84))

	for _, r := range records {
		tech := r.Technology
		if runes := []rune(tech); len(runes) > 30 {
			tech = string(runes[:27]) + "..."
		}
		fmt.Fprintf(w, "%-20s  %-30s  %-5.2f  %-11s  %.0f%%\n",
			r.CreatedAt.Local().Format(time.DateTime), tech, r.TRLScore, r.Status, r.Confidence*100)
	}

	fmt.Fprintf(w, "\n%d records\n", len(records))
}
