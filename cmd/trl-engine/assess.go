// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trl-engine/pkg/types"
)

var assessCmd = &cobra.Command{
	Use:   "assess <technology...>",
	Short: "Estimate the TRL of a technology",
	Long: `Assess extracts features for the technology from the record store,
sends them to the configured scorer, and prints the resulting assessment.
The assessment is also appended to the history. Multiple arguments are
joined with spaces, so quoting is optional.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssess,
}

func init() {
	assessCmd.Flags().Bool("json", false, "output the assessment as JSON")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	a, err := p.service.Assess(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	printAssessment(cmd.OutOrStdout(), a)
	return nil
}

// printAssessment writes a human-readable summary of a.
func printAssessment(w io.Writer, a types.Assessment) {
	fmt.Fprintf(w, "%-18s %s\n", "Technology:", a.Technology)
	fmt.Fprintf(w, "%-18s %.2f\n", "TRL score:", a.TRLScore)
	fmt.Fprintf(w, "%-18s %s\n", "Status:", a.Status)
	fmt.Fprintf(w, "%-18s %.0f%%\n", "Confidence:", a.Confidence*100)

	fmt.Fprintln(w, "\nReasoning")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-18s %s\n", "Patent trend:", a.Reasoning.PatentTrend)
	fmt.Fprintf(w, "%-18s %s\n", "Research density:", a.Reasoning.ResearchDensity)
	fmt.Fprintf(w, "%-18s %s\n", "Adoption:", a.Reasoning.IndustryAdoption)
	fmt.Fprintf(w, "%-18s %s\n", "Funding:", a.Reasoning.FundingSupport)

	f := a.Features
	fmt.Fprintln(w, "\nFeatures")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-18s %d\n", "Patents (5y):", f.PatentCount5y)
	fmt.Fprintf(w, "%-18s %+.2f\n", "Patent growth:", f.PatentGrowthRate)
	fmt.Fprintf(w, "%-18s %.1f\n", "Avg citations:", f.AvgCitations)
	fmt.Fprintf(w, "%-18s %d\n", "Papers (5y):", f.PaperCount5y)
	fmt.Fprintf(w, "%-18s %.2f\n", "Research:", f.ResearchIntensity)
	fmt.Fprintf(w, "%-18s %d\n", "Industry reports:", f.IndustryMentions)
	fmt.Fprintf(w, "%-18s %.0f\n", "Funding (USD):", f.FundingTotal)
	fmt.Fprintf(w, "%-18s %+.2f\n", "Funding trend:", f.FundingTrend)
	fmt.Fprintf(w, "%-18s %.2f\n", "Keyword score:", f.MaturityKeywordScore)
	fmt.Fprintf(w, "%-18s %d\n", "Deployed:", f.DeploymentIndicator)
}
