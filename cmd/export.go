package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/internal/orchestrator"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored scores for a listing",
	Long: `Export the stored scores for a listing and universe, ordered by
composite score.

Examples:
  export --listing l-123 --universe u-789
  export --listing l-123 --universe u-789 --format csv --output scores.csv
  export --listing l-123 --universe u-789 --min-score 65`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("listing", "", "listing ID (required)")
	f.String("universe", "", "buyer universe ID (required)")
	f.Float64("min-score", 0, "only export scores at or above this threshold")
	f.Bool("include-dq", false, "include disqualified buyers")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listingID, _ := cmd.Flags().GetString("listing")
	universeID, _ := cmd.Flags().GetString("universe")
	if listingID == "" || universeID == "" {
		return eris.New("export: --listing and --universe are required")
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "csv" {
		return eris.Errorf("export: --format must be table or csv (got %q)", format)
	}
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	includeDQ, _ := cmd.Flags().GetBool("include-dq")
	outputPath, _ := cmd.Flags().GetString("output")

	env, err := initEngine(ctx, orchestrator.Options{})
	if err != nil {
		return err
	}
	defer env.Close()

	scores, err := env.Store.ListScores(ctx, listingID, universeID)
	if err != nil {
		return eris.Wrap(err, "export: list scores")
	}

	var filtered []*model.ScoredResult
	for i := range scores {
		r := &scores[i]
		if r.IsDisqualified && !includeDQ {
			continue
		}
		if r.CompositeScore < minScore {
			continue
		}
		filtered = append(filtered, r)
	}

	if len(filtered) == 0 {
		fmt.Println("No scores to export.")
		return nil
	}

	if err := outputResults(filtered, format, outputPath); err != nil {
		return err
	}
	fmt.Printf("Exported %d scores.\n", len(filtered))
	return nil
}
