package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealmatch-cli/internal/model"
	"github.com/sells-group/dealmatch-cli/internal/orchestrator"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score buyers against a listing",
	Long: `Score one buyer or a whole universe against a listing.

Each buyer is scored on four dimensions (size, geography, services, owner
goals), then the weighted composite is adjusted by thesis and data-quality
bonuses, manual adjustments, and the buyer's historical rejection patterns.

Examples:
  # Score a single buyer
  score --listing l-123 --buyer b-456 --universe u-789

  # Score every buyer in a universe, five at a time
  score --listing l-123 --universe u-789 --bulk

  # Rescore everything, including buyers with existing scores
  score --listing l-123 --universe u-789 --bulk --rescore

  # Only score buyers with reasonably complete profiles, export to CSV
  score --listing l-123 --universe u-789 --bulk --min-completeness 0.6 --format csv --output scores.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("listing", "", "listing ID to score against (required)")
	f.String("buyer", "", "score a single buyer by ID")
	f.String("universe", "", "buyer universe ID (required)")
	f.Bool("bulk", false, "score every buyer in the universe")
	f.String("buyers", "", "comma-separated buyer IDs to restrict a bulk run")
	f.Bool("rescore", false, "rescore buyers that already have a score")
	f.Float64("min-completeness", 0, "skip buyers below this profile completeness (0-1)")
	f.String("instructions", "", "extra instructions for the semantic classifier")
	f.String("geography-mode", "", "geography mode override: critical, preferred or minimal")
	f.String("adjacency-file", "", "YAML service adjacency map (overrides config)")
	f.Int("batch-size", 0, "buyers scored concurrently per batch (default from config)")
	f.Duration("timeout", 0, "abort the run after this duration (default from config)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listingID, _ := cmd.Flags().GetString("listing")
	buyerID, _ := cmd.Flags().GetString("buyer")
	universeID, _ := cmd.Flags().GetString("universe")
	bulk, _ := cmd.Flags().GetBool("bulk")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if listingID == "" || universeID == "" {
		return eris.New("score: --listing and --universe are required")
	}
	if !bulk && buyerID == "" {
		return eris.New("score: pass --buyer for a single score or --bulk for the whole universe")
	}
	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	mode, err := parseGeoMode(cmd)
	if err != nil {
		return err
	}
	instructions, _ := cmd.Flags().GetString("instructions")

	if adjFile, _ := cmd.Flags().GetString("adjacency-file"); adjFile != "" {
		cfg.Scoring.AdjacencyMapFile = adjFile
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	env, err := initEngine(ctx, orchestrator.Options{
		BatchSize:  batchSize,
		RunTimeout: timeout,
		Progress:   logProgress{},
	})
	if err != nil {
		return err
	}
	defer env.Close()

	if !bulk {
		result, err := env.Orchestrator.ScoreOne(ctx, orchestrator.SingleRequest{
			ListingID:          listingID,
			BuyerID:            buyerID,
			UniverseID:         universeID,
			CustomInstructions: instructions,
			GeographyMode:      mode,
		})
		if err != nil {
			return err
		}
		printSingleResult(result)
		return nil
	}

	buyersFlag, _ := cmd.Flags().GetString("buyers")
	rescore, _ := cmd.Flags().GetBool("rescore")
	minCompleteness, _ := cmd.Flags().GetFloat64("min-completeness")

	out, err := env.Orchestrator.ScoreBulk(ctx, orchestrator.BulkRequest{
		ListingID:          listingID,
		UniverseID:         universeID,
		BuyerIDs:           splitAndTrim(buyersFlag),
		CustomInstructions: instructions,
		GeographyMode:      mode,
		Options: orchestrator.BulkOptions{
			RescoreExisting:     rescore,
			MinDataCompleteness: minCompleteness,
		},
	})
	if err != nil {
		return err
	}

	if err := outputResults(out.Results, format, outputPath); err != nil {
		return err
	}
	printBulkSummary(out)
	return nil
}

func parseGeoMode(cmd *cobra.Command) (model.GeographyMode, error) {
	v, _ := cmd.Flags().GetString("geography-mode")
	switch v {
	case "":
		return "", nil
	case "critical":
		return model.GeoModeCritical, nil
	case "preferred":
		return model.GeoModePreferred, nil
	case "minimal":
		return model.GeoModeMinimal, nil
	default:
		return "", eris.Errorf("score: --geography-mode must be critical, preferred or minimal (got %q)", v)
	}
}

// logProgress reports bulk progress through the global logger.
type logProgress struct{}

func (logProgress) Report(_ context.Context, completed, total int) {
	zap.L().Info("scoring progress", zap.Int("completed", completed), zap.Int("total", total))
}

func printSingleResult(r *model.ScoredResult) {
	fmt.Printf("Buyer:     %s\n", r.BuyerID)
	fmt.Printf("Listing:   %s\n", r.ListingID)
	fmt.Printf("Score:     %.2f / 100\n", r.CompositeScore)
	fmt.Printf("Tier:      %s\n", r.Tier)
	fmt.Printf("Status:    %s\n", r.Status)
	if r.IsDisqualified {
		fmt.Printf("Disqualified: %s\n", r.DisqualifyReason)
	}
	if r.NeedsReview {
		fmt.Println("Needs review: yes")
	}
	fmt.Println("\nDimensions:")
	fmt.Printf("  %-12s %6.1f\n", "size", r.SizeScore)
	fmt.Printf("  %-12s %6.1f\n", "geography", r.GeographyScore)
	fmt.Printf("  %-12s %6.1f\n", "services", r.ServiceScore)
	fmt.Printf("  %-12s %6.1f\n", "owner goals", r.OwnerGoalsScore)
	fmt.Println("\nModifiers:")
	fmt.Printf("  %-12s %+6.1f\n", "thesis", r.ThesisBonus)
	fmt.Printf("  %-12s %+6.1f\n", "data quality", r.DataQualityBonus)
	fmt.Printf("  %-12s %+6.1f\n", "adjustments", r.AdjustmentDelta)
	fmt.Printf("  %-12s %+6.1f\n", "history", -r.LearningPenalty)
	fmt.Printf("\nReasoning: %s\n", r.Reasoning)
}

func printBulkSummary(out *orchestrator.BulkResult) {
	d := out.Diagnostics
	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Buyers:        %d total, %d ready, %d thin, %d skipped\n",
		d.Buyers.Total, d.Buyers.Ready, d.Buyers.Thin, d.Buyers.Skipped)
	fmt.Printf("Scored:        %d qualified, %d disqualified\n",
		d.Summary.Qualified, d.Summary.Disqualified)
	fmt.Printf("Average score: %.1f\n", d.Summary.AvgScore)
	fmt.Printf("Deal data:     %s\n", d.Deal.DataQuality)
	for _, w := range d.Deal.Warnings {
		fmt.Printf("  deal: %s\n", w)
	}
	for _, w := range d.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if len(out.Errors) > 0 {
		fmt.Printf("Errors:        %d buyers failed\n", len(out.Errors))
		for id, msg := range out.Errors {
			fmt.Printf("  %s: %s\n", id, msg)
		}
	}
	if out.Partial {
		fmt.Println("Run stopped early; results are partial.")
	}
}

func outputResults(results []*model.ScoredResult, format, outputPath string) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return writeResultCSV(w, results)
	case "table":
		return writeResultTable(w, results)
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

func writeResultCSV(w *os.File, results []*model.ScoredResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"buyer_id", "composite_score", "tier", "size", "geography",
		"services", "owner_goals", "thesis_bonus", "disqualified", "needs_review", "status"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}

	for _, r := range results {
		row := []string{
			r.BuyerID,
			fmt.Sprintf("%.2f", r.CompositeScore),
			string(r.Tier),
			fmt.Sprintf("%.1f", r.SizeScore),
			fmt.Sprintf("%.1f", r.GeographyScore),
			fmt.Sprintf("%.1f", r.ServiceScore),
			fmt.Sprintf("%.1f", r.OwnerGoalsScore),
			fmt.Sprintf("%.1f", r.ThesisBonus),
			fmt.Sprintf("%v", r.IsDisqualified),
			fmt.Sprintf("%v", r.NeedsReview),
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func writeResultTable(w *os.File, results []*model.ScoredResult) error {
	header := fmt.Sprintf("%-38s %6s %4s %6s %6s %6s %6s %-8s\n",
		"Buyer", "Score", "Tier", "Size", "Geo", "Svc", "Goals", "Status")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "score: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 88)); err != nil {
		return eris.Wrap(err, "score: write table separator")
	}

	for _, r := range results {
		status := string(r.Status)
		if r.IsDisqualified {
			status = "DQ"
		}
		line := fmt.Sprintf("%-38s %6.2f %4s %6.1f %6.1f %6.1f %6.1f %-8s\n",
			r.BuyerID, r.CompositeScore, r.Tier,
			r.SizeScore, r.GeographyScore, r.ServiceScore, r.OwnerGoalsScore, status)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "score: write table row")
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
