package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenlens/tokenlens/internal/research"
	"github.com/tokenlens/tokenlens/internal/worker"
)

var (
	batchConcurrency int
	batchRetries     int
	batchMaxCost     float64
	batchTimeout     time.Duration
	batchOutJSON     string
	batchNoCache     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Research many entities from a file",
	Long: `Batch reads entities from a file (one per line, optionally "name, SYMBOL"),
researches them in bounded-concurrency waves, and prints an aggregate
summary. Failed entities can be retried wave-by-wave.

Example:
  tokenlens batch entities.txt
  tokenlens batch entities.txt --concurrency 5 --retry-failed 2
  tokenlens batch entities.txt --max-cost 1.50 --json batch.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "entities researched per wave (0 = config default)")
	batchCmd.Flags().IntVar(&batchRetries, "retry-failed", -1, "retry passes over failed entities (-1 = config default)")
	batchCmd.Flags().Float64Var(&batchMaxCost, "max-cost", 0, "stop admitting entities past this estimated cost (0 = unlimited)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "overall batch timeout")
	batchCmd.Flags().StringVar(&batchOutJSON, "json", "", "write the full report to a JSON file")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the collection cache")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchNoCache {
		cfg.Cache.Enabled = false
	}
	if batchConcurrency > 0 {
		cfg.Batch.Concurrency = batchConcurrency
	}
	if batchRetries >= 0 {
		cfg.Batch.MaxRetries = batchRetries
	}
	if batchMaxCost > 0 {
		cfg.Batch.MaxCost = batchMaxCost
	}

	requests, err := worker.ReadRequests(args[0])
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("no entities found in %s", args[0])
	}

	researcher, err := buildResearcher(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Batch: %d entities, %d per wave\n\n", len(requests), cfg.Batch.Concurrency)
	}

	report := worker.NewCoordinator(researcher, cfg.Batch).Run(ctx, requests)

	for _, o := range report.Outcomes {
		switch {
		case o.Skipped:
			fmt.Printf("  SKIP  %-24s %s\n", o.Entity, o.Reason)
		case o.Success:
			fmt.Printf("  PASS  %-24s grade %s, %d points, confidence %.2f\n", o.Entity, o.Grade, o.DataPoints, o.Confidence)
		default:
			fmt.Printf("  FAIL  %-24s %s\n", o.Entity, o.Reason)
		}
	}
	s := report.Summary
	fmt.Printf("\n%d researched: %d passed, %d failed, %d skipped", s.Total-s.Skipped, s.Succeeded, s.Failed, s.Skipped)
	if s.Retried > 0 {
		fmt.Printf(" (%d retried)", s.Retried)
	}
	fmt.Printf("\navg latency %s", s.AverageLatency.Round(10*time.Millisecond))
	if s.Succeeded > 0 {
		fmt.Printf(", avg confidence %.2f", s.AvgConfidence)
	}
	fmt.Printf(", estimated cost $%.2f\n", s.TotalCost)

	if batchOutJSON != "" {
		if err := research.WriteJSON(batchOutJSON, report); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Report written: %s\n", batchOutJSON)
		}
	}

	if s.Failed > 0 {
		os.Exit(1)
	}
	return nil
}
