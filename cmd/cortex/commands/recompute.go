package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// recomputeCmd represents the recompute command
var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Run one full analytics recompute",
	Long: `Run one full analytics recompute pass.

The pass loads a warehouse snapshot, runs the batch engines in parallel
(RFM segmentation, cohort retention, ABC classification, churn scoring,
attribution matching) and writes the derived attributes back, then
flushes the dashboard cache.

Example:
  go run ./cmd/cortex recompute`,
	RunE: runRecompute,
}

var recomputeTimeout time.Duration

func init() {
	rootCmd.AddCommand(recomputeCmd)

	recomputeCmd.Flags().DurationVar(&recomputeTimeout, "timeout", 10*time.Minute, "recompute timeout")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Cortex Analytics Recompute ===")

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
	defer cancel()

	bar := progressbar.Default(-1, "recomputing analytics")
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	result, runErr := a.orchestrator.Run(ctx)
	close(done)
	bar.Finish()

	if runErr != nil {
		return fmt.Errorf("recompute failed: %w", runErr)
	}

	if err := a.cache.Invalidate(ctx); err != nil {
		a.log.WithError(err).Warn("Failed to invalidate cache")
	}

	fmt.Printf("\nRun %s completed in %s\n\n", result.RunID, result.Duration.Round(time.Millisecond))
	fmt.Printf("  Scored customers:    %d\n", result.ScoredCustomers)
	fmt.Printf("  Churn flags:         %d\n", result.ChurnFlags)
	fmt.Printf("  Classified products: %d\n", result.ClassifiedItems)
	fmt.Printf("  Cohort cells:        %d\n", result.CohortCells)
	fmt.Printf("  Attribution rows:    %d\n", result.AttributionRows)
	fmt.Printf("\n  Snapshot: %s  Compute: %s  Write-back: %s\n",
		result.SnapshotDuration.Round(time.Millisecond),
		result.ComputeDuration.Round(time.Millisecond),
		result.WriteDuration.Round(time.Millisecond))

	return nil
}
