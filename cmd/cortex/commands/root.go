// Package commands implements the cortex CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Cortex - e-commerce analytics computation engine",
	Long: `Cortex Unified CLI

Batch analytics over the e-commerce warehouse: RFM segmentation,
cohort retention, ABC classification, churn risk, sales forecasting
and marketing attribution, served over a REST API.

Usage:
  go run ./cmd/cortex [command]

Examples:
  go run ./cmd/cortex api
  go run ./cmd/cortex recompute
  go run ./cmd/cortex forecast --days 30
  go run ./cmd/cortex scheduler start`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
