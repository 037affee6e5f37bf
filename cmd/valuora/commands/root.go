package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	seed    int64
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "valuora",
	Short: "Valuora - fair-value valuation engine",
	Long: `Valuora Unified CLI

Fair-value estimation for listed companies: tiered input resolution,
driver-adjusted DCF, peer-relative valuation and Monte Carlo, blended
into one result per company.

Usage:
  go run ./cmd/valuora [command]

Examples:
  go run ./cmd/valuora value --ticker ACME
  go run ./cmd/valuora batch --concurrency 8
  go run ./cmd/valuora config check
  go run ./cmd/valuora api`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Monte Carlo seed (0 = non-deterministic)")
}
