package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuora/backend/internal/valuation"
)

var (
	batchConcurrency int
	batchRate        float64
	batchTimeout     time.Duration
	batchTickers     []string
	batchDryRun      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Value the whole record universe",
	Long: `Values every ticker with a record file (or an explicit list) over a
bounded worker pool and persists the results.

Example:
  go run ./cmd/valuora batch
  go run ./cmd/valuora batch --concurrency 8 --rate 10
  go run ./cmd/valuora batch --tickers ACME,GLOBEX --dry-run`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "concurrent companies")
	batchCmd.Flags().Float64Var(&batchRate, "rate", 0, "company starts per second (0 = unlimited)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Second, "per-company budget")
	batchCmd.Flags().StringSliceVar(&batchTickers, "tickers", nil, "explicit ticker list (default: every record file)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "value without persisting results")
}

func runBatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Batch Valuation ===")

	e, err := setupEnv()
	if err != nil {
		return err
	}
	defer e.close()

	tickers := batchTickers
	if len(tickers) == 0 {
		tickers, err = e.records.Tickers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list record universe: %w", err)
		}
	}
	for i, t := range tickers {
		tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if len(tickers) == 0 {
		fmt.Println("⚠️ No tickers to value")
		return nil
	}
	fmt.Printf("📊 Universe: %d tickers, %d workers\n\n", len(tickers), batchConcurrency)

	results := e.results
	if batchDryRun {
		results = nil
	}
	batch := valuation.NewBatch(e.service, results, valuation.BatchConfig{
		Workers:           batchConcurrency,
		PerCompanyTimeout: batchTimeout,
		RatePerSecond:     batchRate,
	}, e.log)

	summary := batch.Run(cmd.Context(), tickers)

	fmt.Printf("\n✅ Batch completed in %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Succeeded:    %d\n", summary.Succeeded)
	fmt.Printf("  No valuation: %d\n", summary.NoValuation)
	fmt.Printf("  Failed:       %d\n", summary.Failed)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d valuations failed", summary.Failed, summary.Total)
	}
	return nil
}
