package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var valueTicker string

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Value a single company",
	Long: `Runs the full valuation pipeline for one ticker: input resolution,
driver synthesis, DCF, peer-relative valuation, Monte Carlo, and the
final blend.

Example:
  go run ./cmd/valuora value --ticker ACME
  go run ./cmd/valuora value --ticker ACME --seed 42`,
	RunE: runValue,
}

func init() {
	rootCmd.AddCommand(valueCmd)

	valueCmd.Flags().StringVar(&valueTicker, "ticker", "", "ticker to value")
	_ = valueCmd.MarkFlagRequired("ticker")
}

func runValue(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(valueTicker))
	fmt.Printf("=== Valuation: %s ===\n\n", ticker)

	e, err := setupEnv()
	if err != nil {
		return err
	}
	defer e.close()

	result, err := e.service.ValueCompany(cmd.Context(), ticker)
	if err != nil {
		return err
	}

	printResult(result)

	if err := e.results.Save(cmd.Context(), result); err != nil {
		e.log.WithError(err).Warn("Result not persisted")
	} else {
		fmt.Printf("\n✅ Result saved (run %s)\n", result.RunID)
	}
	return nil
}
