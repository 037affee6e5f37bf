package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/valuora/backend/internal/sectorconfig"
	"github.com/valuora/backend/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Sector config tooling",
	Long: `Sector config commands.

Commands:
  check    load, validate and fingerprint the sector config`,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the sector config",
	Long: `Loads the sector config YAML, runs full validation and prints the
revision fingerprint. Fails when any tuned constant is missing or out
of range.

Example:
  go run ./cmd/valuora config check
  SECTOR_CONFIG=config/sectors.yaml go run ./cmd/valuora config check`,
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Sector Config Check ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Printf("Path: %s\n\n", cfg.SectorConfigPath)

	sectors, _, err := sectorconfig.Load(cfg.SectorConfigPath)
	if err != nil {
		return fmt.Errorf("sector config invalid: %w", err)
	}

	hash, err := sectorconfig.Hash(sectors)
	if err != nil {
		return fmt.Errorf("hash sector config: %w", err)
	}

	fmt.Printf("Config ID: %s (version %s)\n", sectors.Meta.ConfigID, sectors.Meta.Version)
	fmt.Printf("Hash:      %s\n", hash)
	fmt.Printf("Horizon:   %d years, %d Monte Carlo trials\n",
		sectors.DCF.HorizonYears, sectors.MonteCarlo.Trials)

	names := make([]string, 0, len(sectors.Sectors))
	for name := range sectors.Sectors {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("\nSectors (%d):\n", len(names))
	for _, name := range names {
		s := sectors.Sectors[name]
		fmt.Printf("  %-12s margin %.2f  roce %.2f  reinvest %.2f  tax %.2f\n",
			name, s.DefaultEBITDAMargin, s.ROCETarget, s.ReinvestmentDefault, s.TaxRate)
	}

	fmt.Println("\n✅ Sector config valid")
	return nil
}
