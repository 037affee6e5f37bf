package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/drivers"
)

var (
	driversSector   string
	driversSubgroup string
	driversTicker   string
)

var (
	driverLevel  string
	driverName   string
	driverScope  string
	driverValue  float64
	driverWeight float64
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Inspect the driver hierarchy",
	Long: `Driver hierarchy commands.

Commands:
  list    show the driver snapshot a valuation would see
  set     upsert one driver belief`,
}

var driversListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the driver snapshot for a scope",
	Long: `Shows the macro, group, subgroup and company drivers a valuation of
the given scope would consume, plus the synthesized adjustments.

Example:
  go run ./cmd/valuora drivers list --sector technology --ticker ACME
  go run ./cmd/valuora drivers list --sector industrials --subgroup machinery`,
	RunE: runDriversList,
}

var driversSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Upsert one driver belief",
	Long: `Writes one driver row, replacing any prior belief with the same
(level, name, scope) identity.

Example:
  go run ./cmd/valuora drivers set --level MACRO --name rates_path --value -0.3 --weight 0.5
  go run ./cmd/valuora drivers set --level COMPANY --name terminal_growth --scope ACME --value 0.035 --weight 1.0`,
	RunE: runDriversSet,
}

func init() {
	rootCmd.AddCommand(driversCmd)
	driversCmd.AddCommand(driversListCmd)
	driversCmd.AddCommand(driversSetCmd)

	driversListCmd.Flags().StringVar(&driversSector, "sector", "", "sector (group scope key)")
	driversListCmd.Flags().StringVar(&driversSubgroup, "subgroup", "", "subgroup scope key")
	driversListCmd.Flags().StringVar(&driversTicker, "ticker", "", "company scope key")

	driversSetCmd.Flags().StringVar(&driverLevel, "level", "", "MACRO, GROUP, SUBGROUP or COMPANY")
	driversSetCmd.Flags().StringVar(&driverName, "name", "", "driver name")
	driversSetCmd.Flags().StringVar(&driverScope, "scope", "", "scope key (empty for macro)")
	driversSetCmd.Flags().Float64Var(&driverValue, "value", 0, "signed score, roughly [-1, 1]")
	driversSetCmd.Flags().Float64Var(&driverWeight, "weight", 0, "weight in [0, 1]")
	_ = driversSetCmd.MarkFlagRequired("level")
	_ = driversSetCmd.MarkFlagRequired("name")
	_ = driversSetCmd.MarkFlagRequired("weight")
}

func runDriversList(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Driver Snapshot ===")

	e, err := setupEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ticker := strings.ToUpper(strings.TrimSpace(driversTicker))
	repo := drivers.NewRepository(e.db.Pool)
	set, err := repo.Snapshot(cmd.Context(), driversSector, driversSubgroup, ticker)
	if err != nil {
		return fmt.Errorf("load driver snapshot: %w", err)
	}

	printDriverLevel("MACRO", set.Macro)
	printDriverLevel("GROUP", set.Group)
	printDriverLevel("SUBGROUP", set.Subgroup)
	printDriverLevel("COMPANY", set.Company)

	engine := drivers.NewEngine(e.sectors)
	adj := engine.Synthesize(set)
	fmt.Println("\n--- Synthesized adjustments ---")
	fmt.Printf("Growth delta:     %+.4f\n", adj.GrowthDelta)
	fmt.Printf("Margin delta:     %+.4f\n", adj.MarginDelta)
	fmt.Printf("Confidence delta: %+.4f\n", adj.ConfidenceDelta)
	if adj.TerminalOverride != nil {
		fmt.Printf("Terminal growth:  %.4f (override)\n", *adj.TerminalOverride)
	}
	fmt.Printf("Composite score:  %+.4f\n", engine.Composite(set))
	return nil
}

func runDriversSet(cmd *cobra.Command, args []string) error {
	level := contracts.DriverLevel(strings.ToUpper(strings.TrimSpace(driverLevel)))
	switch level {
	case contracts.LevelMacro, contracts.LevelGroup, contracts.LevelSubgroup, contracts.LevelCompany:
	default:
		return fmt.Errorf("unknown driver level %q", driverLevel)
	}
	if level != contracts.LevelMacro && driverScope == "" {
		return fmt.Errorf("--scope is required for %s drivers", level)
	}

	e, err := setupEnv()
	if err != nil {
		return err
	}
	defer e.close()

	repo := drivers.NewRepository(e.db.Pool)
	d := contracts.Driver{
		Level:    level,
		Name:     driverName,
		ScopeKey: driverScope,
		Value:    driverValue,
		Weight:   driverWeight,
	}
	if err := repo.Upsert(cmd.Context(), d); err != nil {
		return err
	}

	fmt.Printf("✅ Driver saved: [%s] %s scope=%q value=%+.2f weight=%.2f\n",
		d.Level, d.Name, d.ScopeKey, d.Value, d.Weight)
	return nil
}

func printDriverLevel(level string, ds []contracts.Driver) {
	fmt.Printf("\n[%s] %d drivers\n", level, len(ds))
	for _, d := range ds {
		scope := d.ScopeKey
		if scope == "" {
			scope = "*"
		}
		fmt.Printf("  %-24s %-16s value %+6.2f  weight %.2f  (updated %s)\n",
			d.Name, scope, d.Value, d.Weight, d.UpdatedAt.Format("2006-01-02"))
	}
}
