package sectorconfig

import (
	"fmt"
	"math"
)

// ValidationError is a hard config failure; the process must not start
// with an invalid model configuration.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const weightTolerance = 1e-6

// Validate checks every constraint the engines rely on.
func Validate(cfg *Config) error {
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Resolution ===
	gp := cfg.Resolution.GrowthPhase
	if gp.CAGR3YThreshold <= 0 {
		return ValidationError{"resolution.growth_phase.cagr_3y_threshold", "must be > 0"}
	}
	if gp.YoYThreshold <= 0 {
		return ValidationError{"resolution.growth_phase.yoy_threshold", "must be > 0"}
	}

	g := cfg.Resolution.Growth
	if math.Abs(g.CAGRBlend3Y+g.CAGRBlend5Y-1.0) > weightTolerance {
		return ValidationError{"resolution.growth", fmt.Sprintf("cagr blend weights must sum to 1.0, got %.6f", g.CAGRBlend3Y+g.CAGRBlend5Y)}
	}
	if g.YoYDampening <= 0 || g.YoYDampening > 1 {
		return ValidationError{"resolution.growth.yoy_dampening", "must be in (0, 1]"}
	}
	if g.YoYFloor >= g.YoYCap {
		return ValidationError{"resolution.growth", "yoy_floor must be < yoy_cap"}
	}
	if len(g.DefaultTrajectory) == 0 {
		return ValidationError{"resolution.growth.default_trajectory", "required"}
	}
	if cfg.Resolution.ShareCountDivergence <= 0 {
		return ValidationError{"resolution.share_count_divergence", "must be > 0"}
	}
	if cfg.Resolution.BlendDivergence <= 0 {
		return ValidationError{"resolution.blend_divergence", "must be > 0"}
	}

	// === Discount ===
	d := cfg.Discount
	if d.RiskFreeRate <= 0 || d.RiskFreeRate > 0.20 {
		return ValidationError{"discount.risk_free_rate", "must be in (0, 0.20]"}
	}
	if d.EquityRiskPremium <= 0 {
		return ValidationError{"discount.equity_risk_premium", "must be > 0"}
	}
	if d.StatutoryTaxRate < 0 || d.StatutoryTaxRate >= 1 {
		return ValidationError{"discount.statutory_tax_rate", "must be in [0, 1)"}
	}

	// === DCF ===
	if cfg.DCF.HorizonYears < 5 || cfg.DCF.HorizonYears > 10 {
		return ValidationError{"dcf.horizon_years", "must be in [5, 10]"}
	}
	if cfg.DCF.TerminalGrowthMin >= cfg.DCF.TerminalGrowthMax {
		return ValidationError{"dcf", "terminal_growth_min must be < terminal_growth_max"}
	}
	if cfg.DCF.WACCTerminalBuffer <= 0 {
		return ValidationError{"dcf.wacc_terminal_buffer", "must be > 0"}
	}
	if cfg.DCF.Bull.GrowthScale <= 1.0 {
		return ValidationError{"dcf.bull.growth_scale", "must be > 1.0"}
	}
	if cfg.DCF.Bear.GrowthScale >= 1.0 || cfg.DCF.Bear.GrowthScale <= 0 {
		return ValidationError{"dcf.bear.growth_scale", "must be in (0, 1.0)"}
	}

	// === Drivers ===
	lw := cfg.Drivers.LevelWeights
	if math.Abs(lw.Sum()-1.0) > weightTolerance {
		return ValidationError{"drivers.level_weights", fmt.Sprintf("must sum to 1.0, got %.6f", lw.Sum())}
	}

	// === Relative ===
	ow := cfg.Relative.ObservationWeights
	if math.Abs(ow.Sum()-1.0) > weightTolerance {
		return ValidationError{"relative.observation_weights", fmt.Sprintf("must sum to 1.0, got %.6f", ow.Sum())}
	}
	if cfg.Relative.TightWeight < cfg.Relative.BroadWeight {
		return ValidationError{"relative", "tight_weight must be >= broad_weight"}
	}

	// === Monte Carlo ===
	if cfg.MonteCarlo.Trials <= 0 {
		return ValidationError{"monte_carlo.trials", "must be > 0"}
	}

	// === Blend ===
	bw := cfg.Blend.Weights
	if math.Abs(bw.Sum()-1.0) > weightTolerance {
		return ValidationError{"blend.weights", fmt.Sprintf("must sum to 1.0, got %.6f", bw.Sum())}
	}
	if cfg.Blend.BaseConfidence <= 0 || cfg.Blend.BaseConfidence > 1 {
		return ValidationError{"blend.base_confidence", "must be in (0, 1]"}
	}

	// === Sectors ===
	if _, ok := cfg.Sectors["default"]; !ok {
		return ValidationError{"sectors", "a 'default' sector profile is required"}
	}
	for name, s := range cfg.Sectors {
		if s.CapexCeiling <= 0 {
			return ValidationError{fmt.Sprintf("sectors.%s.capex_ceiling", name), "must be > 0"}
		}
		if s.SteadyStateCapex <= 0 || s.SteadyStateCapex > s.CapexCeiling {
			return ValidationError{fmt.Sprintf("sectors.%s.steady_state_capex", name), "must be in (0, capex_ceiling]"}
		}
		if s.DeprCeiling <= 0 || s.SteadyStateDepr <= 0 || s.SteadyStateDepr > s.DeprCeiling {
			return ValidationError{fmt.Sprintf("sectors.%s", name), "steady_state_depreciation must be in (0, depreciation_ceiling]"}
		}
		if s.NWCCeiling <= 0 || s.SteadyStateNWC > s.NWCCeiling {
			return ValidationError{fmt.Sprintf("sectors.%s", name), "steady_state_nwc must be <= nwc_ceiling"}
		}
		if s.TerminalMarginMin >= s.TerminalMarginMax {
			return ValidationError{fmt.Sprintf("sectors.%s", name), "terminal_margin_min must be < terminal_margin_max"}
		}
		if s.ROCETarget <= 0 {
			return ValidationError{fmt.Sprintf("sectors.%s.roce_target", name), "must be > 0"}
		}
		if s.ReinvestmentDefault <= 0 || s.ReinvestmentDefault >= 1 {
			return ValidationError{fmt.Sprintf("sectors.%s.reinvestment_default", name), "must be in (0, 1)"}
		}
		if s.TaxRate < 0 || s.TaxRate >= 1 {
			return ValidationError{fmt.Sprintf("sectors.%s.tax_rate", name), "must be in [0, 1)"}
		}
	}

	return nil
}
