package sectorconfig

// Config is the full valuation-model configuration: every business-tuned
// constant the engines consume. The source system revises these values
// iteratively, so nothing here is hardcoded in engine code.
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Resolution Resolution `yaml:"resolution" json:"resolution"`
	Discount   Discount   `yaml:"discount" json:"discount"`
	DCF        DCF        `yaml:"dcf" json:"dcf"`
	Drivers    Drivers    `yaml:"drivers" json:"drivers"`
	Relative   Relative   `yaml:"relative" json:"relative"`
	MonteCarlo MonteCarlo `yaml:"monte_carlo" json:"monte_carlo"`
	Blend      Blend      `yaml:"blend" json:"blend"`

	// Sector profiles keyed by sector slug. "default" is required and is
	// the fallback for unknown sectors.
	Sectors map[string]Sector `yaml:"sectors" json:"sectors"`
}

// Meta identifies a config revision.
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
}

// Resolution holds the data-resolution thresholds and growth-chain tuning.
type Resolution struct {
	GrowthPhase GrowthPhase `yaml:"growth_phase" json:"growth_phase"`
	Growth      Growth      `yaml:"growth" json:"growth"`

	// Reported vs market-implied share count divergence above which the
	// market-implied figure wins.
	ShareCountDivergence float64 `yaml:"share_count_divergence" json:"share_count_divergence"`

	// Relative divergence between two estimation methods above which they
	// are blended instead of trusting a single year.
	BlendDivergence float64 `yaml:"blend_divergence" json:"blend_divergence"`
}

// GrowthPhase flags expansion-phase companies whose historical capital
// ratios must not be extrapolated into perpetuity.
type GrowthPhase struct {
	CAGR3YThreshold float64 `yaml:"cagr_3y_threshold" json:"cagr_3y_threshold"`
	YoYThreshold    float64 `yaml:"yoy_threshold" json:"yoy_threshold"`
}

// Growth tunes the revenue-growth trajectory chain.
type Growth struct {
	TerminalRate      float64   `yaml:"terminal_rate" json:"terminal_rate"`
	CAGRBlend3Y       float64   `yaml:"cagr_blend_3y" json:"cagr_blend_3y"`
	CAGRBlend5Y       float64   `yaml:"cagr_blend_5y" json:"cagr_blend_5y"`
	YoYDampening      float64   `yaml:"yoy_dampening" json:"yoy_dampening"`
	YoYFloor          float64   `yaml:"yoy_floor" json:"yoy_floor"`
	YoYCap            float64   `yaml:"yoy_cap" json:"yoy_cap"`
	DefaultTrajectory []float64 `yaml:"default_trajectory" json:"default_trajectory"`
}

// Discount holds CAPM/WACC inputs not derivable from company data.
type Discount struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate" json:"risk_free_rate"`
	EquityRiskPremium float64 `yaml:"equity_risk_premium" json:"equity_risk_premium"`
	DefaultBeta       float64 `yaml:"default_beta" json:"default_beta"`
	DefaultCostOfDebt float64 `yaml:"default_cost_of_debt" json:"default_cost_of_debt"`
	DefaultDebtEquity float64 `yaml:"default_debt_to_equity" json:"default_debt_to_equity"`
	StatutoryTaxRate  float64 `yaml:"statutory_tax_rate" json:"statutory_tax_rate"`
}

// Scenario scales base-case growth and shifts margin for bull/bear runs.
type Scenario struct {
	GrowthScale float64 `yaml:"growth_scale" json:"growth_scale"`
	MarginAdd   float64 `yaml:"margin_add" json:"margin_add"`
}

// DCF tunes the projection state machine.
type DCF struct {
	HorizonYears       int      `yaml:"horizon_years" json:"horizon_years"`
	TerminalGrowthMin  float64  `yaml:"terminal_growth_min" json:"terminal_growth_min"`
	TerminalGrowthMax  float64  `yaml:"terminal_growth_max" json:"terminal_growth_max"`
	WACCTerminalBuffer float64  `yaml:"wacc_terminal_buffer" json:"wacc_terminal_buffer"`
	Bull               Scenario `yaml:"bull" json:"bull"`
	Bear               Scenario `yaml:"bear" json:"bear"`
}

// LevelWeights are the fixed cross-level combination weights of the
// driver hierarchy.
type LevelWeights struct {
	Macro    float64 `yaml:"macro" json:"macro"`
	Group    float64 `yaml:"group" json:"group"`
	Subgroup float64 `yaml:"subgroup" json:"subgroup"`
	Company  float64 `yaml:"company" json:"company"`
}

// Sum returns the total of the four level weights.
func (w LevelWeights) Sum() float64 {
	return w.Macro + w.Group + w.Subgroup + w.Company
}

// Drivers tunes driver synthesis.
type Drivers struct {
	LevelWeights          LevelWeights `yaml:"level_weights" json:"level_weights"`
	GrowthSensitivity     float64      `yaml:"growth_sensitivity" json:"growth_sensitivity"`
	MarginSensitivity     float64      `yaml:"margin_sensitivity" json:"margin_sensitivity"`
	ConfidenceSensitivity float64      `yaml:"confidence_sensitivity" json:"confidence_sensitivity"`
}

// ObservationWeights blends current/median/historical multiple readings.
type ObservationWeights struct {
	Current    float64 `yaml:"current" json:"current"`
	Median     float64 `yaml:"median" json:"median"`
	Historical float64 `yaml:"historical" json:"historical"`
}

// Sum returns the total observation weight.
func (w ObservationWeights) Sum() float64 {
	return w.Current + w.Median + w.Historical
}

// Relative tunes the peer-multiple engine.
type Relative struct {
	ObservationWeights ObservationWeights `yaml:"observation_weights" json:"observation_weights"`
	TightWeight        float64            `yaml:"tight_weight" json:"tight_weight"`
	BroadWeight        float64            `yaml:"broad_weight" json:"broad_weight"`
	OutlookSensitivity float64            `yaml:"outlook_sensitivity" json:"outlook_sensitivity"`
}

// MonteCarlo configures trial count and perturbation distributions.
type MonteCarlo struct {
	Trials               int     `yaml:"trials" json:"trials"`
	GrowthStdDev         float64 `yaml:"growth_stddev" json:"growth_stddev"`
	MarginStdDev         float64 `yaml:"margin_stddev" json:"margin_stddev"`
	TerminalGrowthStdDev float64 `yaml:"terminal_growth_stddev" json:"terminal_growth_stddev"`
	DiscountRateStdDev   float64 `yaml:"discount_rate_stddev" json:"discount_rate_stddev"`
}

// MethodWeights are the configured blend weights before redistribution.
type MethodWeights struct {
	DCF        float64 `yaml:"dcf" json:"dcf"`
	Relative   float64 `yaml:"relative" json:"relative"`
	MonteCarlo float64 `yaml:"monte_carlo" json:"monte_carlo"`
}

// Sum returns the total method weight.
func (w MethodWeights) Sum() float64 {
	return w.DCF + w.Relative + w.MonteCarlo
}

// Blend tunes the cross-method blender.
type Blend struct {
	Weights         MethodWeights `yaml:"weights" json:"weights"`
	BaseConfidence  float64       `yaml:"base_confidence" json:"base_confidence"`
	DegradedPenalty float64       `yaml:"degraded_penalty" json:"degraded_penalty"`
}

// Sector is one sector's resolution defaults and terminal economics.
// The three ceilings bound the growth-phase anomaly guard for their
// respective ratios.
type Sector struct {
	CapexCeiling        float64 `yaml:"capex_ceiling" json:"capex_ceiling"`
	DeprCeiling         float64 `yaml:"depreciation_ceiling" json:"depreciation_ceiling"`
	NWCCeiling          float64 `yaml:"nwc_ceiling" json:"nwc_ceiling"`
	SteadyStateCapex    float64 `yaml:"steady_state_capex" json:"steady_state_capex"`
	SteadyStateDepr     float64 `yaml:"steady_state_depreciation" json:"steady_state_depreciation"`
	SteadyStateNWC      float64 `yaml:"steady_state_nwc" json:"steady_state_nwc"`
	DefaultEBITDAMargin float64 `yaml:"default_ebitda_margin" json:"default_ebitda_margin"`
	TerminalMarginMin   float64 `yaml:"terminal_margin_min" json:"terminal_margin_min"`
	TerminalMarginMax   float64 `yaml:"terminal_margin_max" json:"terminal_margin_max"`
	ROCETarget          float64 `yaml:"roce_target" json:"roce_target"`
	ReinvestmentDefault float64 `yaml:"reinvestment_default" json:"reinvestment_default"`
	TaxRate             float64 `yaml:"tax_rate" json:"tax_rate"`
}

// SectorProfile returns the profile for a sector slug, falling back to
// the required "default" profile for unknown sectors.
func (c *Config) SectorProfile(sector string) Sector {
	if s, ok := c.Sectors[sector]; ok {
		return s
	}
	return c.Sectors["default"]
}
