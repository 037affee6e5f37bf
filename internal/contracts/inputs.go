package contracts

import "math"

// Source is the provenance tier of a resolved modeling input.
type Source string

const (
	SourceActual  Source = "ACTUAL"  // taken directly from reported figures
	SourceDerived Source = "DERIVED" // reconstructed from other reported figures
	SourceDefault Source = "DEFAULT" // sector or global constant
)

// Method is the finer provenance tag for tracked metrics: it names which
// fallback step of a resolution chain produced the value.
type Method string

const (
	MethodCashFlowStatement Method = "cash_flow_statement"
	MethodBalanceSheetDelta Method = "balance_sheet_delta"
	MethodBalanceSheet      Method = "balance_sheet"
	MethodIdentityResidual  Method = "identity_residual"
	MethodEffectiveRate     Method = "effective_rate"
	MethodTwoMethodBlend    Method = "two_method_blend"
	MethodReported          Method = "reported"
	MethodMarketImplied     Method = "market_implied"
	MethodCAGRBlend         Method = "cagr_blend"
	MethodDampedYoY         Method = "damped_yoy"
	MethodSteadyState       Method = "steady_state_override"
	MethodSectorDefault     Method = "sector_default"
	MethodGlobalDefault     Method = "global_default"
)

// Field is one resolved scalar input with its provenance.
type Field struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
	Method Method  `json:"method"`
}

// Series is one resolved sequence input (e.g. the growth trajectory).
type Series struct {
	Values []float64 `json:"values"`
	Source Source    `json:"source"`
	Method Method    `json:"method"`
}

// NoteLevel classifies a resolution note.
type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
)

// ResolutionNote records one provenance or anomaly event during resolution.
// Notes are part of the resolver's observable output, not just log lines.
type ResolutionNote struct {
	Level  NoteLevel `json:"level"`
	Metric string    `json:"metric"`
	Text   string    `json:"text"`
}

// ResolvedInputs is the full normalized modeling-input set for one company.
// Invariant: every field is always populated; resolution never fails, it
// degrades to a sector or constant default. Built fresh per valuation run.
type ResolvedInputs struct {
	Ticker string `json:"ticker"`
	Sector string `json:"sector"`

	// Operating model
	RevenueBase         Field  `json:"revenue_base"`
	RevenueGrowthRates  Series `json:"revenue_growth_rates"` // one per projection year
	EBITDAMargin        Field  `json:"ebitda_margin"`
	MarginImprovement   Field  `json:"margin_improvement"` // annual margin drift, decays over horizon
	CapexToSales        Field  `json:"capex_to_sales"`
	DepreciationToSales Field  `json:"depreciation_to_sales"`
	NWCToSales          Field  `json:"nwc_to_sales"`
	TaxRate             Field  `json:"tax_rate"`

	// Terminal economics
	TerminalROCE         Field `json:"terminal_roce"`
	TerminalReinvestment Field `json:"terminal_reinvestment"`

	// Capital structure and per-share
	SharesOutstanding Field `json:"shares_outstanding"`
	Cash              Field `json:"cash"`
	GrossDebt         Field `json:"gross_debt"`
	DebtToEquity      Field `json:"debt_to_equity"`
	Beta              Field `json:"beta"`
	CostOfDebt        Field `json:"cost_of_debt"`

	// Context
	TrailingEBITDA Field `json:"trailing_ebitda"`
	SharePrice     Field `json:"share_price"`

	Notes []ResolutionNote `json:"notes"`
}

// Fields returns every scalar field keyed by name, for validation and
// provenance reporting. The growth trajectory is validated separately.
func (ri *ResolvedInputs) Fields() map[string]Field {
	return map[string]Field{
		"revenue_base":          ri.RevenueBase,
		"ebitda_margin":         ri.EBITDAMargin,
		"margin_improvement":    ri.MarginImprovement,
		"capex_to_sales":        ri.CapexToSales,
		"depreciation_to_sales": ri.DepreciationToSales,
		"nwc_to_sales":          ri.NWCToSales,
		"tax_rate":              ri.TaxRate,
		"terminal_roce":         ri.TerminalROCE,
		"terminal_reinvestment": ri.TerminalReinvestment,
		"shares_outstanding":    ri.SharesOutstanding,
		"cash":                  ri.Cash,
		"gross_debt":            ri.GrossDebt,
		"debt_to_equity":        ri.DebtToEquity,
		"beta":                  ri.Beta,
		"cost_of_debt":          ri.CostOfDebt,
		"trailing_ebitda":       ri.TrailingEBITDA,
		"share_price":           ri.SharePrice,
	}
}

// Complete reports whether every input carries a finite value and a
// provenance tag. A false return indicates a resolver bug, not bad data.
func (ri *ResolvedInputs) Complete() bool {
	for _, f := range ri.Fields() {
		if f.Source == "" || math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return false
		}
	}
	if ri.RevenueGrowthRates.Source == "" || len(ri.RevenueGrowthRates.Values) == 0 {
		return false
	}
	for _, g := range ri.RevenueGrowthRates.Values {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return false
		}
	}
	return true
}
