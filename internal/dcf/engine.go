package dcf

import (
	"math"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

// Engine runs the per-share discounted-cash-flow projection. It is a
// pure calculator: no I/O, no stored state, the same inputs always
// produce the same output.
type Engine struct {
	cfg *sectorconfig.Config
}

// NewEngine creates an Engine.
func NewEngine(cfg *sectorconfig.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Project runs the base, bull and bear scenarios through one projection
// state machine. The boolean reports whether the base scenario produced
// a usable per-share value; when it did, a scenario that individually
// degenerates (deep-bear negative equity) falls back to the base figure
// rather than reporting a bogus number.
func (e *Engine) Project(inputs *contracts.ResolvedInputs, adj contracts.DriverAdjustment, disc Discount) (contracts.DCFScenarios, bool) {
	base, ok := e.Base(inputs, adj, disc)
	if !ok {
		return contracts.DCFScenarios{}, false
	}

	out := contracts.DCFScenarios{Base: base, Bull: base, Bear: base}
	if bull, ok := e.project(inputs, adj, disc, e.cfg.DCF.Bull); ok {
		out.Bull = bull
	}
	if bear, ok := e.project(inputs, adj, disc, e.cfg.DCF.Bear); ok {
		out.Bear = bear
	}
	return out, true
}

// Base runs only the base scenario. The Monte Carlo simulator calls
// this once per trial.
func (e *Engine) Base(inputs *contracts.ResolvedInputs, adj contracts.DriverAdjustment, disc Discount) (float64, bool) {
	return e.project(inputs, adj, disc, sectorconfig.Scenario{GrowthScale: 1.0, MarginAdd: 0})
}

// Margin bounds for projected years. The terminal-year margin is
// additionally clamped to the sector's terminal band.
const (
	projMarginMin = 0.01
	projMarginMax = 0.60
)

// project is the single scenario state machine.
func (e *Engine) project(inputs *contracts.ResolvedInputs, adj contracts.DriverAdjustment, disc Discount, scen sectorconfig.Scenario) (float64, bool) {
	horizon := e.cfg.DCF.HorizonYears
	sector := e.cfg.SectorProfile(inputs.Sector)

	revenue := inputs.RevenueBase.Value
	shares := inputs.SharesOutstanding.Value
	if revenue <= 0 || shares <= 0 {
		return 0, false
	}
	if disc.WACC <= e.cfg.DCF.WACCTerminalBuffer {
		return 0, false
	}

	growth := inputs.RevenueGrowthRates.Values
	if len(growth) < horizon {
		return 0, false
	}

	margin := inputs.EBITDAMargin.Value + scen.MarginAdd + adj.MarginDelta
	tax := inputs.TaxRate.Value

	var (
		pv             float64
		discountFactor = 1.0
		nopat          float64
	)

	for year := 0; year < horizon; year++ {
		g := growth[year]*scen.GrowthScale + adj.GrowthDelta
		prevRevenue := revenue
		revenue = revenue * (1 + g)

		// Margin drift decays linearly so the expansion flattens out
		// by the terminal year instead of compounding forever.
		if horizon > 1 {
			decay := 1 - float64(year)/float64(horizon-1)
			margin += inputs.MarginImprovement.Value * decay
		}
		m := clamp(margin, projMarginMin, projMarginMax)
		if year == horizon-1 {
			m = clamp(m, sector.TerminalMarginMin, sector.TerminalMarginMax)
		}

		ebitda := revenue * m
		depreciation := revenue * inputs.DepreciationToSales.Value
		capex := revenue * inputs.CapexToSales.Value
		deltaNWC := inputs.NWCToSales.Value * (revenue - prevRevenue)

		ebit := ebitda - depreciation
		nopat = ebit * (1 - tax)
		fcff := nopat + depreciation - capex - deltaNWC

		discountFactor *= 1 + disc.WACC
		pv += fcff / discountFactor
	}

	// Terminal value: Gordon growth on the normalized terminal free
	// cash flow, NOPAT net of the sustained reinvestment rate.
	g := e.terminalGrowth(inputs, adj, disc)
	if disc.WACC-g <= 0 {
		return 0, false
	}
	terminalFCFF := nopat * (1 + g) * (1 - inputs.TerminalReinvestment.Value)
	terminalValue := terminalFCFF / (disc.WACC - g)
	pv += terminalValue / discountFactor

	equity := pv - inputs.GrossDebt.Value + inputs.Cash.Value
	perShare := equity / shares
	if math.IsNaN(perShare) || math.IsInf(perShare, 0) || perShare <= 0 {
		return 0, false
	}
	return perShare, true
}

// terminalGrowth derives the perpetuity growth rate from the terminal
// economics (g = reinvestment x ROCE), honoring a driver override, then
// clamps it to the configured band and finally to strictly below the
// discount rate. The last clamp is unconditional: a terminal growth at
// or above WACC would make the Gordon denominator explode.
func (e *Engine) terminalGrowth(inputs *contracts.ResolvedInputs, adj contracts.DriverAdjustment, disc Discount) float64 {
	g := inputs.TerminalReinvestment.Value * inputs.TerminalROCE.Value
	if adj.TerminalOverride != nil {
		g = *adj.TerminalOverride
	}

	g = clamp(g, e.cfg.DCF.TerminalGrowthMin, e.cfg.DCF.TerminalGrowthMax)
	if ceiling := disc.WACC - e.cfg.DCF.WACCTerminalBuffer; g > ceiling {
		g = ceiling
	}
	return g
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
