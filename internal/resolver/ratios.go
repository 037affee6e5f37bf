package resolver

import (
	"fmt"
	"math"

	"github.com/valuora/backend/internal/contracts"
)

// Ratio sanity bounds. Anything outside is treated as no-data rather
// than propagated into the projection.
const (
	ratioSaneMax = 0.60
	nwcSaneMin   = -0.20
	nwcSaneMax   = 0.50
)

// resolveCapexRatio resolves capex/sales with the growth-phase guard.
func (rn *run) resolveCapexRatio() contracts.Field {
	f := rn.resolveScalar("capex_to_sales", []step{
		{contracts.SourceActual, contracts.MethodCashFlowStatement, func() (float64, bool) {
			return rn.averageMetricRatio(contracts.MetricCapex, 3, 0, ratioSaneMax)
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			return rn.capexFromPPEDelta()
		}},
		{contracts.SourceDefault, contracts.MethodSectorDefault, func() (float64, bool) {
			return rn.sector.SteadyStateCapex, true
		}},
	})
	return rn.applyGrowthPhaseGuard("capex_to_sales", f, rn.sector.CapexCeiling, rn.sector.SteadyStateCapex)
}

// resolveDepreciationRatio resolves depreciation/sales with the guard.
func (rn *run) resolveDepreciationRatio() contracts.Field {
	f := rn.resolveScalar("depreciation_to_sales", []step{
		{contracts.SourceActual, contracts.MethodCashFlowStatement, func() (float64, bool) {
			return rn.averageMetricRatio(contracts.MetricDepreciation, 3, 0, ratioSaneMax)
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			return rn.depreciationFromAccumulatedDelta()
		}},
		{contracts.SourceDefault, contracts.MethodSectorDefault, func() (float64, bool) {
			return rn.sector.SteadyStateDepr, true
		}},
	})
	return rn.applyGrowthPhaseGuard("depreciation_to_sales", f, rn.sector.DeprCeiling, rn.sector.SteadyStateDepr)
}

// resolveNWCRatio resolves net-working-capital/sales with the guard.
func (rn *run) resolveNWCRatio() contracts.Field {
	f := rn.resolveScalar("nwc_to_sales", []step{
		{contracts.SourceActual, contracts.MethodBalanceSheet, func() (float64, bool) {
			return rn.nwcFromBalanceSheet()
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			return rn.nwcFromComponentDelta()
		}},
		{contracts.SourceDefault, contracts.MethodSectorDefault, func() (float64, bool) {
			return rn.sector.SteadyStateNWC, true
		}},
	})
	return rn.applyGrowthPhaseGuard("nwc_to_sales", f, rn.sector.NWCCeiling, rn.sector.SteadyStateNWC)
}

// applyGrowthPhaseGuard overrides an expansion-distorted historical
// ratio with the sector steady-state constant. Temporary build-out
// capital intensity must not be extrapolated into perpetuity.
func (rn *run) applyGrowthPhaseGuard(metric string, f contracts.Field, ceiling, steadyState float64) contracts.Field {
	if !rn.flags.InGrowthPhase || f.Source == contracts.SourceDefault || f.Value <= ceiling {
		return f
	}

	rn.note(contracts.NoteWarning, metric, fmt.Sprintf(
		"growth-phase anomaly: historical ratio %.1f%% exceeds sector ceiling %.1f%% (3y CAGR %.1f%%, YoY %.1f%%); using steady-state %.1f%%",
		f.Value*100, ceiling*100, rn.flags.CAGR3*100, rn.flags.YoY*100, steadyState*100))

	return contracts.Field{
		Value:  steadyState,
		Source: contracts.SourceDefault,
		Method: contracts.MethodSteadyState,
	}
}

// averageMetricRatio averages metric/revenue over up to years annual
// periods. Both figures must be present and positive in a year for it
// to count; capex reported as an outflow is taken by absolute value.
func (rn *run) averageMetricRatio(m contracts.Metric, years int, saneMin, saneMax float64) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < years; i++ {
		v, ok1 := rn.rec.Annual(m, i)
		rev, ok2 := rn.rec.Annual(contracts.MetricRevenue, i)
		if !ok1 || !ok2 || rev <= 0 {
			continue
		}
		sum += math.Abs(v) / rev
		n++
	}
	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	if avg <= saneMin || avg > saneMax {
		return 0, false
	}
	return avg, true
}

// capexFromPPEDelta approximates capex as the gross-PPE delta plus the
// year's depreciation. Net PPE stands in when gross is unreported.
func (rn *run) capexFromPPEDelta() (float64, bool) {
	rev, ok := rn.rec.Annual(contracts.MetricRevenue, 0)
	if !ok || rev <= 0 {
		return 0, false
	}

	depr, _ := rn.rec.Annual(contracts.MetricDepreciation, 0)

	for _, m := range []contracts.Metric{contracts.MetricGrossPPE, contracts.MetricNetPPE} {
		cur, ok1 := rn.rec.Annual(m, 0)
		prev, ok2 := rn.rec.Annual(m, 1)
		if !ok1 || !ok2 {
			continue
		}
		capex := (cur - prev) + math.Abs(depr)
		ratio := capex / rev
		if ratio > 0 && ratio <= ratioSaneMax {
			return ratio, true
		}
	}
	return 0, false
}

// depreciationFromAccumulatedDelta recovers depreciation as the change
// in accumulated depreciation (gross minus net PPE).
func (rn *run) depreciationFromAccumulatedDelta() (float64, bool) {
	rev, ok := rn.rec.Annual(contracts.MetricRevenue, 0)
	if !ok || rev <= 0 {
		return 0, false
	}

	grossCur, ok1 := rn.rec.Annual(contracts.MetricGrossPPE, 0)
	netCur, ok2 := rn.rec.Annual(contracts.MetricNetPPE, 0)
	grossPrev, ok3 := rn.rec.Annual(contracts.MetricGrossPPE, 1)
	netPrev, ok4 := rn.rec.Annual(contracts.MetricNetPPE, 1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}

	depr := (grossCur - netCur) - (grossPrev - netPrev)
	ratio := depr / rev
	if ratio <= 0 || ratio > ratioSaneMax {
		return 0, false
	}
	return ratio, true
}

// nwcFromBalanceSheet uses the reported working-capital line, or the
// current-assets-minus-current-liabilities spread net of cash.
func (rn *run) nwcFromBalanceSheet() (float64, bool) {
	rev, ok := rn.rec.Annual(contracts.MetricRevenue, 0)
	if !ok || rev <= 0 {
		return 0, false
	}

	if wc, ok := rn.rec.Annual(contracts.MetricWorkingCapital, 0); ok {
		ratio := wc / rev
		if inRange(ratio, nwcSaneMin, nwcSaneMax) {
			return ratio, true
		}
		return 0, false
	}

	ca, ok1 := rn.rec.Annual(contracts.MetricCurrentAssets, 0)
	cl, ok2 := rn.rec.Annual(contracts.MetricCurrentLiab, 0)
	if !ok1 || !ok2 {
		return 0, false
	}
	cash, _ := rn.rec.Annual(contracts.MetricCash, 0)

	ratio := (ca - cl - cash) / rev
	if !inRange(ratio, nwcSaneMin, nwcSaneMax) {
		return 0, false
	}
	return ratio, true
}

// nwcFromComponentDelta proxies the NWC ratio from the change in the
// current-asset/liability spread against the change in revenue.
func (rn *run) nwcFromComponentDelta() (float64, bool) {
	caCur, ok1 := rn.rec.Annual(contracts.MetricCurrentAssets, 0)
	clCur, ok2 := rn.rec.Annual(contracts.MetricCurrentLiab, 0)
	caPrev, ok3 := rn.rec.Annual(contracts.MetricCurrentAssets, 1)
	clPrev, ok4 := rn.rec.Annual(contracts.MetricCurrentLiab, 1)
	revCur, ok5 := rn.rec.Annual(contracts.MetricRevenue, 0)
	revPrev, ok6 := rn.rec.Annual(contracts.MetricRevenue, 1)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 {
		return 0, false
	}

	deltaRev := revCur - revPrev
	if math.Abs(deltaRev) < 1e-9 {
		return 0, false
	}

	deltaNWC := (caCur - clCur) - (caPrev - clPrev)
	ratio := deltaNWC / deltaRev
	if !inRange(ratio, nwcSaneMin, nwcSaneMax) {
		return 0, false
	}
	return ratio, true
}
