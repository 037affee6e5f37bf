package resolver

import (
	"fmt"
	"math"

	"github.com/valuora/backend/internal/contracts"
)

// Sanity bands for the terminal economics. ROCE outside the band is a
// data artifact (tiny capital base, restated equity); a reinvestment
// rate outside it cannot be sustained in perpetuity.
const (
	taxSaneMax  = 0.45
	roceMin     = 0.05
	roceMax     = 0.40
	reinvestMin = 0.10
	reinvestMax = 0.80
)

// resolveTaxRate resolves the cash tax rate applied to EBIT. The
// multi-year average effective rate is cross-checked against the
// latest single-year rate; material divergence blends the two rather
// than trusting either alone.
func (rn *run) resolveTaxRate() contracts.Field {
	average, okA := rn.averageEffectiveTaxRate(3)
	latest, okB := rn.effectiveTaxRate(0)

	switch {
	case okA && okB:
		if diverges(average, latest, rn.cfg.Resolution.BlendDivergence) {
			blended := clamp((average+latest)/2, 0, taxSaneMax)
			rn.note(contracts.NoteWarning, "tax_rate", fmt.Sprintf(
				"tax rate estimates diverge (%.1f%% avg vs %.1f%% latest), blending to %.1f%%",
				average*100, latest*100, blended*100))
			return contracts.Field{Value: blended, Source: contracts.SourceDerived, Method: contracts.MethodTwoMethodBlend}
		}
		rn.note(contracts.NoteInfo, "tax_rate", "resolved from effective rate, cross-checked")
		return contracts.Field{Value: average, Source: contracts.SourceActual, Method: contracts.MethodEffectiveRate}
	case okA:
		rn.note(contracts.NoteInfo, "tax_rate", "resolved from multi-year effective rate")
		return contracts.Field{Value: average, Source: contracts.SourceActual, Method: contracts.MethodEffectiveRate}
	case okB:
		rn.note(contracts.NoteInfo, "tax_rate", "resolved from latest-year effective rate")
		return contracts.Field{Value: latest, Source: contracts.SourceActual, Method: contracts.MethodEffectiveRate}
	default:
		rn.note(contracts.NoteInfo, "tax_rate", "no usable effective rate, using sector default")
		if rn.sector.TaxRate > 0 {
			return contracts.Field{Value: rn.sector.TaxRate, Source: contracts.SourceDefault, Method: contracts.MethodSectorDefault}
		}
		return contracts.Field{Value: rn.cfg.Discount.StatutoryTaxRate, Source: contracts.SourceDefault, Method: contracts.MethodGlobalDefault}
	}
}

// averageEffectiveTaxRate averages tax expense over pretax income across
// up to years annual periods, skipping loss years.
func (rn *run) averageEffectiveTaxRate(years int) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < years; i++ {
		rate, ok := rn.effectiveTaxRate(i)
		if !ok {
			continue
		}
		sum += rate
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// effectiveTaxRate computes the single-year effective rate, rejecting
// loss years and rates past the sanity cap.
func (rn *run) effectiveTaxRate(yearsAgo int) (float64, bool) {
	tax, ok1 := rn.rec.Annual(contracts.MetricTaxExpense, yearsAgo)
	pretax, ok2 := rn.rec.Annual(contracts.MetricPretaxIncome, yearsAgo)
	if !ok1 || !ok2 || pretax <= 0 {
		return 0, false
	}
	rate := math.Abs(tax) / pretax
	if rate > taxSaneMax {
		return 0, false
	}
	return rate, true
}

// resolveTerminalROCE resolves the return on capital the company is
// assumed to sustain in perpetuity. Two independent estimates are built
// from the record; when both exist and disagree beyond the configured
// divergence they are blended rather than trusting either alone.
func (rn *run) resolveTerminalROCE(taxRate float64) contracts.Field {
	reported, okA := rn.roceFromCapitalEmployed(taxRate)
	rebuilt, okB := rn.roceFromInvestedCapital(taxRate)

	switch {
	case okA && okB:
		if diverges(reported, rebuilt, rn.cfg.Resolution.BlendDivergence) {
			blended := clamp((reported+rebuilt)/2, roceMin, roceMax)
			rn.note(contracts.NoteWarning, "terminal_roce", fmt.Sprintf(
				"ROCE estimates diverge (%.1f%% vs %.1f%%), blending to %.1f%%",
				reported*100, rebuilt*100, blended*100))
			return contracts.Field{Value: blended, Source: contracts.SourceDerived, Method: contracts.MethodTwoMethodBlend}
		}
		rn.note(contracts.NoteInfo, "terminal_roce", "resolved from capital employed, cross-checked")
		return contracts.Field{Value: clamp(reported, roceMin, roceMax), Source: contracts.SourceActual, Method: contracts.MethodBalanceSheet}
	case okA:
		rn.note(contracts.NoteInfo, "terminal_roce", "resolved from reported capital employed")
		return contracts.Field{Value: clamp(reported, roceMin, roceMax), Source: contracts.SourceActual, Method: contracts.MethodBalanceSheet}
	case okB:
		rn.note(contracts.NoteInfo, "terminal_roce", "resolved from rebuilt invested capital")
		return contracts.Field{Value: clamp(rebuilt, roceMin, roceMax), Source: contracts.SourceDerived, Method: contracts.MethodBalanceSheetDelta}
	default:
		rn.note(contracts.NoteWarning, "terminal_roce", "no usable capital base, using sector target")
		return contracts.Field{Value: rn.sector.ROCETarget, Source: contracts.SourceDefault, Method: contracts.MethodSectorDefault}
	}
}

// roceFromCapitalEmployed computes NOPAT over the reported capital
// employed line, averaged over up to three years.
func (rn *run) roceFromCapitalEmployed(taxRate float64) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < 3; i++ {
		ebit, ok1 := rn.rec.Annual(contracts.MetricEBIT, i)
		ce, ok2 := rn.rec.Annual(contracts.MetricCapitalEmployed, i)
		if !ok1 || !ok2 || ce <= 0 || ebit <= 0 {
			continue
		}
		sum += ebit * (1 - taxRate) / ce
		n++
	}
	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	return avg, avg > 0
}

// roceFromInvestedCapital rebuilds the capital base as total assets
// minus current liabilities when no capital-employed line is reported.
func (rn *run) roceFromInvestedCapital(taxRate float64) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < 3; i++ {
		ebit, ok1 := rn.rec.Annual(contracts.MetricEBIT, i)
		ta, ok2 := rn.rec.Annual(contracts.MetricTotalAssets, i)
		cl, ok3 := rn.rec.Annual(contracts.MetricCurrentLiab, i)
		if !ok1 || !ok2 || !ok3 || ebit <= 0 {
			continue
		}
		ic := ta - cl
		if ic <= 0 {
			continue
		}
		sum += ebit * (1 - taxRate) / ic
		n++
	}
	if n == 0 {
		return 0, false
	}
	avg := sum / float64(n)
	return avg, avg > 0
}

// resolveTerminalReinvestment resolves the fraction of NOPAT plowed
// back in perpetuity. A cash-flow estimate (net investment over NOPAT)
// is cross-checked against the growth-implied rate g/ROCE; material
// divergence blends the two.
func (rn *run) resolveTerminalReinvestment(taxRate float64) contracts.Field {
	cashFlow, okA := rn.reinvestmentFromCashFlows(taxRate)
	implied, okB := rn.reinvestmentFromGrowth()

	switch {
	case okA && okB:
		if diverges(cashFlow, implied, rn.cfg.Resolution.BlendDivergence) {
			blended := clamp((cashFlow+implied)/2, reinvestMin, reinvestMax)
			rn.note(contracts.NoteWarning, "terminal_reinvestment", fmt.Sprintf(
				"reinvestment estimates diverge (%.1f%% vs %.1f%%), blending to %.1f%%",
				cashFlow*100, implied*100, blended*100))
			return contracts.Field{Value: blended, Source: contracts.SourceDerived, Method: contracts.MethodTwoMethodBlend}
		}
		rn.note(contracts.NoteInfo, "terminal_reinvestment", "resolved from cash flows, cross-checked")
		return contracts.Field{Value: clamp(cashFlow, reinvestMin, reinvestMax), Source: contracts.SourceActual, Method: contracts.MethodCashFlowStatement}
	case okA:
		rn.note(contracts.NoteInfo, "terminal_reinvestment", "resolved from cash flows")
		return contracts.Field{Value: clamp(cashFlow, reinvestMin, reinvestMax), Source: contracts.SourceActual, Method: contracts.MethodCashFlowStatement}
	case okB:
		rn.note(contracts.NoteInfo, "terminal_reinvestment", "resolved from growth-implied rate")
		return contracts.Field{Value: clamp(implied, reinvestMin, reinvestMax), Source: contracts.SourceDerived, Method: contracts.MethodMarketImplied}
	default:
		rn.note(contracts.NoteWarning, "terminal_reinvestment", "no usable estimate, using sector default")
		return contracts.Field{Value: rn.sector.ReinvestmentDefault, Source: contracts.SourceDefault, Method: contracts.MethodSectorDefault}
	}
}

// reinvestmentFromCashFlows computes (capex - depreciation + dNWC) / NOPAT
// for the latest year.
func (rn *run) reinvestmentFromCashFlows(taxRate float64) (float64, bool) {
	ebit, ok1 := rn.rec.Annual(contracts.MetricEBIT, 0)
	capex, ok2 := rn.rec.Annual(contracts.MetricCapex, 0)
	depr, ok3 := rn.rec.Annual(contracts.MetricDepreciation, 0)
	if !ok1 || !ok2 || !ok3 || ebit <= 0 {
		return 0, false
	}

	nopat := ebit * (1 - taxRate)
	if nopat <= 0 {
		return 0, false
	}

	var deltaNWC float64
	wcCur, okCur := rn.rec.Annual(contracts.MetricWorkingCapital, 0)
	wcPrev, okPrev := rn.rec.Annual(contracts.MetricWorkingCapital, 1)
	if okCur && okPrev {
		deltaNWC = wcCur - wcPrev
	}

	rate := (math.Abs(capex) - math.Abs(depr) + deltaNWC) / nopat
	if rate <= 0 || rate > 1.5 {
		return 0, false
	}
	return rate, true
}

// reinvestmentFromGrowth derives the rate the terminal growth assumption
// itself implies: g = reinvestment x ROCE, so reinvestment = g / ROCE.
func (rn *run) reinvestmentFromGrowth() (float64, bool) {
	roce, ok := rn.roceFromCapitalEmployed(rn.cfg.Discount.StatutoryTaxRate)
	if !ok {
		roce, ok = rn.roceFromInvestedCapital(rn.cfg.Discount.StatutoryTaxRate)
	}
	if !ok || roce <= 0 {
		return 0, false
	}

	rate := rn.cfg.Resolution.Growth.TerminalRate / roce
	if rate <= 0 || rate > 1.5 {
		return 0, false
	}
	return rate, true
}

// diverges reports whether two estimates differ by more than the
// threshold, relative to their midpoint.
func diverges(a, b, threshold float64) bool {
	mid := (a + b) / 2
	if mid == 0 {
		return false
	}
	return math.Abs(a-b)/math.Abs(mid) > threshold
}
