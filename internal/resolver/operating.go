package resolver

import (
	"github.com/valuora/backend/internal/contracts"
)

// resolveRevenueBase resolves the starting revenue for the projection.
// Annual figures win; otherwise trailing twelve months are rebuilt from
// quarterly or half-yearly periods. A zero base is left to stand: the
// DCF engine reports itself unavailable on zero revenue and the blender
// handles the degradation.
func (rn *run) resolveRevenueBase() contracts.Field {
	return rn.resolveScalar("revenue_base", []step{
		{contracts.SourceActual, contracts.MethodReported, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricRevenue)
			return v, ok && v > 0
		}},
		{contracts.SourceDerived, contracts.MethodReported, func() (float64, bool) {
			return rn.trailingFromPeriods(contracts.MetricRevenue, contracts.PeriodQuarter, 4)
		}},
		{contracts.SourceDerived, contracts.MethodReported, func() (float64, bool) {
			return rn.trailingFromPeriods(contracts.MetricRevenue, contracts.PeriodHalf, 2)
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}

// trailingFromPeriods sums the most recent n sub-annual periods into a
// trailing-twelve-month figure. All n periods must be present.
func (rn *run) trailingFromPeriods(m contracts.Metric, pt contracts.PeriodType, n int) (float64, bool) {
	var sum float64
	for i := 0; i < n; i++ {
		v, ok := rn.rec.Get(pt, i, m)
		if !ok {
			return 0, false
		}
		sum += v
	}
	if sum <= 0 {
		return 0, false
	}
	return sum, true
}

// resolveEBITDAMargin resolves the modeling margin.
func (rn *run) resolveEBITDAMargin() contracts.Field {
	return rn.resolveScalar("ebitda_margin", []step{
		{contracts.SourceActual, contracts.MethodReported, func() (float64, bool) {
			return rn.averageMargin(3)
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			// EBITDA rebuilt as EBIT plus depreciation.
			ebit, ok1 := rn.rec.LatestAnnual(contracts.MetricEBIT)
			depr, ok2 := rn.rec.LatestAnnual(contracts.MetricDepreciation)
			rev, ok3 := rn.rec.LatestAnnual(contracts.MetricRevenue)
			if !ok1 || !ok2 || !ok3 || rev <= 0 {
				return 0, false
			}
			m := (ebit + depr) / rev
			return m, m > 0 && m <= ratioSaneMax
		}},
		{contracts.SourceDefault, contracts.MethodSectorDefault, func() (float64, bool) {
			return rn.sector.DefaultEBITDAMargin, true
		}},
	})
}

// averageMargin averages EBITDA/revenue over up to years annual periods.
func (rn *run) averageMargin(years int) (float64, bool) {
	var sum float64
	var n int
	for i := 0; i < years; i++ {
		e, ok1 := rn.rec.Annual(contracts.MetricEBITDA, i)
		rev, ok2 := rn.rec.Annual(contracts.MetricRevenue, i)
		if !ok1 || !ok2 || rev <= 0 {
			continue
		}
		m := e / rev
		if m <= 0 || m > ratioSaneMax {
			continue
		}
		sum += m
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Margin drift is capped at one point per year in either direction;
// anything larger is a mix-shift artifact, not a durable trend.
const marginDriftCap = 0.01

// resolveMarginImprovement derives the annual margin drift from the
// three-year margin trend. The DCF engine decays this to zero by the
// terminal year, so it never compounds into permanent expansion.
func (rn *run) resolveMarginImprovement() contracts.Field {
	return rn.resolveScalar("margin_improvement", []step{
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			newest, okNew := rn.marginAt(0)
			oldest, okOld := rn.marginAt(2)
			if !okNew || !okOld {
				return 0, false
			}
			return clamp((newest-oldest)/2, -marginDriftCap, marginDriftCap), true
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}

// marginAt returns the EBITDA margin for one annual period.
func (rn *run) marginAt(yearsAgo int) (float64, bool) {
	e, ok1 := rn.rec.Annual(contracts.MetricEBITDA, yearsAgo)
	rev, ok2 := rn.rec.Annual(contracts.MetricRevenue, yearsAgo)
	if !ok1 || !ok2 || rev <= 0 {
		return 0, false
	}
	m := e / rev
	if m <= 0 || m > ratioSaneMax {
		return 0, false
	}
	return m, true
}

// resolveTrailingEBITDA resolves the trailing metric the relative
// engine applies peer multiples to.
func (rn *run) resolveTrailingEBITDA(revenueBase, margin contracts.Field) contracts.Field {
	return rn.resolveScalar("trailing_ebitda", []step{
		{contracts.SourceActual, contracts.MethodReported, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricEBITDA)
			return v, ok && v > 0
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheetDelta, func() (float64, bool) {
			v := revenueBase.Value * margin.Value
			return v, v > 0
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}

// resolveSharePrice resolves the current share price used for the
// upside calculation; zero means "unknown" and upside is not computed.
func (rn *run) resolveSharePrice(shares float64) contracts.Field {
	return rn.resolveScalar("share_price", []step{
		{contracts.SourceActual, contracts.MethodReported, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricSharePrice)
			return v, ok && v > 0
		}},
		{contracts.SourceDerived, contracts.MethodMarketImplied, func() (float64, bool) {
			mc, ok := rn.rec.LatestAnnual(contracts.MetricMarketCap)
			if !ok || mc <= 0 || shares <= 0 {
				return 0, false
			}
			return mc / shares, true
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}
