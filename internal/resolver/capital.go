package resolver

import (
	"fmt"
	"math"

	"github.com/valuora/backend/internal/contracts"
)

// Sanity bands for capital-structure inputs.
const (
	betaSaneMin       = 0.20
	betaSaneMax       = 3.00
	costOfDebtSaneMin = 0.01
	costOfDebtSaneMax = 0.20
)

// resolveShares resolves the share count, cross-validating the reported
// figure against the market-implied one (market cap over price). When
// the two diverge beyond the configured threshold the market-implied
// figure wins: exchange data reflects splits and buybacks faster than
// filings do.
func (rn *run) resolveShares() contracts.Field {
	reported, okRep := rn.rec.LatestAnnual(contracts.MetricSharesOut)
	okRep = okRep && reported > 0
	implied, okImp := rn.impliedShares()

	switch {
	case okRep && okImp:
		if diverges(reported, implied, rn.cfg.Resolution.ShareCountDivergence) {
			rn.note(contracts.NoteWarning, "shares_outstanding", fmt.Sprintf(
				"reported share count %.0f diverges from market-implied %.0f, using market-implied",
				reported, implied))
			return contracts.Field{Value: implied, Source: contracts.SourceDerived, Method: contracts.MethodMarketImplied}
		}
		rn.note(contracts.NoteInfo, "shares_outstanding", "reported count confirmed by market-implied")
		return contracts.Field{Value: reported, Source: contracts.SourceActual, Method: contracts.MethodReported}
	case okRep:
		rn.note(contracts.NoteInfo, "shares_outstanding", "resolved from reported count")
		return contracts.Field{Value: reported, Source: contracts.SourceActual, Method: contracts.MethodReported}
	case okImp:
		rn.note(contracts.NoteInfo, "shares_outstanding", "resolved from market cap over price")
		return contracts.Field{Value: implied, Source: contracts.SourceDerived, Method: contracts.MethodMarketImplied}
	default:
		rn.note(contracts.NoteWarning, "shares_outstanding", "no share count available")
		return contracts.Field{Value: 0, Source: contracts.SourceDefault, Method: contracts.MethodGlobalDefault}
	}
}

// impliedShares derives the count from market cap and share price.
func (rn *run) impliedShares() (float64, bool) {
	mc, ok1 := rn.rec.LatestAnnual(contracts.MetricMarketCap)
	price, ok2 := rn.rec.LatestAnnual(contracts.MetricSharePrice)
	if !ok1 || !ok2 || mc <= 0 || price <= 0 {
		return 0, false
	}
	return mc / price, true
}

// resolveCash resolves the cash balance used in the EV-to-equity bridge.
// The residual reconstruction can go negative on lopsided balance
// sheets; a negative residual is clamped to zero, never carried.
func (rn *run) resolveCash() contracts.Field {
	return rn.resolveScalar("cash", []step{
		{contracts.SourceActual, contracts.MethodBalanceSheet, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricCash)
			return v, ok && v >= 0
		}},
		{contracts.SourceDerived, contracts.MethodIdentityResidual, func() (float64, bool) {
			ca, ok1 := rn.rec.LatestAnnual(contracts.MetricCurrentAssets)
			cl, ok2 := rn.rec.LatestAnnual(contracts.MetricCurrentLiab)
			wc, ok3 := rn.rec.LatestAnnual(contracts.MetricWorkingCapital)
			if !ok1 || !ok2 || !ok3 {
				return 0, false
			}
			residual := ca - cl - wc
			if residual < 0 {
				residual = 0
			}
			return residual, true
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}

// resolveGrossDebt resolves total interest-bearing debt.
func (rn *run) resolveGrossDebt() contracts.Field {
	return rn.resolveScalar("gross_debt", []step{
		{contracts.SourceActual, contracts.MethodBalanceSheet, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricTotalDebt)
			return v, ok && v >= 0
		}},
		{contracts.SourceDerived, contracts.MethodIdentityResidual, func() (float64, bool) {
			// Long-term liabilities stand in for debt when no debt
			// line is reported. Overstates debt for liability-heavy
			// balance sheets, which errs conservative.
			tl, ok1 := rn.rec.LatestAnnual(contracts.MetricTotalLiab)
			cl, ok2 := rn.rec.LatestAnnual(contracts.MetricCurrentLiab)
			if !ok1 || !ok2 || tl < cl {
				return 0, false
			}
			return tl - cl, true
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return 0, true
		}},
	})
}

// resolveDebtToEquity resolves the leverage ratio used to relever beta.
// Market equity is preferred over book equity.
func (rn *run) resolveDebtToEquity() contracts.Field {
	debt, okDebt := rn.rec.LatestAnnual(contracts.MetricTotalDebt)
	if !okDebt {
		tl, ok1 := rn.rec.LatestAnnual(contracts.MetricTotalLiab)
		cl, ok2 := rn.rec.LatestAnnual(contracts.MetricCurrentLiab)
		if ok1 && ok2 && tl >= cl {
			debt = tl - cl
			okDebt = true
		}
	}

	return rn.resolveScalar("debt_to_equity", []step{
		{contracts.SourceActual, contracts.MethodMarketImplied, func() (float64, bool) {
			mc, ok := rn.rec.LatestAnnual(contracts.MetricMarketCap)
			if !okDebt || !ok || mc <= 0 || debt < 0 {
				return 0, false
			}
			return debt / mc, true
		}},
		{contracts.SourceDerived, contracts.MethodBalanceSheet, func() (float64, bool) {
			eq, ok := rn.rec.LatestAnnual(contracts.MetricTotalEquity)
			if !okDebt || !ok || eq <= 0 || debt < 0 {
				return 0, false
			}
			return debt / eq, true
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return rn.cfg.Discount.DefaultDebtEquity, true
		}},
	})
}

// resolveBeta resolves the equity beta, rejecting values outside the
// plausible band for a listed operating company.
func (rn *run) resolveBeta() contracts.Field {
	return rn.resolveScalar("beta", []step{
		{contracts.SourceActual, contracts.MethodReported, func() (float64, bool) {
			v, ok := rn.rec.LatestAnnual(contracts.MetricBeta)
			return v, ok && inRange(v, betaSaneMin, betaSaneMax)
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return rn.cfg.Discount.DefaultBeta, true
		}},
	})
}

// resolveCostOfDebt resolves the pre-tax cost of debt as interest
// expense over gross debt, within a sane band.
func (rn *run) resolveCostOfDebt() contracts.Field {
	return rn.resolveScalar("cost_of_debt", []step{
		{contracts.SourceDerived, contracts.MethodEffectiveRate, func() (float64, bool) {
			interest, ok1 := rn.rec.LatestAnnual(contracts.MetricInterestExpense)
			debt, ok2 := rn.rec.LatestAnnual(contracts.MetricTotalDebt)
			if !ok1 || !ok2 || debt <= 0 {
				return 0, false
			}
			rate := math.Abs(interest) / debt
			return rate, inRange(rate, costOfDebtSaneMin, costOfDebtSaneMax)
		}},
		{contracts.SourceDefault, contracts.MethodGlobalDefault, func() (float64, bool) {
			return rn.cfg.Discount.DefaultCostOfDebt, true
		}},
	})
}
