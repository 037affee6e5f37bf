package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
	"github.com/valuora/backend/pkg/logger"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	cfg := sectorconfig.Default()
	require.NoError(t, sectorconfig.Validate(cfg))
	return New(cfg, logger.NewNop())
}

func ann(m contracts.Metric, yearsAgo int) contracts.PeriodKey {
	return contracts.PeriodKey{Type: contracts.PeriodAnnual, Index: yearsAgo, Metric: m}
}

func quarter(m contracts.Metric, idx int) contracts.PeriodKey {
	return contracts.PeriodKey{Type: contracts.PeriodQuarter, Index: idx, Metric: m}
}

func record(sector string, values map[contracts.PeriodKey]float64) *contracts.RawFinancialRecord {
	return contracts.NewRawFinancialRecord("TEST", sector, "test-group", values)
}

// steadyCompany is a mature business with full reporting history and no
// expansion-phase distortion.
func steadyCompany() *contracts.RawFinancialRecord {
	return record("default", map[contracts.PeriodKey]float64{
		ann(contracts.MetricRevenue, 0): 1000,
		ann(contracts.MetricRevenue, 1): 950,
		ann(contracts.MetricRevenue, 2): 900,
		ann(contracts.MetricRevenue, 3): 870,

		ann(contracts.MetricEBITDA, 0): 220,
		ann(contracts.MetricEBITDA, 1): 200,
		ann(contracts.MetricEBITDA, 2): 190,

		ann(contracts.MetricEBIT, 0): 175,
		ann(contracts.MetricEBIT, 1): 160,
		ann(contracts.MetricEBIT, 2): 150,

		ann(contracts.MetricCapex, 0): 60,
		ann(contracts.MetricCapex, 1): 55,
		ann(contracts.MetricCapex, 2): 50,

		ann(contracts.MetricDepreciation, 0): 45,
		ann(contracts.MetricDepreciation, 1): 42,
		ann(contracts.MetricDepreciation, 2): 40,

		ann(contracts.MetricWorkingCapital, 0): 50,
		ann(contracts.MetricWorkingCapital, 1): 48,

		ann(contracts.MetricPretaxIncome, 0): 150,
		ann(contracts.MetricPretaxIncome, 1): 140,
		ann(contracts.MetricPretaxIncome, 2): 130,
		ann(contracts.MetricTaxExpense, 0):   37.5,
		ann(contracts.MetricTaxExpense, 1):   35,
		ann(contracts.MetricTaxExpense, 2):   32.5,

		ann(contracts.MetricTotalAssets, 0): 1500,
		ann(contracts.MetricTotalAssets, 1): 1450,
		ann(contracts.MetricTotalAssets, 2): 1400,
		ann(contracts.MetricCurrentLiab, 0): 200,
		ann(contracts.MetricCurrentLiab, 1): 190,
		ann(contracts.MetricCurrentLiab, 2): 180,

		ann(contracts.MetricTotalDebt, 0):       300,
		ann(contracts.MetricInterestExpense, 0): 18,
		ann(contracts.MetricCash, 0):            120,
		ann(contracts.MetricTotalEquity, 0):     700,

		ann(contracts.MetricSharesOut, 0):  100,
		ann(contracts.MetricMarketCap, 0):  1050,
		ann(contracts.MetricSharePrice, 0): 10.5,
		ann(contracts.MetricBeta, 0):       1.1,
	})
}

func TestResolveSteadyCompany(t *testing.T) {
	r := newTestResolver(t)
	inputs := r.Resolve(steadyCompany())

	require.True(t, inputs.Complete())
	assert.Equal(t, "TEST", inputs.Ticker)

	assert.Equal(t, 1000.0, inputs.RevenueBase.Value)
	assert.Equal(t, contracts.SourceActual, inputs.RevenueBase.Source)

	assert.Equal(t, contracts.SourceActual, inputs.EBITDAMargin.Source)
	assert.InDelta(t, 0.214, inputs.EBITDAMargin.Value, 0.005)

	// No guard fires: the ratios stay at their historical averages.
	assert.Equal(t, contracts.SourceActual, inputs.CapexToSales.Source)
	assert.NotEqual(t, contracts.MethodSteadyState, inputs.CapexToSales.Method)
	assert.InDelta(t, 0.058, inputs.CapexToSales.Value, 0.005)

	assert.Equal(t, contracts.SourceActual, inputs.TaxRate.Source)
	assert.InDelta(t, 0.25, inputs.TaxRate.Value, 0.001)

	assert.Equal(t, contracts.MethodCAGRBlend, inputs.RevenueGrowthRates.Method)
	assert.Len(t, inputs.RevenueGrowthRates.Values, r.cfg.DCF.HorizonYears)

	assert.Equal(t, 100.0, inputs.SharesOutstanding.Value)
	assert.Equal(t, contracts.SourceActual, inputs.SharesOutstanding.Source)

	assert.InDelta(t, 0.06, inputs.CostOfDebt.Value, 1e-9)
	assert.Equal(t, contracts.SourceDerived, inputs.CostOfDebt.Source)

	assert.Equal(t, 1.1, inputs.Beta.Value)
	assert.Equal(t, 10.5, inputs.SharePrice.Value)
}

func TestGrowthPhaseCapexOverride(t *testing.T) {
	// Hypergrowth history: 35% three-year CAGR with a 28% capex ratio.
	// The historical ratio must not survive into the projection; the
	// sector steady-state takes over.
	rec := record("default", map[contracts.PeriodKey]float64{
		ann(contracts.MetricRevenue, 0): 1000,
		ann(contracts.MetricRevenue, 1): 740,
		ann(contracts.MetricRevenue, 2): 550,
		ann(contracts.MetricRevenue, 3): 406,

		ann(contracts.MetricCapex, 0): 280,
		ann(contracts.MetricCapex, 1): 210,
		ann(contracts.MetricCapex, 2): 150,
	})

	r := newTestResolver(t)
	inputs := r.Resolve(rec)

	require.True(t, inputs.Complete())

	steady := r.cfg.Sectors["default"].SteadyStateCapex
	assert.Equal(t, steady, inputs.CapexToSales.Value)
	assert.Equal(t, contracts.SourceDefault, inputs.CapexToSales.Source)
	assert.Equal(t, contracts.MethodSteadyState, inputs.CapexToSales.Method)

	var warned bool
	for _, n := range inputs.Notes {
		if n.Metric == "capex_to_sales" && n.Level == contracts.NoteWarning {
			warned = true
		}
	}
	assert.True(t, warned, "expected a warning note for the capex override")

	// The growth trajectory itself still reflects the real history.
	assert.Equal(t, contracts.MethodCAGRBlend, inputs.RevenueGrowthRates.Method)
	assert.InDelta(t, 0.35, inputs.RevenueGrowthRates.Values[0], 0.01)
	last := inputs.RevenueGrowthRates.Values[len(inputs.RevenueGrowthRates.Values)-1]
	assert.InDelta(t, r.cfg.Resolution.Growth.TerminalRate, last, 1e-9)
}

func TestResolveEmptyRecordDefaults(t *testing.T) {
	r := newTestResolver(t)
	inputs := r.Resolve(record("default", nil))

	// Resolution never fails: an empty record degrades to defaults on
	// every single field.
	require.True(t, inputs.Complete())

	for name, f := range inputs.Fields() {
		assert.Equal(t, contracts.SourceDefault, f.Source, "field %s", name)
	}

	assert.Equal(t, 0.18, inputs.EBITDAMargin.Value)
	assert.Equal(t, 1.0, inputs.Beta.Value)
	assert.Equal(t, 0.065, inputs.CostOfDebt.Value)
	assert.Equal(t, 0.40, inputs.DebtToEquity.Value)
	assert.Equal(t, 0.25, inputs.TaxRate.Value)

	assert.Equal(t, contracts.SourceDefault, inputs.RevenueGrowthRates.Source)
	assert.Len(t, inputs.RevenueGrowthRates.Values, r.cfg.DCF.HorizonYears)
}

func TestResolveUnknownSectorFallsBack(t *testing.T) {
	r := newTestResolver(t)
	inputs := r.Resolve(record("shipping", nil))

	require.True(t, inputs.Complete())
	assert.Equal(t, r.cfg.Sectors["default"].DefaultEBITDAMargin, inputs.EBITDAMargin.Value)
}

func TestShareCountCrossValidation(t *testing.T) {
	tests := []struct {
		name       string
		reported   float64
		marketCap  float64
		price      float64
		wantValue  float64
		wantMethod contracts.Method
	}{
		{
			name:      "agreement keeps reported",
			reported:  100, marketCap: 1050, price: 10.5,
			wantValue: 100, wantMethod: contracts.MethodReported,
		},
		{
			name:      "divergence prefers market-implied",
			reported:  100, marketCap: 1300, price: 10,
			wantValue: 130, wantMethod: contracts.MethodMarketImplied,
		},
	}

	r := newTestResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := r.Resolve(record("default", map[contracts.PeriodKey]float64{
				ann(contracts.MetricSharesOut, 0):  tt.reported,
				ann(contracts.MetricMarketCap, 0):  tt.marketCap,
				ann(contracts.MetricSharePrice, 0): tt.price,
			}))
			assert.InDelta(t, tt.wantValue, inputs.SharesOutstanding.Value, 1e-9)
			assert.Equal(t, tt.wantMethod, inputs.SharesOutstanding.Method)
		})
	}
}

func TestTaxRateTwoMethodBlend(t *testing.T) {
	r := newTestResolver(t)

	t.Run("latest year diverging from average blends", func(t *testing.T) {
		// Effective rates 40% / 10% / 10%: the three-year average (20%)
		// and the latest single year (40%) diverge well past the
		// threshold, so neither is trusted alone.
		inputs := r.Resolve(record("default", map[contracts.PeriodKey]float64{
			ann(contracts.MetricPretaxIncome, 0): 100,
			ann(contracts.MetricPretaxIncome, 1): 100,
			ann(contracts.MetricPretaxIncome, 2): 100,
			ann(contracts.MetricTaxExpense, 0):   40,
			ann(contracts.MetricTaxExpense, 1):   10,
			ann(contracts.MetricTaxExpense, 2):   10,
		}))

		assert.InDelta(t, 0.30, inputs.TaxRate.Value, 1e-9)
		assert.Equal(t, contracts.SourceDerived, inputs.TaxRate.Source)
		assert.Equal(t, contracts.MethodTwoMethodBlend, inputs.TaxRate.Method)

		var warned bool
		for _, n := range inputs.Notes {
			if n.Metric == "tax_rate" && n.Level == contracts.NoteWarning {
				warned = true
			}
		}
		assert.True(t, warned, "expected a warning note for the tax rate blend")
	})

	t.Run("agreeing estimates keep the average", func(t *testing.T) {
		inputs := r.Resolve(record("default", map[contracts.PeriodKey]float64{
			ann(contracts.MetricPretaxIncome, 0): 100,
			ann(contracts.MetricPretaxIncome, 1): 100,
			ann(contracts.MetricPretaxIncome, 2): 100,
			ann(contracts.MetricTaxExpense, 0):   25,
			ann(contracts.MetricTaxExpense, 1):   26,
			ann(contracts.MetricTaxExpense, 2):   24,
		}))

		assert.InDelta(t, 0.25, inputs.TaxRate.Value, 1e-9)
		assert.Equal(t, contracts.SourceActual, inputs.TaxRate.Source)
		assert.Equal(t, contracts.MethodEffectiveRate, inputs.TaxRate.Method)
	})
}

func TestCashResidualClampsToZero(t *testing.T) {
	rec := record("default", map[contracts.PeriodKey]float64{
		ann(contracts.MetricCurrentAssets, 0):  100,
		ann(contracts.MetricCurrentLiab, 0):    80,
		ann(contracts.MetricWorkingCapital, 0): 40,
	})

	r := newTestResolver(t)
	inputs := r.Resolve(rec)

	assert.Equal(t, 0.0, inputs.Cash.Value)
	assert.Equal(t, contracts.SourceDerived, inputs.Cash.Source)
	assert.Equal(t, contracts.MethodIdentityResidual, inputs.Cash.Method)
}

func TestRevenueBaseFromQuarters(t *testing.T) {
	rec := record("default", map[contracts.PeriodKey]float64{
		quarter(contracts.MetricRevenue, 0): 260,
		quarter(contracts.MetricRevenue, 1): 250,
		quarter(contracts.MetricRevenue, 2): 245,
		quarter(contracts.MetricRevenue, 3): 245,
	})

	r := newTestResolver(t)
	inputs := r.Resolve(rec)

	assert.Equal(t, 1000.0, inputs.RevenueBase.Value)
	assert.Equal(t, contracts.SourceDerived, inputs.RevenueBase.Source)
}

func TestBetaSanityBand(t *testing.T) {
	r := newTestResolver(t)

	inputs := r.Resolve(record("default", map[contracts.PeriodKey]float64{
		ann(contracts.MetricBeta, 0): 7.5,
	}))

	assert.Equal(t, r.cfg.Discount.DefaultBeta, inputs.Beta.Value)
	assert.Equal(t, contracts.SourceDefault, inputs.Beta.Source)
}
