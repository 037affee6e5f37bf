package contracts

import "fmt"

// PeriodType identifies the reporting cadence of a raw financial figure.
type PeriodType string

const (
	PeriodAnnual  PeriodType = "annual"
	PeriodHalf    PeriodType = "half"
	PeriodQuarter PeriodType = "quarter"
)

// Metric names the normalized financial line items the loader emits.
// Raw-source aliases ("totalRevenue", "Sales", ...) are resolved at the
// loader boundary; the engine only ever sees these keys.
type Metric string

const (
	MetricRevenue         Metric = "revenue"
	MetricEBITDA          Metric = "ebitda"
	MetricEBIT            Metric = "ebit"
	MetricNetIncome       Metric = "net_income"
	MetricPretaxIncome    Metric = "pretax_income"
	MetricTaxExpense      Metric = "tax_expense"
	MetricCapex           Metric = "capex"
	MetricDepreciation    Metric = "depreciation"
	MetricGrossPPE        Metric = "gross_ppe"
	MetricNetPPE          Metric = "net_ppe"
	MetricCurrentAssets   Metric = "current_assets"
	MetricCurrentLiab     Metric = "current_liabilities"
	MetricTotalAssets     Metric = "total_assets"
	MetricTotalLiab       Metric = "total_liabilities"
	MetricTotalEquity     Metric = "total_equity"
	MetricTotalDebt       Metric = "total_debt"
	MetricCash            Metric = "cash"
	MetricInterestExpense Metric = "interest_expense"
	MetricSharesOut       Metric = "shares_outstanding"
	MetricMarketCap       Metric = "market_cap"
	MetricSharePrice      Metric = "share_price"
	MetricBeta            Metric = "beta"
	MetricCapitalEmployed Metric = "capital_employed"
	MetricWorkingCapital  Metric = "working_capital"
)

// PeriodKey addresses one figure inside a RawFinancialRecord.
// Index counts back from the most recent period: 0 = latest, 1 = prior, ...
type PeriodKey struct {
	Type   PeriodType `json:"type"`
	Index  int        `json:"index"`
	Metric Metric     `json:"metric"`
}

func (k PeriodKey) String() string {
	return fmt.Sprintf("%s[%d].%s", k.Type, k.Index, k.Metric)
}

// RawFinancialRecord is one company's full historical record: a sparse
// mapping from (period-type, period-index, metric) to a numeric value.
// It is immutable input; engines never write to it.
type RawFinancialRecord struct {
	Ticker string
	Sector string
	Group  string

	values map[PeriodKey]float64
}

// NewRawFinancialRecord builds a record from already-normalized values.
// The map is copied so later mutation by the caller cannot leak in.
func NewRawFinancialRecord(ticker, sector, group string, values map[PeriodKey]float64) *RawFinancialRecord {
	copied := make(map[PeriodKey]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &RawFinancialRecord{
		Ticker: ticker,
		Sector: sector,
		Group:  group,
		values: copied,
	}
}

// Get returns the figure for an exact period key.
func (r *RawFinancialRecord) Get(t PeriodType, index int, m Metric) (float64, bool) {
	v, ok := r.values[PeriodKey{Type: t, Index: index, Metric: m}]
	return v, ok
}

// Annual returns the annual figure yearsAgo years back (0 = latest fiscal year).
func (r *RawFinancialRecord) Annual(m Metric, yearsAgo int) (float64, bool) {
	return r.Get(PeriodAnnual, yearsAgo, m)
}

// LatestAnnual returns the most recent annual figure for a metric.
func (r *RawFinancialRecord) LatestAnnual(m Metric) (float64, bool) {
	return r.Annual(m, 0)
}

// AnnualSeries returns up to n annual figures, newest first. Missing years
// terminate the series: the resolver treats a gap as end-of-history rather
// than interpolating across it.
func (r *RawFinancialRecord) AnnualSeries(m Metric, n int) []float64 {
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v, ok := r.Annual(m, i)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// AnnualYears reports how many consecutive annual periods carry the metric.
func (r *RawFinancialRecord) AnnualYears(m Metric) int {
	n := 0
	for {
		if _, ok := r.Annual(m, n); !ok {
			return n
		}
		n++
	}
}

// Len returns the number of raw figures in the record.
func (r *RawFinancialRecord) Len() int {
	return len(r.values)
}
