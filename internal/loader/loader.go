package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/pkg/logger"
)

// Loader implements contracts.RecordSource over per-company JSON files
// on disk. This is the only place raw source field names exist; the
// record handed to the engine carries normalized Metric keys only.
type Loader struct {
	dir string
	log *logger.Logger
}

// New creates a Loader reading from dir (one <TICKER>.json per company).
func New(dir string, log *logger.Logger) *Loader {
	return &Loader{dir: dir, log: log}
}

// recordFile is the on-disk shape. Periods are ordered newest first;
// the slice position is the period index.
type recordFile struct {
	Ticker  string                  `json:"ticker"`
	Sector  string                  `json:"sector"`
	Group   string                  `json:"group"`
	Periods map[string][]periodFile `json:"periods"`
}

type periodFile struct {
	Label   string             `json:"label,omitempty"` // e.g. "FY2025", "2025Q4"
	Metrics map[string]float64 `json:"metrics"`
}

// Load reads and normalizes one company record.
func (l *Loader) Load(ctx context.Context, ticker string) (*contracts.RawFinancialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, ticker+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", ticker, err)
	}

	var file recordFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", ticker, err)
	}
	if file.Ticker == "" {
		file.Ticker = ticker
	}

	values := make(map[contracts.PeriodKey]float64)
	for rawType, periods := range file.Periods {
		periodType, ok := periodTypes[strings.ToLower(rawType)]
		if !ok {
			l.log.WithField("ticker", ticker).Warnf("unknown period type %q, skipping", rawType)
			continue
		}
		for index, p := range periods {
			for rawName, v := range p.Metrics {
				metric, ok := metricAliases[normalizeName(rawName)]
				if !ok {
					l.log.WithField("ticker", ticker).Debugf("unknown metric %q, skipping", rawName)
					continue
				}
				values[contracts.PeriodKey{Type: periodType, Index: index, Metric: metric}] = v
			}
		}
	}

	rec := contracts.NewRawFinancialRecord(file.Ticker, file.Sector, file.Group, values)
	l.log.WithFields(map[string]interface{}{
		"ticker": rec.Ticker,
		"sector": rec.Sector,
		"values": rec.Len(),
	}).Debug("Record loaded")
	return rec, nil
}

// Tickers lists every company with a record file on disk, sorted.
// The nightly batch uses this as the valuation universe.
func (l *Loader) Tickers(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan records dir: %w", err)
	}

	tickers := make([]string, 0, len(matches))
	for _, m := range matches {
		tickers = append(tickers, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	sort.Strings(tickers)
	return tickers, nil
}

var periodTypes = map[string]contracts.PeriodType{
	"annual":     contracts.PeriodAnnual,
	"fy":         contracts.PeriodAnnual,
	"half":       contracts.PeriodHalf,
	"semiannual": contracts.PeriodHalf,
	"quarter":    contracts.PeriodQuarter,
	"quarterly":  contracts.PeriodQuarter,
}

// normalizeName lowercases and strips separators so "Total Revenue",
// "total_revenue" and "totalRevenue" all hit the same alias.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '_' || r == '-' || r == '&' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// metricAliases maps normalized source field names to engine metrics.
var metricAliases = map[string]contracts.Metric{
	"revenue":      contracts.MetricRevenue,
	"totalrevenue": contracts.MetricRevenue,
	"sales":        contracts.MetricRevenue,
	"netsales":     contracts.MetricRevenue,

	"ebitda":          contracts.MetricEBITDA,
	"ebit":            contracts.MetricEBIT,
	"operatingincome": contracts.MetricEBIT,
	"operatingprofit": contracts.MetricEBIT,

	"netincome": contracts.MetricNetIncome,
	"netprofit": contracts.MetricNetIncome,

	"pretaxincome":    contracts.MetricPretaxIncome,
	"incomebeforetax": contracts.MetricPretaxIncome,

	"taxexpense":       contracts.MetricTaxExpense,
	"incometaxexpense": contracts.MetricTaxExpense,

	"capex":               contracts.MetricCapex,
	"capitalexpenditure":  contracts.MetricCapex,
	"capitalexpenditures": contracts.MetricCapex,

	"depreciation":             contracts.MetricDepreciation,
	"depreciationamortization": contracts.MetricDepreciation,
	"da":                       contracts.MetricDepreciation,

	"grossppe":               contracts.MetricGrossPPE,
	"propertyplantequipment": contracts.MetricGrossPPE,
	"netppe":                 contracts.MetricNetPPE,

	"currentassets":           contracts.MetricCurrentAssets,
	"totalcurrentassets":      contracts.MetricCurrentAssets,
	"currentliabilities":      contracts.MetricCurrentLiab,
	"totalcurrentliabilities": contracts.MetricCurrentLiab,

	"totalassets":        contracts.MetricTotalAssets,
	"totalliabilities":   contracts.MetricTotalLiab,
	"totalequity":        contracts.MetricTotalEquity,
	"stockholdersequity": contracts.MetricTotalEquity,

	"totaldebt":       contracts.MetricTotalDebt,
	"cash":            contracts.MetricCash,
	"cashequivalents": contracts.MetricCash,

	"interestexpense": contracts.MetricInterestExpense,

	"sharesoutstanding": contracts.MetricSharesOut,
	"sharecount":        contracts.MetricSharesOut,
	"marketcap":         contracts.MetricMarketCap,
	"shareprice":        contracts.MetricSharePrice,
	"closeprice":        contracts.MetricSharePrice,
	"beta":              contracts.MetricBeta,

	"capitalemployed": contracts.MetricCapitalEmployed,
	"workingcapital":  contracts.MetricWorkingCapital,
}
