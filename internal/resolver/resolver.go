package resolver

import (
	"fmt"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
	"github.com/valuora/backend/pkg/logger"
)

// Resolver converts a raw historical record into the normalized modeling
// inputs. It is a pure calculator: Resolve never fails, every metric
// degrades through its fallback chain to a sector or global default.
type Resolver struct {
	cfg *sectorconfig.Config
	log *logger.Logger
}

// New creates a Resolver.
func New(cfg *sectorconfig.Config, log *logger.Logger) *Resolver {
	return &Resolver{cfg: cfg, log: log}
}

// Resolve produces the full input set for one company. The returned
// struct is fresh per call; nothing is cached across runs.
func (r *Resolver) Resolve(rec *contracts.RawFinancialRecord) *contracts.ResolvedInputs {
	rn := &run{
		rec:    rec,
		cfg:    r.cfg,
		sector: r.cfg.SectorProfile(rec.Sector),
		log:    r.log.WithField("ticker", rec.Ticker),
	}
	rn.flags = rn.growthFlags()

	inputs := &contracts.ResolvedInputs{
		Ticker: rec.Ticker,
		Sector: rec.Sector,
	}

	// Operating model.
	inputs.RevenueBase = rn.resolveRevenueBase()
	inputs.RevenueGrowthRates = rn.resolveGrowthTrajectory()
	inputs.EBITDAMargin = rn.resolveEBITDAMargin()
	inputs.MarginImprovement = rn.resolveMarginImprovement()
	inputs.CapexToSales = rn.resolveCapexRatio()
	inputs.DepreciationToSales = rn.resolveDepreciationRatio()
	inputs.NWCToSales = rn.resolveNWCRatio()
	inputs.TaxRate = rn.resolveTaxRate()

	// Terminal economics.
	inputs.TerminalROCE = rn.resolveTerminalROCE(inputs.TaxRate.Value)
	inputs.TerminalReinvestment = rn.resolveTerminalReinvestment(inputs.TaxRate.Value)

	// Capital structure and per-share context.
	inputs.SharesOutstanding = rn.resolveShares()
	inputs.Cash = rn.resolveCash()
	inputs.GrossDebt = rn.resolveGrossDebt()
	inputs.DebtToEquity = rn.resolveDebtToEquity()
	inputs.Beta = rn.resolveBeta()
	inputs.CostOfDebt = rn.resolveCostOfDebt()
	inputs.TrailingEBITDA = rn.resolveTrailingEBITDA(inputs.RevenueBase, inputs.EBITDAMargin)
	inputs.SharePrice = rn.resolveSharePrice(inputs.SharesOutstanding.Value)

	inputs.Notes = rn.notes

	for _, n := range rn.notes {
		if n.Level == contracts.NoteWarning {
			rn.log.WithField("metric", n.Metric).Warn(n.Text)
		} else {
			rn.log.WithField("metric", n.Metric).Debug(n.Text)
		}
	}

	return inputs
}

// growthPhaseFlags captures the expansion-phase signals used by the
// ratio anomaly guards.
type growthPhaseFlags struct {
	CAGR3         float64
	YoY           float64
	HasCAGR3      bool
	HasYoY        bool
	InGrowthPhase bool
}

// run carries per-call state so Resolver itself stays stateless.
type run struct {
	rec    *contracts.RawFinancialRecord
	cfg    *sectorconfig.Config
	sector sectorconfig.Sector
	log    *logger.Logger

	flags growthPhaseFlags
	notes []contracts.ResolutionNote
}

// step is one link of a fallback chain: a resolution attempt with the
// provenance it would confer.
type step struct {
	source contracts.Source
	method contracts.Method
	try    func() (float64, bool)
}

// resolveScalar walks a chain until a step yields a usable value. The
// last step of every chain is a constant default, so this cannot fail.
func (rn *run) resolveScalar(metric string, steps []step) contracts.Field {
	for i, s := range steps {
		v, ok := s.try()
		if !ok {
			continue
		}
		level := contracts.NoteInfo
		if s.source == contracts.SourceDefault && i > 0 {
			level = contracts.NoteWarning
		}
		rn.note(level, metric, fmt.Sprintf("resolved via %s (%s, step %d/%d)", s.method, s.source, i+1, len(steps)))
		return contracts.Field{Value: v, Source: s.source, Method: s.method}
	}
	// Unreachable when chains are well-formed; guard against a
	// misconfigured chain rather than returning an untagged zero.
	rn.note(contracts.NoteWarning, metric, "resolution chain exhausted, using zero default")
	return contracts.Field{Value: 0, Source: contracts.SourceDefault, Method: contracts.MethodGlobalDefault}
}

func (rn *run) note(level contracts.NoteLevel, metric, text string) {
	rn.notes = append(rn.notes, contracts.ResolutionNote{Level: level, Metric: metric, Text: text})
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// inRange reports lo <= v <= hi.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
