package valuation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valuora/backend/internal/blend"
	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/dcf"
	"github.com/valuora/backend/internal/drivers"
	"github.com/valuora/backend/internal/montecarlo"
	"github.com/valuora/backend/internal/relative"
	"github.com/valuora/backend/internal/resolver"
	"github.com/valuora/backend/internal/sectorconfig"
	"github.com/valuora/backend/pkg/logger"
)

// Service runs the full valuation pipeline for one company:
// resolve -> synthesize drivers -> dcf / relative / monte carlo -> blend.
// Strictly sequential per company and free of cross-company state, so
// concurrent calls for different tickers never interact.
type Service struct {
	cfg     *sectorconfig.Config
	records contracts.RecordSource
	drivers contracts.DriverRepository
	peers   contracts.PeerGroupRepository

	resolver     *resolver.Resolver
	driverEngine *drivers.Engine
	dcfEngine    *dcf.Engine
	relEngine    *relative.Engine
	simulator    *montecarlo.Simulator
	blender      *blend.Blender

	log *logger.Logger
}

// NewService wires the engines. A zero seed gives each Monte Carlo run
// a fresh wall-clock seed; a fixed seed makes whole runs reproducible.
func NewService(
	cfg *sectorconfig.Config,
	records contracts.RecordSource,
	driverRepo contracts.DriverRepository,
	peerRepo contracts.PeerGroupRepository,
	seed int64,
	log *logger.Logger,
) *Service {
	dcfEngine := dcf.NewEngine(cfg)
	return &Service{
		cfg:          cfg,
		records:      records,
		drivers:      driverRepo,
		peers:        peerRepo,
		resolver:     resolver.New(cfg, log),
		driverEngine: drivers.NewEngine(cfg),
		dcfEngine:    dcfEngine,
		relEngine:    relative.NewEngine(cfg),
		simulator:    montecarlo.NewSimulator(cfg, dcfEngine, seed),
		blender:      blend.NewBlender(cfg),
		log:          log,
	}
}

// ValueCompany produces the blended valuation for one ticker.
//
// Failure semantics: a missing or unreadable record is a hard error;
// driver and peer lookups degrade (empty snapshot, nil group) because
// the engines are specified to produce a valuation from whatever is
// available. Only the all-methods-unavailable case surfaces as
// contracts.ErrNoValuation.
func (s *Service) ValueCompany(ctx context.Context, ticker string) (*contracts.ValuationResult, error) {
	log := s.log.WithField("ticker", ticker)
	started := time.Now()

	rec, err := s.records.Load(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	inputs := s.resolver.Resolve(rec)

	set, err := s.drivers.Snapshot(ctx, rec.Sector, rec.Group, ticker)
	if err != nil {
		log.WithError(err).Warn("Driver snapshot failed, valuing without drivers")
		set = &contracts.DriverSet{}
	}
	adj := s.driverEngine.Synthesize(set)
	outlook := s.driverEngine.Composite(set)

	disc := s.dcfEngine.DiscountRate(inputs)

	var dcfValue contracts.MethodValue
	scenarios, dcfOK := s.dcfEngine.Project(inputs, adj, disc)
	if dcfOK {
		dcfValue = contracts.Available(scenarios.Base)
	}

	group, err := s.peers.Get(ctx, ticker)
	if err != nil {
		log.WithError(err).Warn("Peer lookup failed, valuing without relative leg")
		group = nil
	}
	var relValue contracts.MethodValue
	if v, ok := s.relEngine.Value(group, inputs, outlook); ok {
		relValue = contracts.Available(v)
	}

	var mcValue contracts.MethodValue
	var dist *contracts.Distribution
	if d, err := s.simulator.Simulate(inputs, adj, disc); err != nil {
		log.WithError(err).Warn("Monte Carlo produced no distribution")
	} else {
		dist = d
		mcValue = contracts.Available(d.Median())
	}

	outcome, err := s.blender.Blend(dcfValue, relValue, mcValue, adj.ConfidenceDelta)
	if err != nil {
		return nil, fmt.Errorf("valuing %s: %w", ticker, err)
	}

	result := &contracts.ValuationResult{
		RunID:             uuid.NewString(),
		Ticker:            ticker,
		DCF:               scenarios,
		Relative:          relValue,
		MonteCarloMedian:  mcValue,
		Distribution:      dist,
		Blended:           outcome.Value,
		UpsidePct:         upsidePct(outcome.Value, inputs.SharePrice.Value),
		ConfidenceScore:   outcome.Confidence,
		MethodWeightsUsed: outcome.Weights,
		Inputs:            inputs,
		CreatedAt:         time.Now().UTC(),
	}

	log.WithFields(map[string]interface{}{
		"run_id":     result.RunID,
		"blended":    result.Blended,
		"confidence": result.ConfidenceScore,
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Info("Valuation complete")
	return result, nil
}

// upsidePct is the percent gap between fair value and the current
// price; zero when the price is unknown.
func upsidePct(fairValue, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (fairValue/price - 1) * 100
}
