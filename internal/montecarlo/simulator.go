package montecarlo

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/dcf"
	"github.com/valuora/backend/internal/sectorconfig"
)

// reportedPercentiles are the distribution points carried in results.
var reportedPercentiles = []int{10, 25, 50, 75, 90}

// Simulator runs the valuation distribution: N independent DCF trials
// with the growth, margin, terminal growth and discount rate each
// perturbed by a configured normal draw.
//
// Trials are fully independent. With a non-zero seed the run is
// bit-reproducible: each trial derives its own generator from the seed
// and the trial index, so results do not depend on execution order.
type Simulator struct {
	cfg    *sectorconfig.Config
	engine *dcf.Engine
	seed   int64
}

// NewSimulator creates a Simulator. A zero seed picks a wall-clock seed
// per run; pass a fixed seed for reproducible distributions.
func NewSimulator(cfg *sectorconfig.Config, engine *dcf.Engine, seed int64) *Simulator {
	return &Simulator{cfg: cfg, engine: engine, seed: seed}
}

// Simulate returns the per-share value distribution. An error means
// not a single trial produced a usable value; the caller treats that
// leg as unavailable.
func (s *Simulator) Simulate(inputs *contracts.ResolvedInputs, adj contracts.DriverAdjustment, disc dcf.Discount) (*contracts.Distribution, error) {
	mc := s.cfg.MonteCarlo

	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	baseTerminal := inputs.TerminalReinvestment.Value * inputs.TerminalROCE.Value
	if adj.TerminalOverride != nil {
		baseTerminal = *adj.TerminalOverride
	}

	values := make([]float64, 0, mc.Trials)
	for trial := 0; trial < mc.Trials; trial++ {
		rng := rand.New(rand.NewSource(seed + int64(trial)))

		trialInputs := *inputs
		growth := make([]float64, len(inputs.RevenueGrowthRates.Values))
		shift := rng.NormFloat64() * mc.GrowthStdDev
		for i, g := range inputs.RevenueGrowthRates.Values {
			growth[i] = g + shift
		}
		trialInputs.RevenueGrowthRates.Values = growth
		trialInputs.EBITDAMargin.Value += rng.NormFloat64() * mc.MarginStdDev

		terminal := baseTerminal + rng.NormFloat64()*mc.TerminalGrowthStdDev
		trialAdj := adj
		trialAdj.TerminalOverride = &terminal

		trialDisc := disc
		trialDisc.WACC += rng.NormFloat64() * mc.DiscountRateStdDev

		if v, ok := s.engine.Base(&trialInputs, trialAdj, trialDisc); ok {
			values = append(values, v)
		}
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("monte carlo: no trial of %d produced a value", mc.Trials)
	}

	sort.Float64s(values)
	percentiles := make(map[int]float64, len(reportedPercentiles))
	for _, p := range reportedPercentiles {
		percentiles[p] = stat.Quantile(float64(p)/100, stat.Empirical, values, nil)
	}

	return &contracts.Distribution{
		Trials:      len(values),
		Seed:        seed,
		Percentiles: percentiles,
	}, nil
}
