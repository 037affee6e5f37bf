package drivers

import (
	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

// TerminalGrowthDriver is the reserved company-level driver name whose
// value is an absolute terminal growth rate rather than a signed score.
const TerminalGrowthDriver = "terminal_growth"

// Engine synthesizes a four-level driver hierarchy into a handful of
// scalar adjustments. It is a pure calculator over the snapshot; all
// sensitivities come from configuration.
type Engine struct {
	cfg *sectorconfig.Config
}

// NewEngine creates an Engine.
func NewEngine(cfg *sectorconfig.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Synthesize collapses the snapshot into additive deltas.
//
// Each level is reduced to a weighted average of its driver values with
// the weights renormalized over what is actually present; levels are
// then combined with the configured level weights, again renormalized
// over the levels that have any drivers. A missing level shifts weight
// to the remaining levels instead of silently dragging the composite
// toward zero.
func (e *Engine) Synthesize(set *contracts.DriverSet) contracts.DriverAdjustment {
	var adj contracts.DriverAdjustment
	if set == nil {
		return adj
	}

	company, terminalOverride := splitTerminal(set.Company)

	composite := e.composite(set.Macro, set.Group, set.Subgroup, company)
	adj.GrowthDelta = composite * e.cfg.Drivers.GrowthSensitivity
	adj.MarginDelta = composite * e.cfg.Drivers.MarginSensitivity
	adj.ConfidenceDelta = composite * e.cfg.Drivers.ConfidenceSensitivity
	adj.TerminalOverride = terminalOverride
	return adj
}

// Composite returns the raw level-weighted driver score in [-1, 1].
// The relative engine uses it as the sector outlook tilt.
func (e *Engine) Composite(set *contracts.DriverSet) float64 {
	if set == nil {
		return 0
	}
	company, _ := splitTerminal(set.Company)
	return e.composite(set.Macro, set.Group, set.Subgroup, company)
}

func (e *Engine) composite(macro, group, subgroup, company []contracts.Driver) float64 {
	lw := e.cfg.Drivers.LevelWeights
	levels := []struct {
		weight  float64
		drivers []contracts.Driver
	}{
		{lw.Macro, macro},
		{lw.Group, group},
		{lw.Subgroup, subgroup},
		{lw.Company, company},
	}

	var weighted, totalWeight float64
	for _, lvl := range levels {
		score, ok := levelScore(lvl.drivers)
		if !ok {
			continue
		}
		weighted += lvl.weight * score
		totalWeight += lvl.weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// splitTerminal separates the terminal-growth override driver from the
// scored company drivers.
func splitTerminal(drivers []contracts.Driver) ([]contracts.Driver, *float64) {
	var scored []contracts.Driver
	var override *float64
	for _, d := range drivers {
		if d.Name == TerminalGrowthDriver {
			v := d.Value
			override = &v
			continue
		}
		scored = append(scored, d)
	}
	return scored, override
}

// levelScore reduces one level to its weight-renormalized average.
// Driver values are clamped to the documented [-1, 1] band first.
func levelScore(drivers []contracts.Driver) (float64, bool) {
	var sum, weight float64
	for _, d := range drivers {
		if d.Weight <= 0 {
			continue
		}
		v := d.Value
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		sum += v * d.Weight
		weight += d.Weight
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}
