package resolver

import (
	"fmt"
	"math"

	"github.com/valuora/backend/internal/contracts"
)

// Growth sanity bounds: a starting growth rate outside this band means
// the underlying figures are unusable (currency breaks, restatements).
const (
	growthSaneMin = -0.50
	growthSaneMax = 1.00
)

// growthFlags computes the expansion-phase signals once per run.
func (rn *run) growthFlags() growthPhaseFlags {
	var f growthPhaseFlags

	if cagr, ok := rn.revenueCAGR(3); ok {
		f.CAGR3 = cagr
		f.HasCAGR3 = true
	}
	if yoy, ok := rn.revenueYoY(); ok {
		f.YoY = yoy
		f.HasYoY = true
	}

	gp := rn.cfg.Resolution.GrowthPhase
	f.InGrowthPhase = (f.HasCAGR3 && f.CAGR3 > gp.CAGR3YThreshold) ||
		(f.HasYoY && f.YoY > gp.YoYThreshold)
	return f
}

// revenueCAGR computes the compound annual revenue growth over n years.
// Requires n+1 annual data points with positive endpoints.
func (rn *run) revenueCAGR(n int) (float64, bool) {
	latest, ok1 := rn.rec.Annual(contracts.MetricRevenue, 0)
	oldest, ok2 := rn.rec.Annual(contracts.MetricRevenue, n)
	if !ok1 || !ok2 || latest <= 0 || oldest <= 0 {
		return 0, false
	}
	return math.Pow(latest/oldest, 1.0/float64(n)) - 1, true
}

// revenueYoY computes the most recent year-over-year revenue growth.
func (rn *run) revenueYoY() (float64, bool) {
	latest, ok1 := rn.rec.Annual(contracts.MetricRevenue, 0)
	prior, ok2 := rn.rec.Annual(contracts.MetricRevenue, 1)
	if !ok1 || !ok2 || latest <= 0 || prior <= 0 {
		return 0, false
	}
	return latest/prior - 1, true
}

// resolveGrowthTrajectory builds the per-year revenue growth series.
//
// Chain:
//  1. 60/40 blend of 3y and 5y CAGR, decayed linearly to the terminal
//     rate over five years (3y CAGR alone qualifies when no 5y history).
//  2. dampened most-recent YoY growth (x0.8, clamped to the configured
//     band), same decay.
//  3. fixed declining default sequence.
func (rn *run) resolveGrowthTrajectory() contracts.Series {
	g := rn.cfg.Resolution.Growth
	horizon := rn.cfg.DCF.HorizonYears

	if start, ok := rn.blendedCAGR(); ok {
		rn.note(contracts.NoteInfo, "revenue_growth_rates",
			fmt.Sprintf("trajectory from CAGR blend, start %.1f%%", start*100))
		return contracts.Series{
			Values: decayToTerminal(start, g.TerminalRate, horizon),
			Source: contracts.SourceActual,
			Method: contracts.MethodCAGRBlend,
		}
	}

	if yoy, ok := rn.revenueYoY(); ok && inRange(yoy, growthSaneMin, growthSaneMax) {
		start := clamp(yoy*g.YoYDampening, g.YoYFloor, g.YoYCap)
		rn.note(contracts.NoteInfo, "revenue_growth_rates",
			fmt.Sprintf("trajectory from dampened YoY %.1f%% -> %.1f%%", yoy*100, start*100))
		return contracts.Series{
			Values: decayToTerminal(start, g.TerminalRate, horizon),
			Source: contracts.SourceDerived,
			Method: contracts.MethodDampedYoY,
		}
	}

	rn.note(contracts.NoteWarning, "revenue_growth_rates", "no usable revenue history, using default trajectory")
	return contracts.Series{
		Values: fitTrajectory(g.DefaultTrajectory, horizon),
		Source: contracts.SourceDefault,
		Method: contracts.MethodGlobalDefault,
	}
}

// blendedCAGR returns the 60/40 blend of 3y and 5y CAGR when the 3y leg
// is available and sane. A missing 5y leg falls back to the 3y figure
// alone rather than failing the whole step.
func (rn *run) blendedCAGR() (float64, bool) {
	g := rn.cfg.Resolution.Growth

	cagr3, ok3 := rn.revenueCAGR(3)
	if !ok3 || !inRange(cagr3, growthSaneMin, growthSaneMax) {
		return 0, false
	}

	cagr5, ok5 := rn.revenueCAGR(5)
	if !ok5 || !inRange(cagr5, growthSaneMin, growthSaneMax) {
		return cagr3, true
	}
	return cagr3*g.CAGRBlend3Y + cagr5*g.CAGRBlend5Y, true
}

// decayToTerminal interpolates linearly from start to terminal over the
// first five years, then holds terminal for the rest of the horizon.
func decayToTerminal(start, terminal float64, horizon int) []float64 {
	const decayYears = 5

	out := make([]float64, horizon)
	for i := range out {
		if i >= decayYears-1 {
			out[i] = terminal
			continue
		}
		frac := float64(i) / float64(decayYears-1)
		out[i] = start + (terminal-start)*frac
	}
	return out
}

// fitTrajectory stretches or truncates the default sequence to the
// horizon, repeating the final (terminal) rate as needed.
func fitTrajectory(defaults []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		if i < len(defaults) {
			out[i] = defaults[i]
		} else {
			out[i] = defaults[len(defaults)-1]
		}
	}
	return out
}
