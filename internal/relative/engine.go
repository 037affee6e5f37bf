package relative

import (
	"math"
	"sort"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

// Engine prices a company off its peer group's EV/EBITDA multiples.
// Pure calculator; peer selection and caching live elsewhere.
type Engine struct {
	cfg *sectorconfig.Config
}

// NewEngine creates an Engine.
func NewEngine(cfg *sectorconfig.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Value returns the per-share relative valuation. The boolean is false
// whenever no defensible number exists: empty peer group, no trailing
// EBITDA, no share count. A missing relative leg is a real state the
// blender must see, never a fabricated figure.
//
// The applied multiple is the weighted median across peers (tight tier
// counts double), blended across the current, peer-median and
// historical observations, then tilted by the sector outlook score.
func (e *Engine) Value(group *contracts.PeerGroup, inputs *contracts.ResolvedInputs, outlookScore float64) (float64, bool) {
	if group.Empty() {
		return 0, false
	}
	ebitda := inputs.TrailingEBITDA.Value
	shares := inputs.SharesOutstanding.Value
	if ebitda <= 0 || shares <= 0 {
		return 0, false
	}

	multiple, ok := e.blendedMultiple(group)
	if !ok {
		return 0, false
	}

	multiple *= 1 + clampScore(outlookScore)*e.cfg.Relative.OutlookSensitivity

	ev := multiple * ebitda
	equity := ev - inputs.GrossDebt.Value + inputs.Cash.Value
	perShare := equity / shares
	if math.IsNaN(perShare) || math.IsInf(perShare, 0) || perShare <= 0 {
		return 0, false
	}
	return perShare, true
}

// observation picks one multiple out of a peer's MultipleSet.
type observation func(contracts.MultipleSet) float64

// blendedMultiple combines the three observation kinds with the
// configured weights, renormalizing over the observations that have any
// usable peer data.
func (e *Engine) blendedMultiple(group *contracts.PeerGroup) (float64, bool) {
	ow := e.cfg.Relative.ObservationWeights
	kinds := []struct {
		weight float64
		pick   observation
	}{
		{ow.Current, func(m contracts.MultipleSet) float64 { return m.Current }},
		{ow.Median, func(m contracts.MultipleSet) float64 { return m.Median }},
		{ow.Historical, func(m contracts.MultipleSet) float64 { return m.Historical }},
	}

	var blended, totalWeight float64
	for _, k := range kinds {
		med, ok := e.weightedMedian(group, k.pick)
		if !ok {
			continue
		}
		blended += k.weight * med
		totalWeight += k.weight
	}
	if totalWeight == 0 {
		return 0, false
	}
	return blended / totalWeight, true
}

// weightedMedian computes the tier-weighted median of one observation
// across the whole group. Non-positive multiples are dropped.
func (e *Engine) weightedMedian(group *contracts.PeerGroup, pick observation) (float64, bool) {
	type weighted struct {
		value  float64
		weight float64
	}

	var obs []weighted
	var total float64
	add := func(peers []contracts.Peer, weight float64) {
		for _, p := range peers {
			v := pick(p.Multiples)
			if v <= 0 {
				continue
			}
			obs = append(obs, weighted{value: v, weight: weight})
			total += weight
		}
	}
	add(group.Tight, e.cfg.Relative.TightWeight)
	add(group.Broad, e.cfg.Relative.BroadWeight)

	if len(obs) == 0 {
		return 0, false
	}

	sort.Slice(obs, func(i, j int) bool { return obs[i].value < obs[j].value })

	half := total / 2
	var cum float64
	for _, o := range obs {
		cum += o.weight
		if cum >= half {
			return o.value, true
		}
	}
	return obs[len(obs)-1].value, true
}

// clampScore bounds the outlook score to the documented [-1, 1] band.
func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
