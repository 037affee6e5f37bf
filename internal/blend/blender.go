package blend

import (
	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

// Outcome is the blended valuation with the weights actually applied
// and the confidence attached to the run.
type Outcome struct {
	Value      float64
	Weights    contracts.MethodWeights
	Confidence float64
}

// Blender combines the method values into one fair value. Pure
// calculator; weights and confidence parameters come from config.
type Blender struct {
	cfg *sectorconfig.Config
}

// NewBlender creates a Blender.
func NewBlender(cfg *sectorconfig.Config) *Blender {
	return &Blender{cfg: cfg}
}

// Blend combines the available methods. An unavailable method's weight
// is redistributed proportionally across the remaining ones, so the
// applied weights always sum to 1.0. Each missing method also costs a
// confidence penalty on top of the driver-adjusted base confidence.
// With no method available at all, Blend returns ErrNoValuation.
func (b *Blender) Blend(dcf, relative, monteCarlo contracts.MethodValue, confidenceDelta float64) (Outcome, error) {
	base := b.cfg.Blend.Weights

	type leg struct {
		value  contracts.MethodValue
		weight float64
		out    *float64
	}

	var used contracts.MethodWeights
	legs := []leg{
		{dcf, base.DCF, &used.DCF},
		{relative, base.Relative, &used.Relative},
		{monteCarlo, base.MonteCarlo, &used.MonteCarlo},
	}

	var available float64
	missing := 0
	for _, l := range legs {
		if l.value.Available {
			available += l.weight
		} else {
			missing++
		}
	}
	if available == 0 {
		return Outcome{}, contracts.ErrNoValuation
	}

	var blended float64
	for _, l := range legs {
		if !l.value.Available {
			continue
		}
		w := l.weight / available
		*l.out = w
		blended += w * l.value.Value
	}

	confidence := b.cfg.Blend.BaseConfidence + confidenceDelta -
		float64(missing)*b.cfg.Blend.DegradedPenalty
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return Outcome{Value: blended, Weights: used, Confidence: confidence}, nil
}
