package blend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

func TestBlendAllMethodsAvailable(t *testing.T) {
	b := NewBlender(sectorconfig.Default())

	out, err := b.Blend(
		contracts.Available(100),
		contracts.Available(90),
		contracts.Available(110),
		0,
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.6*100+0.3*90+0.1*110, out.Value, 1e-9)
	assert.InDelta(t, 1.0, out.Weights.Sum(), 1e-9)
	assert.InDelta(t, 0.70, out.Confidence, 1e-9)
}

func TestBlendRedistributesMissingRelative(t *testing.T) {
	// The canonical degradation: no peer group, so the relative leg is
	// missing and its 0.30 is split proportionally between DCF and MC.
	b := NewBlender(sectorconfig.Default())

	out, err := b.Blend(
		contracts.Available(100),
		contracts.Unavailable(),
		contracts.Available(100),
		0,
	)
	require.NoError(t, err)

	assert.InDelta(t, 0.6/0.7, out.Weights.DCF, 1e-6)        // 0.857...
	assert.InDelta(t, 0.1/0.7, out.Weights.MonteCarlo, 1e-6) // 0.142...
	assert.Zero(t, out.Weights.Relative)
	assert.InDelta(t, 1.0, out.Weights.Sum(), 1e-9)
	assert.InDelta(t, 100.0, out.Value, 1e-9)

	// One missing method costs one degradation penalty.
	assert.InDelta(t, 0.70-0.15, out.Confidence, 1e-9)
}

func TestBlendSingleMethod(t *testing.T) {
	b := NewBlender(sectorconfig.Default())

	out, err := b.Blend(
		contracts.Available(42),
		contracts.Unavailable(),
		contracts.Unavailable(),
		0,
	)
	require.NoError(t, err)

	assert.InDelta(t, 42.0, out.Value, 1e-9)
	assert.InDelta(t, 1.0, out.Weights.DCF, 1e-9)
	assert.InDelta(t, 0.70-2*0.15, out.Confidence, 1e-9)
}

func TestBlendNothingAvailable(t *testing.T) {
	b := NewBlender(sectorconfig.Default())

	_, err := b.Blend(contracts.Unavailable(), contracts.Unavailable(), contracts.Unavailable(), 0)
	assert.ErrorIs(t, err, contracts.ErrNoValuation)
}

func TestBlendConfidenceDelta(t *testing.T) {
	b := NewBlender(sectorconfig.Default())

	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"positive drivers lift confidence", 0.10, 0.80},
		{"negative drivers cut confidence", -0.10, 0.60},
		{"confidence clamps at 1.0", 0.50, 1.00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := b.Blend(contracts.Available(100), contracts.Available(100), contracts.Available(100), tt.delta)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, out.Confidence, 1e-9)
		})
	}
}

func TestBlendNaNCollapsesToUnavailable(t *testing.T) {
	// contracts.Available collapses non-finite values, so a NaN leg
	// behaves exactly like a missing one.
	b := NewBlender(sectorconfig.Default())

	nan := contracts.Available(math.NaN())
	assert.False(t, nan.Available)

	out, err := b.Blend(contracts.Available(100), nan, contracts.Available(100), 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out.Weights.Sum(), 1e-9)
}
