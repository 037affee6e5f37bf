package relative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/sectorconfig"
)

func actual(v float64) contracts.Field {
	return contracts.Field{Value: v, Source: contracts.SourceActual, Method: contracts.MethodReported}
}

func companyInputs() *contracts.ResolvedInputs {
	return &contracts.ResolvedInputs{
		Ticker:            "TEST",
		Sector:            "default",
		TrailingEBITDA:    actual(200),
		SharesOutstanding: actual(100),
		GrossDebt:         actual(300),
		Cash:              actual(100),
	}
}

func peer(ticker string, tier contracts.PeerTier, current, median, historical float64) contracts.Peer {
	return contracts.Peer{
		Ticker: ticker,
		Tier:   tier,
		Multiples: contracts.MultipleSet{
			Current:    current,
			Median:     median,
			Historical: historical,
		},
	}
}

func TestValueNoPeers(t *testing.T) {
	e := NewEngine(sectorconfig.Default())

	tests := []struct {
		name  string
		group *contracts.PeerGroup
	}{
		{"nil group", nil},
		{"empty group", &contracts.PeerGroup{Ticker: "TEST", BuiltAt: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := e.Value(tt.group, companyInputs(), 0)
			assert.False(t, ok)
		})
	}
}

func TestValueUniformMultiple(t *testing.T) {
	e := NewEngine(sectorconfig.Default())

	// Every observation of every peer at 10x: the blended multiple is
	// exactly 10 and the bridge is arithmetic.
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight:  []contracts.Peer{peer("AAA", contracts.TierTight, 10, 10, 10)},
		Broad:  []contracts.Peer{peer("BBB", contracts.TierBroad, 10, 10, 10)},
	}

	v, ok := e.Value(group, companyInputs(), 0)
	require.True(t, ok)
	// EV 2000 - debt 300 + cash 100 = 1800 over 100 shares.
	assert.InDelta(t, 18.0, v, 1e-9)
}

func TestValueTightTierDominatesMedian(t *testing.T) {
	e := NewEngine(sectorconfig.Default())

	// Two tight peers at 12x (weight 2 each) against two broad at 6x
	// (weight 1 each): cumulative weight crosses half inside the 12x
	// block once sorted, so the weighted median lands on 12.
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight: []contracts.Peer{
			peer("T1", contracts.TierTight, 12, 12, 12),
			peer("T2", contracts.TierTight, 12, 12, 12),
		},
		Broad: []contracts.Peer{
			peer("B1", contracts.TierBroad, 6, 6, 6),
			peer("B2", contracts.TierBroad, 6, 6, 6),
		},
	}

	v, ok := e.Value(group, companyInputs(), 0)
	require.True(t, ok)
	// EV 200*12 = 2400; equity 2200; 22 per share.
	assert.InDelta(t, 22.0, v, 1e-9)
}

func TestValueObservationBlend(t *testing.T) {
	e := NewEngine(sectorconfig.Default())

	// Single peer with diverging observations: blended multiple is
	// 0.5*10 + 0.3*8 + 0.2*6 = 8.6.
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight:  []contracts.Peer{peer("AAA", contracts.TierTight, 10, 8, 6)},
	}

	v, ok := e.Value(group, companyInputs(), 0)
	require.True(t, ok)
	assert.InDelta(t, (8.6*200-300+100)/100, v, 1e-9)
}

func TestValueMissingObservationRenormalizes(t *testing.T) {
	e := NewEngine(sectorconfig.Default())

	// No historical data anywhere: the 50/30 weights renormalize to
	// 5/8 and 3/8 over current and median.
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight:  []contracts.Peer{peer("AAA", contracts.TierTight, 10, 8, 0)},
	}

	v, ok := e.Value(group, companyInputs(), 0)
	require.True(t, ok)
	blended := (0.5*10 + 0.3*8) / 0.8
	assert.InDelta(t, (blended*200-300+100)/100, v, 1e-9)
}

func TestValueOutlookTilt(t *testing.T) {
	cfg := sectorconfig.Default()
	e := NewEngine(cfg)
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight:  []contracts.Peer{peer("AAA", contracts.TierTight, 10, 10, 10)},
	}

	neutral, ok := e.Value(group, companyInputs(), 0)
	require.True(t, ok)
	bullish, ok := e.Value(group, companyInputs(), 1.0)
	require.True(t, ok)

	// Full positive outlook scales the multiple by the sensitivity.
	wantEV := 10 * (1 + cfg.Relative.OutlookSensitivity) * 200
	assert.InDelta(t, (wantEV-300+100)/100, bullish, 1e-9)
	assert.Greater(t, bullish, neutral)
}

func TestValueNoTrailingEBITDA(t *testing.T) {
	e := NewEngine(sectorconfig.Default())
	group := &contracts.PeerGroup{
		Ticker: "TEST",
		Tight:  []contracts.Peer{peer("AAA", contracts.TierTight, 10, 10, 10)},
	}

	inputs := companyInputs()
	inputs.TrailingEBITDA = contracts.Field{Value: 0, Source: contracts.SourceDefault, Method: contracts.MethodGlobalDefault}

	_, ok := e.Value(group, inputs, 0)
	assert.False(t, ok)
}
