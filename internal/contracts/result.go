package contracts

import (
	"errors"
	"math"
	"time"
)

// ErrNoValuation is returned when every valuation method is unavailable.
// Callers must treat this as an explicit failure state, never as a zero
// or default value.
var ErrNoValuation = errors.New("no valuation possible: all methods unavailable")

// MethodValue is the tagged output of one valuation method. Unavailable
// methods carry no numeric value at all; sentinel numbers like 0 or -1
// never stand in for "missing".
type MethodValue struct {
	Available bool    `json:"available"`
	Value     float64 `json:"value,omitempty"`
}

// Unavailable is the absent method output.
func Unavailable() MethodValue {
	return MethodValue{}
}

// Available wraps a finite method output. Non-finite inputs collapse to
// the unavailable state so downstream blending never sees NaN/Inf.
func Available(v float64) MethodValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MethodValue{}
	}
	return MethodValue{Available: true, Value: v}
}

// DCFScenarios is the per-share DCF output under the three scenarios.
type DCFScenarios struct {
	Base float64 `json:"base"`
	Bull float64 `json:"bull"`
	Bear float64 `json:"bear"`
}

// MethodWeights is the blend weighting actually applied in a run. After
// redistribution the non-zero entries sum to 1.0.
type MethodWeights struct {
	DCF        float64 `json:"dcf"`
	Relative   float64 `json:"relative"`
	MonteCarlo float64 `json:"monte_carlo"`
}

// Sum returns the total weight.
func (w MethodWeights) Sum() float64 {
	return w.DCF + w.Relative + w.MonteCarlo
}

// Distribution summarizes a Monte Carlo value distribution.
type Distribution struct {
	Trials      int             `json:"trials"`
	Seed        int64           `json:"seed"`
	Percentiles map[int]float64 `json:"percentiles"` // 10, 25, 50, 75, 90
}

// Median returns the P50 of the distribution.
func (d *Distribution) Median() float64 {
	return d.Percentiles[50]
}

// ValuationResult is the final blended output for one company. Immutable
// once returned; persistence is an external collaborator's concern.
type ValuationResult struct {
	RunID  string `json:"run_id"`
	Ticker string `json:"ticker"`

	DCF              DCFScenarios  `json:"dcf"`
	Relative         MethodValue   `json:"relative"`
	MonteCarloMedian MethodValue   `json:"monte_carlo_median"`
	Distribution     *Distribution `json:"distribution,omitempty"`

	Blended           float64       `json:"blended"`
	UpsidePct         float64       `json:"upside_pct"`
	ConfidenceScore   float64       `json:"confidence_score"`
	MethodWeightsUsed MethodWeights `json:"method_weights_used"`

	Inputs    *ResolvedInputs `json:"inputs,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
