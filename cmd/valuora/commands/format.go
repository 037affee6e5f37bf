package commands

import (
	"fmt"
	"sort"

	"github.com/valuora/backend/internal/contracts"
)

// printResult renders one valuation result for the terminal.
func printResult(r *contracts.ValuationResult) {
	fmt.Printf("Blended fair value: %.2f\n", r.Blended)
	fmt.Printf("Upside vs price:    %+.1f%%\n", r.UpsidePct)
	fmt.Printf("Confidence:         %.0f%%\n", r.ConfidenceScore*100)

	fmt.Println("\n--- Methods ---")
	fmt.Printf("DCF base/bull/bear: %.2f / %.2f / %.2f (weight %.0f%%)\n",
		r.DCF.Base, r.DCF.Bull, r.DCF.Bear, r.MethodWeightsUsed.DCF*100)
	printMethod("Relative", r.Relative, r.MethodWeightsUsed.Relative)
	printMethod("Monte Carlo median", r.MonteCarloMedian, r.MethodWeightsUsed.MonteCarlo)

	if r.Distribution != nil {
		fmt.Printf("\n--- Distribution (%d trials, seed %d) ---\n",
			r.Distribution.Trials, r.Distribution.Seed)
		ps := make([]int, 0, len(r.Distribution.Percentiles))
		for p := range r.Distribution.Percentiles {
			ps = append(ps, p)
		}
		sort.Ints(ps)
		for _, p := range ps {
			fmt.Printf("  P%d: %.2f\n", p, r.Distribution.Percentiles[p])
		}
	}

	if r.Inputs != nil {
		printProvenance(r.Inputs)
	}
}

func printMethod(name string, mv contracts.MethodValue, weight float64) {
	if !mv.Available {
		fmt.Printf("%s: unavailable\n", name)
		return
	}
	fmt.Printf("%s: %.2f (weight %.0f%%)\n", name, mv.Value, weight*100)
}

// printProvenance summarizes input provenance tiers and any warnings.
func printProvenance(in *contracts.ResolvedInputs) {
	var actual, derived, defaulted int
	for _, f := range in.Fields() {
		switch f.Source {
		case contracts.SourceActual:
			actual++
		case contracts.SourceDerived:
			derived++
		case contracts.SourceDefault:
			defaulted++
		}
	}
	fmt.Printf("\n--- Inputs (%s / %s) ---\n", in.Ticker, in.Sector)
	fmt.Printf("Provenance: %d actual, %d derived, %d default\n", actual, derived, defaulted)

	for _, note := range in.Notes {
		if note.Level == contracts.NoteWarning {
			fmt.Printf("⚠️ %s: %s\n", note.Metric, note.Text)
		}
	}
}
