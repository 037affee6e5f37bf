package sectorconfig

// Default returns the shipped configuration. It mirrors config/sectors.yaml
// and is what tests and the CLI use when no file is supplied.
func Default() *Config {
	return &Config{
		Meta: Meta{ConfigID: "global_sectors_v1", Version: "1.0"},
		Resolution: Resolution{
			GrowthPhase: GrowthPhase{
				CAGR3YThreshold: 0.20,
				YoYThreshold:    0.50,
			},
			Growth: Growth{
				TerminalRate:      0.06,
				CAGRBlend3Y:       0.60,
				CAGRBlend5Y:       0.40,
				YoYDampening:      0.80,
				YoYFloor:          0.03,
				YoYCap:            0.30,
				DefaultTrajectory: []float64{0.10, 0.09, 0.08, 0.07, 0.06},
			},
			ShareCountDivergence: 0.20,
			BlendDivergence:      0.30,
		},
		Discount: Discount{
			RiskFreeRate:      0.042,
			EquityRiskPremium: 0.055,
			DefaultBeta:       1.0,
			DefaultCostOfDebt: 0.065,
			DefaultDebtEquity: 0.40,
			StatutoryTaxRate:  0.25,
		},
		DCF: DCF{
			HorizonYears:       7,
			TerminalGrowthMin:  0.02,
			TerminalGrowthMax:  0.05,
			WACCTerminalBuffer: 0.01,
			Bull:               Scenario{GrowthScale: 1.25, MarginAdd: 0.02},
			Bear:               Scenario{GrowthScale: 0.75, MarginAdd: -0.02},
		},
		Drivers: Drivers{
			LevelWeights: LevelWeights{
				Macro:    0.15,
				Group:    0.20,
				Subgroup: 0.35,
				Company:  0.30,
			},
			GrowthSensitivity:     0.05,
			MarginSensitivity:     0.03,
			ConfidenceSensitivity: 0.10,
		},
		Relative: Relative{
			ObservationWeights: ObservationWeights{Current: 0.50, Median: 0.30, Historical: 0.20},
			TightWeight:        2.0,
			BroadWeight:        1.0,
			OutlookSensitivity: 0.10,
		},
		MonteCarlo: MonteCarlo{
			Trials:               1000,
			GrowthStdDev:         0.020,
			MarginStdDev:         0.015,
			TerminalGrowthStdDev: 0.005,
			DiscountRateStdDev:   0.0075,
		},
		Blend: Blend{
			Weights:         MethodWeights{DCF: 0.60, Relative: 0.30, MonteCarlo: 0.10},
			BaseConfidence:  0.70,
			DegradedPenalty: 0.15,
		},
		Sectors: map[string]Sector{
			"default": {
				CapexCeiling:        0.12,
				DeprCeiling:         0.10,
				NWCCeiling:          0.08,
				SteadyStateCapex:    0.065,
				SteadyStateDepr:     0.050,
				SteadyStateNWC:      0.020,
				DefaultEBITDAMargin: 0.18,
				TerminalMarginMin:   0.10,
				TerminalMarginMax:   0.30,
				ROCETarget:          0.15,
				ReinvestmentDefault: 0.35,
				TaxRate:             0.25,
			},
			"technology": {
				CapexCeiling:        0.10,
				DeprCeiling:         0.09,
				NWCCeiling:          0.06,
				SteadyStateCapex:    0.050,
				SteadyStateDepr:     0.045,
				SteadyStateNWC:      0.010,
				DefaultEBITDAMargin: 0.28,
				TerminalMarginMin:   0.18,
				TerminalMarginMax:   0.40,
				ROCETarget:          0.20,
				ReinvestmentDefault: 0.40,
				TaxRate:             0.23,
			},
			"industrials": {
				CapexCeiling:        0.14,
				DeprCeiling:         0.12,
				NWCCeiling:          0.12,
				SteadyStateCapex:    0.075,
				SteadyStateDepr:     0.060,
				SteadyStateNWC:      0.035,
				DefaultEBITDAMargin: 0.14,
				TerminalMarginMin:   0.08,
				TerminalMarginMax:   0.22,
				ROCETarget:          0.12,
				ReinvestmentDefault: 0.35,
				TaxRate:             0.26,
			},
			"consumer": {
				CapexCeiling:        0.09,
				DeprCeiling:         0.08,
				NWCCeiling:          0.10,
				SteadyStateCapex:    0.045,
				SteadyStateDepr:     0.040,
				SteadyStateNWC:      0.030,
				DefaultEBITDAMargin: 0.16,
				TerminalMarginMin:   0.09,
				TerminalMarginMax:   0.25,
				ROCETarget:          0.16,
				ReinvestmentDefault: 0.30,
				TaxRate:             0.25,
			},
		},
	}
}
