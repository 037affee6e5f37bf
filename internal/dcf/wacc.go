package dcf

import (
	"github.com/valuora/backend/internal/contracts"
)

// Discount is the decomposed discount rate for one company. It is
// computed once per run and shared by every scenario and trial.
type Discount struct {
	LeveredBeta        float64 `json:"levered_beta"`
	CostOfEquity       float64 `json:"cost_of_equity"`
	CostOfDebtAfterTax float64 `json:"cost_of_debt_after_tax"`
	EquityWeight       float64 `json:"equity_weight"`
	DebtWeight         float64 `json:"debt_weight"`
	WACC               float64 `json:"wacc"`
}

// DiscountRate builds the WACC from CAPM cost of equity and the
// after-tax cost of debt, weighted by the D/E-implied capital split.
//
// A defaulted beta is an unlevered sector base and is relevered for the
// company's leverage (Hamada). An observed beta already reflects the
// company's own capital structure and is used as-is.
func (e *Engine) DiscountRate(inputs *contracts.ResolvedInputs) Discount {
	d := e.cfg.Discount

	de := inputs.DebtToEquity.Value
	if de < 0 {
		de = 0
	}
	tax := inputs.TaxRate.Value

	beta := inputs.Beta.Value
	if inputs.Beta.Source == contracts.SourceDefault {
		beta = beta * (1 + (1-tax)*de)
	}

	costOfEquity := d.RiskFreeRate + beta*d.EquityRiskPremium
	costOfDebtAfterTax := inputs.CostOfDebt.Value * (1 - tax)

	debtWeight := de / (1 + de)
	equityWeight := 1 - debtWeight

	return Discount{
		LeveredBeta:        beta,
		CostOfEquity:       costOfEquity,
		CostOfDebtAfterTax: costOfDebtAfterTax,
		EquityWeight:       equityWeight,
		DebtWeight:         debtWeight,
		WACC:               equityWeight*costOfEquity + debtWeight*costOfDebtAfterTax,
	}
}
