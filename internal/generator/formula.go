package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// formulaAuditGenerator builds problems where a computation or formula
// contains a seeded error to find, or must be carried out correctly.
type formulaAuditGenerator struct{}

func (formulaAuditGenerator) Category() problem.Category {
	return problem.CategoryFormulaAudit
}

var formulaVariants = []string{"wacc_formula", "ev_bridge", "fcf_formula", "dupont_roe", "ratio_definition"}

func (g formulaAuditGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, formulaVariants) {
	case "wacc_formula":
		return g.waccFormula(rng, d)
	case "ev_bridge":
		return g.evBridge(rng, d)
	case "fcf_formula":
		return g.fcfFormula(rng, d)
	case "dupont_roe":
		return g.dupontROE(rng, d)
	default:
		return g.ratioDefinition(rng, d)
	}
}

func (g formulaAuditGenerator) waccFormula(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	question := fmt.Sprintf(
		"An intern at a fund covering %s writes: WACC = E/V x Re + D/V x Rd. A reviewer flags one omission. What is missing?",
		company)
	texts := []string{
		"The tax shield: the debt term should be D/V x Rd x (1 - tax rate)",
		"Nothing; the formula is complete",
		"A preferred equity term is always required",
		"The risk-free rate should be added to the total",
	}
	explanation := "Interest is tax deductible, so the after-tax cost of debt enters the weighted average."
	return mcqProblem(rng, g.Category(), d, question, texts, 0, explanation, meta(company, s, "wacc_formula")), nil
}

func (g formulaAuditGenerator) evBridge(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	ev := math.Round(uniform(rng, 2000, 30000))
	debt := math.Round(uniform(rng, 200, ev*0.4))
	cash := math.Round(uniform(rng, 100, debt))
	equity := ev - debt + cash
	if equity <= 0 {
		return nil, fmt.Errorf("ev_bridge: non-positive equity value")
	}
	question := fmt.Sprintf(
		"%s has an enterprise value of %s, total debt of %s, and cash of %s. What is the implied equity value in millions? Answer as a plain number.",
		company, moneyM(ev), moneyM(debt), moneyM(cash))
	explanation := fmt.Sprintf("Equity = EV - net debt = %s - (%s - %s) = %s.", moneyM(ev), moneyM(debt), moneyM(cash), moneyM(equity))
	info := meta(company, s, "ev_bridge").
		ctx("enterprise_value", ev).
		ctx("total_debt", debt).
		ctx("cash", cash).
		steps(
			"Compute net debt as total debt minus cash",
			"Subtract net debt from enterprise value",
		)
	return numericProblem(g.Category(), d, question, equity, explanation, info), nil
}

func (g formulaAuditGenerator) fcfFormula(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	question := fmt.Sprintf(
		"A model for %s computes free cash flow as: FCF = EBITDA - capex. Which adjustment does this shortcut most importantly ignore?",
		company)
	texts := []string{
		"Cash taxes and changes in working capital",
		"Depreciation, which must be subtracted again",
		"Dividends paid to shareholders",
		"Share-based compensation add-backs only",
	}
	explanation := "Unlevered FCF needs cash taxes and working capital movements; dividends are a financing choice, not an operating flow."
	return mcqProblem(rng, g.Category(), d, question, texts, 0, explanation, meta(company, s, "fcf_formula")), nil
}

func (g formulaAuditGenerator) dupontROE(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	margin := round2(uniform(rng, 0.04, 0.20))
	turnover := round2(uniform(rng, 0.4, 2.0))
	leverage := round2(uniform(rng, 1.5, 3.5))
	roe := round1(margin * turnover * leverage * 100)
	if roe <= 0 {
		return nil, fmt.Errorf("dupont_roe: non-positive ROE")
	}
	question := fmt.Sprintf(
		"%s has a net profit margin of %.0f%%, asset turnover of %.2f, and an equity multiplier of %.2f. Using the DuPont identity, what is its return on equity in percent?",
		company, margin*100, turnover, leverage)
	explanation := fmt.Sprintf("%.2f x %.2f x %.2f = %.1f%%.", margin, turnover, leverage, roe)
	info := meta(company, s, "dupont_roe").
		ctx("net_margin", margin).
		ctx("asset_turnover", turnover).
		ctx("equity_multiplier", leverage).
		steps("Multiply net margin, asset turnover, and the equity multiplier")
	return numericProblem(g.Category(), d, question, roe, explanation, info), nil
}

func (g formulaAuditGenerator) ratioDefinition(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	type ratioDef struct {
		claim   string
		texts   []string
		correct int
		expl    string
	}
	defs := []ratioDef{
		{
			claim: "the quick ratio as (current assets - inventory) / current liabilities",
			texts: []string{
				"The definition is correct",
				"Inventory should be included in the numerator",
				"Cash should be excluded from the numerator",
				"Long-term debt belongs in the denominator",
			},
			correct: 0,
			expl:    "The quick ratio strips inventory from current assets before dividing by current liabilities.",
		},
		{
			claim: "interest coverage as interest expense / EBIT",
			texts: []string{
				"The ratio is inverted; coverage is EBIT / interest expense",
				"The definition is correct",
				"Net income should replace EBIT",
				"Depreciation must be added to interest expense",
			},
			correct: 0,
			expl:    "Coverage measures how many times operating profit covers the interest bill.",
		},
		{
			claim: "days sales outstanding as receivables / annual revenue x 365",
			texts: []string{
				"The definition is correct",
				"Payables should replace receivables",
				"COGS should replace revenue",
				"The 365 multiplier is wrong; it should be 12",
			},
			correct: 0,
			expl:    "DSO scales the receivables-to-revenue ratio to days.",
		},
	}
	def := pick(rng, defs)
	question := fmt.Sprintf("A report on %s defines %s. Evaluate the definition.", company, def.claim)
	return mcqProblem(rng, g.Category(), d, question, def.texts, def.correct, def.expl, meta(company, s, "ratio_definition")), nil
}
