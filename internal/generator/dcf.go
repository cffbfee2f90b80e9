package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// dcfSanityGenerator builds problems that exercise discounted cash flow
// assumptions and mechanics.
type dcfSanityGenerator struct{}

func (dcfSanityGenerator) Category() problem.Category {
	return problem.CategoryDCFSanityCheck
}

var dcfVariants = []string{
	"terminal_growth_check", "wacc_validation", "terminal_value_proportion",
	"projection_growth_check", "implied_multiple", "sensitivity_analysis",
	"fcf_growth_consistency",
}

func (g dcfSanityGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, dcfVariants) {
	case "terminal_growth_check":
		return g.terminalGrowthCheck(rng, d)
	case "wacc_validation":
		return g.waccValidation(rng, d)
	case "terminal_value_proportion":
		return g.terminalValueProportion(rng, d)
	case "projection_growth_check":
		return g.projectionGrowthCheck(rng, d)
	case "implied_multiple":
		return g.impliedMultiple(rng, d)
	case "sensitivity_analysis":
		return g.sensitivityAnalysis(rng, d)
	default:
		return g.fcfGrowthConsistency(rng, d)
	}
}

func (g dcfSanityGenerator) terminalGrowthCheck(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	wacc := round1(uniform(rng, 7, 12))
	flawed := rng.Intn(2) == 0
	var tg float64
	if flawed {
		// Terminal growth at or above the discount rate breaks the
		// perpetuity formula.
		tg = round1(wacc + uniform(rng, 0, 3))
	} else {
		tg = round1(uniform(rng, 1.5, 3.0))
		if tg >= wacc {
			return nil, fmt.Errorf("terminal_growth_check: growth %.1f >= wacc %.1f in sound scenario", tg, wacc)
		}
	}
	question := fmt.Sprintf(
		"An analyst values %s with a DCF using a WACC of %.1f%% and a terminal growth rate of %.1f%%. Is the terminal growth assumption defensible?",
		company, wacc, tg)
	texts := []string{
		"Yes, the assumption is within a reasonable range",
		"No, terminal growth at or above the discount rate makes the terminal value meaningless",
		"No, terminal growth should always equal the risk-free rate",
		"Cannot be judged without the revenue forecast",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("Terminal growth of %.1f%% sits safely below the %.1f%% WACC and near long-run GDP growth.", tg, wacc)
	if flawed {
		correctIdx = 1
		explanation = fmt.Sprintf("With growth of %.1f%% against a %.1f%% WACC the Gordon growth denominator is non-positive.", tg, wacc)
	}
	info := meta(company, s, "terminal_growth_check").
		ctx("wacc", wacc).
		ctx("terminal_growth", tg)
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g dcfSanityGenerator) waccValidation(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	equityWeight := round2(uniform(rng, 0.5, 0.9))
	debtWeight := round2(1 - equityWeight)
	costEquity := round1(uniform(rng, 8, 14))
	costDebt := round1(uniform(rng, 3, 7))
	taxRate := round2(uniform(rng, 0.20, 0.30))
	wacc := round2(equityWeight*costEquity + debtWeight*costDebt*(1-taxRate))
	if wacc <= round1(uniform(rng, 1.5, 3.0)) {
		return nil, fmt.Errorf("wacc_validation: wacc %.2f implausibly low", wacc)
	}
	question := fmt.Sprintf(
		"%s is financed %.0f%% with equity and %.0f%% with debt. Cost of equity is %.1f%%, pre-tax cost of debt is %.1f%%, and the tax rate is %.0f%%. Compute the WACC in percent.",
		company, equityWeight*100, debtWeight*100, costEquity, costDebt, taxRate*100)
	explanation := fmt.Sprintf("%.2f x %.1f + %.2f x %.1f x (1 - %.2f) = %.2f%%.",
		equityWeight, costEquity, debtWeight, costDebt, taxRate, wacc)
	info := meta(company, s, "wacc_validation").
		ctx("equity_weight", equityWeight).
		ctx("debt_weight", debtWeight).
		ctx("cost_of_equity", costEquity).
		ctx("cost_of_debt", costDebt).
		ctx("tax_rate", taxRate).
		steps(
			"Weight the cost of equity by the equity share of capital",
			"Weight the after-tax cost of debt by the debt share",
			"Sum the two weighted components",
		)
	return numericProblem(g.Category(), d, question, wacc, explanation, info), nil
}

func (g dcfSanityGenerator) terminalValueProportion(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	explicit := math.Round(uniform(rng, 800, 6000))
	terminal := math.Round(uniform(rng, 1500, 20000))
	share := round1(terminal / (explicit + terminal) * 100)
	if share <= 0 || share >= 100 {
		return nil, fmt.Errorf("terminal_value_proportion: degenerate share %.1f", share)
	}
	question := fmt.Sprintf(
		"A DCF for %s discounts explicit-period cash flows worth %s and a terminal value worth %s (both in present value terms). What percentage of enterprise value comes from the terminal value?",
		company, moneyM(explicit), moneyM(terminal))
	explanation := fmt.Sprintf("%s / (%s + %s) = %.1f%%.", moneyM(terminal), moneyM(explicit), moneyM(terminal), share)
	info := meta(company, s, "terminal_value_proportion").
		ctx("present_value", map[string]any{"explicit_period": explicit, "terminal": terminal}).
		steps(
			"Add the explicit-period and terminal present values to get enterprise value",
			"Divide the terminal value by enterprise value and express as a percentage",
		)
	return numericProblem(g.Category(), d, question, share, explanation, info), nil
}

func (g dcfSanityGenerator) projectionGrowthCheck(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	histGrowth := round1(uniform(rng, s.RevGrowthLo, s.RevGrowthHi) * 100)
	aggressive := rng.Intn(2) == 0
	var projGrowth float64
	if aggressive {
		projGrowth = round1(histGrowth + uniform(rng, 12, 25))
	} else {
		projGrowth = round1(histGrowth + uniform(rng, -3, 3))
	}
	question := fmt.Sprintf(
		"%s has grown revenue at %.1f%% annually over the past five years. A DCF model projects %.1f%% annual growth for the next five years with no stated change in strategy or market. How should the projection be judged?",
		company, histGrowth, projGrowth)
	texts := []string{
		"Broadly consistent with the company's demonstrated trajectory",
		"Aggressive; the step-up from history needs explicit justification",
		"Too conservative; models should always project acceleration",
		"Irrelevant; only terminal growth matters in a DCF",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("Projected %.1f%% is in line with the %.1f%% historical rate.", projGrowth, histGrowth)
	if aggressive {
		correctIdx = 1
		explanation = fmt.Sprintf("Projecting %.1f%% against a %.1f%% history embeds a large unexplained acceleration.", projGrowth, histGrowth)
	}
	info := meta(company, s, "projection_growth_check").
		ctx("revenue_growth", map[string]any{"historical": histGrowth, "projected": projGrowth})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g dcfSanityGenerator) impliedMultiple(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	ebitda := math.Round(uniform(rng, 200, 3000))
	multiple := uniform(rng, 6, 18)
	ev := math.Round(ebitda * multiple)
	answer := round1(ev / ebitda)
	question := fmt.Sprintf(
		"A DCF for %s arrives at an enterprise value of %s. Forward EBITDA is %s. What EV/EBITDA multiple does the valuation imply? Answer as a plain number.",
		company, moneyM(ev), moneyM(ebitda))
	explanation := fmt.Sprintf("%s / %s = %.1fx.", moneyM(ev), moneyM(ebitda), answer)
	info := meta(company, s, "implied_multiple").
		ctx("enterprise_value", ev).
		ctx("forward_ebitda", ebitda).
		steps("Divide enterprise value by forward EBITDA")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g dcfSanityGenerator) sensitivityAnalysis(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	wacc := round1(uniform(rng, 8, 11))
	tg := round1(uniform(rng, 1.5, 3.0))
	if tg >= wacc {
		return nil, fmt.Errorf("sensitivity_analysis: growth %.1f >= wacc %.1f", tg, wacc)
	}
	question := fmt.Sprintf(
		"In a DCF for %s with a %.1f%% WACC and %.1f%% terminal growth, which single change increases the valuation the most?",
		company, wacc, tg)
	texts := []string{
		fmt.Sprintf("Cutting WACC by 1 point to %.1f%%", wacc-1),
		"Raising year-one revenue growth by 1 point",
		"Raising the tax rate by 1 point",
		"Shortening the explicit forecast period by one year",
	}
	explanation := fmt.Sprintf(
		"The discount rate compounds across every period and drives the terminal value denominator (%.1f%% - %.1f%%), so a 1 point WACC cut dominates.",
		wacc, tg)
	info := meta(company, s, "sensitivity_analysis").
		ctx("wacc", wacc).
		ctx("terminal_growth", tg)
	return mcqProblem(rng, g.Category(), d, question, texts, 0, explanation, info), nil
}

func (g dcfSanityGenerator) fcfGrowthConsistency(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	revGrowth := round1(uniform(rng, 3, 10))
	inconsistent := rng.Intn(2) == 0
	var fcfGrowth float64
	if inconsistent {
		fcfGrowth = round1(revGrowth + uniform(rng, 12, 25))
	} else {
		fcfGrowth = round1(revGrowth + uniform(rng, -2, 4))
	}
	question := fmt.Sprintf(
		"A model for %s projects revenue growing %.1f%% per year while free cash flow grows %.1f%% per year indefinitely, with margins and capital intensity held constant. Is the free cash flow projection internally consistent?",
		company, revGrowth, fcfGrowth)
	texts := []string{
		"Yes, the two growth rates can coexist under the stated assumptions",
		"No, FCF cannot permanently outgrow revenue with margins and capital intensity fixed",
		"No, FCF must always grow slower than revenue",
		"Yes, because FCF is independent of revenue",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("FCF growth of %.1f%% tracks revenue growth of %.1f%% closely, which fixed margins permit.", fcfGrowth, revGrowth)
	if inconsistent {
		correctIdx = 1
		explanation = fmt.Sprintf("With fixed margins, FCF converges to revenue growth; a permanent %.1f%% vs %.1f%% gap is impossible.", fcfGrowth, revGrowth)
	}
	info := meta(company, s, "fcf_growth_consistency").
		ctx("growth", map[string]any{"revenue": revGrowth, "free_cash_flow": fcfGrowth})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}
