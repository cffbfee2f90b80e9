package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// statementGenerator builds ratio and trend problems over reported
// financial statements.
type statementGenerator struct{}

func (statementGenerator) Category() problem.Category {
	return problem.CategoryStatementAnalysis
}

var statementVariants = []string{
	"gross_margin", "leverage", "liquidity", "returns",
	"cash_conversion_cycle", "working_capital", "coverage", "dupont_driver",
}

func (g statementGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, statementVariants) {
	case "gross_margin":
		return g.grossMargin(rng, d)
	case "leverage":
		return g.leverage(rng, d)
	case "liquidity":
		return g.liquidity(rng, d)
	case "returns":
		return g.returns(rng, d)
	case "cash_conversion_cycle":
		return g.cashConversionCycle(rng, d)
	case "working_capital":
		return g.workingCapital(rng, d)
	case "coverage":
		return g.coverage(rng, d)
	default:
		return g.dupontDriver(rng, d)
	}
}

func (g statementGenerator) grossMargin(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	rev := math.Round(uniform(rng, 500, 10000))
	gm := uniform(rng, s.GrossMarginLo, s.GrossMarginHi)
	cogs := math.Round(rev * (1 - gm))
	answer := round1((rev - cogs) / rev * 100)
	question := fmt.Sprintf(
		"%s reported revenue of %s and cost of goods sold of %s. What is its gross margin in percent?",
		company, moneyM(rev), moneyM(cogs))
	explanation := fmt.Sprintf("(%s - %s) / %s = %.1f%%.", moneyM(rev), moneyM(cogs), moneyM(rev), answer)
	info := meta(company, s, "gross_margin").
		ctx("revenue", rev).
		ctx("cogs", cogs).
		steps("Subtract COGS from revenue, then divide by revenue")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) leverage(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	ebitda := math.Round(uniform(rng, 300, 4000))
	debt := math.Round(ebitda * uniform(rng, 1.0, 5.0))
	cash := math.Round(uniform(rng, 50, debt*0.6))
	answer := round2((debt - cash) / ebitda)
	if answer <= 0 {
		return nil, fmt.Errorf("leverage: non-positive net leverage")
	}
	question := fmt.Sprintf(
		"%s carries total debt of %s, cash of %s, and generated EBITDA of %s. What is its net debt to EBITDA ratio? Answer as a plain number.",
		company, moneyM(debt), moneyM(cash), moneyM(ebitda))
	explanation := fmt.Sprintf("(%s - %s) / %s = %s.", moneyM(debt), moneyM(cash), moneyM(ebitda), ratioStr(answer))
	info := meta(company, s, "leverage").
		ctx("total_debt", debt).
		ctx("cash", cash).
		ctx("ebitda", ebitda).
		steps(
			"Compute net debt as total debt minus cash",
			"Divide net debt by EBITDA",
		)
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) liquidity(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	liabilities := math.Round(uniform(rng, 300, 3000))
	assets := math.Round(liabilities * uniform(rng, 0.7, 2.5))
	answer := round2(assets / liabilities)
	question := fmt.Sprintf(
		"%s shows current assets of %s and current liabilities of %s. What is its current ratio? Answer as a plain number.",
		company, moneyM(assets), moneyM(liabilities))
	explanation := fmt.Sprintf("%s / %s = %.2f.", moneyM(assets), moneyM(liabilities), answer)
	info := meta(company, s, "liquidity").
		ctx("current_assets", assets).
		ctx("current_liabilities", liabilities).
		steps("Divide current assets by current liabilities")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) returns(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	equity := math.Round(uniform(rng, 1000, 15000))
	roe := uniform(rng, 0.05, 0.30)
	netIncome := math.Round(equity * roe)
	answer := round1(netIncome / equity * 100)
	question := fmt.Sprintf(
		"%s earned net income of %s on average shareholders' equity of %s. What was its return on equity in percent?",
		company, moneyM(netIncome), moneyM(equity))
	explanation := fmt.Sprintf("%s / %s = %.1f%%.", moneyM(netIncome), moneyM(equity), answer)
	info := meta(company, s, "returns").
		ctx("net_income", netIncome).
		ctx("average_equity", equity).
		steps("Divide net income by average shareholders' equity")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) cashConversionCycle(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	dso := math.Round(uniform(rng, 25, 80))
	dio := math.Round(uniform(rng, 20, 110))
	dpo := math.Round(uniform(rng, 20, 90))
	answer := dso + dio - dpo
	question := fmt.Sprintf(
		"%s has days sales outstanding of %.0f, days inventory outstanding of %.0f, and days payables outstanding of %.0f. What is its cash conversion cycle in days?",
		company, dso, dio, dpo)
	explanation := fmt.Sprintf("%.0f + %.0f - %.0f = %.0f days.", dso, dio, dpo, answer)
	info := meta(company, s, "cash_conversion_cycle").
		ctx("days", map[string]any{"dso": dso, "dio": dio, "dpo": dpo}).
		steps("Add DSO and DIO, then subtract DPO")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) workingCapital(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	ar := math.Round(uniform(rng, 100, 1500))
	inv := math.Round(uniform(rng, 100, 2000))
	ap := math.Round(uniform(rng, 100, 1800))
	answer := ar + inv - ap
	question := fmt.Sprintf(
		"%s reports accounts receivable of %s, inventory of %s, and accounts payable of %s. What is its net working capital in millions? Use a negative number if payables exceed the assets.",
		company, moneyM(ar), moneyM(inv), moneyM(ap))
	explanation := fmt.Sprintf("%s + %s - %s = %s.", moneyM(ar), moneyM(inv), moneyM(ap), moneyM(answer))
	info := meta(company, s, "working_capital").
		ctx("accounts_receivable", ar).
		ctx("inventory", inv).
		ctx("accounts_payable", ap).
		steps("Add receivables and inventory, then subtract payables")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) coverage(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	interest := math.Round(uniform(rng, 40, 400))
	ebit := math.Round(interest * uniform(rng, 1.5, 12))
	answer := round1(ebit / interest)
	question := fmt.Sprintf(
		"%s generated EBIT of %s against interest expense of %s. What is its interest coverage ratio? Answer as a plain number.",
		company, moneyM(ebit), moneyM(interest))
	explanation := fmt.Sprintf("%s / %s = %.1fx.", moneyM(ebit), moneyM(interest), answer)
	info := meta(company, s, "coverage").
		ctx("ebit", ebit).
		ctx("interest_expense", interest).
		steps("Divide EBIT by interest expense")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g statementGenerator) dupontDriver(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	// One DuPont component moves materially, the others stay flat.
	components := []string{"net profit margin", "asset turnover", "financial leverage"}
	moved := rng.Intn(len(components))
	deltas := make([]float64, len(components))
	for i := range deltas {
		deltas[i] = round1(uniform(rng, -0.5, 0.5))
	}
	deltas[moved] = round1(uniform(rng, 15, 35))
	question := fmt.Sprintf(
		"%s's ROE rose meaningfully year over year. Net profit margin changed %.1f%%, asset turnover changed %.1f%%, and financial leverage changed %.1f%% (all relative changes). Which DuPont component drove the ROE improvement?",
		company, deltas[0], deltas[1], deltas[2])
	texts := []string{
		"Net profit margin",
		"Asset turnover",
		"Financial leverage",
		"None; ROE moved independently of its components",
	}
	explanation := fmt.Sprintf("Only %s moved materially (%.1f%%), so it accounts for the ROE change.", components[moved], deltas[moved])
	info := meta(company, s, "dupont_driver").
		ctx("component_changes", map[string]any{
			"net_profit_margin":  deltas[0],
			"asset_turnover":     deltas[1],
			"financial_leverage": deltas[2],
		})
	return mcqProblem(rng, g.Category(), d, question, texts, moved, explanation, info), nil
}
