package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// redFlagGenerator builds problems about spotting aggressive or
// deteriorating accounting in reported figures.
type redFlagGenerator struct{}

func (redFlagGenerator) Category() problem.Category {
	return problem.CategoryAccountingRedFlag
}

var redFlagVariants = []string{
	"receivables_divergence", "inventory_build", "cash_conversion_gap",
	"one_time_items", "margin_anomaly",
}

func (g redFlagGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, redFlagVariants) {
	case "receivables_divergence":
		return g.receivablesDivergence(rng, d)
	case "inventory_build":
		return g.inventoryBuild(rng, d)
	case "cash_conversion_gap":
		return g.cashConversionGap(rng, d)
	case "one_time_items":
		return g.oneTimeItems(rng, d)
	default:
		return g.marginAnomaly(rng, d)
	}
}

func (g redFlagGenerator) receivablesDivergence(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	revGrowth := round1(uniform(rng, 4, 15))
	flagged := rng.Intn(2) == 0
	var arGrowth float64
	if flagged {
		arGrowth = round1(revGrowth + uniform(rng, 15, 35))
	} else {
		arGrowth = round1(revGrowth + uniform(rng, -3, 4))
	}
	question := fmt.Sprintf(
		"%s grew revenue %.1f%% year over year while accounts receivable grew %.1f%%. What does this pattern most likely indicate?",
		company, revGrowth, arGrowth)
	texts := []string{
		"Receivables tracking revenue; no particular concern",
		"Possible aggressive revenue recognition or deteriorating collections",
		"The company is holding too much cash",
		"Inventory obsolescence risk",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("AR growth of %.1f%% is in line with %.1f%% revenue growth.", arGrowth, revGrowth)
	if flagged {
		correctIdx = 1
		explanation = fmt.Sprintf("AR growing %.1f%% against %.1f%% revenue growth suggests sales are being booked faster than cash is collected.", arGrowth, revGrowth)
	}
	info := meta(company, s, "receivables_divergence").
		ctx("growth", map[string]any{"revenue": revGrowth, "accounts_receivable": arGrowth})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g redFlagGenerator) inventoryBuild(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	cogsGrowth := round1(uniform(rng, 2, 10))
	flagged := rng.Intn(2) == 0
	var invGrowth float64
	if flagged {
		invGrowth = round1(cogsGrowth + uniform(rng, 18, 40))
	} else {
		invGrowth = round1(cogsGrowth + uniform(rng, -3, 5))
	}
	question := fmt.Sprintf(
		"%s reported cost of goods sold up %.1f%% year over year while inventory rose %.1f%%. How should an analyst read this?",
		company, cogsGrowth, invGrowth)
	texts := []string{
		"Inventory is scaling normally with the cost base",
		"A potential demand shortfall or future write-down risk from excess inventory",
		"A sign of improving gross margin",
		"Evidence of channel under-stocking",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("Inventory growth of %.1f%% roughly matches COGS growth of %.1f%%.", invGrowth, cogsGrowth)
	if flagged {
		correctIdx = 1
		explanation = fmt.Sprintf("Inventory up %.1f%% against %.1f%% COGS growth points to product piling up ahead of demand.", invGrowth, cogsGrowth)
	}
	info := meta(company, s, "inventory_build").
		ctx("growth", map[string]any{"cogs": cogsGrowth, "inventory": invGrowth})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g redFlagGenerator) cashConversionGap(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	netIncome := math.Round(uniform(rng, 100, 2000))
	ratio := uniform(rng, 0.35, 1.3)
	ocf := math.Round(netIncome * ratio)
	answer := round1(ocf / netIncome * 100)
	if answer <= 0 {
		return nil, fmt.Errorf("cash_conversion_gap: non-positive conversion %.1f", answer)
	}
	question := fmt.Sprintf(
		"%s reported net income of %s and operating cash flow of %s for the year. What percentage of net income converted to operating cash flow?",
		company, moneyM(netIncome), moneyM(ocf))
	explanation := fmt.Sprintf("%s / %s = %.1f%%. Sustained conversion well below 100%% deserves scrutiny.", moneyM(ocf), moneyM(netIncome), answer)
	info := meta(company, s, "cash_conversion_gap").
		ctx("net_income", netIncome).
		ctx("operating_cash_flow", ocf).
		steps("Divide operating cash flow by net income and express as a percentage")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g redFlagGenerator) oneTimeItems(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	years := pick(rng, []int{3, 4, 5})
	question := fmt.Sprintf(
		"%s has reported 'one-time' restructuring charges in each of the past %d fiscal years, excluding them from adjusted EPS every time. How should these charges be treated?",
		company, years)
	texts := []string{
		"Exclude them; management labels them non-recurring",
		"Treat them as recurring operating costs given the repeated pattern",
		"Capitalize them as an asset",
		"Ignore them because they are non-cash",
	}
	explanation := fmt.Sprintf("Charges repeating %d years running are recurring in substance and belong in underlying earnings.", years)
	info := meta(company, s, "one_time_items").
		ctx("charge_years", years)
	return mcqProblem(rng, g.Category(), d, question, texts, 1, explanation, info), nil
}

func (g redFlagGenerator) marginAnomaly(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	peerMargin := round1(uniform(rng, s.GrossMarginLo, s.GrossMarginHi) * 100)
	flagged := rng.Intn(2) == 0
	var ownMargin float64
	if flagged {
		ownMargin = round1(peerMargin + uniform(rng, 12, 25))
	} else {
		ownMargin = round1(peerMargin + uniform(rng, -3, 3))
	}
	question := fmt.Sprintf(
		"%s reports a gross margin of %.1f%% while close %s peers average %.1f%%, with no stated difference in product mix or pricing power. What is the most appropriate takeaway?",
		company, ownMargin, s.Name, peerMargin)
	texts := []string{
		"The margin is within the peer range; nothing notable",
		"The outlier margin warrants checking cost capitalization and revenue recognition policies",
		"The company is certainly committing fraud",
		"Peers should be assumed to be under-reporting margins",
	}
	correctIdx := 0
	explanation := fmt.Sprintf("A %.1f%% margin sits close to the %.1f%% peer average.", ownMargin, peerMargin)
	if flagged {
		correctIdx = 1
		explanation = fmt.Sprintf("A %.1f%% margin against a %.1f%% peer average with no structural explanation calls for a look at accounting policy, not a conclusion of fraud.", ownMargin, peerMargin)
	}
	info := meta(company, s, "margin_anomaly").
		ctx("gross_margin", map[string]any{"company": ownMargin, "peer_average": peerMargin})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}
