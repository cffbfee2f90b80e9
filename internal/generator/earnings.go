package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// earningsSurpriseGenerator builds problems about quarterly results
// versus consensus expectations.
type earningsSurpriseGenerator struct{}

func (earningsSurpriseGenerator) Category() problem.Category {
	return problem.CategoryEarningsSurprise
}

var earningsVariants = []string{"beat_miss", "magnitude", "driver", "guidance", "sequential", "margin_variance"}

func (g earningsSurpriseGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	variant := pick(rng, earningsVariants)
	switch variant {
	case "beat_miss":
		return g.beatMiss(rng, d)
	case "magnitude":
		return g.magnitude(rng, d)
	case "driver":
		return g.driver(rng, d)
	case "guidance":
		return g.guidance(rng, d)
	case "sequential":
		return g.sequential(rng, d)
	default:
		return g.marginVariance(rng, d)
	}
}

// drawEPS returns consensus and actual EPS with a surprise sized by
// difficulty. Harder problems use smaller, more ambiguous surprises.
func drawEPS(rng *rand.Rand, d problem.Difficulty) (consensus, actual float64) {
	consensus = round2(uniform(rng, 0.50, 5.00))
	spread := 0.15
	switch d {
	case problem.DifficultyMedium:
		spread = 0.08
	case problem.DifficultyHard:
		spread = 0.04
	case problem.DifficultyExpert:
		spread = 0.02
	}
	delta := uniform(rng, 0.01, spread)
	if rng.Intn(2) == 0 {
		delta = -delta
	}
	actual = round2(consensus * (1 + delta))
	return consensus, actual
}

func (g earningsSurpriseGenerator) beatMiss(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	consensus, actual := drawEPS(rng, d)
	if actual == consensus {
		return nil, fmt.Errorf("beat_miss: surprise rounded to zero")
	}
	question := fmt.Sprintf(
		"%s reported quarterly EPS of $%.2f against a consensus estimate of $%.2f. Did the company beat, miss, or meet expectations?",
		company, actual, consensus)
	texts := []string{"Beat expectations", "Missed expectations", "Met expectations exactly", "Cannot be determined from the data"}
	correctIdx := 0
	explanation := fmt.Sprintf("Actual EPS $%.2f exceeds consensus $%.2f.", actual, consensus)
	if actual < consensus {
		correctIdx = 1
		explanation = fmt.Sprintf("Actual EPS $%.2f falls short of consensus $%.2f.", actual, consensus)
	}
	info := meta(company, s, "beat_miss").
		ctx("eps", map[string]any{"consensus": consensus, "actual": actual})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g earningsSurpriseGenerator) magnitude(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	consensus, actual := drawEPS(rng, d)
	surprise := round2((actual - consensus) / consensus * 100)
	if surprise == 0 {
		return nil, fmt.Errorf("magnitude: zero surprise after rounding")
	}
	question := fmt.Sprintf(
		"%s reported quarterly EPS of $%.2f versus a consensus of $%.2f. What was the earnings surprise as a percentage of consensus? Express your answer in percent (e.g. 4.2 for a 4.2%% beat, -3.1 for a miss).",
		company, actual, consensus)
	explanation := fmt.Sprintf("(%.2f - %.2f) / %.2f = %.2f%%.", actual, consensus, consensus, surprise)
	info := meta(company, s, "magnitude").
		ctx("eps", map[string]any{"consensus": consensus, "actual": actual}).
		steps(
			"Subtract consensus EPS from actual EPS",
			"Divide the difference by consensus and express as a percentage",
		)
	return numericProblem(g.Category(), d, question, surprise, explanation, info), nil
}

func (g earningsSurpriseGenerator) driver(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	revenueDriven := rng.Intn(2) == 0
	var revGrowth, marginDelta, epsGrowth float64
	if revenueDriven {
		revGrowth = round1(uniform(rng, 15, 35))
		marginDelta = round1(uniform(rng, 0.1, 0.8))
		epsGrowth = round1(revGrowth + marginDelta)
	} else {
		revGrowth = round1(uniform(rng, 0.5, 3.0))
		marginDelta = round1(uniform(rng, 2.0, 6.0))
		epsGrowth = round1(revGrowth + marginDelta*2.5)
	}
	question := fmt.Sprintf(
		"%s grew revenue %.1f%% year over year, expanded operating margin by %.1f points, and grew EPS %.1f%%. Which factor was the primary driver of EPS growth?",
		company, revGrowth, marginDelta, epsGrowth)
	texts := []string{
		"Revenue growth",
		"Operating margin expansion",
		"Share buybacks",
		"A lower tax rate",
	}
	correctIdx := 1
	explanation := fmt.Sprintf("Margin expansion of %.1f points dwarfs %.1f%% revenue growth.", marginDelta, revGrowth)
	if revenueDriven {
		correctIdx = 0
		explanation = fmt.Sprintf("Revenue growth of %.1f%% dominates the %.1f point margin move.", revGrowth, marginDelta)
	}
	info := meta(company, s, "driver").
		ctx("revenue_growth", revGrowth).
		ctx("margin_delta_points", marginDelta).
		ctx("eps_growth", epsGrowth)
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g earningsSurpriseGenerator) guidance(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	consensus, actual := drawEPS(rng, d)
	beat := actual > consensus
	guideDelta := uniform(rng, 0.02, 0.10)
	guideUp := rng.Intn(2) == 0
	nextConsensus := round2(consensus * (1 + uniform(rng, -0.02, 0.08)))
	guide := round2(nextConsensus * (1 + guideDelta))
	if !guideUp {
		guide = round2(nextConsensus * (1 - guideDelta))
	}
	if guide == nextConsensus {
		return nil, fmt.Errorf("guidance: guide equals consensus after rounding")
	}

	question := fmt.Sprintf(
		"%s reported EPS of $%.2f versus the $%.2f consensus, and guided next quarter to $%.2f versus the street's $%.2f. Which description best captures the print?",
		company, actual, consensus, guide, nextConsensus)
	texts := []string{
		"Beat and raise",
		"Beat but guided below expectations",
		"Miss but guided above expectations",
		"Miss and lowered guidance",
	}
	var correctIdx int
	switch {
	case beat && guideUp:
		correctIdx = 0
	case beat && !guideUp:
		correctIdx = 1
	case !beat && guideUp:
		correctIdx = 2
	default:
		correctIdx = 3
	}
	explanation := fmt.Sprintf("EPS %s consensus and guidance sits %s the street's next-quarter number.",
		cmpWord(beat), aboveBelow(guideUp))
	info := meta(company, s, "guidance").
		ctx("eps", map[string]any{"consensus": consensus, "actual": actual}).
		ctx("next_quarter", map[string]any{"consensus": nextConsensus, "guide": guide})
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func cmpWord(beat bool) string {
	if beat {
		return "beat"
	}
	return "missed"
}

func aboveBelow(up bool) string {
	if up {
		return "above"
	}
	return "below"
}

func (g earningsSurpriseGenerator) sequential(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	prev := math.Round(uniform(rng, 200, 5000))
	growth := uniform(rng, -0.08, 0.15)
	cur := math.Round(prev * (1 + growth))
	if cur == prev {
		return nil, fmt.Errorf("sequential: flat quarter after rounding")
	}
	answer := round2((cur - prev) / prev * 100)
	question := fmt.Sprintf(
		"%s posted revenue of %s this quarter after %s last quarter. What was the sequential revenue growth rate in percent?",
		company, moneyM(cur), moneyM(prev))
	explanation := fmt.Sprintf("(%s - %s) / %s = %.2f%%.", moneyM(cur), moneyM(prev), moneyM(prev), answer)
	info := meta(company, s, "sequential").
		ctx("revenue", map[string]any{"previous_quarter": prev, "current_quarter": cur}).
		steps(
			"Subtract last quarter's revenue from this quarter's",
			"Divide by last quarter's revenue and express as a percentage",
		)
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g earningsSurpriseGenerator) marginVariance(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	rev := math.Round(uniform(rng, 500, 8000))
	gm := uniform(rng, s.GrossMarginLo, s.GrossMarginHi)
	expectedOM := round1(uniform(rng, 0.08, gm-0.05) * 100)
	actualOM := round1(expectedOM + uniform(rng, -4, 4))
	variance := round1(actualOM - expectedOM)
	if variance == 0 {
		return nil, fmt.Errorf("margin_variance: zero variance after rounding")
	}
	question := fmt.Sprintf(
		"%s reported revenue of %s with an operating margin of %.1f%%, while analysts modeled %.1f%%. By how many percentage points did operating margin deviate from the model? Use a negative number for a shortfall.",
		company, moneyM(rev), actualOM, expectedOM)
	explanation := fmt.Sprintf("%.1f%% - %.1f%% = %.1f points.", actualOM, expectedOM, variance)
	info := meta(company, s, "margin_variance").
		ctx("revenue", rev).
		ctx("operating_margin", map[string]any{"modeled": expectedOM, "actual": actualOM}).
		steps("Subtract the modeled operating margin from the reported one")
	return numericProblem(g.Category(), d, question, variance, explanation, info), nil
}
