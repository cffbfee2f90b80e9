package generator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// valuationGenerator builds relative-valuation problems around trading
// multiples and triangulation across methods.
type valuationGenerator struct{}

func (valuationGenerator) Category() problem.Category {
	return problem.CategoryValuationAnalysis
}

var valuationVariants = []string{"ev_ebitda_comp", "peg_ratio", "rerating", "football_field"}

func (g valuationGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, valuationVariants) {
	case "ev_ebitda_comp":
		return g.evEBITDAComp(rng, d)
	case "peg_ratio":
		return g.pegRatio(rng, d)
	case "rerating":
		return g.rerating(rng, d)
	default:
		return g.footballField(rng, d)
	}
}

func (g valuationGenerator) evEBITDAComp(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	peerMultiple := round1(uniform(rng, 7, 16))
	ebitda := math.Round(uniform(rng, 200, 2500))
	netDebt := math.Round(uniform(rng, -200, ebitda*2))
	equity := peerMultiple*ebitda - netDebt
	if equity <= 0 {
		return nil, fmt.Errorf("ev_ebitda_comp: non-positive implied equity")
	}
	answer := math.Round(equity)
	question := fmt.Sprintf(
		"Peers of %s trade at %.1fx EV/EBITDA. The company has EBITDA of %s and net debt of %s. What equity value in millions does the peer multiple imply? Answer as a plain number.",
		company, peerMultiple, moneyM(ebitda), moneyM(netDebt))
	explanation := fmt.Sprintf("%.1f x %s - %s = %s.", peerMultiple, moneyM(ebitda), moneyM(netDebt), moneyM(answer))
	info := meta(company, s, "ev_ebitda_comp").
		ctx("peer_ev_ebitda", peerMultiple).
		ctx("ebitda", ebitda).
		ctx("net_debt", netDebt).
		steps(
			"Multiply EBITDA by the peer multiple to get enterprise value",
			"Subtract net debt to reach equity value",
		)
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g valuationGenerator) pegRatio(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	pe := round1(uniform(rng, 10, 45))
	growth := round1(uniform(rng, 5, 35))
	answer := round2(pe / growth)
	question := fmt.Sprintf(
		"%s trades at a P/E of %.1f with expected EPS growth of %.1f%% per year. What is its PEG ratio? Answer as a plain number.",
		company, pe, growth)
	explanation := fmt.Sprintf("%.1f / %.1f = %.2f. Below 1 is conventionally read as growth going cheap.", pe, growth, answer)
	info := meta(company, s, "peg_ratio").
		ctx("pe_ratio", pe).
		ctx("eps_growth", growth).
		steps("Divide the P/E ratio by the expected growth rate")
	return numericProblem(g.Category(), d, question, answer, explanation, info), nil
}

func (g valuationGenerator) rerating(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	scenarios := []struct {
		desc    string
		derates bool
	}{
		{desc: "its largest segment shifts from licensed software to lower-margin hardware resale", derates: true},
		{desc: "growth decelerates from 25% to single digits with no margin offset", derates: true},
		{desc: "a major customer concentration is resolved by broadening the client base", derates: false},
		{desc: "recurring revenue mix rises from 40% to 75% of sales", derates: false},
	}
	sc := pick(rng, scenarios)
	question := fmt.Sprintf(
		"%s currently trades at a premium multiple to its %s peers. Suppose %s. What is the most likely effect on its valuation multiple?",
		company, s.Name, sc.desc)
	texts := []string{
		"The multiple de-rates toward or below the peer average",
		"The multiple re-rates higher",
		"The multiple is unaffected; only earnings change",
		"The multiple becomes meaningless",
	}
	correctIdx := 0
	explanation := "Lower quality or slower growth compresses the premium investors will pay per dollar of earnings."
	if !sc.derates {
		correctIdx = 1
		explanation = "Higher revenue quality and durability justify a richer multiple."
	}
	info := meta(company, s, "rerating").
		ctx("scenario", sc.desc)
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g valuationGenerator) footballField(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	dcfLo := math.Round(uniform(rng, 40, 60))
	dcfHi := dcfLo + math.Round(uniform(rng, 10, 25))
	compLo := math.Round(uniform(rng, 35, 55))
	compHi := compLo + math.Round(uniform(rng, 8, 20))
	precLo := math.Round(uniform(rng, 50, 75))
	precHi := precLo + math.Round(uniform(rng, 10, 20))
	price := math.Round(uniform(rng, 30, 85))
	question := fmt.Sprintf(
		"%s trades at $%.0f. A valuation summary shows: DCF $%.0f-$%.0f, trading comparables $%.0f-$%.0f, precedent transactions $%.0f-$%.0f. Synthesize these ranges into a view on whether the stock looks undervalued, fairly valued, or overvalued, and explain which method deserves the most and least weight for a minority public-market investor.",
		company, price, dcfLo, dcfHi, compLo, compHi, precLo, precHi)
	mid := (dcfLo + dcfHi + compLo + compHi) / 4
	view := "fairly valued"
	if price < mid*0.9 {
		view = "undervalued"
	} else if price > mid*1.1 {
		view = "overvalued"
	}
	answer := fmt.Sprintf(
		"The stock looks %s against the DCF and comparables midpoints; precedent transactions embed a control premium and deserve the least weight for a minority holder, while the DCF and trading comps anchor the view.",
		view)
	criteria := []problem.Criterion{
		{ID: "valuation_view", Description: "States a clear valuation conclusion consistent with the ranges", Weight: 3, Category: "accuracy", Keywords: []string{view}},
		{ID: "control_premium", Description: "Notes precedent transactions embed a control premium", Weight: 2, Category: "reasoning_quality", Keywords: []string{"control", "premium", "precedent"}},
		{ID: "method_weighting", Description: "Weights methods explicitly rather than averaging blindly", Weight: 2, Category: "completeness", Keywords: []string{"weight", "dcf", "comparable"}},
	}
	rubric := &problem.Rubric{Criteria: criteria, PassThreshold: problem.DefaultPassThreshold}
	explanation := "Minority investors cannot realize a control premium, so precedent deals overstate attainable value."
	info := meta(company, s, "football_field").
		ctx("price", price).
		ctx("ranges", map[string]any{
			"dcf":         map[string]any{"low": dcfLo, "high": dcfHi},
			"comparables": map[string]any{"low": compLo, "high": compHi},
			"precedent":   map[string]any{"low": precLo, "high": precHi},
		})
	return freeTextProblem(g.Category(), d, question, answer, rubric, explanation, info), nil
}
