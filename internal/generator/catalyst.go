package generator

import (
	"fmt"
	"math/rand"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// catalystGenerator builds problems about identifying which events move
// a stock and in which direction.
type catalystGenerator struct{}

func (catalystGenerator) Category() problem.Category {
	return problem.CategoryCatalyst
}

var catalystVariants = []string{"event_direction", "magnitude_ranking", "timing", "attribution"}

type catalystEvent struct {
	Desc     string
	Positive bool
	Weight   int // relative expected price impact
	Keywords []string
}

var positiveEvents = []catalystEvent{
	{Desc: "an FDA approval for its lead drug candidate", Positive: true, Weight: 5, Keywords: []string{"fda", "approval", "drug"}},
	{Desc: "a large multi-year contract win with a government agency", Positive: true, Weight: 4, Keywords: []string{"contract", "government", "win"}},
	{Desc: "an activist investor disclosing a 9% stake", Positive: true, Weight: 3, Keywords: []string{"activist", "stake"}},
	{Desc: "a $2B share repurchase authorization", Positive: true, Weight: 2, Keywords: []string{"buyback", "repurchase"}},
	{Desc: "an analyst day unveiling above-consensus long-term targets", Positive: true, Weight: 2, Keywords: []string{"analyst day", "targets", "guidance"}},
}

var negativeEvents = []catalystEvent{
	{Desc: "a failed phase 3 clinical trial", Positive: false, Weight: 5, Keywords: []string{"trial", "failed", "phase"}},
	{Desc: "the CFO resigning amid an internal accounting review", Positive: false, Weight: 4, Keywords: []string{"cfo", "resign", "accounting"}},
	{Desc: "losing its largest customer, worth 20% of revenue", Positive: false, Weight: 4, Keywords: []string{"customer", "loss", "revenue"}},
	{Desc: "a dividend cut to preserve cash", Positive: false, Weight: 3, Keywords: []string{"dividend", "cut"}},
	{Desc: "a patent infringement suit from a major competitor", Positive: false, Weight: 2, Keywords: []string{"patent", "lawsuit", "suit"}},
}

func (g catalystGenerator) Generate(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	switch pick(rng, catalystVariants) {
	case "event_direction":
		return g.eventDirection(rng, d)
	case "magnitude_ranking":
		return g.magnitudeRanking(rng, d)
	case "timing":
		return g.timing(rng, d)
	default:
		return g.attribution(rng, d)
	}
}

func (g catalystGenerator) eventDirection(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	var ev catalystEvent
	if rng.Intn(2) == 0 {
		ev = pick(rng, positiveEvents)
	} else {
		ev = pick(rng, negativeEvents)
	}
	question := fmt.Sprintf(
		"%s announces %s. All else equal, what is the most likely near-term share price reaction?",
		company, ev.Desc)
	texts := []string{
		"The shares rise",
		"The shares fall",
		"No reaction; the event is priced in by definition",
		"The reaction depends only on the broader market that day",
	}
	correctIdx := 1
	explanation := "The event removes value or raises risk, so the stock should trade down."
	if ev.Positive {
		correctIdx = 0
		explanation = "The event adds expected value, so the stock should trade up."
	}
	info := meta(company, s, "event_direction").
		ctx("event", ev.Desc)
	return mcqProblem(rng, g.Category(), d, question, texts, correctIdx, explanation, info), nil
}

func (g catalystGenerator) magnitudeRanking(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	events := pickDistinct(rng, positiveEvents, 3)
	// Highest weight is the strongest catalyst.
	strongest := 0
	for i, ev := range events {
		if ev.Weight > events[strongest].Weight {
			strongest = i
		}
	}
	for i, ev := range events {
		if i != strongest && ev.Weight == events[strongest].Weight {
			return nil, fmt.Errorf("magnitude_ranking: tied event weights")
		}
	}
	question := fmt.Sprintf(
		"Over the next quarter %s expects three events: (1) %s, (2) %s, (3) %s. Which is likely to move the share price the most?",
		company, events[0].Desc, events[1].Desc, events[2].Desc)
	texts := make([]string, len(events))
	for i, ev := range events {
		texts[i] = fmt.Sprintf("Event %d: %s", i+1, ev.Desc)
	}
	explanation := fmt.Sprintf("The %s is the highest-impact event because it changes the earnings trajectory most directly.", events[strongest].Desc)
	info := meta(company, s, "magnitude_ranking").
		ctx("events", map[string]any{
			"first":  events[0].Desc,
			"second": events[1].Desc,
			"third":  events[2].Desc,
		})
	return mcqProblem(rng, g.Category(), d, question, texts, strongest, explanation, info), nil
}

func (g catalystGenerator) timing(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	weeks := pick(rng, []int{2, 4, 6, 8})
	question := fmt.Sprintf(
		"%s reports earnings in %d weeks and a binary regulatory decision is due 1 week after that. An investor wants exposure to the regulatory outcome but not to earnings noise. Which timing is most consistent with that goal?",
		company, weeks)
	texts := []string{
		"Build the position after the earnings report, before the decision",
		"Build the position today and hold through both events",
		"Build the position only after the regulatory decision",
		"Timing is irrelevant for event-driven positions",
	}
	explanation := "Entering between the two events isolates the regulatory outcome from earnings volatility."
	info := meta(company, s, "timing").
		ctx("weeks_to_earnings", weeks)
	return mcqProblem(rng, g.Category(), d, question, texts, 0, explanation, info), nil
}

func (g catalystGenerator) attribution(rng *rand.Rand, d problem.Difficulty) (*problem.Problem, error) {
	company, s := drawCompany(rng)
	move := round1(uniform(rng, 8, 25))
	driver := pick(rng, positiveEvents)
	distractor := pick(rng, positiveEvents)
	if distractor.Desc == driver.Desc {
		return nil, fmt.Errorf("attribution: driver and distractor collide")
	}
	question := fmt.Sprintf(
		"%s shares rose %.1f%% in a single session. That morning the company announced %s, and a sell-side analyst separately reiterated a buy rating citing %s announced last month. Identify the primary catalyst for the move and briefly justify the attribution.",
		company, move, driver.Desc, distractor.Desc)
	answer := fmt.Sprintf("The primary catalyst is %s; it is new information released that morning, while the reiterated rating recycles last month's news.", driver.Desc)

	criteria := []problem.Criterion{
		{ID: "identifies_catalyst", Description: "Names the same-day announcement as the primary catalyst", Weight: 3, Category: "accuracy", Keywords: driver.Keywords},
		{ID: "new_information", Description: "Notes that only new information moves the price", Weight: 2, Category: "reasoning_quality", Keywords: []string{"new", "already", "priced"}},
		{ID: "dismisses_stale", Description: "Discounts the reiterated rating as stale", Weight: 1, Category: "completeness", Keywords: []string{"reiterat", "rating", "stale", "old"}},
	}
	rubric := &problem.Rubric{Criteria: criteria, PassThreshold: problem.DefaultPassThreshold}
	explanation := "Same-day disclosures dominate recycled analyst commentary in attribution."
	info := meta(company, s, "attribution").
		ctx("price_move", move).
		ctx("same_day_event", driver.Desc).
		ctx("stale_event", distractor.Desc)
	return freeTextProblem(g.Category(), d, question, answer, rubric, explanation, info), nil
}

// pickDistinct draws n distinct events by index.
func pickDistinct(rng *rand.Rand, events []catalystEvent, n int) []catalystEvent {
	idx := rng.Perm(len(events))[:n]
	out := make([]catalystEvent, n)
	for i, j := range idx {
		out[i] = events[j]
	}
	return out
}
