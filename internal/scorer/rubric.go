package scorer

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

func scoreFreeText(p *problem.Problem, response string) Result {
	rubric := p.Rubric
	if rubric == nil || len(rubric.Criteria) == 0 {
		return Result{Outcome: OutcomeUnscored, Detail: "no rubric attached"}
	}
	total := rubric.TotalWeight()
	if total <= 0 {
		return Result{Outcome: OutcomeUnscored, Detail: "rubric has no weight"}
	}

	lower := strings.ToLower(response)
	hits := make(map[string]bool, len(rubric.Criteria))
	var earned float64
	for _, c := range rubric.Criteria {
		hit := criterionHit(lower, c)
		hits[c.ID] = hit
		if hit {
			earned += c.Weight
		}
	}

	score := earned / total
	outcome := OutcomeIncorrect
	if score >= rubric.Threshold() {
		outcome = OutcomeCorrect
	}
	return Result{
		Outcome:       outcome,
		Score:         score,
		Detail:        fmt.Sprintf("%.2f of rubric weight, threshold %.2f", score, rubric.Threshold()),
		CriterionHits: hits,
	}
}

// criterionHit checks whether a response satisfies one rubric
// criterion. Explicit keywords win; otherwise the significant words of
// the description stand in for them.
func criterionHit(lowerResponse string, c problem.Criterion) bool {
	keywords := c.Keywords
	if len(keywords) == 0 {
		keywords = significantWords(c.Description)
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lowerResponse, kw) {
			return true
		}
	}
	return false
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if len(w) >= 5 {
			out = append(out, w)
		}
	}
	return out
}
