package scorer

import (
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// Outcome classifies a scored response. Unparseable output is reported
// as unscored rather than as an error.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeUnscored  Outcome = "unscored"
)

// Result is the verdict for one model response.
type Result struct {
	Outcome   Outcome
	Score     float64 // 0.0 - 1.0
	Extracted string  // the answer pulled out of the raw response
	Detail    string
	// CriterionHits records which rubric criteria matched, free text only.
	CriterionHits map[string]bool
}

// Score grades a raw model response against a problem. It never fails:
// responses that cannot be interpreted come back unscored.
func Score(p *problem.Problem, response string) Result {
	if p == nil {
		return Result{Outcome: OutcomeUnscored, Detail: "nil problem"}
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return Result{Outcome: OutcomeUnscored, Detail: "empty response"}
	}

	switch p.AnswerType {
	case problem.AnswerMultipleChoice:
		return scoreMCQ(p, response)
	case problem.AnswerNumeric:
		return scoreNumeric(p, response)
	case problem.AnswerFreeText:
		return scoreFreeText(p, response)
	default:
		return Result{Outcome: OutcomeUnscored, Detail: "unknown answer type"}
	}
}
