package scorer

import (
	"testing"

	"github.com/stellarlinkco/finbench/internal/problem"
)

func mcqProblem() *problem.Problem {
	return &problem.Problem{
		ID:         "test-mcq",
		Category:   problem.CategoryEarningsSurprise,
		Difficulty: problem.DifficultyEasy,
		AnswerType: problem.AnswerMultipleChoice,
		Question:   "Did the company beat?",
		Options: []problem.Option{
			{ID: "A", Text: "Beat expectations"},
			{ID: "B", Text: "Missed expectations"},
			{ID: "C", Text: "Met expectations exactly"},
			{ID: "D", Text: "Cannot be determined"},
		},
		CorrectAnswer: "B",
	}
}

func TestScoreMCQStrictAnswerLine(t *testing.T) {
	p := mcqProblem()
	cases := []struct {
		name     string
		response string
		outcome  Outcome
	}{
		{"exact", "Answer: B", OutcomeCorrect},
		{"lowercase", "answer: b", OutcomeCorrect},
		{"with reasoning", "The EPS fell short of consensus.\nAnswer: B", OutcomeCorrect},
		{"answer is", "The answer is B.", OutcomeCorrect},
		{"wrong letter", "Answer: C", OutcomeIncorrect},
		{"restated conclusion", "Answer: A\nWait, reconsidering.\nAnswer: B", OutcomeCorrect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(p, tc.response)
			if got.Outcome != tc.outcome {
				t.Fatalf("Score(%q): outcome %s, want %s", tc.response, got.Outcome, tc.outcome)
			}
		})
	}
}

func TestScoreMCQLooseFallbacks(t *testing.T) {
	p := mcqProblem()

	got := Score(p, "I would go with B here.")
	if got.Outcome != OutcomeCorrect {
		t.Fatalf("letter token: outcome %s, want correct", got.Outcome)
	}

	// The letter inside a word must not count.
	got = Score(p, "The company missed expectations this quarter.")
	if got.Outcome != OutcomeCorrect {
		t.Fatalf("option text match: outcome %s, want correct", got.Outcome)
	}
}

func TestScoreMCQUnscored(t *testing.T) {
	p := mcqProblem()
	cases := []string{
		"",
		"I am not sure about this one.",
		"It either beat expectations or missed expectations.", // ambiguous
	}
	for _, response := range cases {
		got := Score(p, response)
		if got.Outcome != OutcomeUnscored {
			t.Fatalf("Score(%q): outcome %s, want unscored", response, got.Outcome)
		}
	}
}

func TestScoreMCQEmbeddedLetterIgnored(t *testing.T) {
	p := mcqProblem()
	// "b" appears only inside words; no standalone token, no option text.
	got := Score(p, "probably better to abstain")
	if got.Outcome != OutcomeUnscored {
		t.Fatalf("embedded letters: outcome %s, want unscored", got.Outcome)
	}
}

func numericProblem(answer string, tol float64) *problem.Problem {
	return &problem.Problem{
		ID:            "test-num",
		Category:      problem.CategoryStatementAnalysis,
		Difficulty:    problem.DifficultyMedium,
		AnswerType:    problem.AnswerNumeric,
		Question:      "What is the margin in percent?",
		CorrectAnswer: answer,
		Tolerance:     tol,
	}
}

func TestScoreNumeric(t *testing.T) {
	cases := []struct {
		name     string
		answer   string
		tol      float64
		response string
		outcome  Outcome
	}{
		{"exact", "42.5", 0, "The margin is 42.5", OutcomeCorrect},
		{"within tolerance", "100", 0.05, "Roughly 103", OutcomeCorrect},
		{"outside tolerance", "100", 0.05, "About 110", OutcomeIncorrect},
		{"percent sign", "42.5", 0, "42.5%", OutcomeCorrect},
		{"currency and commas", "12400", 0, "$12,400", OutcomeCorrect},
		{"negative", "-3.1", 0, "The shortfall was -3.1 points", OutcomeCorrect},
		{"last number wins", "7", 0, "Revenue was 500 and costs 465, so coverage is 7", OutcomeCorrect},
		{"million suffix", "2500000", 0, "About 2.5 million", OutcomeCorrect},
		{"billion shorthand", "1200000000", 0.05, "$1.2B", OutcomeCorrect},
		{"no number", "100", 0, "I cannot compute this.", OutcomeUnscored},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(numericProblem(tc.answer, tc.tol), tc.response)
			if got.Outcome != tc.outcome {
				t.Fatalf("Score(%q): outcome %s (detail %q), want %s", tc.response, got.Outcome, got.Detail, tc.outcome)
			}
		})
	}
}

func TestScoreNumericNearZero(t *testing.T) {
	p := numericProblem("0", 0.05)
	if got := Score(p, "0.0000001"); got.Outcome != OutcomeCorrect {
		t.Fatalf("near-zero epsilon: outcome %s, want correct", got.Outcome)
	}
	if got := Score(p, "0.5"); got.Outcome != OutcomeIncorrect {
		t.Fatalf("near-zero miss: outcome %s, want incorrect", got.Outcome)
	}
}

func freeTextProblem() *problem.Problem {
	return &problem.Problem{
		ID:            "test-ft",
		Category:      problem.CategoryCatalyst,
		Difficulty:    problem.DifficultyHard,
		AnswerType:    problem.AnswerFreeText,
		Question:      "Attribute the move.",
		CorrectAnswer: "The FDA approval drove the move.",
		Rubric: &problem.Rubric{
			Criteria: []problem.Criterion{
				{ID: "catalyst", Description: "Names the approval", Weight: 3, Keywords: []string{"fda", "approval"}},
				{ID: "new_info", Description: "Notes only new information moves prices", Weight: 2, Keywords: []string{"new", "priced"}},
				{ID: "stale", Description: "Discounts the stale rating", Weight: 1, Keywords: []string{"stale", "rating"}},
			},
		},
	}
}

func TestScoreFreeText(t *testing.T) {
	p := freeTextProblem()

	got := Score(p, "The FDA approval was new information; the old rating was stale.")
	if got.Outcome != OutcomeCorrect {
		t.Fatalf("full answer: outcome %s, want correct", got.Outcome)
	}
	if got.Score != 1 {
		t.Fatalf("full answer: score %v, want 1", got.Score)
	}

	// Only the 3-of-6 weight criterion hits: exactly at the 0.5 threshold.
	got = Score(p, "It was the FDA approval.")
	if got.Outcome != OutcomeCorrect {
		t.Fatalf("threshold answer: outcome %s (score %v), want correct", got.Outcome, got.Score)
	}
	if got.Score != 0.5 {
		t.Fatalf("threshold answer: score %v, want 0.5", got.Score)
	}

	// Only the 1-of-6 weight criterion hits: below threshold.
	got = Score(p, "Perhaps the analyst rating mattered.")
	if got.Outcome != OutcomeIncorrect {
		t.Fatalf("weak answer: outcome %s (score %v), want incorrect", got.Outcome, got.Score)
	}

	got = Score(p, "")
	if got.Outcome != OutcomeUnscored {
		t.Fatalf("empty answer: outcome %s, want unscored", got.Outcome)
	}
}

func TestScoreFreeTextCriterionHits(t *testing.T) {
	p := freeTextProblem()
	got := Score(p, "The FDA approval was the driver.")
	if !got.CriterionHits["catalyst"] {
		t.Fatalf("criterion catalyst should hit")
	}
	if got.CriterionHits["stale"] {
		t.Fatalf("criterion stale should not hit")
	}
}

func TestScoreNeverErrors(t *testing.T) {
	// Garbage in every field still yields a verdict, not a panic.
	p := &problem.Problem{AnswerType: problem.AnswerType("mystery")}
	got := Score(p, "anything")
	if got.Outcome != OutcomeUnscored {
		t.Fatalf("unknown type: outcome %s, want unscored", got.Outcome)
	}
	got = Score(nil, "anything")
	if got.Outcome != OutcomeUnscored {
		t.Fatalf("nil problem: outcome %s, want unscored", got.Outcome)
	}
}
