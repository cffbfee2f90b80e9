package problem

import (
	"strings"
	"testing"
)

func validMCQ() *Problem {
	return &Problem{
		ID:         DeriveID(CategoryEarningsSurprise, "Did the company beat?", "A"),
		Category:   CategoryEarningsSurprise,
		Difficulty: DifficultyEasy,
		AnswerType: AnswerMultipleChoice,
		Question:   "Did the company beat?",
		Options: []Option{
			{ID: "A", Text: "Beat"},
			{ID: "B", Text: "Miss"},
			{ID: "C", Text: "In line"},
		},
		CorrectAnswer: "A",
	}
}

func TestDeriveIDStable(t *testing.T) {
	a := DeriveID(CategoryDCFSanityCheck, "question", "42")
	b := DeriveID(CategoryDCFSanityCheck, "question", "42")
	if a != b {
		t.Fatalf("DeriveID not stable: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("DeriveID length: got %d want 12", len(a))
	}
	if c := DeriveID(CategoryDCFSanityCheck, "question", "43"); c == a {
		t.Fatalf("DeriveID: different answers share id %q", c)
	}
}

func TestDeriveIDTruncatesQuestion(t *testing.T) {
	long := strings.Repeat("x", 300)
	a := DeriveID(CategoryFormulaAudit, long, "1")
	b := DeriveID(CategoryFormulaAudit, long[:100]+"different tail", "1")
	if a != b {
		t.Fatalf("DeriveID should only consider the question prefix")
	}
}

func TestValidateMCQ(t *testing.T) {
	p := validMCQ()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p = validMCQ()
	p.CorrectAnswer = "Z"
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for answer outside options")
	}

	p = validMCQ()
	p.Options = p.Options[:1]
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for single option")
	}

	p = validMCQ()
	p.Options = append(p.Options, Option{ID: "A", Text: "Dup"})
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for duplicate option id")
	}
}

func TestValidateNumeric(t *testing.T) {
	p := &Problem{
		ID:            "abc123def456",
		Category:      CategoryDCFSanityCheck,
		Difficulty:    DifficultyMedium,
		AnswerType:    AnswerNumeric,
		Question:      "What is the implied multiple?",
		CorrectAnswer: "12.5",
		Tolerance:     0.02,
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	p.CorrectAnswer = "not a number"
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for non-numeric answer")
	}

	p.CorrectAnswer = "12.5"
	p.Tolerance = -0.1
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for negative tolerance")
	}
}

func TestValidateFreeText(t *testing.T) {
	p := &Problem{
		ID:            "abc123def456",
		Category:      CategoryCatalyst,
		Difficulty:    DifficultyHard,
		AnswerType:    AnswerFreeText,
		Question:      "Explain the likely catalyst.",
		CorrectAnswer: "The product launch drives upside.",
	}
	if err := p.Validate(); err == nil {
		t.Fatalf("Validate: expected error for missing rubric")
	}

	p.Rubric = &Rubric{Criteria: []Criterion{
		{ID: "c1", Description: "Identifies the launch", Weight: 2},
		{ID: "c2", Description: "States direction", Weight: 1},
	}}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRubricValidate(t *testing.T) {
	r := &Rubric{}
	if err := r.Validate(); err == nil {
		t.Fatalf("Validate: expected error for empty rubric")
	}

	r = &Rubric{Criteria: []Criterion{{ID: "c1", Description: "d", Weight: 0}}}
	if err := r.Validate(); err == nil {
		t.Fatalf("Validate: expected error for zero weight")
	}

	r = &Rubric{Criteria: []Criterion{
		{ID: "c1", Description: "d", Weight: 1},
		{ID: "c1", Description: "d2", Weight: 1},
	}}
	if err := r.Validate(); err == nil {
		t.Fatalf("Validate: expected error for duplicate criterion id")
	}
}

func TestRubricThreshold(t *testing.T) {
	var r *Rubric
	if got := r.Threshold(); got != DefaultPassThreshold {
		t.Fatalf("Threshold on nil rubric: got %v want %v", got, DefaultPassThreshold)
	}
	r = &Rubric{PassThreshold: 0.7}
	if got := r.Threshold(); got != 0.7 {
		t.Fatalf("Threshold: got %v want 0.7", got)
	}
}

func TestCategoryAndDifficultyValid(t *testing.T) {
	for _, c := range Categories() {
		if !c.Valid() {
			t.Fatalf("category %q should be valid", c)
		}
	}
	if Category("astrology").Valid() {
		t.Fatalf("unknown category reported valid")
	}
	for _, d := range Difficulties() {
		if !d.Valid() {
			t.Fatalf("difficulty %q should be valid", d)
		}
	}
	if Difficulty("brutal").Valid() {
		t.Fatalf("unknown difficulty reported valid")
	}
}
