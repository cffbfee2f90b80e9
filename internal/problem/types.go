package problem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Category identifies the financial reasoning domain a problem belongs to.
type Category string

const (
	CategoryEarningsSurprise  Category = "earnings_surprise"
	CategoryDCFSanityCheck    Category = "dcf_sanity_check"
	CategoryAccountingRedFlag Category = "accounting_red_flag"
	CategoryCatalyst          Category = "catalyst_identification"
	CategoryFormulaAudit      Category = "formula_audit"
	CategoryStatementAnalysis Category = "financial_statement_analysis"
	CategoryValuationAnalysis Category = "valuation_analysis"
)

// Categories returns all categories in canonical order.
func Categories() []Category {
	return []Category{
		CategoryEarningsSurprise,
		CategoryDCFSanityCheck,
		CategoryAccountingRedFlag,
		CategoryCatalyst,
		CategoryFormulaAudit,
		CategoryStatementAnalysis,
		CategoryValuationAnalysis,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty grades how demanding a problem is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Difficulties returns all difficulty levels from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyExpert:
		return true
	}
	return false
}

// AnswerType describes how a problem expects to be answered and scored.
type AnswerType string

const (
	AnswerMultipleChoice AnswerType = "multiple_choice"
	AnswerNumeric        AnswerType = "numeric"
	AnswerFreeText       AnswerType = "free_text"
)

// Valid reports whether t is a known answer type.
func (t AnswerType) Valid() bool {
	switch t {
	case AnswerMultipleChoice, AnswerNumeric, AnswerFreeText:
		return true
	}
	return false
}

// DefaultNumericTolerance is the relative tolerance applied to numeric
// answers when a problem does not carry its own.
const DefaultNumericTolerance = 0.05

// Option is a single multiple-choice answer option.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Problem is one benchmark item. Context carries the structured
// financial facts behind the question and may nest arbitrarily
// (per-year figures, sub-statements).
type Problem struct {
	ID             string            `json:"id"`
	Category       Category          `json:"category"`
	Difficulty     Difficulty        `json:"difficulty"`
	AnswerType     AnswerType        `json:"answer_type"`
	Question       string            `json:"question"`
	Context        map[string]any    `json:"context,omitempty"`
	Options        []Option          `json:"options,omitempty"`
	CorrectAnswer  string            `json:"correct_answer"`
	Tolerance      float64           `json:"tolerance,omitempty"`
	Rubric         *Rubric           `json:"rubric,omitempty"`
	Explanation    string            `json:"explanation,omitempty"`
	ReasoningSteps []string          `json:"reasoning_steps,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at,omitzero"`
}

const idQuestionPrefixLen = 100

// DeriveID computes a stable short identifier from the content that
// makes a problem distinct. Two problems with the same category,
// question and answer collide on purpose.
func DeriveID(category Category, question, correctAnswer string) string {
	q := question
	if len(q) > idQuestionPrefixLen {
		q = q[:idQuestionPrefixLen]
	}
	sum := sha256.Sum256([]byte(string(category) + ":" + q + ":" + correctAnswer))
	return hex.EncodeToString(sum[:])[:12]
}

// Validate checks structural consistency of the problem.
func (p *Problem) Validate() error {
	if p == nil {
		return errors.New("problem: nil problem")
	}
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("problem: empty id")
	}
	if !p.Category.Valid() {
		return fmt.Errorf("problem: unknown category %q", p.Category)
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("problem: unknown difficulty %q", p.Difficulty)
	}
	if !p.AnswerType.Valid() {
		return fmt.Errorf("problem: unknown answer type %q", p.AnswerType)
	}
	if strings.TrimSpace(p.Question) == "" {
		return errors.New("problem: empty question")
	}
	if strings.TrimSpace(p.CorrectAnswer) == "" {
		return errors.New("problem: empty correct answer")
	}

	switch p.AnswerType {
	case AnswerMultipleChoice:
		return p.validateOptions()
	case AnswerNumeric:
		if _, err := strconv.ParseFloat(strings.TrimSpace(p.CorrectAnswer), 64); err != nil {
			return fmt.Errorf("problem: numeric answer %q does not parse: %w", p.CorrectAnswer, err)
		}
		if p.Tolerance < 0 {
			return fmt.Errorf("problem: negative tolerance %v", p.Tolerance)
		}
	case AnswerFreeText:
		if p.Rubric == nil {
			return errors.New("problem: free text problem without rubric")
		}
		if err := p.Rubric.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Problem) validateOptions() error {
	if len(p.Options) < 2 || len(p.Options) > 6 {
		return fmt.Errorf("problem: %d options, want 2-6", len(p.Options))
	}
	seen := make(map[string]bool, len(p.Options))
	correct := 0
	for _, opt := range p.Options {
		id := strings.TrimSpace(opt.ID)
		if id == "" || strings.TrimSpace(opt.Text) == "" {
			return errors.New("problem: option with empty id or text")
		}
		if seen[id] {
			return fmt.Errorf("problem: duplicate option id %q", id)
		}
		seen[id] = true
		if strings.EqualFold(id, strings.TrimSpace(p.CorrectAnswer)) {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("problem: correct answer %q matches %d options, want exactly 1", p.CorrectAnswer, correct)
	}
	return nil
}
