package generator

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// itemInfo carries the scaffolding shared by every generated problem:
// the drawn company, its sector, the scenario variant, and the
// structured context, reasoning steps, and tags the problem record
// exposes.
type itemInfo struct {
	Company string
	Sector  sector
	Variant string
	Context map[string]any
	Steps   []string
	Tags    []string
}

func meta(company string, s sector, variant string) itemInfo {
	return itemInfo{
		Company: company,
		Sector:  s,
		Variant: variant,
		Context: map[string]any{
			"company_name": company,
			"sector":       s.Name,
		},
	}
}

// ctx adds one context fact. Values may themselves be maps, so
// per-year figures nest naturally.
func (m itemInfo) ctx(key string, v any) itemInfo {
	m.Context[key] = v
	return m
}

func (m itemInfo) steps(ss ...string) itemInfo {
	m.Steps = ss
	return m
}

func (m itemInfo) apply(p *problem.Problem) {
	p.Context = m.Context
	p.ReasoningSteps = m.Steps
	p.Tags = append([]string{m.Variant, tagSlug(m.Sector.Name)}, m.Tags...)
	p.Metadata = map[string]string{
		"company": m.Company,
		"sector":  m.Sector.Name,
		"variant": m.Variant,
	}
}

func tagSlug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

// tolFor tightens the numeric tolerance as difficulty rises.
func tolFor(d problem.Difficulty) float64 {
	switch d {
	case problem.DifficultyHard:
		return 0.03
	case problem.DifficultyExpert:
		return 0.02
	default:
		return problem.DefaultNumericTolerance
	}
}

func mcqProblem(rng *rand.Rand, cat problem.Category, d problem.Difficulty, question string, texts []string, correctIdx int, explanation string, info itemInfo) *problem.Problem {
	opts, correct := finishMCQ(rng, texts, correctIdx)
	p := &problem.Problem{
		Category:      cat,
		Difficulty:    d,
		AnswerType:    problem.AnswerMultipleChoice,
		Question:      question,
		Options:       opts,
		CorrectAnswer: correct,
		Explanation:   explanation,
	}
	info.apply(p)
	p.ID = problem.DeriveID(cat, question, correct)
	return p
}

func numericProblem(cat problem.Category, d problem.Difficulty, question string, answer float64, explanation string, info itemInfo) *problem.Problem {
	ans := strconv.FormatFloat(answer, 'f', -1, 64)
	p := &problem.Problem{
		Category:      cat,
		Difficulty:    d,
		AnswerType:    problem.AnswerNumeric,
		Question:      question,
		CorrectAnswer: ans,
		Tolerance:     tolFor(d),
		Explanation:   explanation,
	}
	info.apply(p)
	p.ID = problem.DeriveID(cat, question, ans)
	return p
}

func freeTextProblem(cat problem.Category, d problem.Difficulty, question, answer string, rubric *problem.Rubric, explanation string, info itemInfo) *problem.Problem {
	p := &problem.Problem{
		Category:      cat,
		Difficulty:    d,
		AnswerType:    problem.AnswerFreeText,
		Question:      question,
		CorrectAnswer: answer,
		Rubric:        rubric,
		Explanation:   explanation,
	}
	info.apply(p)
	p.ID = problem.DeriveID(cat, question, answer)
	return p
}
