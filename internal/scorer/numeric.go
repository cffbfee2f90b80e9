package scorer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// absEpsilon guards the relative comparison when the expected value is
// at or near zero.
const absEpsilon = 1e-6

var numberRe = regexp.MustCompile(`(?i)([-+]?)\s*\$?\s*(\d[\d,]*(?:\.\d+)?)\s*(thousand|million|billion|trillion|[KMB]\b)?`)

func scoreNumeric(p *problem.Problem, response string) Result {
	want, err := strconv.ParseFloat(strings.TrimSpace(p.CorrectAnswer), 64)
	if err != nil {
		return Result{Outcome: OutcomeUnscored, Detail: "expected answer does not parse"}
	}

	got, ok := extractNumber(response)
	if !ok {
		return Result{Outcome: OutcomeUnscored, Detail: "no number found in response"}
	}

	tol := p.Tolerance
	if tol <= 0 {
		tol = problem.DefaultNumericTolerance
	}

	extracted := strconv.FormatFloat(got, 'f', -1, 64)
	if numericMatch(got, want, tol) {
		return Result{Outcome: OutcomeCorrect, Score: 1, Extracted: extracted}
	}
	return Result{
		Outcome:   OutcomeIncorrect,
		Extracted: extracted,
		Detail:    fmt.Sprintf("got %v, want %v within %.0f%%", got, want, tol*100),
	}
}

func numericMatch(got, want, tol float64) bool {
	if math.Abs(want) < absEpsilon {
		return math.Abs(got-want) <= absEpsilon
	}
	return math.Abs(got-want)/math.Abs(want) <= tol
}

// extractNumber parses the last number in a response, on the theory
// that models state their final answer after the working. Currency
// symbols, thousands separators, percent signs, and magnitude suffixes
// are handled.
func extractNumber(response string) (float64, bool) {
	matches := numberRe.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return 0, false
	}
	m := matches[len(matches)-1]

	raw := strings.ReplaceAll(m[2], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if m[1] == "-" {
		v = -v
	}
	v *= suffixMultiplier(m[3])
	return v, true
}

func suffixMultiplier(suffix string) float64 {
	switch strings.ToLower(strings.TrimSpace(suffix)) {
	case "k", "thousand":
		return 1e3
	case "m", "million":
		return 1e6
	case "b", "billion":
		return 1e9
	case "trillion":
		return 1e12
	default:
		return 1
	}
}
