package scorer

import (
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

func scoreMCQ(p *problem.Problem, response string) Result {
	letter, ok := extractChoice(response, p.Options)
	if !ok {
		return Result{Outcome: OutcomeUnscored, Detail: "no option identified in response"}
	}
	if strings.EqualFold(letter, strings.TrimSpace(p.CorrectAnswer)) {
		return Result{Outcome: OutcomeCorrect, Score: 1, Extracted: letter}
	}
	return Result{Outcome: OutcomeIncorrect, Extracted: letter}
}

// extractChoice pulls an option id out of a response, trying the strict
// final-answer convention first and progressively looser readings after
// that.
func extractChoice(response string, options []problem.Option) (string, bool) {
	if len(options) == 0 {
		return "", false
	}

	if letter, ok := answerLine(response, options); ok {
		return letter, true
	}
	if letter, ok := letterToken(response, options); ok {
		return letter, true
	}
	return optionTextMatch(response, options)
}

// answerLine looks for an explicit "Answer: X" declaration, preferring
// the last one in case the model restates its conclusion.
func answerLine(response string, options []problem.Option) (string, bool) {
	lines := strings.Split(response, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.ToLower(strings.TrimSpace(lines[i]))
		idx := strings.Index(line, "answer:")
		if idx < 0 {
			idx = strings.Index(line, "answer is")
			if idx < 0 {
				continue
			}
			idx += len("answer is")
		} else {
			idx += len("answer:")
		}
		rest := strings.TrimSpace(line[idx:])
		if letter, ok := letterToken(rest, options); ok {
			return letter, true
		}
	}
	return "", false
}

// letterToken finds the first standalone option letter, with
// non-alphanumeric boundaries on both sides.
func letterToken(s string, options []problem.Option) (string, bool) {
	valid := make(map[byte]string, len(options))
	for _, opt := range options {
		id := strings.TrimSpace(opt.ID)
		if len(id) != 1 {
			continue
		}
		c := id[0]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		valid[c] = id
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c = c - 'a' + 'A'
		}
		id, ok := valid[c]
		if !ok {
			continue
		}
		prevOK := i == 0 || !isAlphaNum(s[i-1])
		nextOK := i+1 == len(s) || !isAlphaNum(s[i+1])
		if prevOK && nextOK {
			return id, true
		}
	}
	return "", false
}

// optionTextMatch succeeds only when exactly one option's text appears
// in the response; an ambiguous response stays unscored.
func optionTextMatch(response string, options []problem.Option) (string, bool) {
	ls := strings.ToLower(response)
	match := ""
	found := 0
	for _, opt := range options {
		text := strings.ToLower(strings.TrimSpace(opt.Text))
		if text == "" {
			continue
		}
		if strings.Contains(ls, text) {
			match = opt.ID
			found++
		}
	}
	if found == 1 {
		return match, true
	}
	return "", false
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
