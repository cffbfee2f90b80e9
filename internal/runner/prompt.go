package runner

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/finbench/internal/problem"
)

const systemPrompt = "You are a financial analyst answering benchmark questions. " +
	"Reason carefully about the numbers before answering, and follow the answer format exactly."

// BuildPrompt renders a problem into the user message sent to the model.
// The answer-format instruction depends on the answer type so responses
// stay machine-scorable.
func BuildPrompt(p *problem.Problem) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(p.Question))
	sb.WriteString("\n")

	switch p.AnswerType {
	case problem.AnswerMultipleChoice:
		sb.WriteString("\n")
		for _, opt := range p.Options {
			fmt.Fprintf(&sb, "%s) %s\n", opt.ID, opt.Text)
		}
		sb.WriteString("\nEnd your response with a final line formatted exactly as \"Answer: <letter>\".")
	case problem.AnswerNumeric:
		sb.WriteString("\nEnd your response with a final line formatted exactly as \"Answer: <number>\".")
	case problem.AnswerFreeText:
		sb.WriteString("\nGive a concise written analysis covering the key drivers of your conclusion.")
	}

	return sb.String()
}
