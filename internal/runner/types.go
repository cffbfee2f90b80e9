package runner

import (
	"time"

	"github.com/stellarlinkco/finbench/internal/problem"
)

// Config defines execution behavior for a benchmark run.
type Config struct {
	Concurrency int // Max in-flight requests per run
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration // Per-problem request timeout
}

// Result captures one model response to one problem. Err is set when
// the request failed after retries; Response is empty in that case.
type Result struct {
	ProblemID    string             `json:"problem_id"`
	Category     problem.Category   `json:"category"`
	Difficulty   problem.Difficulty `json:"difficulty"`
	Model        string             `json:"model,omitempty"`
	Response     string             `json:"response,omitempty"`
	LatencyMs    int64              `json:"latency_ms"`
	InputTokens  int                `json:"input_tokens,omitempty"`
	OutputTokens int                `json:"output_tokens,omitempty"`
	Err          error              `json:"-"`
}
