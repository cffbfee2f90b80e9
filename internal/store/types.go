package store

import (
	"context"
	"time"

	"github.com/stellarlinkco/finbench/internal/metrics"
	"github.com/stellarlinkco/finbench/internal/problem"
	"github.com/stellarlinkco/finbench/internal/scorer"
)

// RunWriter defines persistence for evaluation runs and their
// per-problem results.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	SaveResults(ctx context.Context, runID string, results []ResultRecord) error
}

// RunReader defines read access to stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetResults(ctx context.Context, runID string) ([]ResultRecord, error)
}

// Store defines persistence for evaluation runs.
type Store interface {
	RunWriter
	RunReader
	Close() error
}

// RunRecord stores one evaluation run summary. Report holds the full
// aggregated report for auditability.
type RunRecord struct {
	ID         string
	Model      string
	Split      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Correct    int
	Incorrect  int
	Unscored   int
	Errors     int
	Accuracy   float64
	Report     *metrics.Report
}

// ResultRecord stores a single problem outcome within a run.
type ResultRecord struct {
	ProblemID    string             `json:"problem_id"`
	Category     problem.Category   `json:"category"`
	Difficulty   problem.Difficulty `json:"difficulty"`
	Outcome      scorer.Outcome     `json:"outcome"`
	Score        float64            `json:"score"`
	Extracted    string             `json:"extracted,omitempty"`
	Response     string             `json:"response,omitempty"`
	LatencyMs    int64              `json:"latency_ms"`
	InputTokens  int                `json:"input_tokens,omitempty"`
	OutputTokens int                `json:"output_tokens,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// RunFilter filters run listings.
type RunFilter struct {
	Model string
	Split string
	Since time.Time
	Until time.Time
	Limit int
}
