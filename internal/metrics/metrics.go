package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/stellarlinkco/finbench/internal/problem"
	"github.com/stellarlinkco/finbench/internal/runner"
	"github.com/stellarlinkco/finbench/internal/scorer"
)

// Sample is one scored model response, the unit the aggregator reduces
// over. Failed marks a request that errored out after retries; failed
// samples carry no latency worth summarizing.
type Sample struct {
	ProblemID    string             `json:"problem_id"`
	Category     problem.Category   `json:"category"`
	Difficulty   problem.Difficulty `json:"difficulty"`
	Outcome      scorer.Outcome     `json:"outcome"`
	Score        float64            `json:"score"`
	LatencyMs    int64              `json:"latency_ms"`
	InputTokens  int                `json:"input_tokens,omitempty"`
	OutputTokens int                `json:"output_tokens,omitempty"`
	Failed       bool               `json:"failed,omitempty"`
}

// Stratum is the scored breakdown for one category or difficulty.
// Accuracy is nil when the stratum has no scored samples, never a
// misleading zero.
type Stratum struct {
	Total     int      `json:"total"`
	Correct   int      `json:"correct"`
	Incorrect int      `json:"incorrect"`
	Unscored  int      `json:"unscored"`
	Accuracy  *float64 `json:"accuracy"`
}

type LatencySummary struct {
	P50Ms int64 `json:"p50_ms"`
	P95Ms int64 `json:"p95_ms"`
	P99Ms int64 `json:"p99_ms"`
}

// Report aggregates one evaluation run of a model over a split.
type Report struct {
	Model     string    `json:"model"`
	Split     string    `json:"split"`
	Timestamp time.Time `json:"timestamp"`

	Total     int     `json:"total"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Unscored  int     `json:"unscored"`
	Errors    int     `json:"errors"`
	Accuracy  float64 `json:"accuracy"`
	MeanScore float64 `json:"mean_score"`

	ByCategory   map[problem.Category]*Stratum   `json:"by_category"`
	ByDifficulty map[problem.Difficulty]*Stratum `json:"by_difficulty"`

	Latency      LatencySummary `json:"latency"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
}

// AggregationError reports that a run produced nothing to aggregate.
type AggregationError struct {
	Model string
	Split string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("metrics: no results to aggregate for model %q split %q", e.Model, e.Split)
}

// Aggregate reduces samples into a report. Accuracy excludes unscored
// samples from the denominator; their count is reported separately.
// The result does not depend on sample order.
func Aggregate(model, split string, samples []Sample) (*Report, error) {
	if len(samples) == 0 {
		return nil, &AggregationError{Model: model, Split: split}
	}

	rep := &Report{
		Model:        model,
		Split:        split,
		Timestamp:    time.Now().UTC(),
		Total:        len(samples),
		ByCategory:   make(map[problem.Category]*Stratum),
		ByDifficulty: make(map[problem.Difficulty]*Stratum),
	}

	var scoreSum float64
	var latencies []int64
	for _, s := range samples {
		cat := stratumFor(rep.ByCategory, s.Category)
		diff := stratumFor(rep.ByDifficulty, s.Difficulty)
		cat.Total++
		diff.Total++

		switch s.Outcome {
		case scorer.OutcomeCorrect:
			rep.Correct++
			cat.Correct++
			diff.Correct++
		case scorer.OutcomeIncorrect:
			rep.Incorrect++
			cat.Incorrect++
			diff.Incorrect++
		default:
			rep.Unscored++
			cat.Unscored++
			diff.Unscored++
		}

		scoreSum += s.Score
		rep.InputTokens += s.InputTokens
		rep.OutputTokens += s.OutputTokens
		if s.Failed {
			rep.Errors++
		} else {
			latencies = append(latencies, s.LatencyMs)
		}
	}

	if scored := rep.Correct + rep.Incorrect; scored > 0 {
		rep.Accuracy = float64(rep.Correct) / float64(scored)
	}
	rep.MeanScore = scoreSum / float64(rep.Total)

	for _, st := range rep.ByCategory {
		finishStratum(st)
	}
	for _, st := range rep.ByDifficulty {
		finishStratum(st)
	}

	rep.Latency = LatencySummary{
		P50Ms: percentile(latencies, 50),
		P95Ms: percentile(latencies, 95),
		P99Ms: percentile(latencies, 99),
	}

	return rep, nil
}

func stratumFor[K comparable](m map[K]*Stratum, key K) *Stratum {
	st, ok := m[key]
	if !ok {
		st = &Stratum{}
		m[key] = st
	}
	return st
}

func finishStratum(st *Stratum) {
	scored := st.Correct + st.Incorrect
	if scored == 0 {
		return
	}
	acc := float64(st.Correct) / float64(scored)
	st.Accuracy = &acc
}

// percentile is nearest-rank over a copy of the input.
func percentile(values []int64, pct int) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := (pct*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

// FromRun builds a sample from a run result and its score. Failed
// requests resolve to unscored with no score.
func FromRun(res runner.Result, sc scorer.Result) Sample {
	s := Sample{
		ProblemID:    res.ProblemID,
		Category:     res.Category,
		Difficulty:   res.Difficulty,
		LatencyMs:    res.LatencyMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Failed:       res.Err != nil,
		Outcome:      sc.Outcome,
		Score:        sc.Score,
	}
	if s.Failed {
		s.Outcome = scorer.OutcomeUnscored
		s.Score = 0
	}
	return s
}
