package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stellarlinkco/finbench/internal/config"
	"github.com/stellarlinkco/finbench/internal/dataset"
	"github.com/stellarlinkco/finbench/internal/leaderboard"
	"github.com/stellarlinkco/finbench/internal/llm"
	"github.com/stellarlinkco/finbench/internal/metrics"
	"github.com/stellarlinkco/finbench/internal/problem"
	"github.com/stellarlinkco/finbench/internal/runner"
	"github.com/stellarlinkco/finbench/internal/scorer"
	"github.com/stellarlinkco/finbench/internal/store"
)

// EvalOptions select what to evaluate and against which provider.
type EvalOptions struct {
	Model        string
	Provider     string
	Split        dataset.Split
	Categories   []problem.Category
	Difficulties []problem.Difficulty
	Limit        int
	DatasetDir   string
}

// EvalOutcome is the result of one evaluation run.
type EvalOutcome struct {
	RunID  string
	Report *metrics.Report
	Entry  *leaderboard.Entry
}

// Evaluate runs a model over a dataset split end to end: load, query,
// score, aggregate, persist, and submit to the leaderboard. Individual
// provider failures become unscored results; only setup failures abort
// the run.
func Evaluate(ctx context.Context, cfg *config.Config, registry *llm.Registry, st store.RunWriter, lb *leaderboard.Store, opts EvalOptions) (*EvalOutcome, error) {
	if ctx == nil {
		return nil, errors.New("app: nil context")
	}
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if registry == nil {
		return nil, errors.New("app: nil provider registry")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("app: missing model id")
	}
	if !opts.Split.Valid() {
		return nil, fmt.Errorf("app: invalid split %q", opts.Split)
	}

	providerName := strings.TrimSpace(opts.Provider)
	if providerName == "" {
		providerName = cfg.LLM.DefaultProvider
	}
	provider, ok := registry.Get(providerName)
	if !ok {
		return nil, fmt.Errorf("app: provider %q not configured (available: %s)", providerName, strings.Join(registry.Available(), ", "))
	}

	dir := strings.TrimSpace(opts.DatasetDir)
	if dir == "" {
		dir = cfg.Dataset.Dir
	}
	problems, err := dataset.Load(ctx, dir, opts.Split)
	if err != nil {
		return nil, err
	}
	problems = FilterProblems(problems, opts.Categories, opts.Difficulties)
	if opts.Limit > 0 {
		problems = dataset.TakeFirstN(problems, opts.Limit)
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("app: no problems selected from split %q", opts.Split)
	}

	startedAt := time.Now().UTC()
	r := runner.NewRunner(provider, runner.Config{
		Concurrency: cfg.Runner.Concurrency,
		MaxTokens:   cfg.Runner.MaxTokens,
		Temperature: cfg.Runner.Temperature,
		Timeout:     cfg.Runner.Timeout,
	})
	results, err := r.Run(ctx, problems)
	if err != nil {
		return nil, err
	}
	finishedAt := time.Now().UTC()

	samples := make([]metrics.Sample, 0, len(results))
	records := make([]store.ResultRecord, 0, len(results))
	for i := range results {
		res := results[i]
		sc := scorer.Score(&problems[i], res.Response)
		samples = append(samples, metrics.FromRun(res, sc))
		records = append(records, resultRecord(res, sc))
	}

	report, err := metrics.Aggregate(model, string(opts.Split), samples)
	if err != nil {
		return nil, err
	}

	out := &EvalOutcome{Report: report}

	if st != nil {
		runID, err := newRunID()
		if err != nil {
			return nil, fmt.Errorf("app: generate run id: %w", err)
		}
		record := &store.RunRecord{
			ID:         runID,
			Model:      model,
			Split:      string(opts.Split),
			StartedAt:  startedAt,
			FinishedAt: finishedAt,
			Total:      report.Total,
			Correct:    report.Correct,
			Incorrect:  report.Incorrect,
			Unscored:   report.Unscored,
			Errors:     report.Errors,
			Accuracy:   report.Accuracy,
			Report:     report,
		}
		if err := st.SaveRun(ctx, record); err != nil {
			return nil, err
		}
		if err := st.SaveResults(ctx, runID, records); err != nil {
			return nil, err
		}
		out.RunID = runID
	}

	if lb != nil {
		entry, err := lb.Submit(ctx, model, report)
		if err != nil {
			return nil, err
		}
		out.Entry = entry
	}

	return out, nil
}

// FilterProblems keeps problems matching the given categories and
// difficulties. Empty filters match everything.
func FilterProblems(problems []problem.Problem, categories []problem.Category, difficulties []problem.Difficulty) []problem.Problem {
	if len(categories) == 0 && len(difficulties) == 0 {
		return problems
	}

	catSet := make(map[problem.Category]bool, len(categories))
	for _, c := range categories {
		catSet[c] = true
	}
	diffSet := make(map[problem.Difficulty]bool, len(difficulties))
	for _, d := range difficulties {
		diffSet[d] = true
	}

	out := make([]problem.Problem, 0, len(problems))
	for _, p := range problems {
		if len(catSet) > 0 && !catSet[p.Category] {
			continue
		}
		if len(diffSet) > 0 && !diffSet[p.Difficulty] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func resultRecord(res runner.Result, sc scorer.Result) store.ResultRecord {
	rec := store.ResultRecord{
		ProblemID:    res.ProblemID,
		Category:     res.Category,
		Difficulty:   res.Difficulty,
		Outcome:      sc.Outcome,
		Score:        sc.Score,
		Extracted:    sc.Extracted,
		Response:     res.Response,
		LatencyMs:    res.LatencyMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
		rec.Outcome = scorer.OutcomeUnscored
		rec.Score = 0
	}
	return rec
}

func newRunID() (string, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rand.Reader, buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("run_%s_%x", time.Now().UTC().Format("20060102T150405Z"), buf), nil
}
