package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/stellarlinkco/finbench/internal/llm"
	"github.com/stellarlinkco/finbench/internal/problem"
)

// Runner sends benchmark problems to a provider with bounded
// concurrency.
type Runner struct {
	provider llm.Provider
	cfg      Config

	sem chan struct{}
}

func NewRunner(provider llm.Provider, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	return &Runner{
		provider: provider,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// Run sends every problem to the provider and returns one result per
// problem in input order. Individual request failures are recorded on
// the result rather than aborting the run; only setup errors and a
// canceled context before the first dispatch return an error.
func (r *Runner) Run(ctx context.Context, problems []problem.Problem) ([]Result, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if r.provider == nil {
		return nil, errors.New("runner: nil llm provider")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]Result, len(problems))

	var wg sync.WaitGroup
	for i := range problems {
		p := &problems[i]
		idx := i

		wg.Add(1)
		go func() {
			defer wg.Done()
			results[idx] = r.runOne(ctx, p)
		}()
	}
	wg.Wait()

	return results, nil
}

func (r *Runner) runOne(ctx context.Context, p *problem.Problem) Result {
	out := Result{
		ProblemID:  p.ID,
		Category:   p.Category,
		Difficulty: p.Difficulty,
	}

	if err := r.acquire(ctx); err != nil {
		out.Err = err
		return out
	}
	defer r.release()

	reqCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	resp, err := r.provider.Complete(reqCtx, &llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: BuildPrompt(p)}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		out.Err = err
		return out
	}

	out.Model = resp.Model
	out.Response = resp.Text
	out.LatencyMs = resp.LatencyMs
	out.InputTokens = resp.Usage.InputTokens
	out.OutputTokens = resp.Usage.OutputTokens
	return out
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}
