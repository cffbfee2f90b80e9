package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stellarlinkco/finbench/internal/llm"
	"github.com/stellarlinkco/finbench/internal/problem"
)

type fakeProvider struct {
	mu       sync.Mutex
	inFlight int32
	peak     int32
	delay    time.Duration
	failIDs  map[string]bool
	calls    []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if cur <= p || atomic.CompareAndSwapInt32(&f.peak, p, cur) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	user := req.Messages[len(req.Messages)-1].Content
	f.mu.Lock()
	f.calls = append(f.calls, user)
	f.mu.Unlock()

	for id := range f.failIDs {
		if strings.Contains(user, id) {
			return nil, &llm.APIError{Provider: "fake", StatusCode: 500}
		}
	}

	return &llm.Response{
		Text:      "Answer: A",
		Model:     "fake-1",
		LatencyMs: 5,
		Usage:     llm.Usage{InputTokens: 10, OutputTokens: 3},
	}, nil
}

func mcqProblems(n int) []problem.Problem {
	out := make([]problem.Problem, n)
	for i := range out {
		out[i] = problem.Problem{
			ID:         fmt.Sprintf("prob-%03d", i),
			Category:   problem.CategoryFormulaAudit,
			Difficulty: problem.DifficultyEasy,
			AnswerType: problem.AnswerMultipleChoice,
			Question:   fmt.Sprintf("Question prob-%03d: which option is correct?", i),
			Options: []problem.Option{
				{ID: "A", Text: "first"},
				{ID: "B", Text: "second"},
			},
			CorrectAnswer: "A",
		}
	}
	return out
}

func TestRun_PreservesInputOrder(t *testing.T) {
	fp := &fakeProvider{}
	r := NewRunner(fp, Config{Concurrency: 4})

	probs := mcqProblems(12)
	results, err := r.Run(context.Background(), probs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(probs) {
		t.Fatalf("results: got %d want %d", len(results), len(probs))
	}
	for i, res := range results {
		if res.ProblemID != probs[i].ID {
			t.Fatalf("result %d: got id %q want %q", i, res.ProblemID, probs[i].ID)
		}
		if res.Err != nil {
			t.Fatalf("result %d: unexpected error %v", i, res.Err)
		}
		if res.Response != "Answer: A" {
			t.Fatalf("result %d: response %q", i, res.Response)
		}
		if res.Model != "fake-1" || res.LatencyMs != 5 {
			t.Fatalf("result %d: model=%q latency=%d", i, res.Model, res.LatencyMs)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	fp := &fakeProvider{delay: 10 * time.Millisecond}
	r := NewRunner(fp, Config{Concurrency: 3})

	if _, err := r.Run(context.Background(), mcqProblems(12)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak := atomic.LoadInt32(&fp.peak); peak > 3 {
		t.Fatalf("peak in-flight: got %d want <= 3", peak)
	}
}

func TestRun_RecordsPerProblemErrors(t *testing.T) {
	fp := &fakeProvider{failIDs: map[string]bool{"prob-001": true}}
	r := NewRunner(fp, Config{Concurrency: 2})

	results, err := r.Run(context.Background(), mcqProblems(3))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected errors: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Fatalf("result 1: expected error")
	}
	var apiErr *llm.APIError
	if !errors.As(results[1].Err, &apiErr) || apiErr.StatusCode != 500 {
		t.Fatalf("result 1: got %v", results[1].Err)
	}
	if results[1].Response != "" {
		t.Fatalf("result 1: response %q want empty", results[1].Response)
	}
	if results[1].ProblemID != "prob-001" {
		t.Fatalf("result 1: id %q", results[1].ProblemID)
	}
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(&fakeProvider{}, Config{})
	if _, err := r.Run(ctx, mcqProblems(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v want context.Canceled", err)
	}
}

func TestRun_NilProvider(t *testing.T) {
	r := NewRunner(nil, Config{})
	if _, err := r.Run(context.Background(), mcqProblems(1)); err == nil {
		t.Fatalf("Run: expected error")
	}
}

func TestBuildPrompt_MultipleChoice(t *testing.T) {
	p := &mcqProblems(1)[0]
	got := BuildPrompt(p)

	if !strings.Contains(got, p.Question) {
		t.Fatalf("prompt missing question: %q", got)
	}
	if !strings.Contains(got, "A) first") || !strings.Contains(got, "B) second") {
		t.Fatalf("prompt missing options: %q", got)
	}
	if !strings.Contains(got, `"Answer: <letter>"`) {
		t.Fatalf("prompt missing answer instruction: %q", got)
	}
	if strings.Contains(got, "<number>") {
		t.Fatalf("prompt has numeric instruction: %q", got)
	}
}

func TestBuildPrompt_Numeric(t *testing.T) {
	p := &problem.Problem{
		Category:   problem.CategoryStatementAnalysis,
		Difficulty: problem.DifficultyMedium,
		AnswerType: problem.AnswerNumeric,
		Question:   "What is the current ratio?",
		CorrectAnswer: "1.8",
	}
	got := BuildPrompt(p)
	if !strings.Contains(got, `"Answer: <number>"`) {
		t.Fatalf("prompt missing numeric instruction: %q", got)
	}
}

func TestBuildPrompt_FreeText(t *testing.T) {
	p := &problem.Problem{
		Category:   problem.CategoryCatalyst,
		Difficulty: problem.DifficultyHard,
		AnswerType: problem.AnswerFreeText,
		Question:   "Explain the main catalyst.",
		CorrectAnswer: "guidance raise",
	}
	got := BuildPrompt(p)
	if strings.Contains(got, "Answer:") {
		t.Fatalf("free-text prompt should not force answer line: %q", got)
	}
	if !strings.Contains(got, "written analysis") {
		t.Fatalf("prompt missing free-text instruction: %q", got)
	}
}
