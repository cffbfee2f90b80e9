package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stellarlinkco/finbench/internal/dataset"
	"github.com/stellarlinkco/finbench/internal/metrics"
	"github.com/stellarlinkco/finbench/internal/problem"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	pool := filepath.Join(t.TempDir(), "problems.jsonl")

	out, err := execute(t, "generate", "--seed", "7", "--count", "40", "--out", pool)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "wrote 40 problems") {
		t.Fatalf("generate output missing summary: %q", out)
	}
	if !strings.Contains(out, "(seed 7)") {
		t.Fatalf("generate output missing seed: %q", out)
	}

	problems, err := dataset.ReadProblems(context.Background(), pool)
	if err != nil {
		t.Fatalf("ReadProblems: %v", err)
	}
	if len(problems) != 40 {
		t.Fatalf("pool size = %d, want 40", len(problems))
	}
}

func TestGenerateCommandCategoryFilter(t *testing.T) {
	pool := filepath.Join(t.TempDir(), "problems.jsonl")

	_, err := execute(t, "generate", "--seed", "3", "--count", "20", "--out", pool,
		"--category", string(problem.CategoryFormulaAudit))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	problems, err := dataset.ReadProblems(context.Background(), pool)
	if err != nil {
		t.Fatalf("ReadProblems: %v", err)
	}
	for i := range problems {
		if problems[i].Category != problem.CategoryFormulaAudit {
			t.Fatalf("problem %s category = %s, want %s",
				problems[i].ID, problems[i].Category, problem.CategoryFormulaAudit)
		}
	}
}

func TestGenerateCommandUnknownCategory(t *testing.T) {
	pool := filepath.Join(t.TempDir(), "problems.jsonl")
	_, err := execute(t, "generate", "--count", "10", "--out", pool, "--category", "astrology")
	if err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Fatalf("expected unknown category error, got %v", err)
	}
}

func TestSplitCommand(t *testing.T) {
	tmp := t.TempDir()
	pool := filepath.Join(tmp, "problems.jsonl")
	dir := filepath.Join(tmp, "dataset")

	if _, err := execute(t, "generate", "--seed", "11", "--count", "60", "--out", pool); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := execute(t, "split", "--input", pool, "--dir", dir, "--seed", "11")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if !strings.Contains(out, "dataset written to "+dir) {
		t.Fatalf("split output missing destination: %q", out)
	}

	total := 0
	for _, split := range dataset.Splits() {
		problems, err := dataset.Load(context.Background(), dir, split)
		if err != nil {
			t.Fatalf("Load %s: %v", split, err)
		}
		if len(problems) == 0 {
			t.Fatalf("split %s is empty", split)
		}
		total += len(problems)
	}
	if total != 60 {
		t.Fatalf("total across splits = %d, want 60", total)
	}
}

func TestSplitCommandMissingPool(t *testing.T) {
	tmp := t.TempDir()
	_, err := execute(t, "split",
		"--input", filepath.Join(tmp, "nope.jsonl"),
		"--dir", filepath.Join(tmp, "dataset"))
	if err == nil {
		t.Fatal("expected error for missing pool file")
	}
}

func TestLeaderboardCommandEmpty(t *testing.T) {
	t.Setenv("FINBENCH_DB", filepath.Join(t.TempDir(), "finbench.db"))

	out, err := execute(t, "leaderboard", "--split", "test")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !strings.Contains(out, "no entries for split test") {
		t.Fatalf("leaderboard output = %q", out)
	}
}

func TestHistoryCommandRequiresModel(t *testing.T) {
	t.Setenv("FINBENCH_DB", filepath.Join(t.TempDir(), "finbench.db"))

	_, err := execute(t, "history")
	if err == nil || !strings.Contains(err.Error(), "missing --model") {
		t.Fatalf("expected missing --model error, got %v", err)
	}
}

func TestRunCommandWritesReportFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_test",
			"type": "message",
			"role": "assistant",
			"model": "stub",
			"content": [{"type": "text", "text": "42"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 5, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	tmp := t.TempDir()
	pool := filepath.Join(tmp, "problems.jsonl")
	datasetDir := filepath.Join(tmp, "dataset")
	reportDir := filepath.Join(tmp, "reports")

	if _, err := execute(t, "generate", "--seed", "5", "--count", "60", "--out", pool); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := execute(t, "split", "--input", pool, "--dir", datasetDir, "--seed", "5"); err != nil {
		t.Fatalf("split: %v", err)
	}

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfg := fmt.Sprintf(`llm:
  default_provider: claude
  providers:
    claude:
      api_key: test-key
      base_url: %s
storage:
  path: %s
dataset:
  dir: %s
runner:
  concurrency: 2
`, srv.URL, filepath.Join(tmp, "finbench.db"), datasetDir)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, err := execute(t, "run", "--config", cfgPath,
		"--model", "stub-model", "--split", "test", "--limit", "3",
		"--no-submit", "--output", reportDir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "report written to ") {
		t.Fatalf("run output missing report path: %q", out)
	}

	files, err := filepath.Glob(filepath.Join(reportDir, "stub-model-*.json"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("report files = %v, want one", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var rep metrics.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("Unmarshal report: %v", err)
	}
	if rep.Model != "stub-model" || rep.Split != "test" || rep.Total != 3 {
		t.Fatalf("report: got model %q split %q total %d", rep.Model, rep.Split, rep.Total)
	}
}

func TestRunCommandRequiresModel(t *testing.T) {
	_, err := execute(t, "run")
	if err == nil || !strings.Contains(err.Error(), "missing --model") {
		t.Fatalf("expected missing --model error, got %v", err)
	}
}

func TestRootCommandExplicitMissingConfig(t *testing.T) {
	_, err := execute(t, "generate", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config: read") {
		t.Fatalf("expected config read error, got %v", err)
	}
}
