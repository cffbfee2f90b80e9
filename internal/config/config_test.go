package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_ReadError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatalf("Load: expected error")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Fatalf("error: got %q", err)
	}
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte(":"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load: expected error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Fatalf("error: got %q", err)
	}
}

func TestLoad_MissingDefaultPathFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("FINBENCH_DB", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.DefaultProvider != "claude" {
		t.Fatalf("DefaultProvider: got %q want %q", cfg.LLM.DefaultProvider, "claude")
	}
	if cfg.Dataset.Dir != "data/dataset" {
		t.Fatalf("dataset dir: got %q", cfg.Dataset.Dir)
	}
	if cfg.Dataset.TrainRatio != 0.6 || cfg.Dataset.ValidationRatio != 0.2 || cfg.Dataset.TestRatio != 0.2 {
		t.Fatalf("ratios: got %v/%v/%v", cfg.Dataset.TrainRatio, cfg.Dataset.ValidationRatio, cfg.Dataset.TestRatio)
	}
	if cfg.Runner.Concurrency != 4 {
		t.Fatalf("concurrency: got %d", cfg.Runner.Concurrency)
	}
	if cfg.Storage.Path != "data/finbench.db" {
		t.Fatalf("storage path: got %q", cfg.Storage.Path)
	}
}

func TestLoad_DefaultPathFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "configs"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cfgPath := filepath.Join(dir, DefaultPath)
	if err := os.WriteFile(cfgPath, []byte(strings.TrimSpace(`
llm:
  default_provider: "  "
  providers:
    claude:
      api_key: "file_key"
      base_url: "https://example.test"
      model: "m1"
generator:
  seed: 7
  count: 70
storage:
  path: "file.db"
`)), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	t.Setenv("ANTHROPIC_API_KEY", "env_key")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "openai_env_key")
	t.Setenv("FINBENCH_DB", "env.db")

	cfg, err := Load(" \t ")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.LLM.DefaultProvider; got != "claude" {
		t.Fatalf("DefaultProvider: got %q want %q", got, "claude")
	}

	cp := cfg.LLM.Providers["claude"]
	if cp.APIKey != "env_key" {
		t.Fatalf("claude api_key: got %q want %q", cp.APIKey, "env_key")
	}
	if cp.BaseURL != "https://example.test" || cp.Model != "m1" {
		t.Fatalf("claude other fields changed: got base_url=%q model=%q", cp.BaseURL, cp.Model)
	}

	op := cfg.LLM.Providers["openai"]
	if op.APIKey != "openai_env_key" {
		t.Fatalf("openai api_key: got %q want %q", op.APIKey, "openai_env_key")
	}

	if cfg.Generator.Seed != 7 || cfg.Generator.Count != 70 {
		t.Fatalf("generator: got seed=%d count=%d", cfg.Generator.Seed, cfg.Generator.Count)
	}
	if cfg.Storage.Path != "env.db" {
		t.Fatalf("storage path: got %q want %q", cfg.Storage.Path, "env.db")
	}
}

func TestLoad_AnthropicAuthTokenFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(`
llm:
  providers:
    claude:
      api_key: "file_key"
      model: "m1"
`)), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("ANTHROPIC_AUTH_TOKEN", "token_key")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("FINBENCH_DB", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cp := cfg.LLM.Providers["claude"]
	if cp.APIKey != "token_key" {
		t.Fatalf("claude api_key: got %q want %q", cp.APIKey, "token_key")
	}
	if cp.Model != "m1" {
		t.Fatalf("claude model changed: got %q want %q", cp.Model, "m1")
	}
}
