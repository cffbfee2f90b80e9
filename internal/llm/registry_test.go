package llm

import (
	"context"
	"reflect"
	"testing"

	"github.com/stellarlinkco/finbench/internal/config"
)

type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return &Response{Text: "stub"}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "Claude"})
	reg.Register(&stubProvider{name: "openai"})
	reg.Register(nil)
	reg.Register(&stubProvider{name: "  "})

	p, ok := reg.Get("claude")
	if !ok {
		t.Fatalf("Get(claude): not found")
	}
	if p.Name() != "Claude" {
		t.Fatalf("Name: got %q", p.Name())
	}

	if _, ok := reg.Get("  OPENAI "); !ok {
		t.Fatalf("Get(OPENAI): not found")
	}
	if _, ok := reg.Get("gemini"); ok {
		t.Fatalf("Get(gemini): unexpected hit")
	}
	if _, ok := reg.Get(""); ok {
		t.Fatalf("Get(empty): unexpected hit")
	}
}

func TestRegistry_RegisterAs(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAs("anthropic", &stubProvider{name: "claude"})
	reg.RegisterAs("claude", &stubProvider{name: "claude"})
	reg.RegisterAs("", &stubProvider{name: "claude"})

	if _, ok := reg.Get("anthropic"); !ok {
		t.Fatalf("Get(anthropic): not found")
	}
	if _, ok := reg.Get("claude"); !ok {
		t.Fatalf("Get(claude): not found")
	}
	want := []string{"anthropic", "claude"}
	if got := reg.Available(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Available: got %v want %v", got, want)
	}
}

func TestRegistry_Available(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "openai"})
	reg.Register(&stubProvider{name: "claude"})

	want := []string{"claude", "openai"}
	if got := reg.Available(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Available: got %v want %v", got, want)
	}
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "claude",
			Providers: map[string]config.ProviderConfig{
				"claude": {APIKey: "k1", Model: "m1"},
				"openai": {APIKey: "k2"},
			},
		},
	}

	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig: %v", err)
	}
	if _, ok := reg.Get("claude"); !ok {
		t.Fatalf("Get(claude): not found")
	}
	if _, ok := reg.Get("openai"); !ok {
		t.Fatalf("Get(openai): not found")
	}
}

func TestNewRegistryFromConfig_AliasKeepsConfigName(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "anthropic",
			Providers: map[string]config.ProviderConfig{
				"anthropic": {APIKey: "k1", Model: "m1"},
			},
		},
	}

	reg, err := NewRegistryFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewRegistryFromConfig: %v", err)
	}
	p, ok := reg.Get("anthropic")
	if !ok {
		t.Fatalf("Get(anthropic): not found under configured name")
	}
	if p.Name() != "claude" {
		t.Fatalf("Name: got %q want claude", p.Name())
	}
}

func TestNewRegistryFromConfig_UnknownProvider(t *testing.T) {
	cfg := &config.Config{
		LLM: config.LLMConfig{
			Providers: map[string]config.ProviderConfig{
				"gemini": {APIKey: "k"},
			},
		},
	}

	if _, err := NewRegistryFromConfig(cfg); err == nil {
		t.Fatalf("NewRegistryFromConfig: expected error")
	}
}

func TestNewRegistryFromConfig_NilConfig(t *testing.T) {
	if _, err := NewRegistryFromConfig(nil); err == nil {
		t.Fatalf("NewRegistryFromConfig: expected error")
	}
}
