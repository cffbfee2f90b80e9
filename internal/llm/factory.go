package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stellarlinkco/finbench/internal/config"
)

// NewRegistryFromConfig builds a registry with every provider named in
// the config. Provider names are matched case-insensitively.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm: nil config")
	}

	policy := RetryPolicy{
		MaxAttempts: cfg.LLM.Retry.MaxAttempts,
		BaseDelay:   cfg.LLM.Retry.BaseDelay,
		MaxDelay:    cfg.LLM.Retry.MaxDelay,
	}

	reg := NewRegistry()
	for name, pc := range cfg.LLM.Providers {
		p, err := newProvider(name, pc, policy)
		if err != nil {
			return nil, err
		}
		reg.RegisterAs(name, p)
	}
	return reg, nil
}

func newProvider(name string, pc config.ProviderConfig, policy RetryPolicy) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "claude", "anthropic":
		return NewClaudeProvider(pc.APIKey, pc.BaseURL, pc.Model, policy), nil
	case "openai":
		return NewOpenAIProvider(pc.APIKey, pc.BaseURL, pc.Model, policy), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q (supported: %s)", name, strings.Join(supportedProviders(), ", "))
	}
}

func supportedProviders() []string {
	names := []string{"anthropic", "claude", "openai"}
	sort.Strings(names)
	return names
}
