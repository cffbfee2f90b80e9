package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Generator GeneratorConfig `yaml:"generator"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Runner    RunnerConfig    `yaml:"runner"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	Retry           RetryConfig               `yaml:"retry,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty"`
	BaseDelay   time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay    time.Duration `yaml:"max_delay,omitempty"`
}

type GeneratorConfig struct {
	Seed  int64 `yaml:"seed,omitempty"`
	Count int   `yaml:"count,omitempty"`
}

type DatasetConfig struct {
	Dir             string  `yaml:"dir,omitempty"`
	TrainRatio      float64 `yaml:"train_ratio,omitempty"`
	ValidationRatio float64 `yaml:"validation_ratio,omitempty"`
	TestRatio       float64 `yaml:"test_ratio,omitempty"`
}

type RunnerConfig struct {
	Concurrency int           `yaml:"concurrency,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

type StorageConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file path
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultProvider: "claude",
			Providers:       make(map[string]ProviderConfig),
		},
		Generator: GeneratorConfig{Seed: 42, Count: 350},
		Dataset: DatasetConfig{
			Dir:             "data/dataset",
			TrainRatio:      0.6,
			ValidationRatio: 0.2,
			TestRatio:       0.2,
		},
		Runner: RunnerConfig{
			Concurrency: 4,
			MaxTokens:   1024,
		},
		Storage: StorageConfig{Path: "data/finbench.db"},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config, fills defaults, and applies environment
// overrides. A missing file at the default path is not an error; an
// explicitly requested path must exist.
func Load(path string) (*Config, error) {
	requested := strings.TrimSpace(path)
	path = requested
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && requested == "" {
			cfg := Default()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "claude"
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	anthropicKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	if anthropicKey == "" {
		anthropicKey = strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN"))
	}
	if anthropicKey != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = anthropicKey
		cfg.LLM.Providers["claude"] = p
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p
	}
	if v := strings.TrimSpace(os.Getenv("FINBENCH_DB")); v != "" {
		cfg.Storage.Path = v
	}
}
