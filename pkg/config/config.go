package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Dataset     string   `yaml:"dataset"`
	Output      string   `yaml:"output"`
	Checkpoint  string   `yaml:"checkpoint"`
	Limit       int      `yaml:"limit"`
	Tokenizer   string   `yaml:"tokenizer"`
	ZeroOffset  string   `yaml:"zero_offset"`
	SkipAnswers bool     `yaml:"skip_answers"`
	LogLevel    string   `yaml:"log_level"`
	Embedder    Embedder `yaml:"embedder"`
}

type Embedder struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	WordVectors string `yaml:"word_vectors"`
	Pooling     string `yaml:"pooling"`
	Dimension   int    `yaml:"dimension"`
	CacheSize   int    `yaml:"cache_size"`
	Concurrency int    `yaml:"concurrency"`
	BatchSize   int    `yaml:"batch_size"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Dataset:    "train-v2.0.json",
		Output:     "embeddings/squad.gob",
		Checkpoint: "embeddings/checkpoint.gob",
		Tokenizer:  "punkt",
		ZeroOffset: "offset",
		LogLevel:   "info",
		Embedder: Embedder{
			Provider:    "wordvec",
			WordVectors: "fastText/crawl-300d-2M.vec",
			Pooling:     "max",
			Dimension:   256,
			CacheSize:   4096,
			Concurrency: 10,
		},
	}
}

// LoadConfig reads a YAML file over the defaults and applies environment overrides
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv fills secrets and endpoints from the environment when the file leaves them empty
func (c *Config) ApplyEnv() {
	switch c.Embedder.Provider {
	case "openai":
		if c.Embedder.APIKey == "" {
			c.Embedder.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.Embedder.BaseURL == "" {
			c.Embedder.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
	case "ollama":
		if c.Embedder.BaseURL == "" {
			c.Embedder.BaseURL = os.Getenv("OLLAMA_HOST")
		}
	}
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	return joinProblems(append(c.inputProblems(), c.Embedder.problems()...))
}

// ValidateInputs checks everything except the embedder section, which is
// all a dry run needs.
func (c *Config) ValidateInputs() error {
	return joinProblems(c.inputProblems())
}

// Validate checks the provider specific fields
func (e Embedder) Validate() error {
	return joinProblems(e.problems())
}

func (c *Config) inputProblems() []string {
	var problems []string
	if c.Dataset == "" {
		problems = append(problems, "dataset is required")
	}
	if c.Output == "" {
		problems = append(problems, "output is required")
	}
	if c.Limit < 0 {
		problems = append(problems, "limit must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log_level %q", c.LogLevel))
	}
	return problems
}

func (e Embedder) problems() []string {
	var problems []string
	switch e.Provider {
	case "wordvec":
		if e.WordVectors == "" {
			problems = append(problems, "embedder.word_vectors is required for wordvec")
		}
	case "openai":
		if e.APIKey == "" {
			problems = append(problems, "embedder.api_key or OPENAI_API_KEY is required for openai")
		}
	case "ollama":
		if e.Model == "" {
			problems = append(problems, "embedder.model is required for ollama")
		}
	case "simple":
		if e.Dimension <= 0 {
			problems = append(problems, "embedder.dimension must be positive for simple")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown embedder.provider %q", e.Provider))
	}
	if e.CacheSize < 0 {
		problems = append(problems, "embedder.cache_size must not be negative")
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
