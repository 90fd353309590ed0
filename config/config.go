package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docqa.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Index     IndexConfig     `yaml:"index"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Cache     CacheConfig     `yaml:"cache"`
	Provider  ProviderConfig  `yaml:"provider"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds ingestion and index persistence configuration.
type IndexConfig struct {
	Path         string   `yaml:"path"` // relative paths resolve against the root directory
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float64 `yaml:"min_score"` // 0 = disabled
}

// CacheConfig selects the query cache backend.
type CacheConfig struct {
	Type    string      `yaml:"type"` // "memory", "redis", "none"
	Size    int         `yaml:"size"`
	TTLSecs int         `yaml:"ttl_secs"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection details for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// ProviderConfig describes the OpenAI-compatible API shared by the embedder and the LLM.
type ProviderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	TimeoutSecs int    `yaml:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider          string `yaml:"provider"` // "openai", "mock"
	Model             string `yaml:"model"`
	Dimension         int    `yaml:"dimension"` // 0 = learn from the first response
	BatchSize         int    `yaml:"batch_size"`
	RequestsPerMinute int    `yaml:"requests_per_minute"` // 0 = unlimited
}

// LLMConfig holds chat model configuration.
type LLMConfig struct {
	Model        string   `yaml:"model"`
	Temperature  *float64 `yaml:"temperature,omitempty"` // nil = provider default
	MaxTokens    int      `yaml:"max_tokens"`
	HistoryTurns int      `yaml:"history_turns"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "data",
		Index: IndexConfig{
			Path:         filepath.Join(".docqa", "index.db"),
			Includes:     []string{"**/*.pdf", "**/*.txt"},
			Excludes:     []string{"**/.git/**", "**/.docqa/**"},
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Retrieve: RetrieveConfig{
			TopK: 3,
		},
		Cache: CacheConfig{
			Type:    "memory",
			Size:    100,
			TTLSecs: 300,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "docqa",
			},
		},
		Provider: ProviderConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			APIKeyEnv:   "GOOGLE_API_KEY",
			TimeoutSecs: 60,
			MaxRetries:  2,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-004",
			BatchSize: 100,
		},
		LLM: LLMConfig{
			Model:        "gemini-1.5-flash",
			HistoryTurns: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Index.ChunkSize <= 0 {
		return fmt.Errorf("index.chunk_size must be positive, got %d", c.Index.ChunkSize)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap must be in [0, %d), got %d", c.Index.ChunkSize, c.Index.ChunkOverlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	switch c.Cache.Type {
	case "memory", "redis", "none", "":
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}
	switch c.Embedding.Provider {
	case "openai", "mock":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	return nil
}

// IndexPath returns the index database path, resolved against dir when relative.
func (c *Config) IndexPath(dir string) string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(dir, c.Index.Path)
}

// DataPath returns the corpus directory, resolved against dir when relative.
func (c *Config) DataPath(dir string) string {
	if filepath.IsAbs(c.DataDir) {
		return c.DataDir
	}
	return filepath.Join(dir, c.DataDir)
}
