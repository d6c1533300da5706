package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"assessrag/internal/domain"
)

const (
	dataDirName    = ".assessrag"
	configFileName = "assessrag.yaml"
)

// Config holds all configuration for the recommender.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Chunk      ChunkConfig      `yaml:"chunk"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CatalogConfig locates the CSV files documents are built from.
type CatalogConfig struct {
	Sources []string `yaml:"sources"` // doublestar globs, relative to the root dir
}

// ChunkConfig holds chunking configuration, measured in characters.
type ChunkConfig struct {
	WindowSize int `yaml:"window_size"`
	Overlap    int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // "hash", "openai", "ollama"
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Dimension  int    `yaml:"dimension"`
	BatchSize  int    `yaml:"batch_size"`
	MaxRetries int    `yaml:"max_retries"`
	CacheSize  int    `yaml:"cache_size"` // query embedding LRU entries, 0 disables
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k"`
	Ranker       string  `yaml:"ranker"` // "identity", "dedup", "mmr"
	MMRLambda    float64 `yaml:"mmr_lambda"`
	DedupJaccard float64 `yaml:"dedup_jaccard"`
}

// EvaluationConfig holds offline evaluation configuration.
type EvaluationConfig struct {
	Dataset        string  `yaml:"dataset"`
	K              int     `yaml:"k"`
	Matcher        string  `yaml:"matcher"` // "substring", "exact", "token"
	TokenThreshold float64 `yaml:"token_threshold"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Sources: []string{"data/processed/*.csv"},
		},
		Chunk: ChunkConfig{
			WindowSize: 400,
			Overlap:    80,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hash",
			Model:      "hash-384",
			APIKeyEnv:  "OPENAI_API_KEY",
			Dimension:  384,
			BatchSize:  64,
			MaxRetries: 3,
			CacheSize:  256,
		},
		Retrieve: RetrieveConfig{
			TopK:         5,
			Ranker:       "identity",
			MMRLambda:    0.7,
			DedupJaccard: 0.8,
		},
		Evaluation: EvaluationConfig{
			Dataset:        "data/eval/queries.json",
			K:              5,
			Matcher:        "substring",
			TokenThreshold: 0.5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks settings that would otherwise fail deep inside a build.
func (c *Config) Validate() error {
	if c.Chunk.WindowSize <= 0 {
		return fmt.Errorf("%w: chunk.window_size must be positive, got %d", domain.ErrConfiguration, c.Chunk.WindowSize)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.WindowSize {
		return fmt.Errorf("%w: chunk.overlap must be in [0, %d), got %d", domain.ErrConfiguration, c.Chunk.WindowSize, c.Chunk.Overlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("%w: retrieve.top_k must be positive, got %d", domain.ErrConfiguration, c.Retrieve.TopK)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive, got %d", domain.ErrConfiguration, c.Embedding.BatchSize)
	}
	if c.Embedding.Provider == "hash" && c.Embedding.Dimension <= 0 {
		return fmt.Errorf("%w: embedding.dimension must be positive for the hash provider, got %d", domain.ErrConfiguration, c.Embedding.Dimension)
	}
	return nil
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

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for assessrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, dataDirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigPath returns the default config file location for a root directory.
func ConfigPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// IndexDBPath returns the path to the index database.
func IndexDBPath(dir string) string {
	return filepath.Join(dir, dataDirName, "index.db")
}

// EnsureDataDir ensures the .assessrag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, dataDirName), 0755)
}

// ResolvePath makes p absolute relative to dir unless it already is.
func ResolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
