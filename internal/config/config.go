// Package config loads the application configuration from YAML with sane
// defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the retrieval service.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Search     SearchConfig     `yaml:"search"`
	Graph      GraphConfig      `yaml:"graph"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig holds the vector store location and collection schema.
type StoreConfig struct {
	Path        string         `yaml:"path"`
	Collection  string         `yaml:"collection"`
	Metric      string         `yaml:"metric"`
	IndexType   string         `yaml:"index_type"`
	IndexParams map[string]int `yaml:"index_params"`
}

// CorpusConfig holds corpus loading and filtering configuration.
type CorpusConfig struct {
	Path        string `yaml:"path"`
	MaxArticles int    `yaml:"max_articles"`
	MinLength   int    `yaml:"min_length"`
}

// EmbeddingConfig holds embedding model configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// SearchConfig holds retrieval tuning.
type SearchConfig struct {
	TopK   int            `yaml:"top_k"`
	Nprobe int            `yaml:"nprobe"`
	Extra  map[string]int `yaml:"extra"`
	FinalK int            `yaml:"final_k"`
}

// GraphConfig holds similarity-graph expansion configuration.
type GraphConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"`
	Hops      int     `yaml:"hops"`
}

// RerankConfig holds cross-encoder configuration. With an empty URL the
// lexical fallback scorer is used.
type RerankConfig struct {
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Model string `yaml:"model"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:       "data/medrag.db",
			Collection: "medical_articles",
			Metric:     "COSINE",
			IndexType:  "IVF_FLAT",
			IndexParams: map[string]int{
				"nlist": 128,
			},
		},
		Corpus: CorpusConfig{
			Path:        "data/articles.json",
			MaxArticles: 1000,
			MinLength:   200,
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		Search: SearchConfig{
			TopK:   20,
			Nprobe: 16,
			FinalK: 5,
		},
		Graph: GraphConfig{
			Enabled:   true,
			Threshold: 0.85,
			Hops:      1,
		},
		Rerank: RerankConfig{
			Model:     "rerank-english-v3.0",
			APIKeyEnv: "COHERE_API_KEY",
		},
		Generation: GenerationConfig{
			Model: "gpt-4o",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
