package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/topiq/pkg/topiq/internalerr"
)

// Config is the full engine configuration loaded from YAML.
type Config struct {
	Engine   Engine   `yaml:"engine"`
	Terms    Terms    `yaml:"terms"`
	Labeling Labeling `yaml:"labeling"`
	LLM      LLM      `yaml:"llm"`
}

// Engine configures the fit pipeline.
type Engine struct {
	MinClusterSize   int     `yaml:"min_cluster_size"`
	MinSamples       int     `yaml:"min_samples"`
	ReduceDimensions bool    `yaml:"reduce_dimensions"`
	NComponents      int     `yaml:"n_components"`
	NNeighbors       int     `yaml:"n_neighbors"`
	ClusterThreshold float64 `yaml:"cluster_threshold"`
}

// Terms configures tokenization and term extraction.
type Terms struct {
	TopTerms       int `yaml:"top_terms"`
	MinTokenLength int `yaml:"min_token_length"`
	MaxTokenLength int `yaml:"max_token_length"`
}

// Labeling selects the labeling strategy by name.
type Labeling struct {
	Method string `yaml:"method"`
}

// LLM configures the optional generative endpoint.
type LLM struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: Engine{
			MinClusterSize:   2,
			MinSamples:       2,
			ReduceDimensions: false,
			NComponents:      5,
			NNeighbors:       15,
			ClusterThreshold: 0.7,
		},
		Terms: Terms{
			TopTerms:       10,
			MinTokenLength: 3,
			MaxTokenLength: 20,
		},
		Labeling: Labeling{Method: "hybrid"},
	}
}

// Load reads a YAML config file, layering it over Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if cfg.Engine.NComponents <= 0 || cfg.Terms.TopTerms <= 0 {
		return cfg, fmt.Errorf("%w: n_components and top_terms must be positive", internalerr.ErrInvalidConfig)
	}
	return cfg, nil
}

// Stopwords is a stopword list file.
type Stopwords struct {
	Terms []string `yaml:"terms"`
}

// LoadStopwords loads a stopword list from a YAML file.
func LoadStopwords(path string) (*Stopwords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sw Stopwords
	if err := yaml.Unmarshal(data, &sw); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return &sw, nil
}
