// Package config loads SDK configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything needed to wire the memory system: store
// locations, the summarizer's model, and the summarization interval.
type Config struct {
	// DBPath is the SQLite file backing the relational log.
	DBPath string `env:"SAGE_DB_PATH" envDefault:"sage.db"`

	// IndexDir is the directory backing the persistent vector index.
	IndexDir string `env:"SAGE_INDEX_DIR" envDefault:"./sage_index"`

	// APIKey authenticates the text-generation calls. Empty disables
	// the summarizer.
	APIKey string `env:"ANTHROPIC_API_KEY"`

	// Model is the Claude model the summarizer uses.
	Model string `env:"SAGE_MODEL" envDefault:"claude-sonnet-4-20250514"`

	// MaxTokens caps summarizer responses.
	MaxTokens int64 `env:"SAGE_MAX_TOKENS" envDefault:"512"`

	// SummarizeEvery is the rolling-summary turn interval.
	SummarizeEvery int `env:"SAGE_SUMMARIZE_EVERY" envDefault:"20"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
