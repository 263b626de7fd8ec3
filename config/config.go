// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads shigen settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/shigen/ai"
)

// Prefix is prepended to every variable name, e.g. SHIGEN_DB_PATH.
const Prefix = "SHIGEN"

// Environment selects logging defaults.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ErrInvalidConfig is returned when loaded values fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Embedding holds the SHIGEN_EMBEDDING_* variables.
type Embedding struct {
	Provider string `envconfig:"PROVIDER" default:"openai"`
	Host     string `envconfig:"HOST" default:"http://localhost:11434/v1"`
	Model    string `envconfig:"MODEL" default:"embeddinggemma"`
	APIKey   string `envconfig:"API_KEY"`
}

// Config is the full process configuration.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string      `envconfig:"LOG_FORMAT" default:"text"`

	// DBPath is the badger directory holding imported resources.
	DBPath       string   `envconfig:"DB_PATH" default:"shigen.db"`
	CatalogPaths []string `envconfig:"CATALOG_PATHS" default:"data/local_resources.json,local_resources.json"`
	LexiconPath  string   `envconfig:"LEXICON_PATH"`

	FallbackLimit int `envconfig:"FALLBACK_LIMIT" default:"8"`
	RecencyBonus  int `envconfig:"RECENCY_BONUS" default:"2"`

	SessionCapacity int           `envconfig:"SESSION_CAPACITY" default:"1024"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	RedisURL        string        `envconfig:"REDIS_URL"`

	Embedding Embedding `envconfig:"EMBEDDING"`
}

// Load reads the optional dotenv files, then the environment.
// Missing dotenv files are ignored; with no files given ".env" is tried.
func Load(dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Production:
	default:
		return fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, c.Environment)
	}
	if c.FallbackLimit < 1 {
		return fmt.Errorf("%w: fallback limit must be positive, got %d", ErrInvalidConfig, c.FallbackLimit)
	}
	if c.RecencyBonus < 0 {
		return fmt.Errorf("%w: recency bonus must not be negative, got %d", ErrInvalidConfig, c.RecencyBonus)
	}
	if c.SessionCapacity < 1 {
		return fmt.Errorf("%w: session capacity must be positive, got %d", ErrInvalidConfig, c.SessionCapacity)
	}
	return nil
}

// AIConfig converts the embedding settings into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(c.Embedding.Provider),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
	)
}
