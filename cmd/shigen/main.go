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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/shigen"
	"github.com/poiesic/shigen/config"
	"github.com/poiesic/shigen/logging"
	"github.com/poiesic/shigen/search"
	"github.com/poiesic/shigen/session"
	redisstore "github.com/poiesic/shigen/session/redis"
	"github.com/urfave/cli/v2"
)

// version is set at build time via ldflags.
var version = "dev"

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "shigen",
		Usage:    "Search and rank local social-welfare resources",
		Version:  version,
		Metadata: map[string]any{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log output format (text, zerolog)",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Dotenv files to read before the environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides SHIGEN_DB_PATH)",
			},
			&cli.StringSliceFlag{
				Name:  "catalog",
				Usage: "Catalog files used when the database is empty (overrides SHIGEN_CATALOG_PATHS)",
			},
			&cli.StringFlag{
				Name:  "lexicon",
				Usage: "YAML synonym lexicon overlaid on the built-in one",
			},
			&cli.StringFlag{
				Name:  "redis-url",
				Usage: "Keep search sessions in Redis instead of process memory",
			},
			&cli.StringFlag{
				Name:  "embedding-provider",
				Usage: "Embedding backend (openai, gemini)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			importCmd,
			reembedCmd,
			searchCmd,
			detailCmd,
			suggestCmd,
			serveMCPCmd,
		},
	}
}

// setup loads the configuration, applies global flag overrides and installs
// the default logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return err
	}
	overrideString(c, "log-level", &cfg.LogLevel)
	overrideString(c, "log-format", &cfg.LogFormat)
	overrideString(c, "db", &cfg.DBPath)
	overrideString(c, "lexicon", &cfg.LexiconPath)
	overrideString(c, "redis-url", &cfg.RedisURL)
	overrideString(c, "embedding-provider", &cfg.Embedding.Provider)
	overrideString(c, "embedding-host", &cfg.Embedding.Host)
	overrideString(c, "embedding-model", &cfg.Embedding.Model)
	if c.IsSet("catalog") {
		cfg.CatalogPaths = c.StringSlice("catalog")
	}

	if err := setupLogger(cfg); err != nil {
		return err
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func overrideString(c *cli.Context, flag string, dst *string) {
	if c.IsSet(flag) {
		*dst = c.String(flag)
	}
}

func setupLogger(cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.LogFormat, level, cfg.Environment == config.Development)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return nil
}

// openEngine opens the database and searcher described by the loaded configuration.
func openEngine(c *cli.Context) (*shigen.Engine, *config.Config, error) {
	cfg := loadedConfig(c)
	if cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	ctx := c.Context

	searchOpts := []search.Option{
		search.WithFallbackLimit(cfg.FallbackLimit),
		search.WithRecencyBonus(cfg.RecencyBonus),
	}
	if cfg.LexiconPath != "" {
		lexicon, err := search.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load lexicon: %w", err)
		}
		searchOpts = append(searchOpts, search.WithLexicon(lexicon))
	}

	store, err := sessionStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// The engine owns store from here and closes it on every path.
	engine, err := shigen.Open(ctx, cfg.DBPath,
		shigen.WithAIConfig(cfg.AIConfig()),
		shigen.WithCatalogPaths(cfg.CatalogPaths...),
		shigen.WithSessionStore(store),
		shigen.WithSearchOptions(searchOpts...),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, cfg, nil
}

func sessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(cfg.SessionCapacity, session.WithTTL(cfg.SessionTTL))
	}
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	store, err := redisstore.Dial(connectCtx, cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return store, nil
}
