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

package shigen

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/poiesic/shigen/agenttool"
	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/ai/gemini"
	"github.com/poiesic/shigen/ai/openai"
	"github.com/poiesic/shigen/catalog"
	"github.com/poiesic/shigen/ingestion"
	"github.com/poiesic/shigen/reembed"
	"github.com/poiesic/shigen/search"
	"github.com/poiesic/shigen/session"
	"github.com/poiesic/shigen/storage"
	"github.com/poiesic/shigen/storage/badger"
	"github.com/poiesic/shigen/suggest"
)

// Engine wires storage, the in-memory catalog, search sessions and the
// searcher together.
type Engine struct {
	backend  *badger.Backend
	repo     storage.ResourceRepository
	catalog  *catalog.Catalog
	registry *session.Registry
	store    session.Store
	searcher *search.Searcher
	aiConfig *ai.Config
	paths    []string
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	store         session.Store
	catalogPaths  []string
	searchOptions []search.Option
	logger        *slog.Logger
}

// WithAIConfig sets the embedding backend settings.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithSessionStore replaces the in-process session store, e.g. with a
// Redis store shared between processes. A store implementing io.Closer is
// closed with the engine, or when Open fails.
func WithSessionStore(store session.Store) EngineOption {
	return func(o *engineOptions) {
		o.store = store
	}
}

// WithCatalogPaths sets the static catalog files consulted when the
// database holds no resources. Default is catalog.DefaultPaths.
func WithCatalogPaths(paths ...string) EngineOption {
	return func(o *engineOptions) {
		o.catalogPaths = paths
	}
}

// WithSearchOptions passes options through to search.NewSearcher.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOptions = append(o.searchOptions, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// Open opens the resource database at dbPath, in memory when dbPath is
// empty, and loads the catalog.
func Open(ctx context.Context, dbPath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dbPath, dbPath == "")
	if err != nil {
		closeStore(options.store, options.logger)
		return nil, err
	}

	repo, err := badger.NewResourceRepository(backend)
	if err != nil {
		closeStore(options.store, options.logger)
		backend.Close()
		return nil, err
	}

	store := options.store
	if store == nil {
		store, err = session.NewMemoryStore(session.DefaultCapacity)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}
	registry, err := session.NewRegistry(store, session.WithLogger(options.logger.With("component", "session")))
	if err != nil {
		closeStore(store, options.logger)
		backend.Close()
		return nil, err
	}

	e := &Engine{
		backend:  backend,
		repo:     repo,
		catalog:  catalog.New(),
		registry: registry,
		store:    store,
		aiConfig: options.aiConfig,
		paths:    options.catalogPaths,
		logger:   options.logger,
	}
	if _, err := e.Reload(ctx); err != nil {
		e.Close()
		return nil, err
	}

	searchOpts := append([]search.Option{search.WithLogger(options.logger.With("component", "search"))}, options.searchOptions...)
	e.searcher, err = search.NewSearcher(e.catalog, registry, searchOpts...)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Close releases the searcher's pool, the session store and the database.
func (e *Engine) Close() error {
	if e.searcher != nil {
		e.searcher.Close()
	}
	closeStore(e.store, e.logger)
	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing resource repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func closeStore(store session.Store, logger *slog.Logger) {
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Error("error closing session store", "err", err)
	}
}

// Reload rebuilds the catalog snapshot. Stored resources win; when the
// database is empty the first existing catalog file is used instead.
func (e *Engine) Reload(ctx context.Context) (*catalog.LoadReport, error) {
	resources, report, err := catalog.LoadRepository(ctx, e.repo)
	if err != nil {
		return report, fmt.Errorf("load catalog from repository: %w", err)
	}
	if len(resources) == 0 {
		resources, report, err = catalog.LoadFirst(e.logger, e.paths...)
		if err != nil {
			return report, err
		}
	}
	e.catalog.Replace(resources)
	e.logger.Debug("catalog reloaded", "source", report.Source, "resources", e.catalog.Len())
	return report, nil
}

func (e *Engine) Repository() storage.ResourceRepository {
	return e.repo
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) Registry() *session.Registry {
	return e.registry
}

func (e *Engine) Searcher() *search.Searcher {
	return e.searcher
}

// NewEmbedder builds the embedder selected by the AI config's provider.
func (e *Engine) NewEmbedder(ctx context.Context) (ai.Embedder, error) {
	if err := e.aiConfig.Validate(); err != nil {
		return nil, err
	}
	switch e.aiConfig.Provider {
	case ai.ProviderGemini:
		return gemini.NewEmbedder(ctx, e.aiConfig)
	default:
		return openai.NewEmbedder(e.aiConfig)
	}
}

// NewImporter returns an importer writing to the engine's database.
// Call Reload afterwards to publish the imported resources to searches.
func (e *Engine) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	return ingestion.NewImporter(e.repo, opts...)
}

// NewReembedder returns a reembedder over the engine's database.
func (e *Engine) NewReembedder(embedder ai.Embedder, cfg reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(e.repo, embedder, cfg, progress)
}

// NewSuggester returns an embedding suggester over the current catalog.
func (e *Engine) NewSuggester(embedder ai.Embedder, opts ...suggest.Option) (*suggest.Suggester, error) {
	return suggest.NewSuggester(e.catalog, embedder, opts...)
}

// NewMCPServer returns an MCP server exposing the engine's searcher.
func (e *Engine) NewMCPServer(version string) *server.MCPServer {
	return agenttool.NewMCPServer(e.searcher, e.registry, version)
}
