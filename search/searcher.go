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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/session"
)

// Source supplies the resources to search. catalog.Catalog implements it.
type Source interface {
	Snapshot() []*core.Resource
}

// Result is the structured outcome of one search call.
type Result struct {
	SessionID  string
	Query      *NormalizedQuery
	Candidates []core.ScoredCandidate
	Repeat     bool
	Tier       session.Tier
	Guidance   string
}

// Found reports whether the search produced candidates.
func (r *Result) Found() bool {
	return len(r.Candidates) > 0
}

// Searcher runs region-aware searches within planning sessions.
type Searcher struct {
	source     Source
	registry   *session.Registry
	lexicon    *Lexicon
	now        func() time.Time
	guidance   session.Guidance
	monitor    SearchMonitor
	logger     *slog.Logger
	formatter  Formatter
	normalizer *Normalizer
	region     *RegionSearch
	pool       *ants.Pool

	fallbackLimit     int
	recencyBonus      int
	parallelThreshold int
	poolSize          int
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithLexicon sets the synonym and region vocabulary.
func WithLexicon(lexicon *Lexicon) Option {
	return func(s *Searcher) error {
		if lexicon != nil {
			s.lexicon = lexicon
		}
		return nil
	}
}

// WithClock sets the time source for the implicit recency token.
func WithClock(now func() time.Time) Option {
	return func(s *Searcher) error {
		if now != nil {
			s.now = now
		}
		return nil
	}
}

// WithFallbackLimit caps the number of broad-search results.
func WithFallbackLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit <= 0 {
			return fmt.Errorf("%w: fallback limit must be positive, got %d", ErrInvalidOption, limit)
		}
		s.fallbackLimit = limit
		return nil
	}
}

// WithRecencyBonus sets the score added for a year or era match.
func WithRecencyBonus(bonus int) Option {
	return func(s *Searcher) error {
		if bonus < 0 {
			return fmt.Errorf("%w: recency bonus must not be negative, got %d", ErrInvalidOption, bonus)
		}
		s.recencyBonus = bonus
		return nil
	}
}

// WithGuidance replaces the guidance strings. Empty fields keep their defaults.
func WithGuidance(g session.Guidance) Option {
	return func(s *Searcher) error {
		s.guidance = g.WithDefaults()
		return nil
	}
}

// WithParallelThreshold sets the catalog size from which scoring uses the worker pool.
func WithParallelThreshold(n int) Option {
	return func(s *Searcher) error {
		if n <= 0 {
			return fmt.Errorf("%w: parallel threshold must be positive, got %d", ErrInvalidOption, n)
		}
		s.parallelThreshold = n
		return nil
	}
}

// WithPoolSize sets the number of scoring workers. Zero disables parallel scoring.
func WithPoolSize(n int) Option {
	return func(s *Searcher) error {
		if n < 0 {
			return fmt.Errorf("%w: pool size must not be negative, got %d", ErrInvalidOption, n)
		}
		s.poolSize = n
		return nil
	}
}

// WithMonitor sets the monitor used by Search and SearchLocalResources.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher over source, keeping session state in registry.
func NewSearcher(source Source, registry *session.Registry, opts ...Option) (*Searcher, error) {
	if source == nil {
		return nil, ErrCatalogRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	s := &Searcher{
		source:            source,
		registry:          registry,
		now:               time.Now,
		guidance:          session.DefaultGuidance(),
		logger:            slog.Default().With("component", "search"),
		fallbackLimit:     DefaultFallbackLimit,
		recencyBonus:      DefaultRecencyBonus,
		parallelThreshold: DefaultParallelThreshold,
		poolSize:          4,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.poolSize > 0 {
		pool, err := ants.NewPool(s.poolSize)
		if err != nil {
			return nil, fmt.Errorf("create scoring pool: %w", err)
		}
		s.pool = pool
	}

	s.normalizer = NewNormalizer(s.lexicon, WithNow(s.now))
	s.region = NewRegionSearch(NewScorer(s.recencyBonus, s.parallelThreshold, s.pool), s.fallbackLimit)
	return s, nil
}

// Close releases the scoring workers.
func (s *Searcher) Close() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Normalizer returns the normalizer used for queries.
func (s *Searcher) Normalizer() *Normalizer {
	return s.normalizer
}

// Search runs query within the session.
func (s *Searcher) Search(ctx context.Context, sessionID, query string) (*Result, error) {
	return s.SearchWithMonitor(ctx, sessionID, query, s.monitor)
}

// SearchWithMonitor runs query within the session with monitoring.
//
// A query already issued in the session short-circuits with repeat guidance
// and no scoring. Otherwise the attempt is recorded, the query is normalized
// and searched, and a zero-result outcome records a failure whose tier
// selects the guidance string. Zero results is never an error.
func (s *Searcher) SearchWithMonitor(ctx context.Context, sessionID, query string, monitor SearchMonitor) (*Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	result := &Result{SessionID: sessionID}
	canonical := s.normalizer.Canonical(query)

	_, err := s.registry.Update(ctx, sessionID, func(state *session.State) error {
		if state.CheckRepeat(canonical) {
			result.Repeat = true
			result.Tier = state.Tier()
			result.Guidance = s.guidance.Repeat
			return nil
		}
		state.RecordAttempt(canonical)

		nq := s.normalizer.Normalize(query)
		result.Query = nq
		monitor.AfterNormalize(nq)

		result.Candidates = s.region.SearchWithMonitor(nq, s.source.Snapshot(), monitor)
		if len(result.Candidates) == 0 {
			result.Tier = state.RecordFailure()
			result.Guidance = s.guidance.ForTier(result.Tier)
		} else {
			result.Tier = state.Tier()
		}
		return nil
	})
	if err != nil {
		s.logger.Error("error updating search session", "session", sessionID, "err", err)
		return nil, err
	}

	s.logger.Debug("search finished",
		"session", sessionID,
		"query", canonical,
		"repeat", result.Repeat,
		"candidates", len(result.Candidates),
		"tier", result.Tier.String())
	monitor.Finish(result)

	return result, nil
}

// Render returns the tool-facing text for a result.
func (s *Searcher) Render(result *Result) string {
	if result.Repeat || !result.Found() {
		return result.Guidance
	}
	return s.formatter.Format(result.Candidates)
}

// SearchLocalResources is the agent tool entry point. It always returns a
// non-empty string: formatted blocks, guidance, or a (SEARCH_ERROR) message.
func (s *Searcher) SearchLocalResources(ctx context.Context, sessionID, query string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic during search", "session", sessionID, "query", query, "panic", r)
			out = fmt.Sprintf("%s internal failure while searching local resources: %v", TagSearchError, r)
		}
	}()

	result, err := s.Search(ctx, sessionID, query)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Sprintf("%s search session %q is not active; begin a new session before searching", TagSearchError, sessionID)
		}
		return fmt.Sprintf("%s local resource search failed: %v", TagSearchError, err)
	}

	if text := s.Render(result); text != "" {
		return text
	}
	return s.guidance.ForTier(session.TierBroaden)
}

// ResourceDetail returns the first resource whose service name contains name,
// ignoring case, rendered without a score.
func (s *Searcher) ResourceDetail(name string) string {
	needle := fold(strings.TrimSpace(name))
	if needle == "" {
		return fmt.Sprintf("%s no service name was given", TagNoResult)
	}
	for _, r := range s.source.Snapshot() {
		if strings.Contains(fold(r.ServiceName), needle) {
			return s.formatter.FormatDetail(r)
		}
	}
	return fmt.Sprintf("%s no service matching %s was found in the local catalog", TagNoResult, name)
}
