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

package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/core"
)

const (
	// DefaultTopK is the number of suggestions returned when a request leaves TopK unset.
	DefaultTopK = 5

	// DefaultThreshold drops suggestions scoring at or below it.
	DefaultThreshold = 0.2

	embeddingWeight = 0.7
	keywordWeight   = 0.3
	maxKeywords     = 12
	excerptRunes    = 180
)

// Source provides the resources to rank.
type Source interface {
	Snapshot() []*core.Resource
}

// Request is one suggestion query.
type Request struct {
	Assessment map[string]any
	TopK       int
}

// Item is one suggested resource.
type Item struct {
	ServiceName     string
	Score           float64
	MatchedKeywords []string
	Excerpt         string
}

// Response holds the ranked suggestions.
type Response struct {
	QueryTokens []string
	Items       []Item
}

// Suggester ranks resources against assessments.
type Suggester struct {
	source    Source
	embedder  ai.Embedder
	threshold float64
	logger    *slog.Logger
}

// Option configures a Suggester.
type Option func(*Suggester)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(s *Suggester) {
		s.threshold = threshold
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Suggester) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSuggester creates a suggester. The embedder may be nil, in which case
// Suggest fails with ErrEmbedderRequired.
func NewSuggester(source Source, embedder ai.Embedder, opts ...Option) (*Suggester, error) {
	if source == nil {
		return nil, ErrCatalogRequired
	}
	s := &Suggester{
		source:    source,
		embedder:  embedder,
		threshold: DefaultThreshold,
		logger:    slog.Default().With("component", "suggest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Suggest embeds the assessment and ranks every resource by
// 0.7*cosine + 0.3*matched keyword count.
func (s *Suggester) Suggest(ctx context.Context, req Request) (*Response, error) {
	if s.embedder == nil {
		return nil, ErrEmbedderRequired
	}
	text := AssessmentText(req.Assessment)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyAssessment
	}
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	tokens := Tokenize(text)
	query, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed assessment: %w", err)
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}

	var items []Item
	for _, r := range s.source.Snapshot() {
		if r == nil || strings.TrimSpace(r.ServiceName) == "" {
			continue
		}
		cos := Cosine(query, r.Vector)
		overlap, matched := keywordOverlap(r.Keywords, tokenSet)
		score := embeddingWeight*cos + keywordWeight*overlap
		if score <= s.threshold {
			continue
		}
		items = append(items, Item{
			ServiceName:     r.ServiceName,
			Score:           score,
			MatchedKeywords: matched,
			Excerpt:         ai.Truncate(r.Description, excerptRunes),
		})
	}

	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(items) > topK {
		items = items[:topK]
	}

	s.logger.Debug("suggest complete", "tokens", len(tokens), "returned", len(items))
	return &Response{
		QueryTokens: tokens[:min(len(tokens), maxQueryTokens)],
		Items:       items,
	}, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// keywordOverlap counts the distinct keywords present in tokens, up to
// maxKeywords, and returns the count with the matched keywords.
func keywordOverlap(keywords []string, tokens map[string]struct{}) (float64, []string) {
	seen := make(map[string]struct{}, len(keywords))
	var matched []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		if _, ok := tokens[kw]; ok {
			matched = append(matched, kw)
			if len(matched) == maxKeywords {
				break
			}
		}
	}
	return float64(len(matched)), matched
}
