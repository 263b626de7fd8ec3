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
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shigen/core"
)

// Mode selects how query tokens are combined.
type Mode int

const (
	// ModeAnd requires every token.
	ModeAnd Mode = iota
	// ModeOr requires at least one token.
	ModeOr
)

const (
	// DefaultRecencyBonus is added once when a resource mentions the query's year or era.
	DefaultRecencyBonus = 2

	// DefaultParallelThreshold is the catalog size from which scoring is spread over the pool.
	DefaultParallelThreshold = 512
)

// Scorer evaluates resources against query tokens. All methods are pure.
type Scorer struct {
	recencyBonus      int
	parallelThreshold int
	pool              *ants.Pool
}

// NewScorer creates a scorer. A nil pool keeps scoring sequential.
func NewScorer(recencyBonus, parallelThreshold int, pool *ants.Pool) *Scorer {
	if parallelThreshold <= 0 {
		parallelThreshold = DefaultParallelThreshold
	}
	return &Scorer{
		recencyBonus:      recencyBonus,
		parallelThreshold: parallelThreshold,
		pool:              pool,
	}
}

// Matches reports whether the resource text contains the tokens under mode.
// An empty token set matches everything.
func (s *Scorer) Matches(r *core.Resource, tokens []string, mode Mode) bool {
	folded := foldAll(tokens)
	if len(folded) == 0 {
		return true
	}
	return containsTokens(haystack(r), folded, mode)
}

func containsTokens(hay string, tokens []string, mode Mode) bool {
	for _, tok := range tokens {
		found := strings.Contains(hay, tok)
		if mode == ModeOr && found {
			return true
		}
		if mode == ModeAnd && !found {
			return false
		}
	}
	return mode == ModeAnd
}

// MatchesQuery applies the query's clause structure: in AND mode every clause
// needs one member present, in OR mode any member suffices. A negated term
// present in the text rejects the resource.
func (s *Scorer) MatchesQuery(r *core.Resource, nq *NormalizedQuery, mode Mode) bool {
	return matchesClauses(haystack(r), nq.clauses(), nq.Exclusions(), mode)
}

func matchesClauses(hay string, clauses [][]string, exclusions []string, mode Mode) bool {
	for _, ex := range exclusions {
		if ex != "" && strings.Contains(hay, ex) {
			return false
		}
	}
	if len(clauses) == 0 {
		return true
	}
	for _, clause := range clauses {
		found := containsTokens(hay, clause, ModeOr)
		if mode == ModeOr && found {
			return true
		}
		if mode == ModeAnd && !found {
			return false
		}
	}
	return mode == ModeAnd
}

// Score counts the tokens contained in the resource text, adding the recency
// bonus once when a year or era token is among them.
func (s *Scorer) Score(r *core.Resource, tokens []string) int {
	score, _ := s.score(haystack(r), foldAll(tokens))
	return score
}

func (s *Scorer) score(hay string, tokens []string) (int, []string) {
	var (
		score   int
		matched []string
		recency bool
	)
	for _, tok := range tokens {
		if !strings.Contains(hay, tok) {
			continue
		}
		score++
		matched = append(matched, tok)
		if !recency && isRecencyToken(tok) {
			recency = true
			score += s.recencyBonus
		}
	}
	return score, matched
}

// evaluate returns the candidates among resources that satisfy the query in
// mode, in input order.
func (s *Scorer) evaluate(resources []*core.Resource, nq *NormalizedQuery, mode Mode, origin core.MatchOrigin) []core.ScoredCandidate {
	clauses := nq.clauses()
	exclusions := nq.Exclusions()
	tokens := foldAll(nq.Expanded)

	eval := func(chunk []*core.Resource) []core.ScoredCandidate {
		var out []core.ScoredCandidate
		for _, r := range chunk {
			if r == nil || strings.TrimSpace(r.ServiceName) == "" {
				continue
			}
			hay := haystack(r)
			if !matchesClauses(hay, clauses, exclusions, mode) {
				continue
			}
			score, matched := s.score(hay, tokens)
			out = append(out, core.ScoredCandidate{
				Resource: r,
				Score:    score,
				Matched:  matched,
				Origin:   origin,
			})
		}
		return out
	}

	if s.pool == nil || len(resources) < s.parallelThreshold {
		return eval(resources)
	}
	return s.evaluateParallel(resources, eval)
}

// evaluateParallel splits resources into chunks scored on the pool and
// concatenates the results in chunk order. A rejected submit runs inline.
func (s *Scorer) evaluateParallel(resources []*core.Resource, eval func([]*core.Resource) []core.ScoredCandidate) []core.ScoredCandidate {
	workers := max(s.pool.Cap(), 1)
	chunkSize := (len(resources) + workers - 1) / workers
	chunkSize = max(chunkSize, s.parallelThreshold/4, 1)

	var chunks [][]*core.Resource
	for start := 0; start < len(resources); start += chunkSize {
		chunks = append(chunks, resources[start:min(start+chunkSize, len(resources))])
	}

	results := make([][]core.ScoredCandidate, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = eval(chunk)
		}
		if err := s.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	var out []core.ScoredCandidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
