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

package session

import (
	"slices"
	"time"
)

// Phase is the coarse state of a session.
type Phase int

const (
	// PhaseFresh means no query has been attempted.
	PhaseFresh Phase = iota
	// PhaseAttempted means at least one query ran and none failed.
	PhaseAttempted
	// PhaseFailed means at least one query returned nothing.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseFresh:
		return "fresh"
	case PhaseAttempted:
		return "attempted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tier is the escalation level reached after cumulative failures.
type Tier int

const (
	// TierNone means no failure has been recorded.
	TierNone Tier = iota
	// TierBroaden follows the first failure; the caller may keep searching.
	TierBroaden
	// TierLastAttempt follows the second failure; one broader search at most.
	TierLastAttempt
	// TierStop follows the third and later failures; local search is over.
	TierStop
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierBroaden:
		return "broaden"
	case TierLastAttempt:
		return "last_attempt"
	case TierStop:
		return "stop"
	default:
		return "unknown"
	}
}

// TierFor returns the tier reached after failures zero-result searches.
func TierFor(failures int) Tier {
	switch {
	case failures <= 0:
		return TierNone
	case failures == 1:
		return TierBroaden
	case failures == 2:
		return TierLastAttempt
	default:
		return TierStop
	}
}

// State is the search history of one planning session.
// It is not safe for concurrent use; Registry serializes access per ID.
type State struct {
	ID        string    `json:"id"`
	History   []string  `json:"history"`
	Attempts  int       `json:"attempts"`
	Failures  int       `json:"failures"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns an empty session state.
func NewState(id string, now time.Time) *State {
	return &State{ID: id, CreatedAt: now, UpdatedAt: now}
}

// CheckRepeat reports whether query was already issued in this session.
// Queries are compared exactly; callers pass the canonical form.
func (s *State) CheckRepeat(query string) bool {
	return slices.Contains(s.History, query)
}

// RecordAttempt appends query to the history and counts the attempt.
func (s *State) RecordAttempt(query string) {
	s.History = append(s.History, query)
	s.Attempts++
}

// RecordFailure counts a zero-result search and returns the tier reached.
func (s *State) RecordFailure() Tier {
	s.Failures++
	return TierFor(s.Failures)
}

// Tier returns the tier for the failures recorded so far.
func (s *State) Tier() Tier {
	return TierFor(s.Failures)
}

// Reset clears history and counters, keeping the ID.
func (s *State) Reset() {
	s.History = nil
	s.Attempts = 0
	s.Failures = 0
}

// Phase returns the coarse state of the session.
func (s *State) Phase() Phase {
	switch {
	case s.Failures > 0:
		return PhaseFailed
	case s.Attempts > 0:
		return PhaseAttempted
	default:
		return PhaseFresh
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	c.History = slices.Clone(s.History)
	return &c
}
