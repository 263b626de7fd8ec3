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

package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Resource IDs are derived from content so re-imports are idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IDFromServiceName returns the stable key of a resource.
// Names differing only in case or surrounding whitespace share an ID.
func IDFromServiceName(name string) ID {
	return IDFromContent(NormalizeServiceName(name))
}

// NormalizeServiceName returns the form of a service name used for keys and dedup.
func NormalizeServiceName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Contact holds the optional ways of reaching a provider.
type Contact struct {
	Phone string
	Fax   string
	Email string
	URL   string
}

// IsZero reports whether no contact detail is set.
func (c Contact) IsZero() bool {
	return c.Phone == "" && c.Fax == "" && c.Email == "" && c.URL == ""
}

// Resource is one social-welfare service, program or agency in the catalog.
type Resource struct {
	Id                 ID
	ServiceName        string
	Category           string
	TargetUsers        string
	Description        string
	Eligibility        string
	ApplicationProcess string
	Cost               string
	Provider           string
	Location           string
	Contact            Contact
	Keywords           []string
	Vector             []float32 // Embedding of ResourceCorpus (populated by reembed)
	InsertedAt         time.Time
	UpdatedAt          time.Time
}

// Key returns the resource's stable ID, computing it when unset.
func (r *Resource) Key() ID {
	if r.Id == 0 {
		return IDFromServiceName(r.ServiceName)
	}
	return r.Id
}

// Clone returns a deep copy of the resource.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	c := *r
	if r.Keywords != nil {
		c.Keywords = append([]string(nil), r.Keywords...)
	}
	if r.Vector != nil {
		c.Vector = append([]float32(nil), r.Vector...)
	}
	return &c
}

// ResourceCorpus returns the text embedded for a resource.
func ResourceCorpus(r *Resource) string {
	parts := []string{
		r.ServiceName,
		r.Category,
		r.TargetUsers,
		r.Description,
		r.Eligibility,
		strings.Join(r.Keywords, " "),
		r.Provider,
		r.Location,
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// MatchOrigin records which tier of the region-aware search produced a hit.
type MatchOrigin int

const (
	// OriginRegion marks a hit found inside the region-filtered set.
	OriginRegion MatchOrigin = iota + 1
	// OriginFallback marks a hit from the broad search over the full catalog.
	OriginFallback
)

// String returns a short label for the origin.
func (o MatchOrigin) String() string {
	switch o {
	case OriginRegion:
		return "region"
	case OriginFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// ScoredCandidate pairs a resource with its lexical score for one search call.
type ScoredCandidate struct {
	Resource *Resource
	Score    int
	Matched  []string // Tokens found in the resource text
	Origin   MatchOrigin
}
