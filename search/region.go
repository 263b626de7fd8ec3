package search

import (
	"sort"
	"strings"

	"github.com/poiesic/shigen/core"
)

// DefaultFallbackLimit caps the broad search that runs when the region yields nothing.
const DefaultFallbackLimit = 8

// RegionSearch ranks resources region first, then falls back to a broad search.
type RegionSearch struct {
	scorer        *Scorer
	fallbackLimit int
}

// NewRegionSearch creates a region search over scorer.
func NewRegionSearch(scorer *Scorer, fallbackLimit int) *RegionSearch {
	if fallbackLimit <= 0 {
		fallbackLimit = DefaultFallbackLimit
	}
	return &RegionSearch{scorer: scorer, fallbackLimit: fallbackLimit}
}

// Search runs the region policy over resources.
func (rs *RegionSearch) Search(nq *NormalizedQuery, resources []*core.Resource) []core.ScoredCandidate {
	return rs.SearchWithMonitor(nq, resources, nil)
}

// SearchWithMonitor runs the region policy, reporting each stage to monitor.
//
// Resources whose location, provider or name contain the region token are
// searched in AND mode and returned in catalog order. When that produces no
// hits the full catalog is searched in OR mode, sorted by score and capped.
func (rs *RegionSearch) SearchWithMonitor(nq *NormalizedQuery, resources []*core.Resource, monitor SearchMonitor) []core.ScoredCandidate {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	var regionHits []core.ScoredCandidate
	if nq.Region != "" {
		filtered := filterRegion(resources, nq.Region)
		monitor.AfterRegionFilter(nq.Region, filtered)
		if len(filtered) > 0 {
			regionHits = rs.scorer.evaluate(filtered, nq, ModeAnd, core.OriginRegion)
		}
	}
	for _, c := range regionHits {
		monitor.RegionHit(c)
	}
	if len(regionHits) > 0 {
		return dedupe(regionHits)
	}

	fallback := rs.scorer.evaluate(resources, nq, ModeOr, core.OriginFallback)
	sort.SliceStable(fallback, func(i, j int) bool {
		return fallback[i].Score > fallback[j].Score
	})
	fallback = dedupe(fallback)
	if len(fallback) > rs.fallbackLimit {
		fallback = fallback[:rs.fallbackLimit]
	}
	for _, c := range fallback {
		monitor.FallbackHit(c)
	}
	return fallback
}

func filterRegion(resources []*core.Resource, region string) []*core.Resource {
	needle := fold(region)
	var out []*core.Resource
	for _, r := range resources {
		if r != nil && strings.Contains(regionText(r), needle) {
			out = append(out, r)
		}
	}
	return out
}

// dedupe keeps the first candidate per service name.
func dedupe(candidates []core.ScoredCandidate) []core.ScoredCandidate {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		key := core.NormalizeServiceName(c.Resource.ServiceName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
