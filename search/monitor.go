package search

import (
	"github.com/poiesic/shigen/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterNormalize(nq *NormalizedQuery)
	AfterRegionFilter(region string, filtered []*core.Resource)
	RegionHit(candidate core.ScoredCandidate)
	FallbackHit(candidate core.ScoredCandidate)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                              {}
func (n *noopMonitor) AfterNormalize(_ *NormalizedQuery)           {}
func (n *noopMonitor) AfterRegionFilter(_ string, _ []*core.Resource) {}
func (n *noopMonitor) RegionHit(_ core.ScoredCandidate)            {}
func (n *noopMonitor) FallbackHit(_ core.ScoredCandidate)          {}
func (n *noopMonitor) Finish(_ *Result)                            {}
