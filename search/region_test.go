package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/shigen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func regionCatalog() []*core.Resource {
	return []*core.Resource{
		{ServiceName: "Nanyo Livelihood Desk", Location: "Nanyo City", Description: "Consultation on household finances"},
		{ServiceName: "Nanyo Food Pantry", Provider: "Nanyo City Council", Description: "Emergency food"},
		{ServiceName: "Yonezawa Food Bank", Location: "Yonezawa City", Description: "Emergency food parcels 2026"},
		{ServiceName: "Prefectural Housing Aid", Location: "Yamagata", Description: "Rent support"},
	}
}

func newTestRegionSearch(limit int) *RegionSearch {
	return NewRegionSearch(NewScorer(DefaultRecencyBonus, 0, nil), limit)
}

func TestRegionSearch_RegionHits(t *testing.T) {
	rs := newTestRegionSearch(0)
	nq := newTestNormalizer().Normalize("Nanyo City food")

	got := rs.Search(nq, regionCatalog())
	require.Len(t, got, 1)
	assert.Equal(t, "Nanyo Food Pantry", got[0].Resource.ServiceName)
	assert.Equal(t, core.OriginRegion, got[0].Origin)

	for _, c := range got {
		r := c.Resource
		text := strings.ToLower(r.Location + r.Provider + r.ServiceName)
		assert.Contains(t, text, "nanyo city", "region hits contain the region token")
	}
}

func TestRegionSearch_RegionOnlyQuery(t *testing.T) {
	got := newTestRegionSearch(0).Search(newTestNormalizer().Normalize("Nanyo City"), regionCatalog())

	require.Len(t, got, 2)
	assert.Equal(t, "Nanyo Livelihood Desk", got[0].Resource.ServiceName, "region hits keep catalog order")
	assert.Equal(t, "Nanyo Food Pantry", got[1].Resource.ServiceName)
}

func TestRegionSearch_FallbackWhenRegionMisses(t *testing.T) {
	rs := newTestRegionSearch(0)

	t.Run("unknown region", func(t *testing.T) {
		got := rs.Search(newTestNormalizer().Normalize("Sakata City food"), regionCatalog())
		require.Len(t, got, 2)
		for _, c := range got {
			assert.Equal(t, core.OriginFallback, c.Origin)
		}
		assert.Equal(t, "Yonezawa Food Bank", got[0].Resource.ServiceName, "recency bonus ranks first")
	})

	t.Run("region present but and fails", func(t *testing.T) {
		got := rs.Search(newTestNormalizer().Normalize("Nanyo City rent"), regionCatalog())
		require.Len(t, got, 1)
		assert.Equal(t, "Prefectural Housing Aid", got[0].Resource.ServiceName)
		assert.Equal(t, core.OriginFallback, got[0].Origin)
	})

	t.Run("no region", func(t *testing.T) {
		got := rs.Search(newTestNormalizer().Normalize("quantum computing"), regionCatalog())
		assert.Empty(t, got)
	})
}

func TestRegionSearch_FallbackCapAndOrder(t *testing.T) {
	var resources []*core.Resource
	for i := 0; i < 12; i++ {
		desc := "food support"
		if i%4 == 3 {
			desc += " 2026"
		}
		resources = append(resources, &core.Resource{
			ServiceName: fmt.Sprintf("Service %02d", i),
			Description: desc,
		})
	}

	got := newTestRegionSearch(0).Search(newTestNormalizer().Normalize("food"), resources)
	require.Len(t, got, DefaultFallbackLimit)

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Resource.ServiceName)
	}
	assert.Equal(t, []string{
		"Service 03", "Service 07", "Service 11",
		"Service 00", "Service 01", "Service 02", "Service 04", "Service 05",
	}, names)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}

	capped := newTestRegionSearch(3).Search(newTestNormalizer().Normalize("food"), resources)
	assert.Len(t, capped, 3)
}

func TestRegionSearch_Dedupe(t *testing.T) {
	resources := []*core.Resource{
		{ServiceName: "Food Bank", Description: "food"},
		{ServiceName: "food bank ", Description: "food food"},
	}
	got := newTestRegionSearch(0).Search(newTestNormalizer().Normalize("food"), resources)
	require.Len(t, got, 1)
	assert.Equal(t, "Food Bank", got[0].Resource.ServiceName)
}
