package search

import (
	"strings"
	"testing"

	"github.com/poiesic/shigen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Format(t *testing.T) {
	candidates := []core.ScoredCandidate{
		{
			Resource: &core.Resource{
				ServiceName: "Nanyo Livelihood Desk",
				Category:    "Consultation",
				Location:    "Nanyo City",
				Keywords:    []string{"household finances", "debt"},
				Contact:     core.Contact{Phone: "0238-40-0000", URL: "https://example.org"},
			},
			Score:  3,
			Origin: core.OriginRegion,
		},
		{
			Resource: &core.Resource{ServiceName: "Yonezawa Food Bank"},
			Score:    1,
			Origin:   core.OriginFallback,
		},
	}

	out := Formatter{}.Format(candidates)
	blocks := strings.Split(out, BlockSeparator)
	require.Len(t, blocks, 2)

	assert.True(t, strings.HasPrefix(blocks[0], RegionMarker+" Nanyo Livelihood Desk\n"))
	assert.Contains(t, blocks[0], "Category: Consultation\n")
	assert.Contains(t, blocks[0], "Keywords: household finances, debt\n")
	assert.Contains(t, blocks[0], "Contact: phone 0238-40-0000 / url https://example.org\n")
	assert.Contains(t, blocks[0], "Cost: -\n")
	assert.True(t, strings.HasSuffix(blocks[0], "Score: 3"))

	assert.True(t, strings.HasPrefix(blocks[1], FallbackMarker+" Yonezawa Food Bank\n"))
	assert.Contains(t, blocks[1], "Contact: -\n")
	assert.True(t, strings.HasSuffix(blocks[1], "Score: 1"))
}

func TestFormatter_FormatDetail(t *testing.T) {
	out := Formatter{}.FormatDetail(&core.Resource{
		ServiceName:        "Rent Support",
		ApplicationProcess: "Apply at the city office",
	})

	assert.True(t, strings.HasPrefix(out, "Rent Support\n"))
	assert.Contains(t, out, "Application process: Apply at the city office")
	assert.NotContains(t, out, "Score:")
	assert.NotContains(t, out, RegionMarker)
}
