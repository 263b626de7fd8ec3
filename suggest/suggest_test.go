package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/shigen/ai/mock"
	"github.com/poiesic/shigen/catalog"
	"github.com/poiesic/shigen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder maps texts to fixed unit vectors so cosine values are exact.
func axisEmbedder(vec []float32) *mock.MockEmbedder {
	e := mock.NewMockEmbedder()
	e.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return vec, nil
	}
	return e
}

func TestSuggest_Ranking(t *testing.T) {
	cat := catalog.New(
		&core.Resource{ServiceName: "Exact", Vector: []float32{1, 0}, Description: "same direction"},
		&core.Resource{ServiceName: "Orthogonal", Vector: []float32{0, 1}},
		&core.Resource{ServiceName: "Keyword Only", Keywords: []string{"rent", "debt"}},
		&core.Resource{ServiceName: "Partial", Vector: []float32{0.6, 0.8}, Keywords: []string{"rent"}},
	)
	s, err := NewSuggester(cat, axisEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	resp, err := s.Suggest(context.Background(), Request{
		Assessment: map[string]any{
			"assessment": map[string]any{
				"housing": map[string]any{"status": "behind on rent"},
			},
		},
	})
	require.NoError(t, err)

	names := make([]string, len(resp.Items))
	for i, it := range resp.Items {
		names[i] = it.ServiceName
	}
	// Partial 0.7*0.6+0.3 = 0.72, Exact 0.7, Keyword Only 0.3, Orthogonal 0 (dropped)
	assert.Equal(t, []string{"Partial", "Exact", "Keyword Only"}, names)
	assert.InDelta(t, 0.72, resp.Items[0].Score, 1e-6)
	assert.Equal(t, []string{"rent"}, resp.Items[0].MatchedKeywords)
	assert.Equal(t, "same direction", resp.Items[1].Excerpt)
	assert.InDelta(t, 0.3, resp.Items[2].Score, 1e-6)
	assert.Contains(t, resp.QueryTokens, "rent")
}

func TestSuggest_KeywordCount(t *testing.T) {
	t.Run("one match without a vector is kept", func(t *testing.T) {
		cat := catalog.New(&core.Resource{
			ServiceName: "Housing Help",
			Keywords:    []string{"rent", "debt", "housing", "moving"},
		})
		s, err := NewSuggester(cat, axisEmbedder([]float32{1, 0}))
		require.NoError(t, err)

		resp, err := s.Suggest(context.Background(), Request{Assessment: map[string]any{"note": "behind on rent"}})
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Housing Help", resp.Items[0].ServiceName)
		assert.InDelta(t, 0.3, resp.Items[0].Score, 1e-6)
	})

	t.Run("count is capped", func(t *testing.T) {
		var keywords []string
		var words []string
		for i := range 15 {
			kw := "kw" + string(rune('a'+i))
			keywords = append(keywords, kw, strings.ToUpper(kw))
			words = append(words, kw)
		}
		overlap, matched := keywordOverlap(keywords, tokenSetOf(words))
		assert.Equal(t, float64(maxKeywords), overlap)
		assert.Len(t, matched, maxKeywords)
	})
}

func tokenSetOf(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func TestSuggest_TopKAndStableOrder(t *testing.T) {
	var resources []*core.Resource
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		resources = append(resources, &core.Resource{ServiceName: name, Vector: []float32{1, 0}})
	}
	s, err := NewSuggester(catalog.New(resources...), axisEmbedder([]float32{1, 0}))
	require.NoError(t, err)

	resp, err := s.Suggest(context.Background(), Request{Assessment: map[string]any{"note": "anything"}})
	require.NoError(t, err)
	require.Len(t, resp.Items, DefaultTopK)
	assert.Equal(t, "A", resp.Items[0].ServiceName)
	assert.Equal(t, "E", resp.Items[4].ServiceName)

	resp, err = s.Suggest(context.Background(), Request{Assessment: map[string]any{"note": "anything"}, TopK: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
}

func TestSuggest_Errors(t *testing.T) {
	_, err := NewSuggester(nil, nil)
	assert.ErrorIs(t, err, ErrCatalogRequired)

	s, err := NewSuggester(catalog.New(), nil)
	require.NoError(t, err)
	_, err = s.Suggest(context.Background(), Request{Assessment: map[string]any{"a": "b"}})
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	s, err = NewSuggester(catalog.New(), mock.NewMockEmbedder())
	require.NoError(t, err)
	_, err = s.Suggest(context.Background(), Request{Assessment: map[string]any{"a": "  ", "b": 3}})
	assert.ErrorIs(t, err, ErrEmptyAssessment)

	failing := mock.NewMockEmbedder()
	failing.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		return nil, errors.New("backend down")
	}
	s, err = NewSuggester(catalog.New(), failing)
	require.NoError(t, err)
	_, err = s.Suggest(context.Background(), Request{Assessment: map[string]any{"a": "b"}})
	assert.ErrorContains(t, err, "backend down")
}

func TestSuggest_Threshold(t *testing.T) {
	cat := catalog.New(&core.Resource{ServiceName: "Exact", Vector: []float32{1, 0}})
	s, err := NewSuggester(cat, axisEmbedder([]float32{1, 0}), WithThreshold(0.7))
	require.NoError(t, err)

	resp, err := s.Suggest(context.Background(), Request{Assessment: map[string]any{"a": "text"}})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestAssessmentText(t *testing.T) {
	text := AssessmentText(map[string]any{
		"b": map[string]any{"z": "last", "a": "middle"},
		"a": "first",
		"c": []any{"list item", 42},
	})
	assert.Equal(t, "first\nmiddle\nlast\nlist item", text)

	long := AssessmentText(map[string]any{"a": strings.Repeat("x", 9000)})
	assert.Len(t, []rune(long), 8000)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"家賃", "滞納", "rent", "overdue"}, Tokenize("家賃、滞納。Rent / overdue a"))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
}
