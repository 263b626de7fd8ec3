package suggest

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/shigen/ai"
)

const (
	maxTokens      = 1000
	maxQueryTokens = 100
)

var tokenSeparators = regexp.MustCompile(`[\s、。,.；;:/()『』「」【】\[\]{}]+`)

// AssessmentText joins every string leaf of a nested assessment document.
// Maps are walked in sorted key order so the text is stable.
func AssessmentText(assessment map[string]any) string {
	var parts []string
	collect(assessment, &parts)
	return ai.Truncate(strings.Join(parts, "\n"), ai.MaxInputRunes)
}

func collect(v any, parts *[]string) {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			*parts = append(*parts, s)
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			collect(t[k], parts)
		}
	case []any:
		for _, e := range t {
			collect(e, parts)
		}
	case []string:
		for _, e := range t {
			collect(e, parts)
		}
	}
}

// Tokenize lowercases text and splits it on whitespace and punctuation.
// Single-rune tokens are dropped.
func Tokenize(text string) []string {
	var tokens []string
	for _, t := range tokenSeparators.Split(strings.ToLower(text), -1) {
		if utf8.RuneCountInString(t) <= 1 {
			continue
		}
		tokens = append(tokens, t)
		if len(tokens) == maxTokens {
			break
		}
	}
	return tokens
}
