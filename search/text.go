package search

import (
	"strings"

	"github.com/poiesic/shigen/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// canonicalize applies NFKC and collapses whitespace.
// Full-width digits, latin letters and ideographic spaces become ASCII.
func canonicalize(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// fold returns the comparison form of s. A Caser is stateful, so one is built per call.
func fold(s string) string {
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}

// haystack is the folded text a resource is matched against.
func haystack(r *core.Resource) string {
	return fold(strings.Join([]string{
		r.ServiceName,
		r.Category,
		r.Description,
		strings.Join(r.Keywords, " "),
		r.Eligibility,
		r.ApplicationProcess,
	}, " "))
}

// regionText is the folded text a region token is looked up in.
func regionText(r *core.Resource) string {
	return fold(r.Location + " " + r.Provider + " " + r.ServiceName)
}

// foldAll folds every token, dropping empties and duplicates while keeping order.
func foldAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		f := fold(strings.TrimSpace(t))
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
