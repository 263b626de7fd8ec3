package search

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon is the configurable vocabulary used by the Normalizer.
type Lexicon struct {
	// Synonyms maps a query term to the terms it also matches.
	// Keys may contain spaces; adjacent query tokens forming a key are joined.
	Synonyms map[string][]string `yaml:"synonyms"`

	// RegionSuffixes are locality suffixes; a token ending in one is a region.
	RegionSuffixes []string `yaml:"region_suffixes"`

	// RegionWords are standalone locality words; "<name> <word>" is a region.
	RegionWords []string `yaml:"region_words"`

	// folded lookup tables, built by compile
	synonyms    map[string][]string
	phrases     map[string]struct{}
	maxPhrase   int
	regionWords map[string]struct{}
}

// DefaultLexicon returns the built-in vocabulary.
func DefaultLexicon() *Lexicon {
	l := &Lexicon{
		Synonyms: map[string][]string{
			"生活困窮": {"家計", "生活支援", "自立", "生活"},
			"就労支援": {"就労", "仕事", "雇用", "職業訓練"},
			"住まい":  {"住宅", "家賃", "居住支援"},
			"子育て":  {"児童", "保育", "育児"},
			"介護":   {"高齢者", "介護保険", "在宅"},
			"障害":   {"障がい", "障害者", "福祉サービス"},
			"医療費":  {"医療", "受診", "自己負担"},
			"ひとり親": {"母子", "父子", "児童扶養手当"},

			"livelihood hardship": {"household finances", "life support", "independence", "livelihood"},
			"employment support":  {"employment", "job", "vocational training"},
			"housing":             {"rent", "residence", "housing support"},
			"childcare":           {"child", "nursery", "parenting"},
			"elder care":          {"long-term care", "senior", "home care"},
		},
		RegionSuffixes: []string{"市", "町", "村", "区", "県", "府", "道"},
		RegionWords:    []string{"city", "town", "village", "ward", "prefecture"},
	}
	l.compile()
	return l
}

// LoadLexicon reads a YAML lexicon from path and overlays it on the defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var overlay Lexicon
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLexicon, err)
	}
	return DefaultLexicon().Merge(&overlay), nil
}

// Merge returns a new lexicon with other's entries added to l.
// Synonym lists of shared keys are replaced; non-empty suffix and word lists replace l's.
func (l *Lexicon) Merge(other *Lexicon) *Lexicon {
	merged := &Lexicon{
		Synonyms:       make(map[string][]string, len(l.Synonyms)),
		RegionSuffixes: l.RegionSuffixes,
		RegionWords:    l.RegionWords,
	}
	for k, v := range l.Synonyms {
		merged.Synonyms[k] = v
	}
	if other != nil {
		for k, v := range other.Synonyms {
			merged.Synonyms[k] = v
		}
		if len(other.RegionSuffixes) > 0 {
			merged.RegionSuffixes = other.RegionSuffixes
		}
		if len(other.RegionWords) > 0 {
			merged.RegionWords = other.RegionWords
		}
	}
	merged.compile()
	return merged
}

func (l *Lexicon) compile() {
	l.synonyms = make(map[string][]string, len(l.Synonyms))
	l.phrases = make(map[string]struct{})
	l.maxPhrase = 1
	for k, v := range l.Synonyms {
		key := fold(k)
		l.synonyms[key] = v
		if words := len(strings.Fields(key)); words > 1 {
			l.phrases[key] = struct{}{}
			l.maxPhrase = max(l.maxPhrase, words)
		}
	}

	l.regionWords = make(map[string]struct{}, len(l.RegionWords))
	for _, w := range l.RegionWords {
		l.regionWords[fold(w)] = struct{}{}
	}
}

func (l *Lexicon) ensureCompiled() {
	if l.synonyms == nil {
		l.compile()
	}
}

// Lookup returns the synonyms configured for term.
func (l *Lexicon) Lookup(term string) []string {
	return l.synonyms[fold(term)]
}

func (l *Lexicon) isPhrase(words []string) bool {
	_, ok := l.phrases[fold(strings.Join(words, " "))]
	return ok
}

// hasRegionSuffix reports whether token ends in a locality suffix and is longer than it.
func (l *Lexicon) hasRegionSuffix(token string) bool {
	for _, suffix := range l.RegionSuffixes {
		if suffix != "" && len(token) > len(suffix) && strings.HasSuffix(token, suffix) {
			return true
		}
	}
	return false
}

func (l *Lexicon) isRegionWord(token string) bool {
	_, ok := l.regionWords[fold(token)]
	return ok
}
