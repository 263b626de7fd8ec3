package search

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Operator is the boolean combinator attached to a query term.
type Operator int

const (
	// OpAnd requires the term. It is the default when no marker is given.
	OpAnd Operator = iota
	// OpOr makes the term an alternative to the previous one.
	OpOr
)

func (o Operator) String() string {
	if o == OpOr {
		return "OR"
	}
	return "AND"
}

// Term is one parsed query term.
type Term struct {
	Text     string
	Op       Operator
	Negated  bool
	Synonyms []string
}

// NormalizedQuery is the parsed form of a free-text query.
type NormalizedQuery struct {
	Raw          string
	Canonical    string // NFKC, whitespace collapsed; used for repeat detection
	Terms        []Term
	Region       string
	Keywords     []string
	Expanded     []string
	Recency      string
	ExplicitYear bool
}

// IsEmpty reports whether the query carried no terms at all.
func (q *NormalizedQuery) IsEmpty() bool {
	return len(q.Terms) == 0
}

// Exclusions returns the folded negated terms.
func (q *NormalizedQuery) Exclusions() []string {
	var out []string
	for _, t := range q.Terms {
		if t.Negated {
			out = append(out, fold(t.Text))
		}
	}
	return out
}

// clauses groups keyword terms for matching. Each clause is satisfied by any
// of its folded members; an OR term joins the clause of the term before it.
// Region, negated and recency terms never form clauses.
func (q *NormalizedQuery) clauses() [][]string {
	var out [][]string
	for _, t := range q.Terms {
		if t.Negated || t.Text == q.Region || isRecencyToken(t.Text) {
			continue
		}
		group := foldAll(append([]string{t.Text}, t.Synonyms...))
		if t.Op == OpOr && len(out) > 0 {
			out[len(out)-1] = append(out[len(out)-1], group...)
			continue
		}
		out = append(out, group)
	}
	return out
}

var (
	yearPattern = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
	eraPattern  = regexp.MustCompile(`(令和|平成|昭和)(元|\d{1,2})`)
	eraAbbrev   = regexp.MustCompile(`^[RrHh]\d{1,2}$`)
)

// recencyIn returns the year or era expression contained in token.
func recencyIn(token string) (string, bool) {
	if m := yearPattern.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if m := eraPattern.FindString(token); m != "" {
		return m, true
	}
	if eraAbbrev.MatchString(token) {
		return token, true
	}
	return "", false
}

func isRecencyToken(token string) bool {
	_, ok := recencyIn(token)
	return ok
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNow sets the clock used for the implicit recency token.
func WithNow(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalizer turns raw query text into a NormalizedQuery. It is safe for concurrent use.
type Normalizer struct {
	lexicon *Lexicon
	now     func() time.Time
}

// NewNormalizer creates a normalizer over lexicon, or DefaultLexicon when nil.
func NewNormalizer(lexicon *Lexicon, opts ...NormalizerOption) *Normalizer {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	lexicon.ensureCompiled()
	n := &Normalizer{lexicon: lexicon, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Canonical returns the canonical form of raw without parsing it.
func (n *Normalizer) Canonical(raw string) string {
	return canonicalize(raw)
}

// Normalize parses raw. An empty query yields empty term sets and no recency token.
func (n *Normalizer) Normalize(raw string) *NormalizedQuery {
	nq := &NormalizedQuery{Raw: raw, Canonical: canonicalize(raw)}
	if nq.Canonical == "" {
		return nq
	}

	nq.Terms = n.parseTerms(strings.Fields(nq.Canonical))
	nq.Region = n.detectRegion(nq)

	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		key := fold(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		nq.Expanded = append(nq.Expanded, s)
	}

	for i := range nq.Terms {
		t := &nq.Terms[i]
		if t.Negated || t.Text == nq.Region {
			continue
		}
		nq.Keywords = append(nq.Keywords, t.Text)
		t.Synonyms = n.lexicon.Lookup(t.Text)
		if nq.Recency == "" {
			if r, ok := recencyIn(t.Text); ok {
				nq.Recency = r
				nq.ExplicitYear = true
			}
		}
	}
	for _, t := range nq.Terms {
		if t.Negated || t.Text == nq.Region {
			continue
		}
		add(t.Text)
		for _, s := range t.Synonyms {
			add(s)
		}
	}

	if nq.Recency == "" {
		nq.Recency = strconv.Itoa(n.now().Year())
	}
	add(nq.Recency)
	return nq
}

func (n *Normalizer) parseTerms(tokens []string) []Term {
	terms := make([]Term, 0, len(tokens))
	op := OpAnd
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok {
		case "+":
			op = OpAnd
			continue
		case "|":
			op = OpOr
			continue
		case "-":
			continue
		}

		negated := strings.HasPrefix(tok, "-")
		text := strings.TrimPrefix(tok, "-")

		if !negated {
			if joined, used := n.joinPhrase(tokens[i:]); used > 1 {
				text = joined
				i += used - 1
			}
		}

		terms = append(terms, Term{Text: text, Op: op, Negated: negated})
		op = OpAnd
	}
	return terms
}

// joinPhrase returns the longest lexicon phrase starting at tokens[0] and the
// number of tokens it consumed.
func (n *Normalizer) joinPhrase(tokens []string) (string, int) {
	for size := min(n.lexicon.maxPhrase, len(tokens)); size > 1; size-- {
		window := tokens[:size]
		if !plainWords(window[1:]) {
			continue
		}
		if n.lexicon.isPhrase(window) {
			return strings.Join(window, " "), size
		}
	}
	return tokens[0], 1
}

func plainWords(tokens []string) bool {
	for _, t := range tokens {
		if t == "+" || t == "|" || strings.HasPrefix(t, "-") {
			return false
		}
	}
	return true
}

// detectRegion finds the first locality term. A standalone region word is
// merged with the term before it, which it then replaces.
func (n *Normalizer) detectRegion(nq *NormalizedQuery) string {
	for i := 0; i < len(nq.Terms); i++ {
		t := nq.Terms[i]
		if t.Negated {
			continue
		}
		if n.lexicon.hasRegionSuffix(t.Text) {
			return t.Text
		}
		if i > 0 && n.lexicon.isRegionWord(t.Text) {
			prev := nq.Terms[i-1]
			if prev.Negated || n.lexicon.isRegionWord(prev.Text) {
				continue
			}
			region := prev.Text + " " + t.Text
			nq.Terms = append(nq.Terms[:i-1], append([]Term{{Text: region, Op: prev.Op}}, nq.Terms[i+1:]...)...)
			return region
		}
	}
	return ""
}

var externalSearchMarkers = []string{"制度", "給付", "補助", "支援", "助成", "要件", "対象"}

// AugmentExternalQuery appends the current year to a benefits-related query
// that does not already name a year, so external searches surface current rules.
func AugmentExternalQuery(query string, now time.Time) string {
	q := canonicalize(query)
	if q == "" {
		return q
	}
	for _, tok := range strings.Fields(q) {
		if isRecencyToken(tok) {
			return q
		}
	}
	for _, marker := range externalSearchMarkers {
		if strings.Contains(q, marker) {
			return q + " " + strconv.Itoa(now.Year())
		}
	}
	return q
}
