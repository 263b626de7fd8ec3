package search

import (
	"strconv"
	"strings"

	"github.com/poiesic/shigen/core"
)

const (
	// BlockSeparator joins formatted result blocks.
	BlockSeparator = "\n---\n"

	RegionMarker   = "[REGION MATCH]"
	FallbackMarker = "[OTHER REGION]"
)

// Formatter renders candidates as text blocks for a downstream agent.
type Formatter struct{}

// Format renders one block per candidate. Callers handle the empty case.
func (Formatter) Format(candidates []core.ScoredCandidate) string {
	blocks := make([]string, 0, len(candidates))
	for _, c := range candidates {
		var b strings.Builder
		marker := FallbackMarker
		if c.Origin == core.OriginRegion {
			marker = RegionMarker
		}
		b.WriteString(marker)
		b.WriteString(" ")
		writeResource(&b, c.Resource)
		writeLine(&b, "Score", strconv.Itoa(c.Score))
		blocks = append(blocks, strings.TrimRight(b.String(), "\n"))
	}
	return strings.Join(blocks, BlockSeparator)
}

// FormatDetail renders a single resource without a marker or score.
func (Formatter) FormatDetail(r *core.Resource) string {
	var b strings.Builder
	writeResource(&b, r)
	return strings.TrimRight(b.String(), "\n")
}

func writeResource(b *strings.Builder, r *core.Resource) {
	b.WriteString(orDash(r.ServiceName))
	b.WriteString("\n")
	writeLine(b, "Category", r.Category)
	writeLine(b, "Target users", r.TargetUsers)
	writeLine(b, "Eligibility", r.Eligibility)
	writeLine(b, "Application process", r.ApplicationProcess)
	writeLine(b, "Cost", r.Cost)
	writeLine(b, "Description", r.Description)
	writeLine(b, "Keywords", strings.Join(r.Keywords, ", "))
	writeLine(b, "Contact", formatContact(r.Contact))
	writeLine(b, "Provider", r.Provider)
	writeLine(b, "Location", r.Location)
}

func writeLine(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(orDash(value))
	b.WriteString("\n")
}

func formatContact(c core.Contact) string {
	var parts []string
	for _, p := range []struct{ label, value string }{
		{"phone", c.Phone},
		{"fax", c.Fax},
		{"email", c.Email},
		{"url", c.URL},
	} {
		if v := strings.TrimSpace(p.value); v != "" {
			parts = append(parts, p.label+" "+v)
		}
	}
	return strings.Join(parts, " / ")
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}
