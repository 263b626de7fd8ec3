package session

// Guidance tags let the orchestrating agent recognize the message kind.
const (
	TagRepeat      = "(REPEAT_QUERY)"
	TagBroaden     = "(NO_RESULT_1)"
	TagLastAttempt = "(NO_RESULT_2)"
	TagStop        = "(NO_RESULT_3)"
)

// Guidance holds the strings returned in place of search results.
type Guidance struct {
	Repeat      string
	Broaden     string
	LastAttempt string
	Stop        string
}

// DefaultGuidance returns the built-in messages.
func DefaultGuidance() Guidance {
	return Guidance{
		Repeat: TagRepeat + " This exact query was already searched in this session. " +
			"Do not repeat it. Choose a different query or proceed with the results you already have.",
		Broaden: TagBroaden + " No matching resources were found in the local catalog. " +
			"Try broader or related vocabulary, drop the region, or combine terms with | (OR).",
		LastAttempt: TagLastAttempt + " No matching resources were found again. " +
			"Make at most one more broader or external search, then stop searching.",
		Stop: TagStop + " No matching resources were found for the third time. " +
			"Further local re-search is not permitted. Proceed to write the plan with what has been found.",
	}
}

// ForTier returns the message for tier. TierNone yields an empty string.
func (g Guidance) ForTier(t Tier) string {
	switch t {
	case TierBroaden:
		return g.Broaden
	case TierLastAttempt:
		return g.LastAttempt
	case TierStop:
		return g.Stop
	default:
		return ""
	}
}

// WithDefaults fills empty fields from DefaultGuidance.
func (g Guidance) WithDefaults() Guidance {
	d := DefaultGuidance()
	if g.Repeat == "" {
		g.Repeat = d.Repeat
	}
	if g.Broaden == "" {
		g.Broaden = d.Broaden
	}
	if g.LastAttempt == "" {
		g.LastAttempt = d.LastAttempt
	}
	if g.Stop == "" {
		g.Stop = d.Stop
	}
	return g
}
