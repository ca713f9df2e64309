package model

// RecommendationPriority ranks remediation advice
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// Recommendation is human-readable remediation advice
type Recommendation struct {
	Priority RecommendationPriority `json:"priority"`
	FlagID   string                 `json:"flag_id,omitempty"`
	Text     string                 `json:"text"`
}

// NegotiationPriority is the playbook tier
type NegotiationPriority string

const (
	MustNegotiate   NegotiationPriority = "must-negotiate"
	ShouldNegotiate NegotiationPriority = "should-negotiate"
	NiceToHave      NegotiationPriority = "nice-to-have"
)

// Rank orders tiers: must-negotiate sorts first
func (p NegotiationPriority) Rank() int {
	switch p {
	case MustNegotiate:
		return 0
	case ShouldNegotiate:
		return 1
	case NiceToHave:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is one of the known tiers
func (p NegotiationPriority) Valid() bool {
	return p.Rank() < 3
}

// NegotiationSuggestion is one playbook entry derived from a detected flag
type NegotiationSuggestion struct {
	FlagID            string              `json:"flag_id"`
	FlagName          string              `json:"flag_name"`
	Severity          Severity            `json:"severity"`
	Priority          NegotiationPriority `json:"priority"`
	ProblematicClause string              `json:"problematic_clause"`
	WhyRisky          string              `json:"why_risky"`
	SuggestedLanguage *string             `json:"suggested_language"`
	NegotiationTip    string              `json:"negotiation_tip"`
	LeveragePoints    []string            `json:"leverage_points"`
}

// PlaybookSummary counts suggestions per tier
type PlaybookSummary struct {
	Total           int `json:"total"`
	MustNegotiate   int `json:"must_negotiate"`
	ShouldNegotiate int `json:"should_negotiate"`
	NiceToHave      int `json:"nice_to_have"`
}

// Playbook is the negotiation playbook output
type Playbook struct {
	Suggestions []NegotiationSuggestion `json:"suggestions"`
	Summary     PlaybookSummary         `json:"summary"`
}
