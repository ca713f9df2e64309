package model

// Severity is the qualitative risk tier of a red flag
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Rank orders severities for sorting: high sorts first
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	return s.Rank() < 3
}

// DetectedFlag is a red-flag rule that matched the contract text
type DetectedFlag struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description"`
	PlainEnglish string   `json:"plain_english,omitempty"`
	Context      string   `json:"context,omitempty"` // ±80 chars around the first match
	Match        string   `json:"match,omitempty"`   // Matched substring
}

// Ref returns the identifying part of the flag
func (f DetectedFlag) Ref() FlagRef {
	return FlagRef{ID: f.ID, Name: f.Name, Severity: f.Severity}
}

// FlagRef identifies a flag without its per-text context
type FlagRef struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
}

// RiskLevel is the coarse bucket derived from the risk score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskAssessment is the scorer output
type RiskAssessment struct {
	Score int       `json:"score"` // Clamped to [5,100]
	Level RiskLevel `json:"level"`
}
