package model

import "time"

// AnalysisResult is the complete engine output for one contract
type AnalysisResult struct {
	DocumentType    DocumentTypeResult `json:"document_type"`
	RiskScore       int                `json:"risk_score"` // 5-100
	RiskLevel       RiskLevel          `json:"risk_level"`
	Flags           []DetectedFlag     `json:"flags"` // Severity-sorted
	KeyTerms        []KeyTerm          `json:"key_terms"`
	Dates           []string           `json:"dates"`
	Parties         []string           `json:"parties"`
	Obligations     []Obligation       `json:"obligations"`
	Recommendations []Recommendation   `json:"recommendations"`
	Clauses         []Clause           `json:"clauses"`
	ClauseStats     ClauseStats        `json:"clause_stats"`
	Negotiation     Playbook           `json:"negotiation"`
	WordCount       int                `json:"word_count"`
	CharCount       int                `json:"char_count"`
}

// Side names one of the two contracts in a comparison
type Side string

const (
	SideFirst  Side = "first"
	SideSecond Side = "second"
)

// ComparisonResult diffs the analyses of two contracts
type ComparisonResult struct {
	First             *AnalysisResult `json:"first"`
	Second            *AnalysisResult `json:"second"`
	RiskDelta         int             `json:"risk_delta"` // second - first
	Safer             Side            `json:"safer"`
	FlagsOnlyInFirst  []FlagRef       `json:"flags_only_in_first"`
	FlagsOnlyInSecond []FlagRef       `json:"flags_only_in_second"`
	FlagsInBoth       []FlagRef       `json:"flags_in_both"`
	Summary           []string        `json:"summary"`
}

// SourceKind describes where contract text came from
type SourceKind string

const (
	SourceText     SourceKind = "text"
	SourceFile     SourceKind = "file"
	SourceURL      SourceKind = "url"
	SourceTemplate SourceKind = "template"
)

// Report wraps an analysis with the metadata of the run that produced it
type Report struct {
	Source     string          `json:"source"`
	SourceKind SourceKind      `json:"source_kind"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
	TextHash   string          `json:"text_sha256"`
	Cached     bool            `json:"cached"`
	Result     *AnalysisResult `json:"result"`
	Disclaimer Disclaimer      `json:"disclaimer"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional digest (separate, never affects score)
}

// ComparisonReport wraps a comparison with run metadata
type ComparisonReport struct {
	SourceA    string            `json:"source_a"`
	SourceB    string            `json:"source_b"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
	Result     *ComparisonResult `json:"result"`
	Disclaimer Disclaimer        `json:"disclaimer"`
}

// Disclaimer documents what the analysis is and is not
type Disclaimer struct {
	NotLegalAdvice bool   `json:"not_legal_advice"`
	Deterministic  bool   `json:"deterministic"` // Same text, same result
	Explainable    bool   `json:"explainable"`   // Every flag names its rule and match
	Notice         string `json:"notice"`
}

// DefaultDisclaimer returns the standard ClauseLens disclaimer
func DefaultDisclaimer() Disclaimer {
	return Disclaimer{
		NotLegalAdvice: true,
		Deterministic:  true,
		Explainable:    true,
		Notice:         "Automated heuristic scan. Not legal advice. Have a qualified attorney review before signing.",
	}
}

// LLMSummary contains the optional LLM-generated digest
// It is produced after scoring and never changes any engine output
type LLMSummary struct {
	Enabled     bool         `json:"enabled"`
	Provider    string       `json:"provider,omitempty"`
	Model       string       `json:"model,omitempty"`
	StrictFlags bool         `json:"strict_flags"`          // Whether flag citation enforcement was enabled
	SummaryMD   string       `json:"summary_md,omitempty"`  // Markdown digest
	CitedFlags  []string     `json:"cited_flags,omitempty"` // Flag IDs the digest referenced
	Warnings    []LLMWarning `json:"warnings,omitempty"`
}

// WarningLevel tells digest failures apart from informational notes
type WarningLevel string

const (
	WarningInfo  WarningLevel = "info"
	WarningError WarningLevel = "error"
)

// LLMWarning is one note attached to a digest
type LLMWarning struct {
	Level   WarningLevel `json:"level"`
	Message string       `json:"message"`
}

// Problems returns the error-level warnings
func (s *LLMSummary) Problems() []LLMWarning {
	var out []LLMWarning
	for _, w := range s.Warnings {
		if w.Level == WarningError {
			out = append(out, w)
		}
	}
	return out
}
