package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// ErrFlagLeak is returned when a digest cites a flag the engine did not detect
var ErrFlagLeak = errors.New("flag leak")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a plain-language digest of an analysis
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the deterministic analysis to summarize
	Report model.Report

	// AllowedFlags is the STRICT allowlist of flag IDs the digest may cite
	AllowedFlags []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's digest
type SummarizeResponse struct {
	Summary    string
	CitedFlags []string // Flag IDs cited as [flag_id]
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string // Custom endpoint, e.g. an OpenAI-compatible gateway

	Timeout int // seconds

	// StrictFlags rejects digests that cite undetected flag IDs
	StrictFlags bool

	MaxTokens int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		StrictFlags: true,
		MaxTokens:   800,
	}
}

// BuildPrompt constructs the default digest prompt
func BuildPrompt(report model.Report, allowedFlags []string) string {
	res := report.Result
	if res == nil {
		res = &model.AnalysisResult{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are explaining an automated contract scan to a non-lawyer. The scan is heuristic pattern matching. It is NOT legal advice and you must not present it as such.

CRITICAL RULES:
1. Refer to red flags ONLY by their ID in square brackets, e.g. [non_compete], and ONLY using IDs from this allowed list:
%s

2. DO NOT invent clauses, flags, laws, or jurisdictions that are not in the scan.
3. DO NOT predict whether the contract is enforceable.
4. End by recommending review by a qualified attorney.

Scan Summary:
- Source: %s
- Document Type: %s (confidence %.0f%%)
- Risk Score: %d/100 (%s)
- Clauses: %d total, %d danger, %d caution, %d safe

Detected Flags:
`, joinFlags(allowedFlags), report.Source, res.DocumentType.Label, res.DocumentType.Confidence*100,
		res.RiskScore, res.RiskLevel, res.ClauseStats.Total, res.ClauseStats.Danger, res.ClauseStats.Caution, res.ClauseStats.Safe)

	if len(res.Flags) == 0 {
		b.WriteString("- (none)\n")
	}
	for i, f := range res.Flags {
		if i >= 15 {
			fmt.Fprintf(&b, "- ... and %d more\n", len(res.Flags)-15)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s (%s): %s\n", f.ID, f.Name, f.Severity, plainOr(f))
	}

	b.WriteString("\nWrite a 4-6 sentence plain-English digest of what matters most before signing.")

	return b.String()
}

func plainOr(f model.DetectedFlag) string {
	if f.PlainEnglish != "" {
		return f.PlainEnglish
	}
	return f.Description
}

func joinFlags(ids []string) string {
	if len(ids) == 0 {
		return "(No flags detected - cite none)"
	}
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "\n- [%s]", id)
	}
	return b.String()
}

var citationPattern = regexp.MustCompile(`\[([a-z][a-z0-9_]*)\]`)

// ExtractFlagCitations returns the unique [flag_id] citations in text, in order
func ExtractFlagCitations(text string) []string {
	seen := make(map[string]bool)
	var cited []string
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			cited = append(cited, m[1])
		}
	}
	return cited
}

// VerifyCitations fails with ErrFlagLeak on the first cited ID not in allowed
func VerifyCitations(cited, allowed []string) error {
	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[id] = true
	}
	for _, id := range cited {
		if !allow[id] {
			return fmt.Errorf("%w: digest cited undetected flag [%s]", ErrFlagLeak, id)
		}
	}
	return nil
}
