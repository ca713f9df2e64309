package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// Summarizer attaches an optional digest to a finished report.
// It runs after scoring and never changes engine output.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer; an empty provider disables it
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an existing provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	return &Summarizer{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or ""
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary returns nil when disabled. Provider failures and flag leaks
// produce a summary carrying warnings instead of an error.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Enabled:     true,
		Provider:    s.provider.Name(),
		Model:       s.config.Model,
		StrictFlags: s.config.StrictFlags,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Enabled = false
		summary.Warnings = append(summary.Warnings, problem(
			"LLM provider %s is not available (check API key, base URL, or network)", s.provider.Name()))
		return summary, nil
	}

	allowed := allowedFlags(report)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:       report,
		AllowedFlags: allowed,
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, problem("LLM generation failed: %v", err))
		return summary, nil
	}

	if s.config.StrictFlags {
		if err := VerifyCitations(resp.CitedFlags, allowed); err != nil {
			summary.Warnings = append(summary.Warnings, problem("LLM generation failed: %v", err))
			return summary, nil
		}
	}

	if resp.Model != "" {
		summary.Model = resp.Model
	}
	summary.SummaryMD = resp.Summary
	summary.CitedFlags = resp.CitedFlags
	summary.Warnings = append(summary.Warnings,
		note("Tokens used: %d", resp.TokensUsed),
		note("Verified %d flag citations", len(resp.CitedFlags)),
	)

	return summary, nil
}

func problem(format string, args ...any) model.LLMWarning {
	return model.LLMWarning{Level: model.WarningError, Message: fmt.Sprintf(format, args...)}
}

func note(format string, args ...any) model.LLMWarning {
	return model.LLMWarning{Level: model.WarningInfo, Message: fmt.Sprintf(format, args...)}
}

func allowedFlags(report model.Report) []string {
	if report.Result == nil {
		return nil
	}
	ids := make([]string, 0, len(report.Result.Flags))
	for _, f := range report.Result.Flags {
		ids = append(ids, f.ID)
	}
	return ids
}

// RenderSeparateMarkdown renders the digest as its own Markdown document
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This digest was written by a language model from the deterministic scan. ")
	b.WriteString("The risk score and flags were determined independently and are not affected by it. Not legal advice.\n\n")

	fmt.Fprintf(&b, "- **Provider**: %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model**: %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Flag Mode**: %t\n\n", summary.StrictFlags)

	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
	}

	return b.String()
}
