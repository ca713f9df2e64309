package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ppiankov/clauselens/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	lastReq   SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func sampleReport() model.Report {
	return model.Report{
		Source: "freelance.txt",
		Result: &model.AnalysisResult{
			DocumentType: model.DocumentTypeResult{Type: model.DocFreelance, Label: "Freelance Agreement", Confidence: 1},
			RiskScore:    74,
			RiskLevel:    model.RiskHigh,
			Flags: []model.DetectedFlag{
				{ID: "broad_indemnification", Name: "Broad Indemnification", Severity: model.SeverityHigh, PlainEnglish: "You pay for their legal problems."},
				{ID: "auto_renewal", Name: "Automatic Renewal", Severity: model.SeverityMedium, Description: "Renews unless cancelled."},
			},
			ClauseStats: model.ClauseStats{Total: 7, Danger: 2, Caution: 3, Safe: 2},
		},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summarizer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}
	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "watson"}); err == nil {
		t.Fatal("Expected error for unknown provider")
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	var summarizer *Summarizer

	summary, err := summarizer.GenerateSummary(context.Background(), sampleReport())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	summarizer := NewSummarizerWithProvider(&MockProvider{name: "test-provider"}, Config{StrictFlags: true})

	summary, err := summarizer.GenerateSummary(context.Background(), sampleReport())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}
	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}
	if len(summary.Warnings) == 0 || !strings.Contains(summary.Warnings[0].Message, "not available") ||
		summary.Warnings[0].Level != model.WarningError {
		t.Errorf("Expected warning about provider unavailability, got %v", summary.Warnings)
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:    "Watch [broad_indemnification] and [auto_renewal].",
			CitedFlags: []string{"broad_indemnification", "auto_renewal"},
			Model:      "test-model",
			TokensUsed: 150,
		},
	}
	summarizer := NewSummarizerWithProvider(mock, Config{Model: "test-model", StrictFlags: true})

	summary, err := summarizer.GenerateSummary(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !summary.Enabled || summary.Provider != "test-provider" || summary.Model != "test-model" {
		t.Errorf("Unexpected summary metadata: %+v", summary)
	}
	if !summary.StrictFlags {
		t.Error("Expected strict flag mode to be enabled")
	}
	if summary.SummaryMD != "Watch [broad_indemnification] and [auto_renewal]." {
		t.Errorf("Unexpected summary text: %q", summary.SummaryMD)
	}

	wantAllowed := []string{"broad_indemnification", "auto_renewal"}
	if strings.Join(mock.lastReq.AllowedFlags, ",") != strings.Join(wantAllowed, ",") {
		t.Errorf("AllowedFlags = %v, want %v", mock.lastReq.AllowedFlags, wantAllowed)
	}

	want := []model.LLMWarning{
		{Level: model.WarningInfo, Message: "Tokens used: 150"},
		{Level: model.WarningInfo, Message: "Verified 2 flag citations"},
	}
	if diff := cmp.Diff(want, summary.Warnings); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	if problems := summary.Problems(); len(problems) != 0 {
		t.Errorf("Expected no problems on success, got %v", problems)
	}
}

func TestSummarizer_GenerateSummary_FlagLeak(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:    "Beware [non_compete].",
			CitedFlags: []string{"non_compete"},
		},
	}

	strict := NewSummarizerWithProvider(mock, Config{StrictFlags: true})
	summary, err := strict.GenerateSummary(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Expected graceful degradation, got %v", err)
	}
	if summary.SummaryMD != "" {
		t.Error("Leaked digest must be dropped")
	}
	if len(summary.Problems()) != 1 || !strings.Contains(summary.Problems()[0].Message, "flag leak") {
		t.Errorf("Expected flag leak warning, got %v", summary.Warnings)
	}

	lenient := NewSummarizerWithProvider(mock, Config{StrictFlags: false})
	summary, _ = lenient.GenerateSummary(context.Background(), sampleReport())
	if summary.SummaryMD == "" {
		t.Error("Non-strict mode should keep the digest")
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		err:       errors.New("API rate limit exceeded"),
	}
	summarizer := NewSummarizerWithProvider(mock, Config{StrictFlags: true})

	summary, err := summarizer.GenerateSummary(context.Background(), sampleReport())
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}
	if len(summary.Problems()) != 1 || !strings.Contains(summary.Problems()[0].Message, "rate limit") {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestVerifyCitations(t *testing.T) {
	allowed := []string{"non_compete", "auto_renewal"}

	if err := VerifyCitations([]string{"auto_renewal"}, allowed); err != nil {
		t.Errorf("Expected allowed citation to pass, got %v", err)
	}
	if err := VerifyCitations(nil, nil); err != nil {
		t.Errorf("Expected empty citations to pass, got %v", err)
	}

	err := VerifyCitations([]string{"auto_renewal", "clawback"}, allowed)
	if !errors.Is(err, ErrFlagLeak) {
		t.Fatalf("Expected ErrFlagLeak, got %v", err)
	}
	if !strings.Contains(err.Error(), "[clawback]") {
		t.Errorf("Expected error to name the leaked flag, got %v", err)
	}
}

func TestExtractFlagCitations(t *testing.T) {
	got := ExtractFlagCitations("See [non_compete], then [auto_renewal] and [non_compete] again. Ignore [Link](x) and [1].")
	want := "non_compete,auto_renewal"
	if strings.Join(got, ",") != want {
		t.Errorf("ExtractFlagCitations() = %v, want %s", got, want)
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	if RenderSeparateMarkdown(nil) != "" {
		t.Error("Expected empty markdown when nil")
	}
	if RenderSeparateMarkdown(&model.LLMSummary{Enabled: false}) != "" {
		t.Error("Expected empty markdown when disabled")
	}

	md := RenderSeparateMarkdown(&model.LLMSummary{
		Enabled:     true,
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		StrictFlags: true,
		SummaryMD:   "This is the generated digest.",
		Warnings:    []model.LLMWarning{{Level: model.WarningInfo, Message: "Tokens used: 150"}},
	})

	for _, section := range []string{
		"# LLM Summary", "GENERATED CONTENT", "openai", "gpt-4o-mini", "Strict Flag Mode", "true",
		"This is the generated digest.", "## Notes", "Tokens used: 150", "determined independently",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain %q", section)
		}
	}

	empty := RenderSeparateMarkdown(&model.LLMSummary{Enabled: true, Provider: "x"})
	if !strings.Contains(empty, "No summary generated") {
		t.Error("Expected message about no summary")
	}
}

func TestBuildPrompt(t *testing.T) {
	report := sampleReport()
	prompt := BuildPrompt(report, []string{"broad_indemnification", "auto_renewal"})

	for _, element := range []string{
		"CRITICAL RULES",
		"ONLY using IDs from this allowed list",
		"- [broad_indemnification]",
		"Source: freelance.txt",
		"Document Type: Freelance Agreement (confidence 100%)",
		"Risk Score: 74/100 (high)",
		"7 total, 2 danger, 3 caution, 2 safe",
		"[broad_indemnification] Broad Indemnification (high): You pay for their legal problems.",
		"[auto_renewal] Automatic Renewal (medium): Renews unless cancelled.",
		"NOT legal advice",
	} {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain %q", element)
		}
	}
}

func TestBuildPrompt_NoFlags(t *testing.T) {
	prompt := BuildPrompt(model.Report{}, nil)
	if !strings.Contains(prompt, "cite none") || !strings.Contains(prompt, "- (none)") {
		t.Errorf("Expected empty flag markers in prompt:\n%s", prompt)
	}
}
