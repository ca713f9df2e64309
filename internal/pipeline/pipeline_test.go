package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/cache"
	"github.com/ppiankov/clauselens/internal/llm"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/validate"
)

const contractText = `CONSULTING AGREEMENT

This Agreement is made between Northwind Traders Inc. ("Client") and Riley Park ("Consultant").

1. Services. Consultant shall provide advisory services as described in Schedule A.
2. Fees. Client shall pay $200 per hour, invoiced monthly, payable Net 45.
3. Non-Compete. Consultant agrees to a non-compete for a period of 24 months.
4. Termination. Either party may terminate for convenience with 30 days written notice.
5. Severability. If any provision is held invalid, the remainder stays in effect.
`

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.HTTP.RespectRobots = false
	cfg.HTTP.AllowPrivateHosts = true
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	p, err := NewPipeline(testConfig(t), opts...)
	require.NoError(t, err)
	return p
}

type recordingObserver struct {
	mu     sync.Mutex
	cached []bool
}

func (o *recordingObserver) ObserveAnalysis(kind model.SourceKind, res *model.AnalysisResult, elapsed time.Duration, cached bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cached = append(o.cached, cached)
}

func TestPipeline_AnalyzeText(t *testing.T) {
	obs := &recordingObserver{}
	p := newTestPipeline(t, WithObserver(obs))

	report, err := p.AnalyzeText(context.Background(), "pasted", model.SourceText, contractText)
	require.NoError(t, err)

	assert.Equal(t, "pasted", report.Source)
	assert.Equal(t, model.SourceText, report.SourceKind)
	assert.Equal(t, fixedNow, report.AnalyzedAt)
	assert.Equal(t, cache.TextHash(contractText), report.TextHash)
	assert.False(t, report.Cached)
	assert.True(t, report.Disclaimer.NotLegalAdvice)
	assert.Nil(t, report.LLM)
	assert.Equal(t, model.DocConsulting, report.Result.DocumentType.Type)

	var ids []string
	for _, f := range report.Result.Flags {
		ids = append(ids, f.ID)
	}
	assert.Contains(t, ids, "non_compete")
	assert.NotContains(t, ids, "severability_missing")

	again, err := p.AnalyzeText(context.Background(), "pasted", model.SourceText, contractText)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, report.Result.RiskScore, again.Result.RiskScore)
	assert.Equal(t, []bool{false, true}, obs.cached)
}

func TestPipeline_AnalyzeText_Validation(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.AnalyzeText(context.Background(), "x", model.SourceText, "   ")
	assert.ErrorIs(t, err, validate.ErrEmptyText)

	_, err = p.AnalyzeText(context.Background(), "x", model.SourceText, "too short")
	assert.ErrorIs(t, err, validate.ErrTextTooShort)
}

func TestPipeline_CacheSharedAcrossRuns(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewPipeline(cfg)
	require.NoError(t, err)
	_, err = first.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)

	second, err := NewPipeline(cfg)
	require.NoError(t, err)
	report, err := second.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)
	assert.True(t, report.Cached, "disk cache should survive a new pipeline")

	cfg.Scoring.Base = 30
	third, err := NewPipeline(cfg)
	require.NoError(t, err)
	report, err = third.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)
	assert.False(t, report.Cached, "different weights must not reuse cached results")
}

func TestPipeline_WithoutCache(t *testing.T) {
	p := newTestPipeline(t, WithoutCache())
	for i := 0; i < 2; i++ {
		report, err := p.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
		require.NoError(t, err)
		assert.False(t, report.Cached)
	}
}

func TestPipeline_AnalyzeFile(t *testing.T) {
	p := newTestPipeline(t)
	dir := t.TempDir()

	txt := filepath.Join(dir, "consulting.txt")
	require.NoError(t, os.WriteFile(txt, []byte(contractText), 0o644))
	report, err := p.AnalyzeFile(context.Background(), txt)
	require.NoError(t, err)
	assert.Equal(t, model.SourceFile, report.SourceKind)
	assert.Equal(t, txt, report.Source)

	html := filepath.Join(dir, "consulting.html")
	page := "<html><body><script>unlimited liability</script><p>" +
		strings.ReplaceAll(contractText, "\n", "</p><p>") + "</p></body></html>"
	require.NoError(t, os.WriteFile(html, []byte(page), 0o644))
	htmlReport, err := p.AnalyzeFile(context.Background(), html)
	require.NoError(t, err)
	for _, f := range htmlReport.Result.Flags {
		assert.NotEqual(t, "unlimited_liability", f.ID, "script text must not be analyzed")
	}
	assert.Equal(t, model.DocConsulting, htmlReport.Result.DocumentType.Type)

	pdf := filepath.Join(dir, "lease.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7"), 0o644))
	_, err = p.AnalyzeFile(context.Background(), pdf)
	assert.Error(t, err)

	_, err = p.AnalyzeFile(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestPipeline_AnalyzeURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<html><body><article><pre>%s</pre></article></body></html>", contractText)
	}))
	defer server.Close()

	p := newTestPipeline(t)
	report, err := p.AnalyzeSource(context.Background(), server.URL+"/consulting")
	require.NoError(t, err)
	assert.Equal(t, model.SourceURL, report.SourceKind)
	assert.Equal(t, server.URL+"/consulting", report.Source)
	assert.Equal(t, model.DocConsulting, report.Result.DocumentType.Type)

	_, err = p.AnalyzeURL(context.Background(), "ftp://example.com/x")
	assert.ErrorIs(t, err, validate.ErrInvalidURL)
}

func TestPipeline_AnalyzeURL_PrivateHostBlocked(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, contractText)
	}))
	defer server.Close()

	cfg := testConfig(t)
	cfg.HTTP.AllowPrivateHosts = false
	cfg.HTTP.RespectRobots = true
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	_, err = p.AnalyzeURL(context.Background(), server.URL+"/terms")
	require.ErrorIs(t, err, ErrBlockedAddress)
	assert.Zero(t, hits.Load(), "neither robots.txt nor the page may be requested")
}

func TestPipeline_Compare(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	safer := strings.Replace(contractText, "3. Non-Compete. Consultant agrees to a non-compete for a period of 24 months.\n", "", 1)
	require.NoError(t, os.WriteFile(a, []byte(contractText), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(safer), 0o644))

	p := newTestPipeline(t)
	report, err := p.Compare(context.Background(), a, b)
	require.NoError(t, err)

	assert.Equal(t, a, report.SourceA)
	assert.Equal(t, model.SideSecond, report.Result.Safer)
	require.Len(t, report.Result.FlagsOnlyInFirst, 1)
	assert.Equal(t, "non_compete", report.Result.FlagsOnlyInFirst[0].ID)

	_, err = p.Compare(context.Background(), a, filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "second contract:"))
}

type stubProvider struct {
	summary string
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }
func (s *stubProvider) Summarize(ctx context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	return &llm.SummarizeResponse{Summary: s.summary, CitedFlags: llm.ExtractFlagCitations(s.summary), Model: "stub-1"}, nil
}

func TestPipeline_LLMDigestNeverChangesScore(t *testing.T) {
	plain := newTestPipeline(t, WithoutCache())
	base, err := plain.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)

	summarizer := llm.NewSummarizerWithProvider(&stubProvider{summary: "Mind the [non_compete]."}, llm.Config{StrictFlags: true})
	withLLM := newTestPipeline(t, WithoutCache(), WithSummarizer(summarizer))
	report, err := withLLM.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)

	require.NotNil(t, report.LLM)
	assert.Equal(t, "Mind the [non_compete].", report.LLM.SummaryMD)
	assert.Equal(t, base.Result, report.Result)

	leaky := llm.NewSummarizerWithProvider(&stubProvider{summary: "Mind the [clawback]."}, llm.Config{StrictFlags: true})
	leakyPipeline := newTestPipeline(t, WithoutCache(), WithSummarizer(leaky))
	report, err = leakyPipeline.AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)
	assert.Empty(t, report.LLM.SummaryMD)
	require.Len(t, report.LLM.Problems(), 1)
	assert.Contains(t, report.LLM.Problems()[0].Message, "flag leak")
}

func TestPipeline_LogsDigestProblemsOnly(t *testing.T) {
	warnings := func(hook *test.Hook) []string {
		var out []string
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel {
				out = append(out, e.Message)
			}
		}
		return out
	}

	logger, hook := test.NewNullLogger()
	ok := llm.NewSummarizerWithProvider(&stubProvider{summary: "Mind the [non_compete]."}, llm.Config{StrictFlags: true})
	_, err := newTestPipeline(t, WithoutCache(), WithSummarizer(ok), WithLogger(logger)).
		AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)
	assert.Empty(t, warnings(hook), "informational notes are not logged")

	hook.Reset()
	leaky := llm.NewSummarizerWithProvider(&stubProvider{summary: "Mind the [clawback]."}, llm.Config{StrictFlags: true})
	_, err = newTestPipeline(t, WithoutCache(), WithSummarizer(leaky), WithLogger(logger)).
		AnalyzeText(context.Background(), "a", model.SourceText, contractText)
	require.NoError(t, err)
	got := warnings(hook)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "flag leak")
}

func TestPipeline_BadRulesDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rules.Dir = filepath.Join(t.TempDir(), "nope")
	_, err := NewPipeline(cfg)
	assert.Error(t, err)
}

func TestPipeline_UnknownLLMProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "watson"
	_, err := NewPipeline(cfg)
	assert.Error(t, err)
}

func TestPipeline_RenderReport(t *testing.T) {
	summarizer := llm.NewSummarizerWithProvider(&stubProvider{summary: "Mind the [non_compete]."}, llm.Config{StrictFlags: true})
	p := newTestPipeline(t, WithSummarizer(summarizer))
	report, err := p.AnalyzeText(context.Background(), "consulting.txt", model.SourceText, contractText)
	require.NoError(t, err)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "out", "report.md")

	var out bytes.Buffer
	require.NoError(t, p.RenderReport(&out, report, jsonPath, mdPath, true))

	assert.FileExists(t, jsonPath)
	assert.FileExists(t, mdPath)
	assert.FileExists(t, filepath.Join(dir, "out", "report.llm.md"))
	assert.Contains(t, out.String(), "Wrote JSON")
	assert.Contains(t, out.String(), "Risk score:")
}

func TestPipeline_AnalyzeSource_FetchError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	p := newTestPipeline(t)
	_, err := p.AnalyzeSource(context.Background(), server.URL+"/gone")
	require.Error(t, err)
	assert.False(t, validate.IsInputError(err))
	assert.False(t, errors.Is(err, validate.ErrEmptyText))
	assert.Contains(t, err.Error(), "404")
}
