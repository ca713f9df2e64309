// Package pipeline wires ingestion, validation, caching, the engine and the
// optional LLM digest into report-producing calls.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/clauselens/internal/cache"
	"github.com/ppiankov/clauselens/internal/engine"
	"github.com/ppiankov/clauselens/internal/ingest"
	"github.com/ppiankov/clauselens/internal/llm"
	"github.com/ppiankov/clauselens/internal/logging"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
	"github.com/ppiankov/clauselens/internal/util"
	"github.com/ppiankov/clauselens/internal/validate"
	"github.com/ppiankov/clauselens/internal/worker"
)

// engineVersion is mixed into cache keys; bump when analysis output changes
const engineVersion = "1"

// Observer receives one call per finished analysis (metrics)
type Observer interface {
	ObserveAnalysis(kind model.SourceKind, res *model.AnalysisResult, elapsed time.Duration, cached bool)
}

// Pipeline orchestrates load → validate → cache → analyze → digest
type Pipeline struct {
	config     *model.Config
	engine     *engine.Engine
	validator  *validate.Validator
	ingest     *ingest.Registry
	fetcher    *Fetcher
	results    *cache.ResultCache // nil when caching is disabled
	summarizer *llm.Summarizer    // nil when the LLM digest is disabled
	renderer   *Renderer
	observer   Observer
	logger     logrus.FieldLogger
	now        func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger (default discards)
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithCache replaces the configured byte cache
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) {
		p.results = cache.NewResultCache(c, p.config.Cache.DiskTTL, fingerprint(p.config))
	}
}

// WithoutCache disables result caching
func WithoutCache() Option {
	return func(p *Pipeline) { p.results = nil }
}

// WithSummarizer replaces the configured LLM summarizer
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithObserver registers a metrics observer
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a pipeline from configuration
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	catalog := rules.Default()
	if cfg.Rules.Dir != "" {
		c, err := rules.LoadDir(cfg.Rules.Dir)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		catalog = c
	}

	eng := engine.FromConfig(cfg, catalog)

	fetcher := NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	if !cfg.HTTP.AllowPrivateHosts {
		fetcher.WithAddressGuard()
	}
	if cfg.HTTP.RespectRobots {
		// robots.txt goes through the same guarded client as the page itself
		fetcher.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout).WithClient(fetcher.Client()))
	}

	p := &Pipeline{
		config:    cfg,
		engine:    eng,
		validator: validate.FromConfig(cfg.Limits),
		ingest:    ingest.NewRegistry(),
		fetcher:   fetcher,
		renderer:  NewRenderer(eng.Scorer(), cfg.Output.IncludeFooter),
		logger:    logging.Discard(),
		now:       time.Now,
	}

	if cfg.Cache.Enabled {
		backend := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		p.results = cache.NewResultCache(backend, cfg.Cache.DiskTTL, fingerprint(cfg))
	}

	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			return nil, fmt.Errorf("init LLM provider: %w", err)
		}
		p.summarizer = s
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// fingerprint identifies everything that changes analysis output
func fingerprint(cfg *model.Config) string {
	return fmt.Sprintf("engine=%s|scoring=%+v|classifier=%+v|rules=%s",
		engineVersion, cfg.Scoring, cfg.Classifier, cfg.Rules.Dir)
}

// Engine returns the analysis engine
func (p *Pipeline) Engine() *engine.Engine { return p.engine }

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer { return p.renderer }

// Validator returns the input validator
func (p *Pipeline) Validator() *validate.Validator { return p.validator }

// Document is contract text with where it came from
type Document struct {
	Source string
	Kind   model.SourceKind
	Text   string
}

// AnalyzeText analyzes text supplied directly (stdin, API body, template)
func (p *Pipeline) AnalyzeText(ctx context.Context, source string, kind model.SourceKind, text string) (*model.Report, error) {
	return p.analyze(ctx, Document{Source: source, Kind: kind, Text: text})
}

// AnalyzeFile reads and analyzes a local text, Markdown, or HTML file
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	doc, err := p.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return p.analyze(ctx, doc)
}

// AnalyzeURL fetches and analyzes a contract published on the web
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	doc, err := p.LoadURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return p.analyze(ctx, doc)
}

// AnalyzeSource dispatches on whether source is a URL or a file path
func (p *Pipeline) AnalyzeSource(ctx context.Context, source string) (*model.Report, error) {
	doc, err := p.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return p.analyze(ctx, doc)
}

// AnalyzeDocument analyzes an already-loaded document
func (p *Pipeline) AnalyzeDocument(ctx context.Context, doc Document) (*model.Report, error) {
	return p.analyze(ctx, doc)
}

// Load reads a file path or fetches a URL
func (p *Pipeline) Load(ctx context.Context, source string) (Document, error) {
	if worker.IsURL(source) {
		return p.LoadURL(ctx, source)
	}
	return p.LoadFile(source)
}

// LoadFile reads a local contract file; "-" reads stdin
func (p *Pipeline) LoadFile(path string) (Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(os.Stdin, p.config.HTTP.MaxBodyBytes))
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("read file: %w", err)
	}

	text, err := p.ingest.Text(path, "", data)
	if err != nil {
		return Document{}, fmt.Errorf("ingest: %w", err)
	}

	source := path
	if path == "-" {
		source = "stdin"
	}
	return Document{Source: source, Kind: model.SourceFile, Text: text}, nil
}

// LoadURL fetches a contract page and extracts its text
func (p *Pipeline) LoadURL(ctx context.Context, rawURL string) (Document, error) {
	if err := validate.URL(rawURL); err != nil {
		return Document{}, err
	}

	res, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return Document{}, fmt.Errorf("fetch: %w", err)
	}
	if res.Truncated {
		p.logger.WithField("url", res.FinalURL).Warn("contract page exceeded max body size and was truncated")
	}

	text, err := p.ingest.Text(res.FinalURL, res.ContentType, res.Body)
	if err != nil {
		return Document{}, fmt.Errorf("ingest: %w", err)
	}

	return Document{Source: res.FinalURL, Kind: model.SourceURL, Text: text}, nil
}

func (p *Pipeline) analyze(ctx context.Context, doc Document) (*model.Report, error) {
	if err := p.validator.Text(doc.Text); err != nil {
		return nil, err
	}

	start := time.Now()
	res, cached := p.result(doc.Text)
	elapsed := time.Since(start)

	report := &model.Report{
		Source:     doc.Source,
		SourceKind: doc.Kind,
		AnalyzedAt: p.now().UTC(),
		TextHash:   cache.TextHash(doc.Text),
		Cached:     cached,
		Result:     res,
		Disclaimer: model.DefaultDisclaimer(),
	}

	p.logger.WithFields(logrus.Fields{
		"source":     doc.Source,
		"kind":       doc.Kind,
		"risk_score": res.RiskScore,
		"risk_level": res.RiskLevel,
		"flags":      len(res.Flags),
		"cached":     cached,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("contract analyzed")

	if p.observer != nil {
		p.observer.ObserveAnalysis(doc.Kind, res, elapsed, cached)
	}

	// Digest runs after scoring and never affects it
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.WithError(err).Warn("LLM digest failed")
		} else if summary != nil {
			for _, w := range summary.Problems() {
				p.logger.WithField("source", doc.Source).Warn(w.Message)
			}
			report.LLM = summary
		}
	}

	return report, nil
}

func (p *Pipeline) result(text string) (*model.AnalysisResult, bool) {
	if p.results != nil {
		if res, ok := p.results.Get(text); ok {
			return res, true
		}
	}

	res := p.engine.Analyze(text)

	if p.results != nil {
		if err := p.results.Put(text, res); err != nil {
			p.logger.WithError(err).Warn("cache write failed")
		}
	}
	return res, false
}

// Compare loads both sources concurrently and compares them
func (p *Pipeline) Compare(ctx context.Context, sourceA, sourceB string) (*model.ComparisonReport, error) {
	var docA, docB Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docA, err = p.Load(gctx, sourceA)
		if err != nil {
			return fmt.Errorf("first contract: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		docB, err = p.Load(gctx, sourceB)
		if err != nil {
			return fmt.Errorf("second contract: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return p.CompareDocuments(docA, docB)
}

// CompareDocuments compares two already-loaded documents
func (p *Pipeline) CompareDocuments(a, b Document) (*model.ComparisonReport, error) {
	if err := p.validator.Pair(a.Text, b.Text); err != nil {
		return nil, err
	}

	first, _ := p.result(a.Text)
	second, _ := p.result(b.Text)
	res := engine.Diff(first, second)

	p.logger.WithFields(logrus.Fields{
		"source_a":   a.Source,
		"source_b":   b.Source,
		"risk_delta": res.RiskDelta,
		"safer":      res.Safer,
	}).Info("contracts compared")

	return &model.ComparisonReport{
		SourceA:    a.Source,
		SourceB:    b.Source,
		AnalyzedAt: p.now().UTC(),
		Result:     res,
		Disclaimer: model.DefaultDisclaimer(),
	}, nil
}

// RenderReport writes JSON and Markdown reports and prints a summary to out
func (p *Pipeline) RenderReport(out io.Writer, report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// LLM digest goes to a separate file so it is never mistaken for the analysis
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			p.logger.WithError(err).Warn("failed to write LLM digest")
		} else if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	p.renderer.RenderSummary(out, report)
	return nil
}
