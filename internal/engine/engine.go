// Package engine composes the analysis stages into a single pure call.
// It performs no I/O and never fails; input validation belongs to callers.
package engine

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/advice"
	"github.com/ppiankov/clauselens/internal/classify"
	"github.com/ppiankov/clauselens/internal/clause"
	"github.com/ppiankov/clauselens/internal/detect"
	"github.com/ppiankov/clauselens/internal/extract"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
	"github.com/ppiankov/clauselens/internal/score"
)

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Catalog    *rules.Catalog
	Scoring    *score.Weights
	Classifier *classify.Weights
}

// Engine runs the full contract analysis
type Engine struct {
	catalog    *rules.Catalog
	classifier *classify.Classifier
	detector   *detect.Detector
	extractor  *extract.FactExtractor
	scorer     *score.Scorer
	annotator  *clause.Annotator
}

// New creates an engine
func New(opts Options) *Engine {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = rules.Default()
	}
	sw := score.DefaultWeights()
	if opts.Scoring != nil {
		sw = *opts.Scoring
	}
	cw := classify.DefaultWeights()
	if opts.Classifier != nil {
		cw = *opts.Classifier
	}

	return &Engine{
		catalog:    catalog,
		classifier: classify.NewClassifier(catalog, cw),
		detector:   detect.NewDetector(catalog),
		extractor:  extract.NewFactExtractor(),
		scorer:     score.NewScorer(sw),
		annotator:  clause.NewAnnotator(catalog),
	}
}

// FromConfig creates an engine using the scoring and classifier sections of cfg
func FromConfig(cfg *model.Config, catalog *rules.Catalog) *Engine {
	sw := score.WeightsFromConfig(cfg.Scoring)
	cw := classify.WeightsFromConfig(cfg.Classifier)
	return New(Options{Catalog: catalog, Scoring: &sw, Classifier: &cw})
}

// Catalog returns the rule catalog the engine was built with
func (e *Engine) Catalog() *rules.Catalog { return e.catalog }

// Scorer returns the engine's scorer
func (e *Engine) Scorer() *score.Scorer { return e.scorer }

// Classify returns the document type
func (e *Engine) Classify(text string) model.DocumentTypeResult {
	return e.classifier.Classify(text)
}

// DetectFlags returns the severity-sorted red flags
func (e *Engine) DetectFlags(text string) []model.DetectedFlag {
	return e.detector.Detect(text)
}

// ExtractFacts returns key terms, dates, parties and obligations
func (e *Engine) ExtractFacts(text string) model.KeyFacts {
	return e.extractor.Extract(text)
}

// ScoreRisk scores a flag list against its text
func (e *Engine) ScoreRisk(flags []model.DetectedFlag, text string) model.RiskAssessment {
	return e.scorer.Score(flags, text)
}

// AnnotateClauses segments and annotates the text
func (e *Engine) AnnotateClauses(text string) model.ClauseReport {
	return e.annotator.Annotate(text)
}

// Recommendations maps flags to remediation advice
func (e *Engine) Recommendations(flags []model.DetectedFlag) []model.Recommendation {
	return advice.BuildRecommendations(e.catalog, flags)
}

// Playbook maps flags to negotiation suggestions
func (e *Engine) Playbook(flags []model.DetectedFlag) model.Playbook {
	return advice.BuildPlaybook(e.catalog, flags)
}

// Analyze runs every stage on text and assembles the result
func (e *Engine) Analyze(text string) *model.AnalysisResult {
	docType := e.classifier.Classify(text)
	flags := e.detector.Detect(text)
	facts := e.extractor.Extract(text)
	risk := e.scorer.Score(flags, text)
	recs := advice.BuildRecommendations(e.catalog, flags)
	clauses := e.annotator.Annotate(text)
	playbook := advice.BuildPlaybook(e.catalog, flags)

	return &model.AnalysisResult{
		DocumentType:    docType,
		RiskScore:       risk.Score,
		RiskLevel:       risk.Level,
		Flags:           flags,
		KeyTerms:        facts.KeyTerms,
		Dates:           facts.Dates,
		Parties:         facts.Parties,
		Obligations:     facts.Obligations,
		Recommendations: recs,
		Clauses:         clauses.Clauses,
		ClauseStats:     clauses.Stats,
		Negotiation:     playbook,
		WordCount:       len(strings.Fields(text)),
		CharCount:       utf8.RuneCountInString(text),
	}
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns an engine over the embedded catalog with default weights
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New(Options{})
	})
	return defaultEngine
}

// Analyze runs the default engine
func Analyze(text string) *model.AnalysisResult {
	return Default().Analyze(text)
}

// Compare runs the default engine on two texts
func Compare(a, b string) *model.ComparisonResult {
	return Default().Compare(a, b)
}
