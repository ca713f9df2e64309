// Package mcp exposes contract analysis as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/clauselens/internal/logging"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/templates"
	"github.com/ppiankov/clauselens/internal/validate"
)

// Server wraps the MCP SDK server
type Server struct {
	MCPServer *sdkmcp.Server

	pipeline  *pipeline.Pipeline
	templates *templates.Library
	logger    logrus.FieldLogger
}

// NewServer creates an MCP server with the contract analysis tools
func NewServer(p *pipeline.Pipeline, lib *templates.Library, version string, logger logrus.FieldLogger) *Server {
	if lib == nil {
		lib = templates.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{pipeline: p, templates: lib, logger: logger}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "clauselens", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves tools on stdin/stdout until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_contract",
		Description: "Scan a contract for red flags, key terms and risky clauses. Pass exactly one of text, path or url. Heuristic, not legal advice.",
	}, s.handleAnalyze)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "compare_contracts",
		Description: "Compare two contracts and report which is lower risk and which red flags each one has. Each side is text or a file path/URL.",
	}, s.handleCompare)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_templates",
		Description: "List the built-in sample contracts, optionally filtered by category.",
	}, s.handleListTemplates)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "analyze_template",
		Description: "Analyze one of the built-in sample contracts by ID (see list_templates).",
	}, s.handleAnalyzeTemplate)
}

// --- Tool input/output types ---

type analyzeInput struct {
	Text            string `json:"text,omitempty" jsonschema:"contract text"`
	Path            string `json:"path,omitempty" jsonschema:"path to a local .txt, .md or .html contract"`
	URL             string `json:"url,omitempty" jsonschema:"http(s) URL of a published contract"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty" jsonschema:"also return the full Markdown report"`
}

type flagSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Severity     string `json:"severity"`
	Match        string `json:"match"`
	PlainEnglish string `json:"plain_english"`
}

type analyzeOutput struct {
	Source          string            `json:"source"`
	DocumentType    string            `json:"document_type"`
	DocumentLabel   string            `json:"document_label"`
	Confidence      float64           `json:"confidence"`
	RiskScore       int               `json:"risk_score"`
	RiskLevel       string            `json:"risk_level"`
	Flags           []flagSummary     `json:"flags"`
	Recommendations []string          `json:"recommendations"`
	ClauseStats     model.ClauseStats `json:"clause_stats"`
	Parties         []string          `json:"parties"`
	Disclaimer      string            `json:"disclaimer"`
	Markdown        string            `json:"markdown,omitempty"`
}

type compareInput struct {
	TextA   string `json:"text_a,omitempty" jsonschema:"first contract text"`
	TextB   string `json:"text_b,omitempty" jsonschema:"second contract text"`
	SourceA string `json:"source_a,omitempty" jsonschema:"first contract file path or URL (instead of text_a)"`
	SourceB string `json:"source_b,omitempty" jsonschema:"second contract file path or URL (instead of text_b)"`
}

type compareOutput struct {
	Safer             string   `json:"safer"`
	RiskDelta         int      `json:"risk_delta"`
	FirstScore        int      `json:"first_score"`
	SecondScore       int      `json:"second_score"`
	FlagsOnlyInFirst  []string `json:"flags_only_in_first"`
	FlagsOnlyInSecond []string `json:"flags_only_in_second"`
	FlagsInBoth       []string `json:"flags_in_both"`
	Summary           []string `json:"summary"`
}

type listTemplatesInput struct {
	Category string `json:"category,omitempty" jsonschema:"only templates in this category"`
}

type templateSummary struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	RiskLevel      string   `json:"risk_level"`
	CommonRedFlags []string `json:"common_red_flags"`
}

type listTemplatesOutput struct {
	Templates  []templateSummary `json:"templates"`
	Categories []string          `json:"categories"`
}

type analyzeTemplateInput struct {
	ID              string `json:"id" jsonschema:"template ID, e.g. nda-mutual"`
	IncludeMarkdown bool   `json:"include_markdown,omitempty" jsonschema:"also return the full Markdown report"`
}

// --- Tool handlers ---

func (s *Server) handleAnalyze(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeInput) (*sdkmcp.CallToolResult, analyzeOutput, error) {
	given := 0
	for _, v := range []string{input.Text, input.Path, input.URL} {
		if strings.TrimSpace(v) != "" {
			given++
		}
	}
	if given != 1 {
		return nil, analyzeOutput{}, fmt.Errorf("%w: exactly one of text, path or url", validate.ErrMissingField)
	}

	var (
		report *model.Report
		err    error
	)
	switch {
	case input.Text != "":
		report, err = s.pipeline.AnalyzeText(ctx, "mcp input", model.SourceText, input.Text)
	case input.Path != "":
		report, err = s.pipeline.AnalyzeFile(ctx, input.Path)
	default:
		report, err = s.pipeline.AnalyzeURL(ctx, input.URL)
	}
	if err != nil {
		s.logger.WithError(err).Warn("analyze_contract failed")
		return nil, analyzeOutput{}, fmt.Errorf("analyze: %w", err)
	}

	return nil, s.summarize(report, input.IncludeMarkdown), nil
}

func (s *Server) handleCompare(ctx context.Context, _ *sdkmcp.CallToolRequest, input compareInput) (*sdkmcp.CallToolResult, compareOutput, error) {
	a, err := s.side(ctx, "first contract", input.TextA, input.SourceA)
	if err != nil {
		return nil, compareOutput{}, err
	}
	b, err := s.side(ctx, "second contract", input.TextB, input.SourceB)
	if err != nil {
		return nil, compareOutput{}, err
	}

	report, err := s.pipeline.CompareDocuments(a, b)
	if err != nil {
		return nil, compareOutput{}, fmt.Errorf("compare: %w", err)
	}

	res := report.Result
	return nil, compareOutput{
		Safer:             string(res.Safer),
		RiskDelta:         res.RiskDelta,
		FirstScore:        res.First.RiskScore,
		SecondScore:       res.Second.RiskScore,
		FlagsOnlyInFirst:  refIDs(res.FlagsOnlyInFirst),
		FlagsOnlyInSecond: refIDs(res.FlagsOnlyInSecond),
		FlagsInBoth:       refIDs(res.FlagsInBoth),
		Summary:           append([]string{}, res.Summary...),
	}, nil
}

func (s *Server) handleListTemplates(_ context.Context, _ *sdkmcp.CallToolRequest, input listTemplatesInput) (*sdkmcp.CallToolResult, listTemplatesOutput, error) {
	list := s.templates.List(input.Category)
	out := listTemplatesOutput{
		Templates:  make([]templateSummary, 0, len(list)),
		Categories: append([]string{}, s.templates.Categories()...),
	}
	for _, t := range list {
		out.Templates = append(out.Templates, templateSummary{
			ID:             t.ID,
			Title:          t.Title,
			Category:       t.Category,
			Description:    t.Description,
			RiskLevel:      string(t.RiskLevel),
			CommonRedFlags: append([]string{}, t.CommonRedFlags...),
		})
	}
	return nil, out, nil
}

func (s *Server) handleAnalyzeTemplate(ctx context.Context, _ *sdkmcp.CallToolRequest, input analyzeTemplateInput) (*sdkmcp.CallToolResult, analyzeOutput, error) {
	tpl, err := s.templates.Get(input.ID)
	if err != nil {
		return nil, analyzeOutput{}, err
	}

	report, err := s.pipeline.AnalyzeText(ctx, "template:"+tpl.ID, model.SourceTemplate, tpl.Text)
	if err != nil {
		return nil, analyzeOutput{}, fmt.Errorf("analyze: %w", err)
	}
	return nil, s.summarize(report, input.IncludeMarkdown), nil
}

// side loads one side of a comparison from text or a path/URL
func (s *Server) side(ctx context.Context, label, text, source string) (pipeline.Document, error) {
	if strings.TrimSpace(text) != "" {
		return pipeline.Document{Source: label, Kind: model.SourceText, Text: text}, nil
	}
	if source == "" {
		return pipeline.Document{}, fmt.Errorf("%s: %w", label, validate.Required("text or source", ""))
	}
	doc, err := s.pipeline.Load(ctx, source)
	if err != nil {
		return pipeline.Document{}, fmt.Errorf("%s: %w", label, err)
	}
	return doc, nil
}

func (s *Server) summarize(report *model.Report, includeMarkdown bool) analyzeOutput {
	res := report.Result
	out := analyzeOutput{
		Source:          report.Source,
		DocumentType:    string(res.DocumentType.Type),
		DocumentLabel:   res.DocumentType.Label,
		Confidence:      res.DocumentType.Confidence,
		RiskScore:       res.RiskScore,
		RiskLevel:       string(res.RiskLevel),
		Flags:           make([]flagSummary, 0, len(res.Flags)),
		Recommendations: make([]string, 0, len(res.Recommendations)),
		ClauseStats:     res.ClauseStats,
		Parties:         append([]string{}, res.Parties...),
		Disclaimer:      report.Disclaimer.Notice,
	}
	for _, f := range res.Flags {
		out.Flags = append(out.Flags, flagSummary{
			ID:           f.ID,
			Name:         f.Name,
			Severity:     string(f.Severity),
			Match:        f.Match,
			PlainEnglish: f.PlainEnglish,
		})
	}
	for _, r := range res.Recommendations {
		out.Recommendations = append(out.Recommendations, r.Text)
	}
	if includeMarkdown {
		out.Markdown = s.pipeline.Renderer().Markdown(report)
	}
	return out
}

func refIDs(refs []model.FlagRef) []string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}
