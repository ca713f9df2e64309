package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/score"
)

const contextPreviewChars = 160

// Renderer writes reports as JSON, Markdown, and terminal summaries
type Renderer struct {
	scorer        *score.Scorer
	includeFooter bool
}

// NewRenderer creates a renderer. scorer is used to print the score formula.
func NewRenderer(scorer *score.Scorer, includeFooter bool) *Renderer {
	if scorer == nil {
		scorer = score.NewScorer(score.DefaultWeights())
	}
	return &Renderer{scorer: scorer, includeFooter: includeFooter}
}

// WriteJSON encodes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// RenderJSON writes v as JSON to path ("-" is stdout)
func (r *Renderer) RenderJSON(v any, path string) error {
	return r.writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, v) })
}

// RenderMarkdown writes the Markdown report to path ("-" is stdout)
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// RenderComparisonMarkdown writes the comparison report to path
func (r *Renderer) RenderComparisonMarkdown(report *model.ComparisonReport, path string) error {
	return r.writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.ComparisonMarkdown(report))
		return err
	})
}

// RenderLLMMarkdown writes the separate LLM digest file
func (r *Renderer) RenderLLMMarkdown(markdown string, path string) error {
	return r.writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, markdown)
		return err
	})
}

func (r *Renderer) writeFile(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Markdown renders a full analysis report
func (r *Renderer) Markdown(report *model.Report) string {
	res := report.Result
	var b strings.Builder

	b.WriteString("# ClauseLens Contract Report\n\n")
	fmt.Fprintf(&b, "- **Source**: %s (%s)\n", report.Source, report.SourceKind)
	fmt.Fprintf(&b, "- **Analyzed**: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- **Document type**: %s (confidence %.0f%%)\n", res.DocumentType.Label, res.DocumentType.Confidence*100)
	fmt.Fprintf(&b, "- **Length**: %d words, %d characters\n\n", res.WordCount, res.CharCount)

	fmt.Fprintf(&b, "## Risk Score: %d/100 (%s)\n\n", res.RiskScore, strings.ToUpper(string(res.RiskLevel)))
	breakdown := r.scorer.Explain(res.Flags, res.CharCount)
	fmt.Fprintf(&b, "`%s`\n\n", breakdown.Formula)
	fmt.Fprintf(&b, "Base %d, %d high, %d medium, %d low flags", breakdown.Base, breakdown.HighCount, breakdown.MediumCount, breakdown.LowCount)
	if breakdown.ShortText {
		fmt.Fprintf(&b, ", +%d short-text penalty", breakdown.Penalty)
	}
	b.WriteString(".\n\n")

	b.WriteString("## Red Flags\n\n")
	if len(res.Flags) == 0 {
		b.WriteString("_No red flags detected._\n\n")
	} else {
		b.WriteString("| Severity | Flag | Rule | Matched |\n")
		b.WriteString("|----------|------|------|---------|\n")
		for _, f := range res.Flags {
			fmt.Fprintf(&b, "| %s | %s | `%s` | %s |\n", severityLabel(f.Severity), escapeCell(f.Name), f.ID, escapeCell(f.Match))
		}
		b.WriteString("\n")
		for _, f := range res.Flags {
			fmt.Fprintf(&b, "### %s\n\n", f.Name)
			fmt.Fprintf(&b, "%s\n\n", f.Description)
			if f.PlainEnglish != "" {
				fmt.Fprintf(&b, "**In plain English:** %s\n\n", f.PlainEnglish)
			}
			if f.Context != "" {
				fmt.Fprintf(&b, "> %s\n\n", preview(f.Context, contextPreviewChars*2))
			}
		}
	}

	r.writeFacts(&b, res)
	r.writeClauses(&b, res)

	b.WriteString("## Recommendations\n\n")
	for _, rec := range res.Recommendations {
		fmt.Fprintf(&b, "- **[%s]** %s\n", rec.Priority, rec.Text)
	}
	b.WriteString("\n")

	r.writePlaybook(&b, res.Negotiation)

	if report.LLM != nil && report.LLM.Enabled && report.LLM.SummaryMD != "" {
		b.WriteString("## LLM Digest\n\n")
		b.WriteString("_Generated separately; see the .llm.md file. It does not affect the score._\n\n")
	}

	r.writeFooter(&b, report.Disclaimer)
	return b.String()
}

func (r *Renderer) writeFacts(b *strings.Builder, res *model.AnalysisResult) {
	b.WriteString("## Key Facts\n\n")
	if len(res.Parties) > 0 {
		fmt.Fprintf(b, "- **Parties**: %s\n", strings.Join(res.Parties, "; "))
	}
	if len(res.Dates) > 0 {
		fmt.Fprintf(b, "- **Dates**: %s\n", strings.Join(res.Dates, "; "))
	}
	if len(res.KeyTerms) > 0 {
		groups := map[model.KeyTermKind][]string{}
		var order []model.KeyTermKind
		for _, t := range res.KeyTerms {
			if _, ok := groups[t.Kind]; !ok {
				order = append(order, t.Kind)
			}
			groups[t.Kind] = append(groups[t.Kind], t.Value)
		}
		for _, k := range order {
			fmt.Fprintf(b, "- **%s**: %s\n", capitalize(string(k)), strings.Join(groups[k], ", "))
		}
	}
	if len(res.Parties) == 0 && len(res.Dates) == 0 && len(res.KeyTerms) == 0 {
		b.WriteString("_No parties, dates, or amounts found._\n")
	}
	b.WriteString("\n")

	if len(res.Obligations) > 0 {
		b.WriteString("### Obligations\n\n")
		for _, o := range res.Obligations {
			fmt.Fprintf(b, "- (%s) %s\n", o.Strength, o.Text)
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) writeClauses(b *strings.Builder, res *model.AnalysisResult) {
	s := res.ClauseStats
	fmt.Fprintf(b, "## Clause Map (%d clauses: %d danger, %d caution, %d safe)\n\n", s.Total, s.Danger, s.Caution, s.Safe)
	for _, c := range res.Clauses {
		fmt.Fprintf(b, "%d. **%s** %s\n", c.Index, colorLabel(c.Risk), escapeCell(c.Title))
		for _, a := range c.Annotations {
			fmt.Fprintf(b, "   - %s: %s", a.Name, a.Explanation)
			if a.Alternative != "" {
				fmt.Fprintf(b, " _Ask for:_ %s", a.Alternative)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
}

func (r *Renderer) writePlaybook(b *strings.Builder, pb model.Playbook) {
	if pb.Summary.Total == 0 {
		return
	}
	fmt.Fprintf(b, "## Negotiation Playbook (%d must, %d should, %d nice-to-have)\n\n",
		pb.Summary.MustNegotiate, pb.Summary.ShouldNegotiate, pb.Summary.NiceToHave)
	for _, s := range pb.Suggestions {
		fmt.Fprintf(b, "### %s: %s\n\n", s.Priority, s.FlagName)
		if s.ProblematicClause != "" {
			fmt.Fprintf(b, "> %s\n\n", preview(s.ProblematicClause, contextPreviewChars*2))
		}
		fmt.Fprintf(b, "**Why it is risky:** %s\n\n", s.WhyRisky)
		if s.SuggestedLanguage != nil {
			fmt.Fprintf(b, "**Suggested language:** \"%s\"\n\n", *s.SuggestedLanguage)
		}
		fmt.Fprintf(b, "**Tip:** %s\n\n", s.NegotiationTip)
		for _, lp := range s.LeveragePoints {
			fmt.Fprintf(b, "- %s\n", lp)
		}
		b.WriteString("\n")
	}
}

func (r *Renderer) writeFooter(b *strings.Builder, d model.Disclaimer) {
	if !r.includeFooter {
		return
	}
	b.WriteString("---\n\n")
	fmt.Fprintf(b, "_%s_\n", d.Notice)
}

// ComparisonMarkdown renders a side-by-side comparison
func (r *Renderer) ComparisonMarkdown(report *model.ComparisonReport) string {
	res := report.Result
	var b strings.Builder

	b.WriteString("# ClauseLens Contract Comparison\n\n")
	b.WriteString("| | First | Second |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| Source | %s | %s |\n", escapeCell(report.SourceA), escapeCell(report.SourceB))
	fmt.Fprintf(&b, "| Type | %s | %s |\n", res.First.DocumentType.Label, res.Second.DocumentType.Label)
	fmt.Fprintf(&b, "| Risk score | %d (%s) | %d (%s) |\n", res.First.RiskScore, res.First.RiskLevel, res.Second.RiskScore, res.Second.RiskLevel)
	fmt.Fprintf(&b, "| Flags | %d | %d |\n\n", len(res.First.Flags), len(res.Second.Flags))

	fmt.Fprintf(&b, "**Safer:** %s contract (delta %+d)\n\n", res.Safer, res.RiskDelta)

	b.WriteString("## Summary\n\n")
	for _, line := range res.Summary {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	b.WriteString("\n")

	writeRefs(&b, "Only in first", res.FlagsOnlyInFirst)
	writeRefs(&b, "Only in second", res.FlagsOnlyInSecond)
	writeRefs(&b, "In both", res.FlagsInBoth)

	r.writeFooter(&b, report.Disclaimer)
	return b.String()
}

func writeRefs(b *strings.Builder, title string, refs []model.FlagRef) {
	fmt.Fprintf(b, "## %s (%d)\n\n", title, len(refs))
	if len(refs) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	for _, f := range refs {
		fmt.Fprintf(b, "- %s %s (`%s`)\n", severityLabel(f.Severity), f.Name, f.ID)
	}
	b.WriteString("\n")
}

// RenderSummary prints a short terminal summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	res := report.Result
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(w, format, args...) }

	p("\n")
	p("═══════════════════════════════════════════════════════════\n")
	p("  ClauseLens Contract Scan\n")
	p("═══════════════════════════════════════════════════════════\n")
	p("\n")
	p("  Source:      %s\n", report.Source)
	p("  Type:        %s (%.0f%%)\n", res.DocumentType.Label, res.DocumentType.Confidence*100)
	p("  Risk score:  %d/100 (%s)\n", res.RiskScore, strings.ToUpper(string(res.RiskLevel)))
	p("  Clauses:     %d (%d danger, %d caution, %d safe)\n", res.ClauseStats.Total, res.ClauseStats.Danger, res.ClauseStats.Caution, res.ClauseStats.Safe)
	if report.Cached {
		p("  Cached:      yes\n")
	}
	p("\n")

	if len(res.Flags) == 0 {
		p("  No red flags detected.\n")
	} else {
		p("  Red flags (%d):\n", len(res.Flags))
		for _, f := range res.Flags {
			p("    %-7s %s\n", severityLabel(f.Severity), f.Name)
		}
	}
	p("\n")

	if len(res.Recommendations) > 0 {
		p("  Top recommendation:\n    %s\n\n", res.Recommendations[0].Text)
	}

	if r.includeFooter {
		p("  %s\n\n", report.Disclaimer.Notice)
	}
}

// RenderComparisonSummary prints a short terminal comparison
func (r *Renderer) RenderComparisonSummary(w io.Writer, report *model.ComparisonReport) {
	res := report.Result
	_, _ = fmt.Fprintf(w, "\n  %s: %d/100 (%s)\n  %s: %d/100 (%s)\n\n",
		report.SourceA, res.First.RiskScore, res.First.RiskLevel,
		report.SourceB, res.Second.RiskScore, res.Second.RiskLevel)
	for _, line := range res.Summary {
		_, _ = fmt.Fprintf(w, "  • %s\n", line)
	}
	_, _ = fmt.Fprintln(w)
}

func severityLabel(s model.Severity) string {
	return strings.ToUpper(string(s))
}

func colorLabel(c model.RiskColor) string {
	switch c {
	case model.ColorRed:
		return "[DANGER]"
	case model.ColorYellow:
		return "[CAUTION]"
	default:
		return "[SAFE]"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func preview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
