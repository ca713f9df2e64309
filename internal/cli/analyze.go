package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/pipeline"
)

var (
	outJSON    string
	outMD      string
	analyzeURL string
	timeout    time.Duration
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze one contract and generate a risk report",
	Long: `Analyze reads a contract and reports:
- Document type and confidence
- Red flags with severity, context and plain-English explanation
- Parties, dates, amounts and obligations
- A 5-100 risk score with the formula that produced it
- Per-clause color annotations and a negotiation playbook

The contract can be a .txt/.md/.html file, "-" for stdin, or a URL.
PDF and Word documents are not read; paste their text instead.

Example:
  clauselens analyze contract.txt
  clauselens analyze contract.txt --json report.json --md report.md
  pbpaste | clauselens analyze -
  clauselens analyze --url https://example.com/terms --md terms.md
  clauselens analyze contract.txt --llm openai --llm-model gpt-4o-mini`,
	Args: func(cmd *cobra.Command, args []string) error {
		if analyzeURL != "" && len(args) > 0 {
			return fmt.Errorf("%w: give either a file or --url, not both", errUsage)
		}
		if analyzeURL == "" && len(args) != 1 {
			return fmt.Errorf("%w: analyze needs a file, \"-\" or --url", errUsage)
		}
		return nil
	},
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (without --json or --md the Markdown report is printed)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")

	analyzeCmd.Flags().StringVar(&analyzeURL, "url", "", "fetch the contract from a URL")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")

	addAnalysisFlags(analyzeCmd)
	addFetchFlags(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	source := analyzeURL
	if source == "" {
		source = args[0]
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	var doc pipeline.Document
	if analyzeURL != "" {
		doc, err = p.LoadURL(ctx, analyzeURL)
	} else {
		doc, err = p.LoadFile(args[0])
	}
	if err != nil {
		return err
	}

	report, err := p.AnalyzeDocument(ctx, doc)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		res := report.Result
		fmt.Fprintf(os.Stderr, "✓ Classified as %s (%.0f%% confidence)\n", res.DocumentType.Label, res.DocumentType.Confidence*100)
		fmt.Fprintf(os.Stderr, "✓ Detected %d red flags\n", len(res.Flags))
		fmt.Fprintf(os.Stderr, "✓ Annotated %d clauses\n", len(res.Clauses))
		fmt.Fprintf(os.Stderr, "✓ Risk score: %d/100\n", res.RiskScore)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM digest using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Without output files the Markdown report goes to stdout
	if outJSON == "" && outMD == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), p.Renderer().Markdown(report))
		return err
	}
	if err := p.RenderReport(cmd.OutOrStdout(), report, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
