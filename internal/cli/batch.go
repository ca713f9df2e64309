package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	hostRate     float64
	hostBurst    int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|list-file>",
	Short: "Analyze many contracts in parallel",
	Long: `Batch analyzes many contracts concurrently:
- A directory: every .txt, .md and .html file under it
- A list file: one path or URL per line (# comments allowed)
- Entries run in parallel with a configurable worker count
- URLs are rate limited per host
- Each contract gets its own JSON and Markdown report, plus summary.json

Example:
  clauselens batch ./contracts
  clauselens batch sources.txt --concurrency 8 --output-dir ./reports
  clauselens batch ./contracts --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags; 0 means the configured worker count
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauselens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&hostRate, "host-rate", 2, "URL fetches per second per host, 0 disables limiting")
	batchCmd.Flags().IntVar(&hostBurst, "host-burst", 5, "per-host burst size")

	addAnalysisFlags(batchCmd)
	addFetchFlags(batchCmd)
}

// batchEntry is one line of summary.json
type batchEntry struct {
	Source    string          `json:"source"`
	RiskScore int             `json:"risk_score,omitempty"`
	RiskLevel model.RiskLevel `json:"risk_level,omitempty"`
	Flags     int             `json:"flags"`
	JSON      string          `json:"json,omitempty"`
	Markdown  string          `json:"markdown,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ClauseLens Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, workers, hostRate, hostBurst, logger)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing contracts with %d workers...\n", workers)
	fmt.Fprintf(os.Stderr, "\n")

	results, err := processor.ProcessPath(ctx, input)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	renderer := p.Renderer()
	entries := make([]batchEntry, 0, len(results))
	successCount := 0
	failureCount := 0

	for _, result := range results {
		entry := batchEntry{Source: result.Source}
		if result.Error != nil {
			failureCount++
			entry.Error = result.Error.Error()
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Source, result.Error)
			continue
		}

		// Index prefix keeps same-named files from different folders apart
		slug := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Source))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			entry.Error = err.Error()
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Source, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			entry.Error = err.Error()
			entries = append(entries, entry)
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Source, err)
			continue
		}

		successCount++
		res := result.Report.Result
		entry.RiskScore = res.RiskScore
		entry.RiskLevel = res.RiskLevel
		entry.Flags = len(res.Flags)
		entry.JSON = jsonPath
		entry.Markdown = mdPath
		entries = append(entries, entry)

		fmt.Fprintf(os.Stderr, "✓ %s (risk: %d/100 %s, %d flags)\n", result.Source, res.RiskScore, res.RiskLevel, len(res.Flags))
	}

	summaryPath := filepath.Join(outputDir, "summary.json")
	if err := renderer.RenderJSON(entries, summaryPath); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d contracts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a path or URL into a safe file name stem
func sanitizeFilename(s string) string {
	if worker.IsURL(s) {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
		s = strings.TrimSuffix(s, "/")
	} else {
		s = filepath.Base(s)
		s = strings.TrimSuffix(s, filepath.Ext(s))
	}

	s = filenameReplacer.Replace(s)
	s = strings.Trim(s, "._-")
	if s == "" {
		s = "contract"
	}

	// Limit length
	if len(s) > 100 {
		s = strings.ToValidUTF8(s[:100], "")
	}

	return s
}
