package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/pipeline"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <first> <second>",
	Short: "Compare the risk of two contracts",
	Long: `Compare analyzes two contracts and reports:
- Which one is lower risk and by how many points
- Red flags found only in the first, only in the second, and in both
- Whether they look like different document types

Each side can be a file, a URL, or "-" for stdin (only one side).

Example:
  clauselens compare offer-v1.txt offer-v2.txt
  clauselens compare old.txt https://example.com/terms --json diff.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	compareCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	compareCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall comparison timeout")

	addAnalysisFlags(compareCmd)
	addFetchFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	if args[0] == "-" && args[1] == "-" {
		return fmt.Errorf("%w: only one side can be read from stdin", errUsage)
	}

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

	report, err := p.Compare(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	r := p.Renderer()
	if outJSON != "" {
		if err := r.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := r.RenderComparisonMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	if outJSON == "" && outMD == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), r.ComparisonMarkdown(report))
		return err
	}

	r.RenderComparisonSummary(cmd.OutOrStdout(), report)
	return nil
}
