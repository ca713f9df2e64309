package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/templates"
)

var templateCategory string

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Browse and analyze the built-in sample contracts",
	Long: `Templates lists the built-in sample contracts, prints one, or analyzes one.

Example:
  clauselens templates list
  clauselens templates list --category Services
  clauselens templates show nda-mutual
  clauselens templates analyze freelance-services --md freelance.md`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sample contracts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib := templates.Default()
		out := cmd.OutOrStdout()

		list := lib.List(templateCategory)
		if len(list) == 0 {
			return fmt.Errorf("%w: no templates in category %q (categories: %s)",
				errUsage, templateCategory, strings.Join(lib.Categories(), ", "))
		}

		for _, t := range list {
			fmt.Fprintf(out, "%-24s %-14s %-8s %s\n", t.ID, t.Category, t.RiskLevel, t.Title)
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a sample contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := templates.Default().Get(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n\n", t.Title)
		fmt.Fprintf(out, "%s\n\n", t.Description)
		fmt.Fprintf(out, "Risk level: %s\n", t.RiskLevel)
		if len(t.CommonRedFlags) > 0 {
			fmt.Fprintf(out, "Common red flags: %s\n", strings.Join(t.CommonRedFlags, ", "))
		}
		fmt.Fprintf(out, "\n%s\n", t.Text)
		return nil
	},
}

var templatesAnalyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Analyze a sample contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := templates.Default().Get(args[0])
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}

		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		p, err := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
		if err != nil {
			return err
		}

		report, err := p.AnalyzeText(context.Background(), "template:"+t.ID, model.SourceTemplate, t.Text)
		if err != nil {
			return err
		}

		if outJSON == "" && outMD == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), p.Renderer().Markdown(report))
			return err
		}
		return p.RenderReport(cmd.OutOrStdout(), report, outJSON, outMD, cfg.Output.Verbose)
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesAnalyzeCmd)

	templatesListCmd.Flags().StringVar(&templateCategory, "category", "", "only list this category")

	templatesAnalyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	templatesAnalyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	addAnalysisFlags(templatesAnalyzeCmd)
}
