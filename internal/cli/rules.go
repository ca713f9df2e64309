package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/rules"
)

var rulesPath string

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the red-flag and clause rules",
	Long: `Rules prints the rule catalog the analysis uses: every red-flag rule with
its severity, the standing severability check, the clause annotation rules
and the document types.

Pass --dir to validate and list a custom catalog (the same directory
accepted by "analyze --rules").

Example:
  clauselens rules
  clauselens rules --dir ./my-rules`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := rules.Default()
		if rulesPath != "" {
			var err error
			catalog, err = rules.LoadDir(rulesPath)
			if err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Red flags:")
		for _, r := range catalog.RedFlags() {
			fmt.Fprintf(out, "  %-28s %-7s %s\n", r.ID, r.Severity, r.Name)
		}
		s := catalog.Severability()
		fmt.Fprintf(out, "  %-28s %-7s %s (fires when %q is absent)\n", s.ID, s.Severity, s.Name, s.Token)

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Clause rules:")
		for _, r := range catalog.ClauseRules() {
			fmt.Fprintf(out, "  %-28s %-7s %s\n", r.ID, r.Color, r.Name)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Document types:")
		for _, c := range catalog.Categories() {
			fmt.Fprintf(out, "  %-28s %s\n", c.Key, c.Label)
		}
		g := catalog.General()
		fmt.Fprintf(out, "  %-28s %s (fallback)\n", g.Key, g.Label)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesPath, "dir", "", "load rules from this directory")
}
