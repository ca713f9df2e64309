// Demo program that runs every built-in sample contract through the engine
// and prints the detected flags next to the template's listed concerns
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/clauselens/internal/engine"
	"github.com/ppiankov/clauselens/internal/templates"
)

func main() {
	fmt.Println("=== ClauseLens Template Scan ===")
	fmt.Println()

	e := engine.New(engine.Options{})
	lib := templates.Default()
	mismatches := 0

	for _, t := range lib.List("") {
		tpl, err := lib.Get(t.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Template: %s (%s)\n", tpl.Title, tpl.ID)
		fmt.Println(strings.Repeat("-", 60))

		res := e.Analyze(tpl.Text)
		fmt.Printf("  Type:       %s (%.0f%% confidence)\n", res.DocumentType.Label, res.DocumentType.Confidence*100)
		fmt.Printf("  Risk:       %d/100 (%s, listed as %s)\n", res.RiskScore, res.RiskLevel, tpl.RiskLevel)
		fmt.Printf("  Clauses:    %d (%d safe, %d caution, %d danger)\n",
			len(res.Clauses), res.ClauseStats.Safe, res.ClauseStats.Caution, res.ClauseStats.Danger)

		if len(res.Flags) > 0 {
			fmt.Printf("\n  ⚠️  RED FLAGS: %d\n", len(res.Flags))
			for _, f := range res.Flags {
				fmt.Printf("     - [%s] %s\n", f.Severity, f.Name)
			}
		} else {
			fmt.Println("  ✓ No red flags detected")
		}

		if len(tpl.CommonRedFlags) > 0 {
			fmt.Println("\n  Listed concerns:")
			for _, c := range tpl.CommonRedFlags {
				fmt.Printf("     - %s\n", c)
			}
		}

		if res.RiskLevel != tpl.RiskLevel {
			mismatches++
		}

		fmt.Println()
	}

	fmt.Println("=== Scan Complete ===")
	fmt.Printf("\n%d templates scanned, %d scored at a different level than listed.\n", lib.Len(), mismatches)
	fmt.Println("Listed levels are editorial; scores come only from the rule catalog.")
}
