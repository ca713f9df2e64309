package clause

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

// MaxTitleChars bounds derived clause titles, ellipsis included
const MaxTitleChars = 80

var titleNumbering = regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?|(?i:section|article|clause)\s+\d+(?:\.\d+)*\.?|[A-Z]\.|(?:i|ii|iii|iv|v|vi|vii|viii|ix|x)\.)[.:)]?(?:\s+|$)`)

// Annotator segments a contract and rates each clause
type Annotator struct {
	catalog *rules.Catalog
}

// NewAnnotator creates an annotator over the given catalog
func NewAnnotator(catalog *rules.Catalog) *Annotator {
	return &Annotator{catalog: catalog}
}

// Annotate segments text and annotates every clause independently
func (a *Annotator) Annotate(text string) model.ClauseReport {
	parts, _ := Segment(text)

	report := model.ClauseReport{Clauses: make([]model.Clause, 0, len(parts))}
	for i, part := range parts {
		c := a.annotateClause(i+1, part)
		report.Clauses = append(report.Clauses, c)

		switch c.Risk {
		case model.ColorRed:
			report.Stats.Danger++
		case model.ColorYellow:
			report.Stats.Caution++
		default:
			report.Stats.Safe++
		}
	}
	report.Stats.Total = len(report.Clauses)

	return report
}

func (a *Annotator) annotateClause(index int, text string) model.Clause {
	c := model.Clause{
		Index:       index,
		Title:       Title(text, index),
		Text:        text,
		Risk:        model.ColorGreen,
		Annotations: make([]model.ClauseAnnotation, 0),
	}

	for _, rule := range a.catalog.ClauseRules() {
		for _, re := range rule.Patterns {
			if !re.MatchString(text) {
				continue
			}
			c.Annotations = append(c.Annotations, model.ClauseAnnotation{
				RuleID:      rule.ID,
				Name:        rule.Name,
				Color:       rule.Color,
				Explanation: rule.Explanation,
				Alternative: rule.Alternative,
			})
			if rule.Color.Rank() > c.Risk.Rank() {
				c.Risk = rule.Color
			}
			break
		}
	}

	return c
}

// Title derives a clause title from its first line
func Title(text string, index int) string {
	line := text
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	line = titleNumbering.ReplaceAllString(line, "")
	line = strings.TrimLeft(line, " \t:-–—")
	line = strings.TrimRight(line, " \t:.")

	if line == "" {
		return fmt.Sprintf("Clause %d", index)
	}
	if utf8.RuneCountInString(line) > MaxTitleChars {
		runes := []rune(line)
		line = strings.TrimSpace(string(runes[:MaxTitleChars-1])) + "…"
	}
	return line
}
