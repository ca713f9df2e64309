package engine

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
)

// Compare analyzes both texts and diffs their flags and scores.
// Ties in score favor the first text.
func (e *Engine) Compare(a, b string) *model.ComparisonResult {
	return Diff(e.Analyze(a), e.Analyze(b))
}

// Diff compares two finished analyses
func Diff(first, second *model.AnalysisResult) *model.ComparisonResult {
	onlyFirst, onlySecond, both := partitionFlags(first.Flags, second.Flags)

	res := &model.ComparisonResult{
		First:             first,
		Second:            second,
		RiskDelta:         second.RiskScore - first.RiskScore,
		Safer:             model.SideFirst,
		FlagsOnlyInFirst:  onlyFirst,
		FlagsOnlyInSecond: onlySecond,
		FlagsInBoth:       both,
	}
	if first.RiskScore > second.RiskScore {
		res.Safer = model.SideSecond
	}
	res.Summary = summarize(res)

	return res
}

// partitionFlags splits flags by ID; each list keeps its side's order
func partitionFlags(first, second []model.DetectedFlag) (onlyFirst, onlySecond, both []model.FlagRef) {
	inFirst := make(map[string]bool, len(first))
	for _, f := range first {
		inFirst[f.ID] = true
	}
	inSecond := make(map[string]bool, len(second))
	for _, f := range second {
		inSecond[f.ID] = true
	}

	onlyFirst = make([]model.FlagRef, 0)
	onlySecond = make([]model.FlagRef, 0)
	both = make([]model.FlagRef, 0)

	for _, f := range first {
		if inSecond[f.ID] {
			both = append(both, f.Ref())
		} else {
			onlyFirst = append(onlyFirst, f.Ref())
		}
	}
	for _, f := range second {
		if !inFirst[f.ID] {
			onlySecond = append(onlySecond, f.Ref())
		}
	}
	return onlyFirst, onlySecond, both
}

func summarize(res *model.ComparisonResult) []string {
	a, b := res.First.RiskScore, res.Second.RiskScore

	var lines []string
	switch {
	case a == b:
		lines = append(lines, fmt.Sprintf("Both contracts carry similar risk (score %d).", a))
	case a < b:
		lines = append(lines, fmt.Sprintf("The first contract is lower risk (score %d vs %d, %d points apart).", a, b, b-a))
	default:
		lines = append(lines, fmt.Sprintf("The second contract is lower risk (score %d vs %d, %d points apart).", b, a, a-b))
	}

	if len(res.FlagsOnlyInFirst) > 0 {
		lines = append(lines, "Only the first contract has: "+flagNames(res.FlagsOnlyInFirst)+".")
	}
	if len(res.FlagsOnlyInSecond) > 0 {
		lines = append(lines, "Only the second contract has: "+flagNames(res.FlagsOnlyInSecond)+".")
	}

	if res.First.DocumentType.Type != res.Second.DocumentType.Type {
		lines = append(lines, fmt.Sprintf("The contracts appear to be different document types (%s vs %s).",
			res.First.DocumentType.Label, res.Second.DocumentType.Label))
	}

	return lines
}

func flagNames(refs []model.FlagRef) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
