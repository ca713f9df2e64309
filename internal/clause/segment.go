package clause

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// minStructuralMarkers is how many markers a text needs to be split structurally
	minStructuralMarkers = 3
	// preambleThreshold is how far in the first marker may start before the
	// preceding text becomes its own clause
	preambleThreshold = 50
	// minParagraphChars drops short paragraphs in the blank-line fallback
	minParagraphChars = 20
)

// structuralPattern matches a clause marker at line start: decimal numbering
// (1. or 2.3. or 2.3), Section/Article/Clause N, A., or lower-case roman i.
var structuralPattern = regexp.MustCompile(`(?m)^[ \t]*(?:\d+\.(?:\d+\.?)*[ \t]|\d+(?:\.\d+)+[ \t]|(?i:section|article|clause)\s+\d+|[A-Z]\.\s|(?:i|ii|iii|iv|v|vi|vii|viii|ix|x)\.\s)`)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Segmentation names the stage that produced the clauses
type Segmentation string

const (
	SegmentStructural Segmentation = "structural"
	SegmentParagraph  Segmentation = "paragraph"
	SegmentWhole      Segmentation = "whole"
)

// Segment splits text into clause texts. It always returns at least one element.
func Segment(text string) ([]string, Segmentation) {
	if parts := splitStructural(text); len(parts) > 0 {
		return parts, SegmentStructural
	}
	if parts := splitParagraphs(text); len(parts) > 0 {
		return parts, SegmentParagraph
	}
	return []string{strings.TrimSpace(text)}, SegmentWhole
}

func splitStructural(text string) []string {
	locs := structuralPattern.FindAllStringIndex(text, -1)
	if len(locs) < minStructuralMarkers {
		return nil
	}

	var parts []string
	if locs[0][0] > preambleThreshold {
		if pre := strings.TrimSpace(text[:locs[0][0]]); pre != "" {
			parts = append(parts, pre)
		}
	}

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if part := strings.TrimSpace(text[loc[0]:end]); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func splitParagraphs(text string) []string {
	var parts []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > minParagraphChars {
			parts = append(parts, p)
		}
	}
	return parts
}
