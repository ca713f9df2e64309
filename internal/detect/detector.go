package detect

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

// ContextRadius is how many characters of text surround a match in its snippet
const ContextRadius = 80

const ellipsis = "…"

// Detector scans contract text for red flags
type Detector struct {
	catalog *rules.Catalog
}

// NewDetector creates a detector over the given catalog
func NewDetector(catalog *rules.Catalog) *Detector {
	return &Detector{catalog: catalog}
}

// Detect returns at most one flag per rule, sorted by severity.
// Only the first matching alternative of a rule is recorded, and only its
// first occurrence in the text.
func (d *Detector) Detect(text string) []model.DetectedFlag {
	flags := make([]model.DetectedFlag, 0)

	for _, rule := range d.catalog.RedFlags() {
		for _, re := range rule.Patterns {
			loc := re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			flags = append(flags, model.DetectedFlag{
				ID:           rule.ID,
				Name:         rule.Name,
				Severity:     rule.Severity,
				Description:  rule.Description,
				PlainEnglish: rule.PlainEnglish,
				Context:      Snippet(text, loc[0], loc[1]),
				Match:        text[loc[0]:loc[1]],
			})
			break
		}
	}

	sev := d.catalog.Severability()
	if !strings.Contains(strings.ToLower(text), sev.Token) {
		flags = append(flags, model.DetectedFlag{
			ID:           sev.ID,
			Name:         sev.Name,
			Severity:     sev.Severity,
			Description:  sev.Description,
			PlainEnglish: sev.PlainEnglish,
		})
	}

	SortBySeverity(flags)
	return flags
}

// SortBySeverity orders flags high, medium, low, keeping detection order within a tier
func SortBySeverity(flags []model.DetectedFlag) {
	sort.SliceStable(flags, func(i, j int) bool {
		return flags[i].Severity.Rank() < flags[j].Severity.Rank()
	})
}

// Snippet returns the text around the byte range [start,end) with
// ContextRadius characters on each side, newlines flattened, and an ellipsis
// on each clipped side
func Snippet(text string, start, end int) string {
	from := start
	for n := 0; n < ContextRadius && from > 0; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for n := 0; n < ContextRadius && to < len(text); n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}
	clippedLeft := from > 0
	clippedRight := to < len(text)

	window := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text[from:to])
	window = strings.TrimSpace(window)

	if clippedLeft {
		window = ellipsis + window
	}
	if clippedRight {
		window += ellipsis
	}
	return window
}
