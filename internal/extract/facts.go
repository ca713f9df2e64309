package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/model"
)

// Output caps
const (
	MaxKeyTerms    = 20
	MaxDates       = 10
	MaxParties     = 6
	MaxObligations = 20

	// obligationSoftCap is checked between the mandatory and recommended
	// passes only; one pass may overshoot it.
	obligationSoftCap = 25

	minObligationLen = 15
	maxObligationLen = 200
)

var (
	moneyPattern = regexp.MustCompile(`(?i)\$\s?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?(?:\s?(?:k|m|million|billion|thousand)\b)?(?:\s*(?:per|/)\s*(?:month|year|hour|day|week|annum|project|milestone))?`)

	writtenAmountPattern = regexp.MustCompile(`(?i)\b(?:sum|fee|amount|salary|rate|price|compensation|deposit) of\s+(?:[a-z-]+\s+){1,6}(?:dollars|euros|pounds)\b`)

	durationPattern = regexp.MustCompile(`(?i)\b(\d+)\)?\s+((?:business |calendar |working )?(?:day|week|month|year)s?)\b`)

	percentPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?%`)

	// Date families run in this order
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:January|February|March|April|May|June|July|August|September|October|November|December),?\s+\d{4})\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	}

	partiesPattern = regexp.MustCompile(`(?i)\bbetween:?\s+([^,(\n]{2,80}?)\s*(?:,[^(\n]{0,200})?\([^)]{0,80}\)\s*,?\s*and\s+([^,(\n]{2,80}?)\s*(?:,[^(\n]{0,200})?\(`)

	mandatoryPattern   = regexp.MustCompile(`(?i)\b(?:shall|must|agrees? to|is required to|will)\s+[^.;\n]{10,80}`)
	recommendedPattern = regexp.MustCompile(`(?i)\b(?:should|may wish to|is encouraged to)\s+[^.;\n]{10,80}`)
)

// roles are scanned in this order when the structured party pattern fails
var roles = []string{
	"company", "contractor", "client", "employee", "employer", "landlord",
	"tenant", "licensor", "licensee", "seller", "buyer", "provider",
	"recipient", "disclosing party", "receiving party", "service provider",
}

var rolePatterns = compileRoles(roles)

func compileRoles(roles []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(roles))
	for i, r := range roles {
		out[i] = regexp.MustCompile(`(?i)["“](?:the )?` + regexp.QuoteMeta(r) + `["”]`)
	}
	return out
}

// FactExtractor pulls key terms, dates, parties and obligations from contract text
type FactExtractor struct{}

// NewFactExtractor creates a new fact extractor
func NewFactExtractor() *FactExtractor {
	return &FactExtractor{}
}

// Extract runs every extraction pass. Collections are never nil.
func (e *FactExtractor) Extract(text string) model.KeyFacts {
	return model.KeyFacts{
		KeyTerms:    e.KeyTerms(text),
		Dates:       e.Dates(text),
		Parties:     e.Parties(text),
		Obligations: e.Obligations(text),
	}
}

// KeyTerms returns financial terms, then durations, then percentages,
// deduplicated by value in first-seen order
func (e *FactExtractor) KeyTerms(text string) []model.KeyTerm {
	var terms []model.KeyTerm

	for _, m := range moneyPattern.FindAllString(text, -1) {
		terms = append(terms, model.KeyTerm{Kind: model.TermFinancial, Value: strings.TrimSpace(m)})
	}
	for _, m := range writtenAmountPattern.FindAllString(text, -1) {
		terms = append(terms, model.KeyTerm{Kind: model.TermFinancial, Value: m})
	}
	for _, m := range durationPattern.FindAllStringSubmatch(text, -1) {
		terms = append(terms, model.KeyTerm{Kind: model.TermDuration, Value: m[1] + " " + m[2]})
	}
	for _, m := range percentPattern.FindAllString(text, -1) {
		terms = append(terms, model.KeyTerm{Kind: model.TermPercentage, Value: m})
	}

	return dedupeTerms(terms, MaxKeyTerms)
}

// Dates returns literal date strings from the month-name, slash and ISO families
func (e *FactExtractor) Dates(text string) []string {
	var dates []string
	for _, re := range datePatterns {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	return dedupeStrings(dates, MaxDates)
}

// Parties returns the two named parties of a "between X (...) and Y (...)"
// recital, or else every defined role that appears in quotes
func (e *FactExtractor) Parties(text string) []string {
	if m := partiesPattern.FindStringSubmatch(text); m != nil {
		first := strings.TrimSpace(m[1])
		second := strings.TrimSpace(m[2])
		if first != "" && second != "" {
			return dedupeStrings([]string{first, second}, MaxParties)
		}
	}

	parties := make([]string, 0)
	for i, re := range rolePatterns {
		if re.MatchString(text) {
			parties = append(parties, capitalize(roles[i]))
		}
		if len(parties) == MaxParties {
			break
		}
	}
	return parties
}

// Obligations returns mandatory phrases, then recommended ones
func (e *FactExtractor) Obligations(text string) []model.Obligation {
	obligations := make([]model.Obligation, 0)

	passes := []struct {
		re       *regexp.Regexp
		strength model.ObligationStrength
	}{
		{mandatoryPattern, model.ObligationMandatory},
		{recommendedPattern, model.ObligationRecommended},
	}

	for _, p := range passes {
		if len(obligations) > obligationSoftCap {
			break
		}
		for _, m := range p.re.FindAllString(text, -1) {
			phrase := strings.TrimSpace(m)
			if n := utf8.RuneCountInString(phrase); n < minObligationLen || n > maxObligationLen {
				continue
			}
			obligations = append(obligations, model.Obligation{Text: phrase, Strength: p.strength})
		}
	}

	if len(obligations) > MaxObligations {
		obligations = obligations[:MaxObligations]
	}
	return obligations
}

func dedupeTerms(terms []model.KeyTerm, limit int) []model.KeyTerm {
	seen := make(map[string]bool)
	unique := make([]model.KeyTerm, 0)

	for _, t := range terms {
		if t.Value == "" || seen[t.Value] {
			continue
		}
		seen[t.Value] = true
		unique = append(unique, t)
		if len(unique) == limit {
			break
		}
	}

	return unique
}

func dedupeStrings(values []string, limit int) []string {
	seen := make(map[string]bool)
	unique := make([]string, 0)

	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
		if len(unique) == limit {
			break
		}
	}

	return unique
}

// capitalize upper-cases the first letter of each word
func capitalize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
