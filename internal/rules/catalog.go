package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauselens/internal/model"
)

//go:embed data/*.yaml
var embedded embed.FS

// Catalog file names, relative to the catalog root
const (
	RedFlagsFile        = "redflags.yaml"
	ClausesFile         = "clauses.yaml"
	DocTypesFile        = "doctypes.yaml"
	NegotiationFile     = "negotiation.yaml"
	RecommendationsFile = "recommendations.yaml"
)

// RedFlagRule is one red-flag pattern family
type RedFlagRule struct {
	ID           string
	Name         string
	Severity     model.Severity
	Patterns     []*regexp.Regexp // Alternatives, tried in order
	Description  string
	PlainEnglish string
}

// StandingRule fires when Token is absent from the text
type StandingRule struct {
	ID           string
	Name         string
	Severity     model.Severity
	Description  string
	PlainEnglish string
	Token        string // Lower-case substring
}

// ClauseRule annotates a single clause
type ClauseRule struct {
	ID          string
	Name        string
	Color       model.RiskColor
	Patterns    []*regexp.Regexp
	Explanation string
	Alternative string
}

// Category is a document type with its keyword indicators.
// Indicators are matched against lower-cased text; either may be nil.
type Category struct {
	Key       model.DocumentType
	Label     string
	Primary   *regexp.Regexp
	Secondary *regexp.Regexp
}

// NegotiationTemplate is the playbook entry for one flag ID
type NegotiationTemplate struct {
	Priority          model.NegotiationPriority
	SuggestedLanguage *string
	Tip               string
	LeveragePoints    []string
}

// Advice is a canned recommendation
type Advice struct {
	Priority model.RecommendationPriority
	Text     string
}

// Catalog holds every rule table, compiled and immutable after Load.
// Slices returned by accessors are shared and must not be modified.
type Catalog struct {
	redFlags     []RedFlagRule
	severability StandingRule
	clauseRules  []ClauseRule
	categories   []Category
	general      Category

	templates       map[string]NegotiationTemplate
	genericTip      string
	genericLeverage []string

	advice        map[string]Advice
	cleanAdvice   Advice
	genericAdvice string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog, compiled on first use.
// It panics if the embedded data is invalid, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			panic(fmt.Sprintf("rules: embedded catalog: %v", err))
		}
		c, err := Load(sub)
		if err != nil {
			panic(fmt.Sprintf("rules: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadDir loads a catalog from a directory containing the five catalog files
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("rules dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules dir: %s is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load decodes, validates and compiles a catalog from fsys
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		flags redFlagsDoc
		cls   clausesDoc
		docs  docTypesDoc
		neg   negotiationDoc
		recs  recommendationsDoc
	)

	files := []struct {
		name string
		dst  interface{}
	}{
		{RedFlagsFile, &flags},
		{ClausesFile, &cls},
		{DocTypesFile, &docs},
		{NegotiationFile, &neg},
		{RecommendationsFile, &recs},
	}
	for _, f := range files {
		if err := decodeFile(fsys, f.name, f.dst); err != nil {
			return nil, err
		}
	}

	c := &Catalog{}
	if err := c.compileRedFlags(flags); err != nil {
		return nil, fmt.Errorf("%s: %w", RedFlagsFile, err)
	}
	if err := c.compileClauses(cls); err != nil {
		return nil, fmt.Errorf("%s: %w", ClausesFile, err)
	}
	if err := c.compileCategories(docs); err != nil {
		return nil, fmt.Errorf("%s: %w", DocTypesFile, err)
	}
	if err := c.compileTemplates(neg); err != nil {
		return nil, fmt.Errorf("%s: %w", NegotiationFile, err)
	}
	if err := c.compileAdvice(recs); err != nil {
		return nil, fmt.Errorf("%s: %w", RecommendationsFile, err)
	}

	return c, nil
}

// RedFlags returns the red-flag rules in evaluation order
func (c *Catalog) RedFlags() []RedFlagRule { return c.redFlags }

// Severability returns the standing missing-severability rule
func (c *Catalog) Severability() StandingRule { return c.severability }

// ClauseRules returns the clause annotation rules
func (c *Catalog) ClauseRules() []ClauseRule { return c.clauseRules }

// Categories returns the document categories in tie-break order
func (c *Catalog) Categories() []Category { return c.categories }

// General returns the fallback category
func (c *Catalog) General() Category { return c.general }

// Template returns the negotiation template for a flag ID
func (c *Catalog) Template(flagID string) (NegotiationTemplate, bool) {
	t, ok := c.templates[flagID]
	return t, ok
}

// GenericTip returns the tip used when a flag has no template
func (c *Catalog) GenericTip() string { return c.genericTip }

// GenericLeveragePoints returns the leverage points used when a flag has no template
func (c *Catalog) GenericLeveragePoints() []string { return c.genericLeverage }

// Advice returns the canned recommendation for a flag ID
func (c *Catalog) Advice(flagID string) (Advice, bool) {
	a, ok := c.advice[flagID]
	return a, ok
}

// CleanAdvice returns the recommendation emitted when nothing was flagged
func (c *Catalog) CleanAdvice() Advice { return c.cleanAdvice }

// GenericAdviceText renders the fallback recommendation for a flag name
func (c *Catalog) GenericAdviceText(flagName string) string {
	return strings.ReplaceAll(c.genericAdvice, "{name}", flagName)
}

// FlagIDs returns every red-flag ID, including the standing rule, in catalog order
func (c *Catalog) FlagIDs() []string {
	ids := make([]string, 0, len(c.redFlags)+1)
	for _, r := range c.redFlags {
		ids = append(ids, r.ID)
	}
	return append(ids, c.severability.ID)
}

func decodeFile(fsys fs.FS, name string, dst interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// compilePatterns compiles case-insensitive alternatives
func compilePatterns(id string, patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("rule %q: no patterns", id)
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return nil, fmt.Errorf("rule %q: pattern %d is empty", id, i)
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("rule %q: pattern %d: %w", id, i, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (c *Catalog) compileRedFlags(doc redFlagsDoc) error {
	seen := make(map[string]bool)
	for _, r := range doc.Rules {
		if r.ID == "" {
			return fmt.Errorf("rule without id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule %q", r.ID)
		}
		seen[r.ID] = true

		sev := model.Severity(r.Severity)
		if !sev.Valid() {
			return fmt.Errorf("rule %q: invalid severity %q", r.ID, r.Severity)
		}
		patterns, err := compilePatterns(r.ID, r.Patterns)
		if err != nil {
			return err
		}
		c.redFlags = append(c.redFlags, RedFlagRule{
			ID:           r.ID,
			Name:         r.Name,
			Severity:     sev,
			Patterns:     patterns,
			Description:  r.Description,
			PlainEnglish: r.PlainEnglish,
		})
	}

	s := doc.Standing.Severability
	if s.ID == "" || s.Token == "" {
		return fmt.Errorf("standing severability rule needs id and token")
	}
	if seen[s.ID] {
		return fmt.Errorf("standing rule %q collides with a catalog rule", s.ID)
	}
	sev := model.Severity(s.Severity)
	if !sev.Valid() {
		return fmt.Errorf("standing rule %q: invalid severity %q", s.ID, s.Severity)
	}
	c.severability = StandingRule{
		ID:           s.ID,
		Name:         s.Name,
		Severity:     sev,
		Description:  s.Description,
		PlainEnglish: s.PlainEnglish,
		Token:        strings.ToLower(s.Token),
	}
	return nil
}

func (c *Catalog) compileClauses(doc clausesDoc) error {
	seen := make(map[string]bool)
	for _, r := range doc.Rules {
		if r.ID == "" {
			return fmt.Errorf("rule without id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule %q", r.ID)
		}
		seen[r.ID] = true

		color := model.RiskColor(r.Color)
		if !color.Valid() {
			return fmt.Errorf("rule %q: invalid color %q", r.ID, r.Color)
		}
		patterns, err := compilePatterns(r.ID, r.Patterns)
		if err != nil {
			return err
		}
		c.clauseRules = append(c.clauseRules, ClauseRule{
			ID:          r.ID,
			Name:        r.Name,
			Color:       color,
			Patterns:    patterns,
			Explanation: r.Explanation,
			Alternative: r.Alternative,
		})
	}
	return nil
}

func (c *Catalog) compileCategories(doc docTypesDoc) error {
	seen := make(map[string]bool)
	for _, d := range doc.Categories {
		if d.Key == "" {
			return fmt.Errorf("category without key")
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate category %q", d.Key)
		}
		seen[d.Key] = true

		cat := Category{Key: model.DocumentType(d.Key), Label: d.Label}
		var err error
		if cat.Primary, err = compileIndicator(d.Primary); err != nil {
			return fmt.Errorf("category %q primary: %w", d.Key, err)
		}
		if cat.Secondary, err = compileIndicator(d.Secondary); err != nil {
			return fmt.Errorf("category %q secondary: %w", d.Key, err)
		}
		c.categories = append(c.categories, cat)
	}

	if doc.General.Key == "" {
		return fmt.Errorf("missing general category")
	}
	if seen[doc.General.Key] {
		return fmt.Errorf("general category %q duplicates a scored category", doc.General.Key)
	}
	c.general = Category{Key: model.DocumentType(doc.General.Key), Label: doc.General.Label}
	return nil
}

func compileIndicator(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func (c *Catalog) compileTemplates(doc negotiationDoc) error {
	known := c.knownFlags()
	c.templates = make(map[string]NegotiationTemplate, len(doc.Templates))
	for id, t := range doc.Templates {
		if !known[id] {
			return fmt.Errorf("template for unknown flag %q", id)
		}
		p := model.NegotiationPriority(t.Priority)
		if !p.Valid() {
			return fmt.Errorf("template %q: invalid priority %q", id, t.Priority)
		}
		tmpl := NegotiationTemplate{
			Priority:       p,
			Tip:            t.Tip,
			LeveragePoints: t.LeveragePoints,
		}
		if t.SuggestedLanguage != "" {
			lang := t.SuggestedLanguage
			tmpl.SuggestedLanguage = &lang
		}
		c.templates[id] = tmpl
	}
	c.genericTip = doc.Generic.Tip
	c.genericLeverage = doc.Generic.LeveragePoints
	return nil
}

func (c *Catalog) compileAdvice(doc recommendationsDoc) error {
	known := c.knownFlags()
	c.advice = make(map[string]Advice, len(doc.Recommendations))
	for id, r := range doc.Recommendations {
		if !known[id] {
			return fmt.Errorf("recommendation for unknown flag %q", id)
		}
		p := model.RecommendationPriority(r.Priority)
		if !validAdvicePriority(p) {
			return fmt.Errorf("recommendation %q: invalid priority %q", id, r.Priority)
		}
		if r.Text == "" {
			return fmt.Errorf("recommendation %q: empty text", id)
		}
		c.advice[id] = Advice{Priority: p, Text: r.Text}
	}

	if doc.Clean.Text == "" {
		return fmt.Errorf("missing clean recommendation")
	}
	c.cleanAdvice = Advice{Priority: model.RecommendationPriority(doc.Clean.Priority), Text: doc.Clean.Text}
	if !validAdvicePriority(c.cleanAdvice.Priority) {
		return fmt.Errorf("clean recommendation: invalid priority %q", doc.Clean.Priority)
	}
	c.genericAdvice = doc.Generic
	if c.genericAdvice == "" {
		c.genericAdvice = "Review the {name} provision carefully before signing."
	}
	return nil
}

func (c *Catalog) knownFlags() map[string]bool {
	known := make(map[string]bool, len(c.redFlags)+1)
	for _, id := range c.FlagIDs() {
		known[id] = true
	}
	return known
}

func validAdvicePriority(p model.RecommendationPriority) bool {
	switch p {
	case model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return true
	}
	return false
}
