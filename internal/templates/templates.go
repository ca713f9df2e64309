// Package templates serves the embedded library of sample contracts.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauselens/internal/model"
)

//go:embed data/templates.yaml
var embedded []byte

// ErrNotFound is returned for an unknown template ID
var ErrNotFound = errors.New("template not found")

// Template is a sample contract
type Template struct {
	ID             string          `yaml:"id" json:"id"`
	Title          string          `yaml:"title" json:"title"`
	Category       string          `yaml:"category" json:"category"`
	Description    string          `yaml:"description" json:"description"`
	RiskLevel      model.RiskLevel `yaml:"risk_level" json:"risk_level"`
	CommonRedFlags []string        `yaml:"common_red_flags" json:"common_red_flags"`
	Text           string          `yaml:"text" json:"text"`
}

// Summary is a template without its text, for listings
type Summary struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	RiskLevel      model.RiskLevel `json:"risk_level"`
	CommonRedFlags []string        `json:"common_red_flags"`
}

// Summary drops the contract text
func (t Template) Summary() Summary {
	return Summary{
		ID:             t.ID,
		Title:          t.Title,
		Category:       t.Category,
		Description:    t.Description,
		RiskLevel:      t.RiskLevel,
		CommonRedFlags: t.CommonRedFlags,
	}
}

// Library is an immutable, ordered set of templates
type Library struct {
	templates []Template
	byID      map[string]int
}

var (
	defaultOnce    sync.Once
	defaultLibrary *Library
)

// Default returns the embedded library.
// It panics if the embedded data is invalid, which the package tests rule out.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := Load(embedded)
		if err != nil {
			panic(fmt.Sprintf("templates: embedded library: %v", err))
		}
		defaultLibrary = lib
	})
	return defaultLibrary
}

// Load decodes a YAML template library
func Load(data []byte) (*Library, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	lib := &Library{byID: make(map[string]int, len(doc.Templates))}
	for i, t := range doc.Templates {
		if t.ID == "" || t.Title == "" || t.Text == "" {
			return nil, fmt.Errorf("template %d: id, title and text are required", i)
		}
		switch t.RiskLevel {
		case model.RiskLow, model.RiskMedium, model.RiskHigh:
		default:
			return nil, fmt.Errorf("template %s: invalid risk level %q", t.ID, t.RiskLevel)
		}
		if _, dup := lib.byID[t.ID]; dup {
			return nil, fmt.Errorf("template %s: duplicate id", t.ID)
		}
		lib.byID[t.ID] = len(lib.templates)
		lib.templates = append(lib.templates, t)
	}
	return lib, nil
}

// List returns every template in library order. category filters when non-empty.
func (l *Library) List(category string) []Summary {
	out := make([]Summary, 0, len(l.templates))
	for _, t := range l.templates {
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t.Summary())
	}
	return out
}

// Categories returns the distinct categories, sorted
func (l *Library) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range l.templates {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Get returns a template by ID
func (l *Library) Get(id string) (Template, error) {
	i, ok := l.byID[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.templates[i], nil
}

// Len returns the number of templates
func (l *Library) Len() int { return len(l.templates) }
