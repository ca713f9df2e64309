package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/model"
)

func TestDefault_Loads(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.GreaterOrEqual(t, len(c.RedFlags()), 30)
	assert.GreaterOrEqual(t, len(c.ClauseRules()), 30)
	assert.Len(t, c.Categories(), 10)
	assert.Equal(t, model.DocGeneral, c.General().Key)
	assert.Equal(t, "severability_missing", c.Severability().ID)
	assert.Equal(t, "severab", c.Severability().Token)
	assert.Equal(t, model.SeverityLow, c.Severability().Severity)
	assert.Same(t, c, Default(), "Default must be compiled once")
}

func TestDefault_CategoryOrder(t *testing.T) {
	want := []model.DocumentType{
		model.DocNDA, model.DocEmployment, model.DocFreelance, model.DocIndependentContractor,
		model.DocConsulting, model.DocSaaS, model.DocSoftwareLicense, model.DocLease,
		model.DocPartnership, model.DocNonCompete,
	}
	var got []model.DocumentType
	for _, cat := range Default().Categories() {
		got = append(got, cat.Key)
	}
	assert.Equal(t, want, got)
}

func TestDefault_UniqueIDs(t *testing.T) {
	c := Default()

	seen := map[string]bool{}
	for _, id := range c.FlagIDs() {
		assert.False(t, seen[id], "duplicate flag id %s", id)
		seen[id] = true
	}

	seen = map[string]bool{}
	for _, r := range c.ClauseRules() {
		assert.False(t, seen[r.ID], "duplicate clause id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestDefault_RulesAreComplete(t *testing.T) {
	c := Default()
	for _, r := range c.RedFlags() {
		assert.NotEmpty(t, r.Name, r.ID)
		assert.NotEmpty(t, r.Description, r.ID)
		assert.NotEmpty(t, r.PlainEnglish, r.ID)
		assert.NotEmpty(t, r.Patterns, r.ID)
		for _, p := range r.Patterns {
			assert.True(t, strings.HasPrefix(p.String(), "(?i)"), "%s pattern %s not case-insensitive", r.ID, p)
		}
	}

	colors := map[model.RiskColor]int{}
	for _, r := range c.ClauseRules() {
		assert.NotEmpty(t, r.Explanation, r.ID)
		colors[r.Color]++
	}
	assert.Positive(t, colors[model.ColorRed])
	assert.Positive(t, colors[model.ColorYellow])
	assert.Positive(t, colors[model.ColorGreen])
}

func TestDefault_PatternsMatchEmptyInput(t *testing.T) {
	// No pattern may match the empty string; such a rule would fire on every text.
	for _, r := range Default().RedFlags() {
		for _, p := range r.Patterns {
			assert.False(t, p.MatchString(""), "%s pattern %s matches empty text", r.ID, p)
		}
	}
	for _, r := range Default().ClauseRules() {
		for _, p := range r.Patterns {
			assert.False(t, p.MatchString(""), "%s pattern %s matches empty text", r.ID, p)
		}
	}
}

func TestDefault_TemplatesAndAdvice(t *testing.T) {
	c := Default()

	tmpl, ok := c.Template("unlimited_liability")
	require.True(t, ok)
	assert.Equal(t, model.MustNegotiate, tmpl.Priority)
	require.NotNil(t, tmpl.SuggestedLanguage)
	assert.NotEmpty(t, tmpl.LeveragePoints)

	tmpl, ok = c.Template("jury_trial_waiver")
	require.True(t, ok)
	assert.Nil(t, tmpl.SuggestedLanguage)

	_, ok = c.Template("sole_discretion")
	assert.False(t, ok)

	assert.NotEmpty(t, c.GenericTip())
	assert.Len(t, c.GenericLeveragePoints(), 2)

	adv, ok := c.Advice("non_compete")
	require.True(t, ok)
	assert.Equal(t, model.PriorityHigh, adv.Priority)

	_, ok = c.Advice("exclusive_venue")
	assert.False(t, ok)

	assert.Equal(t, model.PriorityLow, c.CleanAdvice().Priority)
	assert.Contains(t, c.GenericAdviceText("Exclusive Venue"), "Exclusive Venue")
}

func TestDefault_SampleMatches(t *testing.T) {
	c := Default()
	byID := map[string]RedFlagRule{}
	for _, r := range c.RedFlags() {
		byID[r.ID] = r
	}

	tests := []struct {
		id   string
		text string
	}{
		{"unlimited_liability", "Contractor shall be liable for all damages without limitation."},
		{"non_compete", "Employee agrees to a non-compete for two years."},
		{"auto_renewal", "This Agreement shall automatically renew for successive one-year terms."},
		{"mandatory_arbitration", "All disputes shall be resolved by binding arbitration."},
		{"extended_payment_terms", "Invoices are payable Net 90."},
		{"sole_discretion", "The Company may decide in its sole discretion."},
		{"jury_trial_waiver", "Each party hereby waives its right to a trial by jury."},
		{"broad_ip_assignment", "All deliverables shall be considered works made for hire."},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, ok := byID[tt.id]
			require.True(t, ok)
			matched := false
			for _, p := range r.Patterns {
				if p.MatchString(tt.text) {
					matched = true
					break
				}
			}
			assert.True(t, matched, "no pattern of %s matched %q", tt.id, tt.text)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	base := embeddedFiles(t)

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "bad severity",
			file:    RedFlagsFile,
			content: "standing:\n  severability: {id: sev, severity: low, token: severab}\nrules:\n  - {id: a, name: A, severity: severe, patterns: ['x']}\n",
			wantErr: "invalid severity",
		},
		{
			name:    "duplicate id",
			file:    RedFlagsFile,
			content: "standing:\n  severability: {id: sev, severity: low, token: severab}\nrules:\n  - {id: a, name: A, severity: low, patterns: ['x']}\n  - {id: a, name: A, severity: low, patterns: ['y']}\n",
			wantErr: "duplicate rule",
		},
		{
			name:    "bad regexp",
			file:    ClausesFile,
			content: "rules:\n  - {id: c, name: C, color: red, patterns: ['(unclosed']}\n",
			wantErr: "pattern 0",
		},
		{
			name:    "no patterns",
			file:    ClausesFile,
			content: "rules:\n  - {id: c, name: C, color: green}\n",
			wantErr: "no patterns",
		},
		{
			name:    "bad color",
			file:    ClausesFile,
			content: "rules:\n  - {id: c, name: C, color: blue, patterns: ['x']}\n",
			wantErr: "invalid color",
		},
		{
			name:    "missing general",
			file:    DocTypesFile,
			content: "categories:\n  - {key: nda, label: NDA, primary: 'nda'}\n",
			wantErr: "missing general",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for k, v := range base {
				fsys[k] = v
			}
			fsys[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}

			_, err := Load(fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for name, f := range embeddedFiles(t) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), f.Data, 0644))
	}

	c, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, len(Default().RedFlags()), len(c.RedFlags()))

	_, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func embeddedFiles(t *testing.T) fstest.MapFS {
	t.Helper()
	out := fstest.MapFS{}
	for _, name := range []string{RedFlagsFile, ClausesFile, DocTypesFile, NegotiationFile, RecommendationsFile} {
		data, err := embedded.ReadFile("data/" + name)
		require.NoError(t, err)
		out[name] = &fstest.MapFile{Data: data}
	}
	return out
}
