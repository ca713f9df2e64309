package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
	"github.com/ppiankov/clauselens/internal/score"
)

const filler = "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore et dolore magna aliqua. "

const sampleContract = `FREELANCE SERVICES AGREEMENT

This Agreement is made between Acme Studio LLC ("Client") and Jordan Lee ("Contractor") on January 15, 2025.

1. Services. Contractor shall deliver the website design described in Exhibit A.
2. Payment. Client shall pay $4,500 per project, payable Net 60 after approval. Late payments accrue interest at 1.5% per month.
3. Intellectual Property. All work product shall be considered works made for hire and the sole and exclusive property of Client.
4. Liability. Contractor shall indemnify and hold harmless Client from any and all claims.
5. Term. This agreement will automatically renew for successive 12 months terms unless cancelled with 60 days prior written notice.
6. Governing Law. This Agreement is governed by the laws of the State of California.
7. Disputes. All disputes shall be resolved by binding arbitration.
`

func flagIDs(flags []model.DetectedFlag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, f.ID)
	}
	return out
}

func refIDs(refs []model.FlagRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func TestAnalyze_ShortClean(t *testing.T) {
	res := Analyze("This is a short test agreement between two parties.")

	assert.Equal(t, []string{"severability_missing"}, flagIDs(res.Flags))
	assert.Equal(t, model.SeverityLow, res.Flags[0].Severity)
	// base 20 + low 3 + short-text 10
	assert.Equal(t, 33, res.RiskScore)
	assert.Equal(t, model.RiskLow, res.RiskLevel)
	assert.Equal(t, model.DocGeneral, res.DocumentType.Type)
	assert.Equal(t, 9, res.WordCount)
	assert.Equal(t, 51, res.CharCount)
}

func TestAnalyze_UnlimitedLiabilityLongText(t *testing.T) {
	text := strings.Repeat(filler, 3) +
		"The Vendor shall be liable for all damages without limitation. " +
		strings.Repeat(filler, 2)
	require.Greater(t, len(text), 500)

	res := Analyze(text)

	assert.Equal(t, []string{"unlimited_liability", "severability_missing"}, flagIDs(res.Flags))
	assert.Equal(t, 35, res.RiskScore)
	assert.Equal(t, model.RiskLow, res.RiskLevel)
}

func TestAnalyze_NDAClassification(t *testing.T) {
	res := Analyze("This non-disclosure agreement protects confidential information.")

	assert.Equal(t, model.DocNDA, res.DocumentType.Type)
	assert.InDelta(t, 1.0, res.DocumentType.Confidence, 1e-9)
}

func TestAnalyze_NumberedClauses(t *testing.T) {
	text := "1. Term of this agreement is twelve months\n" +
		"2. Payment is due within thirty days of invoice\n" +
		"3. Either party may end this agreement in writing\n"

	res := Analyze(text)

	require.Len(t, res.Clauses, 3)
	assert.Equal(t, "Term of this agreement is twelve months", res.Clauses[0].Title)
	assert.Equal(t, "Payment is due within thirty days of invoice", res.Clauses[1].Title)
	assert.Equal(t, "Either party may end this agreement in writing", res.Clauses[2].Title)
}

func TestCompare_NonCompeteOnlyInSecond(t *testing.T) {
	a := "The parties will cooperate in good faith on the project."
	b := "The parties will cooperate in good faith. Employee accepts a non-compete."

	res := Compare(a, b)

	assert.Empty(t, res.FlagsOnlyInFirst)
	assert.Equal(t, []string{"non_compete"}, refIDs(res.FlagsOnlyInSecond))
	assert.Equal(t, []string{"severability_missing"}, refIDs(res.FlagsInBoth))
	assert.Equal(t, 12, res.RiskDelta)
	assert.Equal(t, model.SideFirst, res.Safer)
	assert.Contains(t, res.Summary[0], "first contract is lower risk")
	assert.Contains(t, res.Summary[1], "Only the second contract has: Non-Compete Clause")
}

func TestCompare_TieFavorsFirst(t *testing.T) {
	res := Compare("same text here", "same text here")

	assert.Equal(t, 0, res.RiskDelta)
	assert.Equal(t, model.SideFirst, res.Safer)
	assert.Equal(t, []string{"Both contracts carry similar risk (score 33)."}, res.Summary)
}

func TestCompare_SecondSafer(t *testing.T) {
	res := Compare(sampleContract, "A plain note about severability.")

	assert.Equal(t, model.SideSecond, res.Safer)
	assert.Negative(t, res.RiskDelta)
	assert.Contains(t, res.Summary[0], "second contract is lower risk")
	assert.Contains(t, res.Summary[len(res.Summary)-1], "different document types")
}

func TestCompare_Symmetry(t *testing.T) {
	texts := []string{
		"",
		"short",
		sampleContract,
		"Employee accepts a non-compete and binding arbitration. Severability applies.",
		strings.Repeat(filler, 6) + "unlimited liability",
	}

	for _, a := range texts {
		for _, b := range texts {
			ab := Compare(a, b)
			ba := Compare(b, a)
			if diff := cmp.Diff(ab.FlagsOnlyInFirst, ba.FlagsOnlyInSecond); diff != "" {
				t.Errorf("asymmetric partition (-ab +ba):\n%s", diff)
			}
			assert.ElementsMatch(t, refIDs(ab.FlagsInBoth), refIDs(ba.FlagsInBoth))
			assert.Equal(t, ab.RiskDelta, -ba.RiskDelta)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	for _, text := range []string{"", sampleContract, strings.Repeat(filler, 20)} {
		first := Analyze(text)
		second := Analyze(text)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("analysis not deterministic (-first +second):\n%s", diff)
		}

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
}

func TestAnalyze_Properties(t *testing.T) {
	texts := []string{
		"",
		" ",
		"\n\n\n",
		"\x00\xff",
		sampleContract,
		strings.Repeat("1. x\n", 200),
		strings.Repeat(filler, 50),
		strings.Repeat("unlimited liability non-compete binding arbitration personal guarantee ", 30),
	}

	catalog := rules.Default()
	for _, text := range texts {
		res := Analyze(text)

		assert.GreaterOrEqual(t, res.RiskScore, 5)
		assert.LessOrEqual(t, res.RiskScore, 100)

		stats := res.ClauseStats
		assert.Equal(t, len(res.Clauses), stats.Safe+stats.Caution+stats.Danger)
		assert.GreaterOrEqual(t, len(res.Clauses), 1)

		for i := 1; i < len(res.Flags); i++ {
			assert.LessOrEqual(t, res.Flags[i-1].Severity.Rank(), res.Flags[i].Severity.Rank())
		}

		// Every rule whose first alternative matches appears exactly once
		counts := map[string]int{}
		for _, f := range res.Flags {
			counts[f.ID]++
		}
		for _, r := range catalog.RedFlags() {
			if r.Patterns[0].MatchString(text) {
				assert.Equal(t, 1, counts[r.ID], "rule %s", r.ID)
			}
		}
		for id, n := range counts {
			assert.Equal(t, 1, n, "flag %s repeated", id)
		}

		assert.LessOrEqual(t, len(res.KeyTerms), 20)
		assert.LessOrEqual(t, len(res.Dates), 10)
		assert.LessOrEqual(t, len(res.Parties), 6)
		assert.LessOrEqual(t, len(res.Obligations), 20)
		assert.NotEmpty(t, res.Recommendations)
	}
}

func TestAnalyze_SampleContract(t *testing.T) {
	res := Analyze(sampleContract)

	assert.Equal(t, model.DocFreelance, res.DocumentType.Type)
	assert.Equal(t, []string{"Acme Studio LLC", "Jordan Lee"}, res.Parties)
	assert.Contains(t, res.Dates, "January 15, 2025")

	ids := flagIDs(res.Flags)
	for _, want := range []string{"broad_indemnification", "broad_ip_assignment", "auto_renewal", "extended_payment_terms", "late_payment_penalty", "severability_missing"} {
		assert.Contains(t, ids, want)
	}
	assert.Equal(t, model.SeverityHigh, res.Flags[0].Severity)

	assert.Equal(t, model.RiskHigh, res.RiskLevel)
	assert.Equal(t, res.Negotiation.Summary.Total, len(res.Flags))
	assert.Equal(t, model.MustNegotiate, res.Negotiation.Suggestions[0].Priority)
	assert.Greater(t, res.ClauseStats.Danger, 0)
}

func TestNew_CustomWeights(t *testing.T) {
	w := score.DefaultWeights()
	w.Low = 0
	w.ShortTextPenalty = 0
	e := New(Options{Scoring: &w})

	res := e.Analyze("This is a short test agreement between two parties.")

	assert.Equal(t, 20, res.RiskScore)
}

func TestFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Scoring.Base = 50
	e := FromConfig(cfg, nil)

	res := e.Analyze("This is a short test agreement between two parties.")

	assert.Equal(t, 63, res.RiskScore)
	assert.Equal(t, model.RiskMedium, res.RiskLevel)
	assert.Same(t, rules.Default(), e.Catalog())
}
