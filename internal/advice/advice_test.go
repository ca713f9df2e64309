package advice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

func flag(id, name string, sev model.Severity) model.DetectedFlag {
	return model.DetectedFlag{
		ID:           id,
		Name:         name,
		Severity:     sev,
		Description:  name + " description",
		PlainEnglish: name + " in plain words",
		Context:      "…context for " + id + "…",
	}
}

func TestBuildRecommendations_Clean(t *testing.T) {
	recs := BuildRecommendations(rules.Default(), nil)

	require.Len(t, recs, 1)
	assert.Equal(t, model.PriorityLow, recs[0].Priority)
	assert.Contains(t, recs[0].Text, "relatively clean")
	assert.Empty(t, recs[0].FlagID)
}

func TestBuildRecommendations_CannedAndGeneric(t *testing.T) {
	flags := []model.DetectedFlag{
		flag("non_compete", "Non-Compete Clause", model.SeverityHigh),
		flag("exclusive_venue", "Exclusive Venue", model.SeverityLow),
		flag("made_up_high", "Made Up", model.SeverityHigh),
	}

	recs := BuildRecommendations(rules.Default(), flags)

	require.Len(t, recs, 3)
	want, _ := rules.Default().Advice("non_compete")
	assert.Equal(t, model.Recommendation{Priority: model.PriorityHigh, FlagID: "non_compete", Text: want.Text}, recs[0])

	assert.Equal(t, model.PriorityMedium, recs[1].Priority, "low severity falls back to medium")
	assert.Contains(t, recs[1].Text, "Exclusive Venue")

	assert.Equal(t, model.PriorityHigh, recs[2].Priority)
	assert.Contains(t, recs[2].Text, "Made Up")
}

func TestBuildRecommendations_DedupeByText(t *testing.T) {
	flags := []model.DetectedFlag{
		flag("unknown_a", "Same Name", model.SeverityMedium),
		flag("unknown_b", "Same Name", model.SeverityHigh),
		flag("auto_renewal", "Automatic Renewal", model.SeverityMedium),
	}

	recs := BuildRecommendations(rules.Default(), flags)

	require.Len(t, recs, 2)
	assert.Equal(t, "unknown_a", recs[0].FlagID, "first occurrence wins")
	assert.Equal(t, model.PriorityMedium, recs[0].Priority)
	assert.Equal(t, "auto_renewal", recs[1].FlagID)
}

func TestBuildPlaybook_TemplateAndGeneric(t *testing.T) {
	flags := []model.DetectedFlag{
		flag("sole_discretion", "Sole Discretion", model.SeverityLow),
		flag("auto_renewal", "Automatic Renewal", model.SeverityMedium),
		flag("unlimited_liability", "Unlimited Liability", model.SeverityHigh),
		flag("jury_trial_waiver", "Jury Trial Waiver", model.SeverityHigh),
		flag("injunction_without_bond", "Injunctive Relief Without Bond", model.SeverityLow),
	}

	pb := BuildPlaybook(rules.Default(), flags)

	var order []string
	for _, s := range pb.Suggestions {
		order = append(order, s.FlagID)
	}
	// jury_trial_waiver has a should-negotiate template; ties keep detection order
	assert.Equal(t, []string{
		"unlimited_liability",
		"auto_renewal", "jury_trial_waiver",
		"sole_discretion", "injunction_without_bond",
	}, order)

	assert.Equal(t, model.PlaybookSummary{Total: 5, MustNegotiate: 1, ShouldNegotiate: 2, NiceToHave: 2}, pb.Summary)

	ul := pb.Suggestions[0]
	assert.Equal(t, model.MustNegotiate, ul.Priority)
	assert.Equal(t, "…context for unlimited_liability…", ul.ProblematicClause)
	assert.Equal(t, "Unlimited Liability in plain words", ul.WhyRisky)
	require.NotNil(t, ul.SuggestedLanguage)
	assert.NotEmpty(t, ul.LeveragePoints)

	generic := pb.Suggestions[3]
	assert.Equal(t, "sole_discretion", generic.FlagID)
	assert.Equal(t, model.NiceToHave, generic.Priority)
	assert.Nil(t, generic.SuggestedLanguage)
	assert.Equal(t, rules.Default().GenericTip(), generic.NegotiationTip)
	assert.Len(t, generic.LeveragePoints, 2)
}

func TestBuildPlaybook_GenericPriorityBySeverity(t *testing.T) {
	flags := []model.DetectedFlag{
		flag("x_low", "X", model.SeverityLow),
		flag("x_med", "Y", model.SeverityMedium),
		flag("x_high", "Z", model.SeverityHigh),
	}

	pb := BuildPlaybook(rules.Default(), flags)

	require.Len(t, pb.Suggestions, 3)
	assert.Equal(t, model.MustNegotiate, pb.Suggestions[0].Priority)
	assert.Equal(t, model.ShouldNegotiate, pb.Suggestions[1].Priority)
	assert.Equal(t, model.NiceToHave, pb.Suggestions[2].Priority)
}

func TestBuildPlaybook_WhyRiskyFallsBackToDescription(t *testing.T) {
	f := flag("x", "X", model.SeverityLow)
	f.PlainEnglish = ""

	pb := BuildPlaybook(rules.Default(), []model.DetectedFlag{f})

	assert.Equal(t, "X description", pb.Suggestions[0].WhyRisky)
}

func TestBuildPlaybook_Empty(t *testing.T) {
	pb := BuildPlaybook(rules.Default(), nil)

	assert.NotNil(t, pb.Suggestions)
	assert.Empty(t, pb.Suggestions)
	assert.Equal(t, model.PlaybookSummary{}, pb.Summary)
}

func TestBuildPlaybook_DoesNotShareCatalogSlices(t *testing.T) {
	pb := BuildPlaybook(rules.Default(), []model.DetectedFlag{flag("x", "X", model.SeverityLow)})
	pb.Suggestions[0].LeveragePoints[0] = "mutated"

	assert.NotEqual(t, "mutated", rules.Default().GenericLeveragePoints()[0])
}
