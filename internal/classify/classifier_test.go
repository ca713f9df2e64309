package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

func newTestClassifier() *Classifier {
	return NewClassifier(rules.Default(), DefaultWeights())
}

func TestClassify_NDAFullConfidence(t *testing.T) {
	text := "This Non-Disclosure Agreement covers all Confidential Information shared between the parties."

	got := newTestClassifier().Classify(text)

	assert.Equal(t, model.DocNDA, got.Type)
	assert.Equal(t, "Non-Disclosure Agreement", got.Label)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestClassify_PrimaryOnly(t *testing.T) {
	got := newTestClassifier().Classify("This Lease Agreement is made today.")

	assert.Equal(t, model.DocLease, got.Type)
	assert.InDelta(t, 10.0/15.0, got.Confidence, 1e-9)
}

func TestClassify_SecondaryOnly(t *testing.T) {
	got := newTestClassifier().Classify("The landlord keeps the keys.")

	assert.Equal(t, model.DocLease, got.Type)
	assert.InDelta(t, 5.0/15.0, got.Confidence, 1e-9)
}

func TestClassify_General(t *testing.T) {
	for _, text := range []string{"", "Hello world.", "   \n\t"} {
		got := newTestClassifier().Classify(text)
		assert.Equal(t, model.DocGeneral, got.Type, "text %q", text)
		assert.Equal(t, 0.3, got.Confidence)
	}
}

func TestClassify_TieGoesToFirstCategory(t *testing.T) {
	// nda and lease secondaries both fire for 5 points; nda is declared first.
	got := newTestClassifier().Classify("The receiving party may visit the premises.")

	assert.Equal(t, model.DocNDA, got.Type)
}

func TestClassify_HigherScoreWins(t *testing.T) {
	// lease: primary + secondary = 15, nda: secondary only = 5
	text := "This Rental Agreement lets the Tenant use the premises. Confidential information stays private."

	got := newTestClassifier().Classify(text)

	assert.Equal(t, model.DocLease, got.Type)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestClassify_CustomWeights(t *testing.T) {
	c := NewClassifier(rules.Default(), Weights{Primary: 4, Secondary: 2, ConfidenceDivisor: 8, GeneralConfidence: 0.1})

	got := c.Classify("This Lease Agreement is made today.")
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)

	got = c.Classify("nothing to see")
	assert.Equal(t, 0.1, got.Confidence)
}
