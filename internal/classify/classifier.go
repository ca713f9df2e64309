package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

// Weights are the document-type scoring constants
type Weights struct {
	Primary           int
	Secondary         int
	ConfidenceDivisor float64
	GeneralConfidence float64
}

// DefaultWeights returns the built-in classifier weights
func DefaultWeights() Weights {
	return WeightsFromConfig(model.DefaultConfig().Classifier)
}

// WeightsFromConfig converts the classifier config section
func WeightsFromConfig(cfg model.ClassifierConfig) Weights {
	return Weights{
		Primary:           cfg.PrimaryPoints,
		Secondary:         cfg.SecondaryPoints,
		ConfidenceDivisor: cfg.ConfidenceDivisor,
		GeneralConfidence: cfg.GeneralConfidence,
	}
}

// Classifier guesses the document type from keyword indicators
type Classifier struct {
	catalog *rules.Catalog
	weights Weights
}

// NewClassifier creates a classifier over the given catalog
func NewClassifier(catalog *rules.Catalog, weights Weights) *Classifier {
	return &Classifier{catalog: catalog, weights: weights}
}

type categoryScore struct {
	cat   rules.Category
	score int
}

// Classify scores every category and returns the best guess
func (c *Classifier) Classify(text string) model.DocumentTypeResult {
	lower := strings.ToLower(text)

	scores := make([]categoryScore, 0, len(c.catalog.Categories()))
	for _, cat := range c.catalog.Categories() {
		s := 0
		if cat.Primary != nil && cat.Primary.MatchString(lower) {
			s += c.weights.Primary
		}
		if cat.Secondary != nil && cat.Secondary.MatchString(lower) {
			s += c.weights.Secondary
		}
		scores = append(scores, categoryScore{cat: cat, score: s})
	}

	// Stable: equal scores keep declaration order
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if len(scores) == 0 || scores[0].score == 0 {
		general := c.catalog.General()
		return model.DocumentTypeResult{
			Type:       general.Key,
			Label:      general.Label,
			Confidence: c.weights.GeneralConfidence,
		}
	}

	best := scores[0]
	confidence := 1.0
	if c.weights.ConfidenceDivisor > 0 {
		confidence = math.Min(float64(best.score)/c.weights.ConfidenceDivisor, 1.0)
	}

	return model.DocumentTypeResult{
		Type:       best.cat.Key,
		Label:      best.cat.Label,
		Confidence: confidence,
	}
}
