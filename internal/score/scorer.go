package score

import (
	"fmt"
	"unicode/utf8"

	"github.com/ppiankov/clauselens/internal/model"
)

// Weights holds the risk score constants
type Weights struct {
	Base             int
	High             int
	Medium           int
	Low              int
	ShortTextChars   int // Texts shorter than this get the penalty
	ShortTextPenalty int
	HighLevelAt      int
	MediumLevelAt    int
	Min              int
	Max              int
}

// DefaultWeights returns the built-in weights
func DefaultWeights() Weights {
	return WeightsFromConfig(model.DefaultConfig().Scoring)
}

// WeightsFromConfig converts the scoring config section
func WeightsFromConfig(cfg model.ScoringConfig) Weights {
	return Weights{
		Base:             cfg.Base,
		High:             cfg.HighWeight,
		Medium:           cfg.MediumWeight,
		Low:              cfg.LowWeight,
		ShortTextChars:   cfg.ShortTextChars,
		ShortTextPenalty: cfg.ShortTextPenalty,
		HighLevelAt:      cfg.HighLevelAt,
		MediumLevelAt:    cfg.MediumLevelAt,
		Min:              cfg.MinScore,
		Max:              cfg.MaxScore,
	}
}

// Breakdown shows how a score was computed
type Breakdown struct {
	Base        int    `json:"base"`
	HighCount   int    `json:"high_count"`
	MediumCount int    `json:"medium_count"`
	LowCount    int    `json:"low_count"`
	FlagPoints  int    `json:"flag_points"`
	ShortText   bool   `json:"short_text"`
	Penalty     int    `json:"penalty"`
	Raw         int    `json:"raw"`
	Score       int    `json:"score"`
	Formula     string `json:"formula"`
}

// Scorer converts detected flags into a bounded risk score
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights
func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score returns the clamped score and its risk level
func (s *Scorer) Score(flags []model.DetectedFlag, text string) model.RiskAssessment {
	b := s.Explain(flags, utf8.RuneCountInString(text))
	return model.RiskAssessment{
		Score: b.Score,
		Level: s.Level(b.Score),
	}
}

// Explain computes the score for a flag list and a text length in characters
func (s *Scorer) Explain(flags []model.DetectedFlag, chars int) Breakdown {
	w := s.weights
	b := Breakdown{Base: w.Base}

	for _, f := range flags {
		switch f.Severity {
		case model.SeverityHigh:
			b.HighCount++
		case model.SeverityMedium:
			b.MediumCount++
		case model.SeverityLow:
			b.LowCount++
		}
	}
	b.FlagPoints = b.HighCount*w.High + b.MediumCount*w.Medium + b.LowCount*w.Low

	if chars < w.ShortTextChars {
		b.ShortText = true
		b.Penalty = w.ShortTextPenalty
	}

	b.Raw = b.Base + b.FlagPoints + b.Penalty
	b.Score = s.clamp(b.Raw)
	b.Formula = fmt.Sprintf("clamp(%d + %d*%d + %d*%d + %d*%d + %d, %d, %d) = %d",
		w.Base, b.HighCount, w.High, b.MediumCount, w.Medium, b.LowCount, w.Low,
		b.Penalty, w.Min, w.Max, b.Score)

	return b
}

// Level buckets a score: high at or above HighLevelAt, medium at or above MediumLevelAt
func (s *Scorer) Level(score int) model.RiskLevel {
	switch {
	case score >= s.weights.HighLevelAt:
		return model.RiskHigh
	case score >= s.weights.MediumLevelAt:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

func (s *Scorer) clamp(v int) int {
	if v < s.weights.Min {
		return s.weights.Min
	}
	if v > s.weights.Max {
		return s.weights.Max
	}
	return v
}
