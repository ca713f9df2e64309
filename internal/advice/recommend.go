package advice

import (
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

// BuildRecommendations maps detected flags to remediation advice.
// With no flags it returns the single clean-contract recommendation.
func BuildRecommendations(catalog *rules.Catalog, flags []model.DetectedFlag) []model.Recommendation {
	if len(flags) == 0 {
		clean := catalog.CleanAdvice()
		return []model.Recommendation{{Priority: clean.Priority, Text: clean.Text}}
	}

	seen := make(map[string]bool, len(flags))
	recs := make([]model.Recommendation, 0, len(flags))

	for _, f := range flags {
		rec := model.Recommendation{FlagID: f.ID}
		if a, ok := catalog.Advice(f.ID); ok {
			rec.Priority = a.Priority
			rec.Text = a.Text
		} else {
			rec.Priority = model.PriorityMedium
			if f.Severity == model.SeverityHigh {
				rec.Priority = model.PriorityHigh
			}
			rec.Text = catalog.GenericAdviceText(f.Name)
		}

		if seen[rec.Text] {
			continue
		}
		seen[rec.Text] = true
		recs = append(recs, rec)
	}

	return recs
}
