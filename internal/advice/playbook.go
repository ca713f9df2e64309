package advice

import (
	"sort"

	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/rules"
)

// BuildPlaybook turns detected flags into prioritized negotiation suggestions
func BuildPlaybook(catalog *rules.Catalog, flags []model.DetectedFlag) model.Playbook {
	suggestions := make([]model.NegotiationSuggestion, 0, len(flags))

	for _, f := range flags {
		s := model.NegotiationSuggestion{
			FlagID:            f.ID,
			FlagName:          f.Name,
			Severity:          f.Severity,
			ProblematicClause: f.Context,
			WhyRisky:          f.PlainEnglish,
		}
		if s.WhyRisky == "" {
			s.WhyRisky = f.Description
		}

		if t, ok := catalog.Template(f.ID); ok {
			s.Priority = t.Priority
			s.SuggestedLanguage = t.SuggestedLanguage
			s.NegotiationTip = t.Tip
			s.LeveragePoints = append([]string(nil), t.LeveragePoints...)
		} else {
			s.Priority = priorityFor(f.Severity)
			s.NegotiationTip = catalog.GenericTip()
			s.LeveragePoints = append([]string(nil), catalog.GenericLeveragePoints()...)
		}
		if s.LeveragePoints == nil {
			s.LeveragePoints = []string{}
		}

		suggestions = append(suggestions, s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.Rank() < suggestions[j].Priority.Rank()
	})

	pb := model.Playbook{Suggestions: suggestions}
	pb.Summary.Total = len(suggestions)
	for _, s := range suggestions {
		switch s.Priority {
		case model.MustNegotiate:
			pb.Summary.MustNegotiate++
		case model.ShouldNegotiate:
			pb.Summary.ShouldNegotiate++
		case model.NiceToHave:
			pb.Summary.NiceToHave++
		}
	}

	return pb
}

func priorityFor(sev model.Severity) model.NegotiationPriority {
	switch sev {
	case model.SeverityHigh:
		return model.MustNegotiate
	case model.SeverityMedium:
		return model.ShouldNegotiate
	default:
		return model.NiceToHave
	}
}
