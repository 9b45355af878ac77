package label

import (
	"context"
	"strings"

	"github.com/cognicore/topiq/pkg/topiq/terms"
)

// TermBased labels a topic from its distinctive terms alone. It is
// the cheapest strategy and the fallback target for the others.
type TermBased struct{}

// GenerateLabel joins the leading long-enough terms into a label.
func (s *TermBased) GenerateLabel(_ context.Context, in Input) Result {
	if len(in.Terms) == 0 {
		return Result{
			Label:       "Empty Topic",
			Description: "No distinctive terms were found for this topic",
			Confidence:  0.0,
			Method:      string(MethodTermBased),
			Themes:      []string{},
		}
	}

	// Up to the top 3 terms longer than 3 characters qualify for the
	// label; short tokens like "ai" stay in the description only.
	var qualifying []string
	for _, t := range in.Terms {
		if len([]rune(t.Text)) > 3 {
			qualifying = append(qualifying, t.Text)
			if len(qualifying) == 3 {
				break
			}
		}
	}

	var lbl string
	switch {
	case len(qualifying) >= 2:
		lbl = capitalize(qualifying[0]) + " & " + capitalize(qualifying[1])
	case len(qualifying) == 1:
		lbl = capitalize(qualifying[0])
	default:
		lbl = capitalize(in.Terms[0].Text)
	}

	top5 := in.Terms
	if len(top5) > 5 {
		top5 = top5[:5]
	}
	description := "Topic characterized by: " + strings.Join(terms.Texts(top5), ", ")

	confidence := 0.0
	if terms.HasScores(in.Terms) {
		var sum float64
		for _, t := range top5 {
			sum += t.Score
		}
		confidence = sum / float64(len(top5))
	} else {
		confidence = float64(len(in.Terms)) / 20.0
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.0 {
		confidence = 0.0
	}

	themes := terms.Texts(in.Terms)
	if len(themes) > 3 {
		themes = themes[:3]
	}

	return Result{
		Label:       lbl,
		Description: description,
		Confidence:  confidence,
		Method:      string(MethodTermBased),
		Themes:      themes,
	}
}
