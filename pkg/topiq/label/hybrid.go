package label

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/topiq/pkg/topiq/terms"
)

// Hybrid computes the term-based result first and, when a generative
// model is available, asks it for a lighter line-oriented refinement.
// Any enhancement failure returns the term-based result tagged
// MethodHybridFallback.
type Hybrid struct {
	Gen Generator

	term TermBased
}

// GenerateLabel blends the term-based and generative results.
func (s *Hybrid) GenerateLabel(ctx context.Context, in Input) Result {
	base := s.term.GenerateLabel(ctx, in)

	if s.Gen == nil {
		base.Method = MethodHybridFallback
		return base
	}

	raw, err := s.Gen.Generate(ctx, Request{
		Prompt:      s.prompt(base, in),
		MaxTokens:   150,
		Temperature: 0.3,
	})
	if err != nil {
		base.Method = MethodHybridFallback
		return base
	}

	lbl, description, themes, found := parseLineReply(raw)

	enhConfidence := 0.3
	if found {
		enhConfidence = 0.7
	}

	out := base
	out.Method = string(MethodHybrid)
	out.Confidence = (base.Confidence + enhConfidence) / 2.0
	if found {
		out.Label = sanitizeLabel(lbl)
	}
	if description != "" {
		out.Description = description
	}
	if len(themes) > 0 {
		out.Themes = themes
	}
	return out
}

func (s *Hybrid) prompt(base Result, in Input) string {
	var b strings.Builder
	b.WriteString("Improve this topic label if you can. Reply with plain lines:\n")
	b.WriteString("Label: <short label>\nDescription: <one sentence>\nThemes: <comma-separated>\n\n")
	fmt.Fprintf(&b, "Current label: %s\n", base.Label)

	top := in.Terms
	if len(top) > 8 {
		top = top[:8]
	}
	fmt.Fprintf(&b, "Terms: %s\n", strings.Join(terms.Texts(top), ", "))

	if len(in.Documents) > 0 {
		fmt.Fprintf(&b, "Sample: %s\n", truncate(in.Documents[0], 200))
	}
	return b.String()
}

// parseLineReply scans for Label:/Description:/Themes: lines; found
// reports whether a non-empty label line was present.
func parseLineReply(raw string) (lbl, description string, themes []string, found bool) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case hasFold(line, "Label:"):
			if v := strings.TrimSpace(line[len("Label:"):]); v != "" {
				lbl = v
				found = true
			}
		case hasFold(line, "Description:"):
			description = strings.TrimSpace(line[len("Description:"):])
		case hasFold(line, "Themes:"):
			for _, theme := range strings.Split(line[len("Themes:"):], ",") {
				if theme = strings.TrimSpace(theme); theme != "" {
					themes = append(themes, theme)
				}
			}
		}
	}
	return lbl, description, themes, found
}

func hasFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
