package label

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cognicore/topiq/pkg/topiq/terms"
)

// Generative asks a generative model for a structured label and
// falls back to TermBased when the model is absent or misbehaves.
type Generative struct {
	Gen Generator

	// MaxDocChars truncates each sample document in the prompt.
	// Zero means the 200-character default.
	MaxDocChars int

	fallback TermBased
}

type generativeReply struct {
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Themes      []string `json:"themes"`
	Confidence  float64  `json:"confidence"`
}

// GenerateLabel prompts the model with sample documents and terms.
func (s *Generative) GenerateLabel(ctx context.Context, in Input) Result {
	if s.Gen == nil {
		return s.fallback.GenerateLabel(ctx, in)
	}

	raw, err := s.Gen.Generate(ctx, Request{
		Prompt:       s.prompt(in),
		MaxTokens:    300,
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		return s.fallback.GenerateLabel(ctx, in)
	}

	reply, err := parseGenerativeReply(raw)
	if err != nil || strings.TrimSpace(reply.Label) == "" {
		return s.fallback.GenerateLabel(ctx, in)
	}

	confidence := reply.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.7
	}
	themes := reply.Themes
	if themes == nil {
		themes = []string{}
	}

	return Result{
		Label:       sanitizeLabel(reply.Label),
		Description: strings.TrimSpace(reply.Description),
		Confidence:  confidence,
		Method:      string(MethodLLMBased),
		Themes:      themes,
	}
}

func (s *Generative) prompt(in Input) string {
	maxChars := s.MaxDocChars
	if maxChars <= 0 {
		maxChars = 200
	}

	var b strings.Builder
	b.WriteString("You label document clusters. Given sample documents and distinctive terms, ")
	b.WriteString("reply with JSON {\"label\": string, \"description\": string, \"themes\": [string], \"confidence\": number}.\n")
	b.WriteString("The label must be short and specific.\n\nSample documents:\n")

	samples := in.Documents
	if len(samples) > 3 {
		samples = samples[:3]
	}
	for i, doc := range samples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncate(doc, maxChars))
	}

	top := in.Terms
	if len(top) > 10 {
		top = top[:10]
	}
	fmt.Fprintf(&b, "\nDistinctive terms: %s\n", strings.Join(terms.Texts(top), ", "))
	return b.String()
}

// parseGenerativeReply tolerates code fences and prose around the
// JSON object.
func parseGenerativeReply(raw string) (generativeReply, error) {
	var reply generativeReply
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return reply, fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &reply); err != nil {
		return reply, err
	}
	return reply, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
