// Package label turns a topic's distinctive terms and sample
// documents into a human-readable label. Three strategies are
// provided: term-based (cheap, always available), generative (needs a
// Generator) and hybrid (term-based refined by a lighter generative
// pass). Strategies never fail outward; they degrade to the
// next-cheaper result and record how via the Method field.
package label

import (
	"context"
	"strings"
	"unicode"

	"github.com/cognicore/topiq/pkg/topiq/terms"
)

// Method names a labeling strategy.
type Method string

const (
	MethodTermBased Method = "term_based"
	MethodFast      Method = "fast"
	MethodLLMBased  Method = "llm_based"
	MethodQuality   Method = "quality"
	MethodHybrid    Method = "hybrid"
)

// MethodHybridFallback tags results produced by the hybrid strategy's
// term-based fallback path.
const MethodHybridFallback = "hybrid_fallback"

// ParseMethod maps a method identifier to a Method. Unknown or empty
// identifiers resolve to MethodHybrid.
func ParseMethod(s string) Method {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodTermBased, MethodFast:
		return MethodTermBased
	case MethodLLMBased, MethodQuality:
		return MethodLLMBased
	default:
		return MethodHybrid
	}
}

// Result is the outcome of one labeling call.
type Result struct {
	Label       string
	Description string
	Confidence  float64
	Method      string
	Themes      []string
}

// Input carries the topic data a strategy works from. Documents holds
// a small sample of the topic's texts, not the full set.
type Input struct {
	TopicID   int
	Terms     []terms.Term
	Documents []string
}

// Strategy generates a label for one topic.
type Strategy interface {
	GenerateLabel(ctx context.Context, in Input) Result
}

// Generator is the optional generative collaborator. Any returned
// error means "unavailable this call".
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is a single generation call.
type Request struct {
	Prompt       string
	MaxTokens    int
	Temperature  float64
	JSONResponse bool
}

// NewStrategy builds the strategy for a method. Generative methods
// receive gen, which may be nil; the strategies handle absence
// themselves.
func NewStrategy(m Method, gen Generator) Strategy {
	switch ParseMethod(string(m)) {
	case MethodTermBased:
		return &TermBased{}
	case MethodLLMBased:
		return &Generative{Gen: gen}
	default:
		return &Hybrid{Gen: gen}
	}
}

// Labeler wraps a default strategy and normalizes every result shape.
type Labeler struct {
	def Strategy
}

// NewLabeler creates a labeler with the strategy for m as default.
func NewLabeler(m Method, gen Generator) *Labeler {
	return &Labeler{def: NewStrategy(m, gen)}
}

// GenerateLabel runs the default strategy, or an optional per-call
// override, and normalizes the result. The override does not change
// the instance default.
func (l *Labeler) GenerateLabel(ctx context.Context, in Input, override ...Strategy) Result {
	s := l.def
	if len(override) > 0 && override[0] != nil {
		s = override[0]
	}
	return normalize(s.GenerateLabel(ctx, in))
}

// normalize fills safe defaults so callers never branch on
// strategy-specific shapes.
func normalize(r Result) Result {
	if strings.TrimSpace(r.Label) == "" {
		r.Label = "Unknown Topic"
		if r.Confidence == 0 {
			r.Confidence = 0.5
		}
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.Themes == nil {
		r.Themes = []string{}
	}
	return r
}

// capitalize upper-cases the first rune of a term.
func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// sanitizeLabel strips quotes, truncates at the first newline and
// hard-caps the label at 50 characters.
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	if len(s) > 50 {
		s = strings.TrimSpace(s[:47]) + "..."
	}
	return s
}
