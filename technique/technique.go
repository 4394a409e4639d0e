// Package technique defines the contract every prompt-optimization technique
// implements, the data exchanged with callers, and the helpers techniques
// share: safe provider invocation, JSON extraction, token-budget truncation
// and deterministic variant evaluation.
package technique

import "context"

// Name identifies a technique. The set of names is closed.
type Name string

const (
	NameFeedbackIteration Name = "feedback-iteration"
	NameFewShot           Name = "few-shot"
)

// KnownNames lists every valid technique name.
func KnownNames() []Name {
	return []Name{NameFeedbackIteration, NameFewShot}
}

// Valid reports whether n is one of KnownNames.
func (n Name) Valid() bool {
	for _, known := range KnownNames() {
		if n == known {
			return true
		}
	}
	return false
}

// Category is the output category stamped on the variants a technique produces.
type Category string

const (
	CategoryIterativeRefinement Category = "iterative-refinement"
	CategoryExampleBased        Category = "example-based"
)

// CategoryFor maps a technique name to its output category.
func CategoryFor(n Name) Category {
	switch n {
	case NameFeedbackIteration:
		return CategoryIterativeRefinement
	case NameFewShot:
		return CategoryExampleBased
	default:
		return Category(n)
	}
}

// Metadata describes a technique. Higher Priority runs first when several apply.
type Metadata struct {
	Name        Name     `json:"name"`
	Category    Category `json:"category"`
	Priority    int      `json:"priority"`
	Description string   `json:"description"`
}

// Technique is a pluggable prompt-improvement strategy.
//
// Apply and Evaluate may be called concurrently on independent inputs; any
// per-run state must live inside the call.
type Technique interface {
	Metadata() Metadata

	// Apply generates candidate rewrites of prompt. It returns a *Error with
	// KindProvider when no provider is configured.
	Apply(ctx context.Context, prompt string, octx *OptimizationContext) ([]PromptVariant, error)

	// Evaluate scores and ranks variants.
	Evaluate(ctx context.Context, variants []PromptVariant) (*EvaluationResult, error)

	// IsApplicable reports whether octx carries what the technique needs.
	IsApplicable(octx *OptimizationContext) bool
}
