package technique

import (
	"sort"
	"time"
)

// Example is a before/after pair showing a prompt improvement.
type Example struct {
	Before string   `json:"before"`
	After  string   `json:"after"`
	Tags   []string `json:"tags,omitempty"`
}

// Constraint is a caller requirement that rewrites must respect.
type Constraint struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Value       string `json:"value,omitempty"`
	Strict      bool   `json:"strict"`
	Priority    int    `json:"priority"`
}

// OptimizationContext is supplied by the caller and is read-only to techniques.
type OptimizationContext struct {
	Examples    []Example    `json:"examples,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
	DomainHints []string     `json:"domain_hints,omitempty"`
}

// HasExamples reports whether octx carries at least one example.
func (octx *OptimizationContext) HasExamples() bool {
	return octx != nil && len(octx.Examples) > 0
}

// SortedConstraints returns a copy of the constraints ordered by priority
// descending, strict before non-strict, then by original position.
func (octx *OptimizationContext) SortedConstraints() []Constraint {
	if octx == nil || len(octx.Constraints) == 0 {
		return nil
	}
	out := append([]Constraint(nil), octx.Constraints...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Strict && !out[j].Strict
	})
	return out
}

// PromptVariant is a candidate rewrite with a provisional score in [0,1].
type PromptVariant struct {
	Content   string   `json:"content"`
	Technique Category `json:"technique"`
	Score     float64  `json:"score"`
	Model     string   `json:"model"`

	// Original is the prompt the variant was derived from and OriginalScore
	// its score on the same scale as Score.
	Original      string  `json:"original,omitempty"`
	OriginalScore float64 `json:"original_score"`
	Iteration     int     `json:"iteration,omitempty"`
	Reasoning     string  `json:"reasoning,omitempty"`
}

// Breakdown is the per-dimension evaluation of a variant, each in [0,1].
type Breakdown struct {
	Overall       float64 `json:"overall"`
	Clarity       float64 `json:"clarity"`
	Specificity   float64 `json:"specificity"`
	TaskAlignment float64 `json:"task_alignment"`
	Efficiency    float64 `json:"efficiency"`
}

// ScoredVariant is a variant after evaluation.
type ScoredVariant struct {
	PromptVariant
	Breakdown Breakdown `json:"breakdown"`
	Feedback  string    `json:"feedback,omitempty"`
}

// EvaluationMetrics summarises one Evaluate call.
type EvaluationMetrics struct {
	VariantsEvaluated       int           `json:"variants_evaluated"`
	AverageScore            float64       `json:"average_score"`
	ScoreVariance           float64       `json:"score_variance"`
	ImprovementOverOriginal float64       `json:"improvement_over_original"`
	EvaluationTime          time.Duration `json:"evaluation_time"`

	// AggregateScore is the overall scores reduced with Aggregation.
	AggregateScore float64     `json:"aggregate_score"`
	Aggregation    Aggregation `json:"aggregation"`
}

// EvaluationResult is returned by Technique.Evaluate. Variants are ranked by
// overall score, best first; Best is nil only when no variants were given.
type EvaluationResult struct {
	Variants        []ScoredVariant   `json:"variants"`
	Best            *ScoredVariant    `json:"best,omitempty"`
	Metrics         EvaluationMetrics `json:"metrics"`
	Recommendations []string          `json:"recommendations"`
}
