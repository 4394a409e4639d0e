package technique

import (
	"fmt"
	"sort"
	"time"

	"github.com/teilomillet/promptopt/scoring"
)

// Judge returns the overall score in [0,1] for a variant. Judges must be
// deterministic so that evaluation is reproducible.
type Judge func(v PromptVariant) float64

// HeuristicJudge scores the variant content with the scoring engine.
func HeuristicJudge(v PromptVariant) float64 {
	return float64(scoring.Score(v.Content).Overall) / scoring.MaxScore
}

// RecordedJudge trusts the score the technique recorded when producing the variant.
func RecordedJudge(v PromptVariant) float64 {
	return Clamp01(v.Score)
}

// Recommendation thresholds on the [0,1] breakdown scale.
const (
	weakDimension     = 0.6
	weakClarity       = 0.7
	highScoreVariance = 0.01
)

// BreakdownOf derives the dimension scores of content from the scoring engine,
// using overall as the Overall value.
func BreakdownOf(content string, overall float64) Breakdown {
	s := scoring.Score(content)
	return Breakdown{
		Overall:       Clamp01(overall),
		Clarity:       float64(s.Clarity) / scoring.MaxScore,
		Specificity:   float64(s.Specificity) / scoring.MaxScore,
		TaskAlignment: float64(s.Completeness) / scoring.MaxScore,
		Efficiency:    float64(s.Efficiency) / scoring.MaxScore,
	}
}

// EvaluateVariants scores, ranks and summarises variants. The baseline for
// ImprovementOverOriginal is the judged score of the best variant's Original.
func EvaluateVariants(variants []PromptVariant, judge Judge, aggregation Aggregation) *EvaluationResult {
	start := time.Now()
	if judge == nil {
		judge = HeuristicJudge
	}
	if aggregation == "" {
		aggregation = AggregationMean
	}

	scored := make([]ScoredVariant, 0, len(variants))
	overalls := make([]float64, 0, len(variants))
	for _, v := range variants {
		b := BreakdownOf(v.Content, judge(v))
		scored = append(scored, ScoredVariant{PromptVariant: v, Breakdown: b, Feedback: weakestFeedback(b)})
		overalls = append(overalls, b.Overall)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Breakdown.Overall > scored[j].Breakdown.Overall
	})

	result := &EvaluationResult{
		Variants: scored,
		Metrics: EvaluationMetrics{
			VariantsEvaluated: len(scored),
			AverageScore:      mean(overalls),
			ScoreVariance:     variance(overalls),
			AggregateScore:    Aggregate(overalls, aggregation),
			Aggregation:       aggregation,
		},
	}

	hasBaseline := false
	if len(scored) > 0 {
		best := scored[0]
		result.Best = &best
		if best.Original != "" {
			hasBaseline = true
			seed := judge(PromptVariant{Content: best.Original, Score: best.OriginalScore})
			result.Metrics.ImprovementOverOriginal = CalculateImprovement(seed, best.Breakdown.Overall)
		}
	}
	result.Recommendations = recommendations(result, hasBaseline)
	result.Metrics.EvaluationTime = time.Since(start)
	return result
}

func weakestFeedback(b Breakdown) string {
	dims := []struct {
		name  string
		value float64
	}{
		{"clarity", b.Clarity},
		{"specificity", b.Specificity},
		{"task alignment", b.TaskAlignment},
		{"efficiency", b.Efficiency},
	}
	weakest := dims[0]
	for _, d := range dims[1:] {
		if d.value < weakest.value {
			weakest = d
		}
	}
	if weakest.value >= weakDimension {
		return ""
	}
	return fmt.Sprintf("Weakest dimension: %s (%.2f)", weakest.name, weakest.value)
}

func recommendations(r *EvaluationResult, hasBaseline bool) []string {
	if r.Best == nil {
		return []string{"No variants were produced; check the provider configuration and try again."}
	}

	var out []string
	improvement := r.Metrics.ImprovementOverOriginal
	switch {
	case !hasBaseline:
	case improvement > 0:
		out = append(out, fmt.Sprintf("Best variant improves on the original by %.1f%%.", improvement))
	default:
		out = append(out, "No variant improved on the original prompt; try more iterations or supply examples and constraints.")
	}

	b := r.Best.Breakdown
	if b.Clarity < weakClarity {
		out = append(out, "Replace ambiguous references such as \"it\", \"this\" or \"stuff\" with the concrete nouns they stand for.")
	}
	if b.Specificity < weakDimension {
		out = append(out, "Add precise requirements: exact quantities, quoted terms and the expected output format.")
	}
	if b.TaskAlignment < weakDimension {
		out = append(out, "State the task, its context, the output format, constraints and at least one example.")
	}
	if b.Efficiency < weakDimension {
		out = append(out, "Adjust the prompt length toward the 50-200 token range.")
	}
	if r.Metrics.ScoreVariance > highScoreVariance {
		out = append(out, "Variant quality varies widely; review lower-ranked variants before using them.")
	}
	if len(out) == 0 {
		out = append(out, "The best variant scores well on every dimension.")
	}
	return out
}
