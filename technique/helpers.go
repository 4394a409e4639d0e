package technique

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/teilomillet/promptopt/tokens"
)

const truncationMarker = "..."

// truncationSafety leaves headroom under the budget after a hard cut.
const truncationSafety = 0.95

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?[ \\t]*\\r?\\n?(.*?)```")

// ExtractJSON returns the JSON payload in text: the whole text if it is valid
// JSON, otherwise the first fenced code block holding valid JSON, otherwise nil.
func ExtractJSON(text string) json.RawMessage {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	for _, m := range fencedBlock.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if candidate != "" && json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate)
		}
	}
	return nil
}

// TruncateToTokenBudget returns text unchanged when its estimated token count
// fits maxTokens. Otherwise it keeps floor(maxTokens*charsPerToken*0.95)
// runes and appends "...". A non-positive charsPerToken uses the default ratio.
func TruncateToTokenBudget(text string, maxTokens int, charsPerToken float64) string {
	if maxTokens <= 0 {
		return ""
	}
	if tokens.Estimate(text) <= maxTokens {
		return text
	}
	if charsPerToken <= 0 {
		charsPerToken = tokens.DefaultCharsPerToken
	}
	limit := int(math.Floor(float64(maxTokens) * charsPerToken * truncationSafety))
	runes := []rune(text)
	if limit >= len(runes) {
		return text
	}
	return string(runes[:limit]) + truncationMarker
}

// CalculateImprovement returns the percentage change from original to best.
// A zero original yields 100 when best is positive and 0 otherwise.
func CalculateImprovement(original, best float64) float64 {
	if original == 0 {
		if best > 0 {
			return 100
		}
		return 0
	}
	return (best - original) / original * 100
}

// Aggregation reduces a set of scores to one value.
type Aggregation string

const (
	AggregationMean   Aggregation = "mean"
	AggregationMedian Aggregation = "median"
	AggregationMin    Aggregation = "min"
	AggregationMax    Aggregation = "max"
)

// Aggregate reduces scores with a. Unknown aggregations fall back to mean.
func Aggregate(scores []float64, a Aggregation) float64 {
	if len(scores) == 0 {
		return 0
	}
	switch a {
	case AggregationMin:
		out := scores[0]
		for _, s := range scores[1:] {
			out = math.Min(out, s)
		}
		return out
	case AggregationMax:
		out := scores[0]
		for _, s := range scores[1:] {
			out = math.Max(out, s)
		}
		return out
	case AggregationMedian:
		sorted := append([]float64(nil), scores...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	default:
		return mean(scores)
	}
}

func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// variance is the population variance of scores.
func variance(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	m := mean(scores)
	var sum float64
	for _, s := range scores {
		d := s - m
		sum += d * d
	}
	return sum / float64(len(scores))
}

// Clamp01 limits v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
