// Package optimizer implements an OPRO-style feedback-iteration technique:
// score the current best prompt, ask for feedback, ask for a rewrite
// conditioned on that feedback and the best attempts so far, re-score, repeat.
package optimizer

import "github.com/teilomillet/promptopt/technique"

// Default configuration values
const (
	DefaultMaxIterations           = 5
	DefaultMinImprovementThreshold = 0.02
	DefaultHistorySize             = 5
	DefaultOptimizerTemperature    = 0.8
	DefaultScoreAggregation        = technique.AggregationMean
	DefaultPriority                = 100
)

const (
	// earlyStopAfter is the last iteration that never stops early.
	earlyStopAfter = 2
	// historyPreviewTokens bounds each prompt preview in the rewrite history.
	historyPreviewTokens = 200
	// fallbackScore is used when a judge response carries no usable number.
	fallbackScore    = 0.5
	judgeScale       = 100.0
	judgeTemperature = 0.0
)

// Request purposes, used for metrics and debug output.
const (
	PurposeFeedback = "feedback"
	PurposeRewrite  = "rewrite"
	PurposeJudge    = "judge"
)

// fallbackFeedback replaces feedback the provider failed to produce.
const fallbackFeedback = "Make the prompt clearer and more specific: state the task, the expected output format, " +
	"and any constraints explicitly, and remove ambiguous references."

const defaultModelName = "default"
