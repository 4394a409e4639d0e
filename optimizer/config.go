package optimizer

import (
	"github.com/teilomillet/promptopt/technique"
)

// Config holds the feedback-iteration settings on top of the shared technique
// configuration.
type Config struct {
	technique.Config

	// MaxIterations bounds the number of rewrite rounds after the seed.
	MaxIterations int `json:"max_iterations" validate:"min=1,max=100"`

	// MinImprovementThreshold is the smallest gain over the previous best that
	// keeps the loop running once past the second iteration.
	MinImprovementThreshold float64 `json:"min_improvement_threshold" validate:"gte=0,lte=1"`

	// OptimizerModel overrides the model used for every optimizer request.
	OptimizerModel string `json:"optimizer_model,omitempty"`

	// ScoreAggregation reduces variant scores into EvaluationMetrics.AggregateScore.
	ScoreAggregation technique.Aggregation `json:"score_aggregation" validate:"oneof=mean median min max"`

	// HistorySize is how many top-scoring attempts the rewrite request sees.
	HistorySize int `json:"history_size" validate:"min=1,max=50"`

	// OptimizerTemperature is the sampling temperature of rewrite requests.
	OptimizerTemperature float64 `json:"optimizer_temperature" validate:"gte=0,lte=2"`
}

// DefaultConfig returns the default feedback-iteration configuration.
func DefaultConfig() Config {
	return Config{
		Config:                  technique.DefaultConfig(),
		MaxIterations:           DefaultMaxIterations,
		MinImprovementThreshold: DefaultMinImprovementThreshold,
		ScoreAggregation:        DefaultScoreAggregation,
		HistorySize:             DefaultHistorySize,
		OptimizerTemperature:    DefaultOptimizerTemperature,
	}
}

// Validate reports an INVALID_CONFIG error naming the first offending field.
func (c Config) Validate() error {
	return technique.ValidateConfig(c)
}
