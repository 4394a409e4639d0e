package optimizer

import (
	"strings"

	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

// cleanRewrite strips the wrapping models tend to add around a rewritten
// prompt: code fences, triple quotes and a leading label.
func cleanRewrite(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
		if nl := strings.Index(response, "\n"); nl >= 0 && !strings.Contains(response[:nl], " ") {
			response = response[nl+1:]
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	}
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, `"""`) && strings.HasSuffix(response, `"""`) && len(response) >= 6 {
		response = response[3 : len(response)-3]
	}
	for _, label := range []string{"New prompt:", "Improved prompt:", "Rewritten prompt:"} {
		if len(response) >= len(label) && strings.EqualFold(response[:len(label)], label) {
			response = response[len(label):]
			break
		}
	}
	return strings.TrimSpace(response)
}

// WithConfig replaces the optimizer configuration.
func WithConfig(cfg Config) Option {
	return func(o *FeedbackOptimizer) {
		o.config = cfg
	}
}

// WithLogger sets the logger used by the optimizer and its invoker.
func WithLogger(logger utils.Logger) Option {
	return func(o *FeedbackOptimizer) {
		o.logger = logger
	}
}

// WithMetrics records every provider call into m.
func WithMetrics(m *technique.Metrics) Option {
	return func(o *FeedbackOptimizer) {
		o.metrics = m
	}
}

// WithDebugManager logs prompts and responses and saves per-iteration snapshots.
func WithDebugManager(dm *utils.DebugManager) Option {
	return func(o *FeedbackOptimizer) {
		o.debugManager = dm
	}
}

// WithIterationCallback registers a callback invoked after each recorded attempt.
func WithIterationCallback(callback IterationCallback) Option {
	return func(o *FeedbackOptimizer) {
		o.iterationCallback = callback
	}
}
