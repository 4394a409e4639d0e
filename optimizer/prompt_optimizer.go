package optimizer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

var tracer = otel.GetTracerProvider().Tracer("promptopt/optimizer")

// FeedbackOptimizer is the feedback-iteration technique. It holds only
// configuration and concurrency-safe collaborators, so one instance may serve
// concurrent Apply calls.
type FeedbackOptimizer struct {
	provider          providers.Provider
	config            Config
	logger            utils.Logger
	metrics           *technique.Metrics
	debugManager      *utils.DebugManager
	iterationCallback IterationCallback
	invoker           technique.Invoker
}

var _ technique.Technique = (*FeedbackOptimizer)(nil)

// NewFeedbackOptimizer creates an optimizer backed by provider. A nil
// provider is accepted; Apply then fails with a PROVIDER_ERROR.
func NewFeedbackOptimizer(provider providers.Provider, opts ...Option) *FeedbackOptimizer {
	o := &FeedbackOptimizer{
		provider: provider,
		config:   DefaultConfig(),
		logger:   utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = utils.NewNopLogger()
	}
	o.invoker = technique.Invoker{
		Provider:  provider,
		Timeout:   o.config.Timeout,
		Logger:    o.logger,
		Metrics:   o.metrics,
		Technique: technique.NameFeedbackIteration,
	}
	return o
}

// Config returns the optimizer configuration.
func (o *FeedbackOptimizer) Config() Config { return o.config }

func (o *FeedbackOptimizer) Metadata() technique.Metadata {
	return technique.Metadata{
		Name:        technique.NameFeedbackIteration,
		Category:    technique.CategoryIterativeRefinement,
		Priority:    DefaultPriority,
		Description: "Iteratively critiques and rewrites the best prompt so far, keeping only strict improvements.",
	}
}

// IsApplicable is always true: the loop needs nothing beyond the prompt.
func (o *FeedbackOptimizer) IsApplicable(*technique.OptimizationContext) bool {
	return true
}

// Apply runs the optimization loop and returns the ranked variants.
func (o *FeedbackOptimizer) Apply(ctx context.Context, prompt string, octx *technique.OptimizationContext) ([]technique.PromptVariant, error) {
	variants, _, err := o.ApplyWithTrajectory(ctx, prompt, octx)
	return variants, err
}

// ApplyWithTrajectory runs the optimization loop and also returns the run's
// trajectory. On success at least one variant is returned, even when every
// provider call failed.
func (o *FeedbackOptimizer) ApplyWithTrajectory(ctx context.Context, prompt string, octx *technique.OptimizationContext) ([]technique.PromptVariant, *Trajectory, error) {
	if err := o.config.Validate(); err != nil {
		return nil, nil, err
	}
	if !o.invoker.HasProvider() {
		return nil, nil, technique.NewNoProviderError()
	}

	run := &runState{
		traj:  newTrajectory(utils.NewRunID()),
		model: o.model(),
		octx:  octx,
	}

	ctx, span := tracer.Start(ctx, "optimizer.apply")
	defer span.End()
	span.SetAttributes(
		attribute.String("optimizer.run_id", run.traj.RunID()),
		attribute.String("optimizer.model", run.model),
		attribute.Int("optimizer.max_iterations", o.config.MaxIterations),
	)

	o.logger.Info("Starting optimization", "run_id", run.traj.RunID(), "model", run.model,
		"max_iterations", o.config.MaxIterations)

	seedScore := o.assessPrompt(ctx, run, prompt)
	o.recordAttempt(run, Attempt{Prompt: prompt, Score: seedScore, Iteration: 0, Timestamp: time.Now()})

	for i := 1; i <= o.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			run.traj.stopReason = StopCancelled
			o.logger.Info("Optimization cancelled", "run_id", run.traj.RunID(), "iteration", i, "error", err)
			break
		}

		best := run.traj.Best()
		feedback := o.generateFeedback(ctx, run, best)
		candidate := o.generateImprovedPrompt(ctx, run, best, feedback)
		score := o.assessPrompt(ctx, run, candidate)

		o.recordAttempt(run, Attempt{
			Prompt:    candidate,
			Score:     score,
			Feedback:  feedback,
			Iteration: i,
			Timestamp: time.Now(),
		})

		gain := score - best.Score
		o.logger.Debug("Iteration complete", "run_id", run.traj.RunID(), "iteration", i,
			"score", score, "best", run.traj.Best().Score, "gain", gain)

		if i > earlyStopAfter && gain < o.config.MinImprovementThreshold {
			run.traj.stopReason = StopConverged
			break
		}
	}
	if run.traj.stopReason == "" {
		run.traj.stopReason = StopMaxIterations
	}

	best := run.traj.Best()
	span.SetAttributes(
		attribute.Int("optimizer.iterations", run.traj.Iterations()),
		attribute.String("optimizer.stop_reason", string(run.traj.StopReason())),
		attribute.Float64("optimizer.best_score", best.Score),
		attribute.Float64("optimizer.seed_score", run.traj.Seed().Score),
	)
	o.logger.Info("Optimization finished", "run_id", run.traj.RunID(), "iterations", run.traj.Iterations(),
		"stop_reason", run.traj.StopReason(), "seed_score", run.traj.Seed().Score, "best_score", best.Score)

	return o.variants(run), run.traj, nil
}

func (o *FeedbackOptimizer) recordAttempt(run *runState, a Attempt) {
	run.traj.record(a)
	recorded := run.traj.attempts[len(run.traj.attempts)-1]
	o.debugManager.SaveIteration(run.traj.RunID(), recorded.Iteration, recorded)
	if o.iterationCallback != nil {
		o.iterationCallback(run.traj.RunID(), recorded)
	}
}

// variants renders the trajectory as output: the best attempt first, then
// the other distinct prompts by score, capped at MaxVariants.
func (o *FeedbackOptimizer) variants(run *runState) []technique.PromptVariant {
	seed := run.traj.Seed()
	best := run.traj.Best()

	ranked := make([]Attempt, 0, run.traj.Len())
	ranked = append(ranked, best)
	ranked = append(ranked, run.traj.TopAttempts(-1)...)

	seen := make(map[string]bool, len(ranked))
	out := make([]technique.PromptVariant, 0, o.config.MaxVariants)
	for _, a := range ranked {
		if len(out) == o.config.MaxVariants {
			break
		}
		if seen[a.Prompt] {
			continue
		}
		seen[a.Prompt] = true

		v := technique.PromptVariant{
			Content:       a.Prompt,
			Technique:     technique.CategoryIterativeRefinement,
			Score:         a.Score,
			Model:         run.model,
			Original:      seed.Prompt,
			OriginalScore: seed.Score,
			Iteration:     a.Iteration,
		}
		if o.config.IncludeReasoning {
			v.Reasoning = a.Feedback
		}
		out = append(out, v)
	}
	return out
}

// model resolves the model name: OptimizerModel, then Config.Model, then the
// provider's default.
func (o *FeedbackOptimizer) model() string {
	switch {
	case o.config.OptimizerModel != "":
		return o.config.OptimizerModel
	case o.config.Model != "":
		return o.config.Model
	}
	if m := providers.DefaultModel(o.provider); m != "" {
		return m
	}
	return defaultModelName
}

// Evaluate ranks variants by the score recorded during Apply and reduces them
// with the configured aggregation.
func (o *FeedbackOptimizer) Evaluate(_ context.Context, variants []technique.PromptVariant) (*technique.EvaluationResult, error) {
	return technique.EvaluateVariants(variants, technique.RecordedJudge, o.config.ScoreAggregation), nil
}
