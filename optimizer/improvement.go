package optimizer

import (
	"context"
	"strings"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/technique"
)

// runState is the per-call working state of one optimization run.
type runState struct {
	traj  *Trajectory
	model string
	octx  *technique.OptimizationContext
}

// generateFeedback asks for critique of the current best attempt.
func (o *FeedbackOptimizer) generateFeedback(ctx context.Context, run *runState, best Attempt) string {
	req := &providers.Request{
		Model:        run.model,
		SystemPrompt: feedbackSystemPrompt,
		Messages:     []providers.Message{{Role: providers.RoleUser, Content: feedbackPrompt(best.Prompt, best.Score, run.octx)}},
		Temperature:  o.config.Temperature,
		Purpose:      PurposeFeedback,
	}
	o.debugManager.LogPrompt(run.traj.RunID(), PurposeFeedback, req.Messages[0].Content)

	result := o.invoker.Complete(ctx, req)
	if !result.OK() {
		o.logger.Warn("Feedback request failed, using fallback feedback",
			"run_id", run.traj.RunID(), "kind", result.Err.Kind)
		return fallbackFeedback
	}
	o.debugManager.LogResponse(run.traj.RunID(), PurposeFeedback, result.Content())

	feedback := strings.TrimSpace(result.Content())
	if feedback == "" {
		return fallbackFeedback
	}
	return feedback
}

// generateImprovedPrompt asks for a rewrite of best conditioned on feedback
// and the top attempts so far. Failures return best unchanged.
func (o *FeedbackOptimizer) generateImprovedPrompt(ctx context.Context, run *runState, best Attempt, feedback string) string {
	history := run.traj.TopAttempts(o.config.HistorySize)
	req := &providers.Request{
		Model:        run.model,
		SystemPrompt: rewriteSystemPrompt,
		Messages:     []providers.Message{{Role: providers.RoleUser, Content: rewritePrompt(best.Prompt, feedback, history, run.octx)}},
		Temperature:  o.config.OptimizerTemperature,
		Purpose:      PurposeRewrite,
	}
	o.debugManager.LogPrompt(run.traj.RunID(), PurposeRewrite, req.Messages[0].Content)

	result := o.invoker.Complete(ctx, req)
	if !result.OK() {
		o.logger.Warn("Rewrite request failed, reusing current best prompt",
			"run_id", run.traj.RunID(), "kind", result.Err.Kind)
		return best.Prompt
	}
	o.debugManager.LogResponse(run.traj.RunID(), PurposeRewrite, result.Content())

	rewritten := cleanRewrite(result.Content())
	if rewritten == "" {
		o.logger.Warn("Rewrite was empty, reusing current best prompt", "run_id", run.traj.RunID())
		return best.Prompt
	}
	return rewritten
}
