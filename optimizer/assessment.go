package optimizer

import (
	"context"
	"regexp"
	"strconv"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/scoring"
)

var (
	overallPattern = regexp.MustCompile(`(?i)OVERALL\s*[:=]\s*(-?\d+(?:\.\d+)?)`)
	numberPattern  = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// ParseScore extracts a [0,1] score from a judge response. It reads
// "OVERALL: <n>" when present, otherwise the last number in the text, and
// falls back to 0.5. Numbers up to 100 are read on a 0-100 scale.
func ParseScore(text string) float64 {
	if m := overallPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return normalizeScore(v)
		}
	}
	if nums := numberPattern.FindAllString(text, -1); len(nums) > 0 {
		if v, err := strconv.ParseFloat(nums[len(nums)-1], 64); err == nil {
			return normalizeScore(v)
		}
	}
	return fallbackScore
}

func normalizeScore(v float64) float64 {
	switch {
	case v > judgeScale:
		return fallbackScore
	case v < 0:
		return 0
	default:
		return v / judgeScale
	}
}

// HeuristicScore is the deterministic fallback used when the judge cannot be reached.
func HeuristicScore(prompt string) float64 {
	return float64(scoring.Score(prompt).Overall) / scoring.MaxScore
}

// assessPrompt asks the judge model to rate prompt. Provider failures fall back
// to the heuristic score; unparsable replies go through ParseScore's ladder.
func (o *FeedbackOptimizer) assessPrompt(ctx context.Context, run *runState, prompt string) float64 {
	req := &providers.Request{
		Model:        run.model,
		SystemPrompt: judgeSystemPrompt,
		Messages:     []providers.Message{{Role: providers.RoleUser, Content: judgePrompt(prompt)}},
		Temperature:  judgeTemperature,
		Purpose:      PurposeJudge,
	}
	o.debugManager.LogPrompt(run.traj.RunID(), PurposeJudge, req.Messages[0].Content)

	result := o.invoker.Complete(ctx, req)
	if !result.OK() {
		score := HeuristicScore(prompt)
		o.logger.Warn("Judge request failed, using heuristic score",
			"run_id", run.traj.RunID(), "kind", result.Err.Kind, "score", score)
		return score
	}

	o.debugManager.LogResponse(run.traj.RunID(), PurposeJudge, result.Content())
	score := ParseScore(result.Content())
	o.logger.Debug("Prompt assessed", "run_id", run.traj.RunID(), "score", score)
	return score
}
