package optimizer

import (
	"sort"
	"time"

	"github.com/teilomillet/promptopt/technique"
)

// StopReason records why an optimization run ended.
type StopReason string

const (
	StopMaxIterations StopReason = "max_iterations"
	StopConverged     StopReason = "converged"
	StopCancelled     StopReason = "cancelled"
)

// Attempt is one scored prompt in a trajectory. Iteration 0 is the seed.
type Attempt struct {
	Prompt    string    `json:"prompt"`
	Score     float64   `json:"score"`
	Feedback  string    `json:"feedback,omitempty"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`
}

// Trajectory is the ordered record of one optimization run. It is owned by a
// single Apply call while running; afterwards its accessors return copies.
type Trajectory struct {
	runID      string
	attempts   []Attempt
	best       int
	stopReason StopReason
}

func newTrajectory(runID string) *Trajectory {
	return &Trajectory{runID: runID, best: -1}
}

// record appends a, clamping its score, and moves best only on strict improvement.
func (t *Trajectory) record(a Attempt) {
	a.Score = technique.Clamp01(a.Score)
	t.attempts = append(t.attempts, a)
	if t.best < 0 || a.Score > t.attempts[t.best].Score {
		t.best = len(t.attempts) - 1
	}
}

// RunID identifies the run in logs and debug output.
func (t *Trajectory) RunID() string { return t.runID }

// StopReason reports why the run ended.
func (t *Trajectory) StopReason() StopReason { return t.stopReason }

// Len returns the number of recorded attempts, seed included.
func (t *Trajectory) Len() int { return len(t.attempts) }

// Iterations returns the number of completed rewrite rounds.
func (t *Trajectory) Iterations() int {
	if len(t.attempts) == 0 {
		return 0
	}
	return len(t.attempts) - 1
}

// Attempts returns a copy of the recorded attempts in order.
func (t *Trajectory) Attempts() []Attempt {
	return append([]Attempt(nil), t.attempts...)
}

// Best returns the highest-scoring attempt, earliest on ties. It returns the
// zero Attempt for an empty trajectory.
func (t *Trajectory) Best() Attempt {
	if t.best < 0 {
		return Attempt{}
	}
	return t.attempts[t.best]
}

// Seed returns the iteration-0 attempt.
func (t *Trajectory) Seed() Attempt {
	if len(t.attempts) == 0 {
		return Attempt{}
	}
	return t.attempts[0]
}

// ImprovementCurve returns the score of every attempt, in order.
func (t *Trajectory) ImprovementCurve() []float64 {
	curve := make([]float64, len(t.attempts))
	for i, a := range t.attempts {
		curve[i] = a.Score
	}
	return curve
}

// TopAttempts returns up to k attempts ordered by score descending, earliest
// first among equal scores.
func (t *Trajectory) TopAttempts(k int) []Attempt {
	ranked := t.Attempts()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Option configures a FeedbackOptimizer.
type Option func(*FeedbackOptimizer)

// IterationCallback is invoked after each recorded attempt, seed included.
type IterationCallback func(runID string, attempt Attempt)
