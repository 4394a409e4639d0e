package optimizer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

// Default batch settings.
const (
	DefaultBatchConcurrency = 4
	DefaultBatchInterval    = 250 * time.Millisecond
	DefaultBatchBurst       = 1
)

// BatchItem is one prompt to optimize.
type BatchItem struct {
	Name    string
	Prompt  string
	Context *technique.OptimizationContext
}

// BatchResult is the outcome for the BatchItem at the same index.
type BatchResult struct {
	Name       string
	Prompt     string
	Variants   []technique.PromptVariant
	Trajectory *Trajectory
	Err        error
}

// BatchOption configures a BatchOptimizer.
type BatchOption func(*BatchOptimizer)

// WithConcurrency bounds the number of prompts optimized at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchOptimizer) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithRateLimit limits how often a new prompt may start.
func WithRateLimit(r rate.Limit, burst int) BatchOption {
	return func(b *BatchOptimizer) {
		b.rateLimiter = rate.NewLimiter(r, burst)
	}
}

// WithBatchLogger sets the batch logger.
func WithBatchLogger(logger utils.Logger) BatchOption {
	return func(b *BatchOptimizer) {
		b.logger = logger
	}
}

// BatchOptimizer optimizes independent prompts concurrently. Every item gets
// its own trajectory; the shared FeedbackOptimizer keeps no per-run state.
type BatchOptimizer struct {
	optimizer   *FeedbackOptimizer
	concurrency int
	rateLimiter *rate.Limiter
	logger      utils.Logger
}

// NewBatchOptimizer creates a BatchOptimizer around optimizer.
func NewBatchOptimizer(optimizer *FeedbackOptimizer, opts ...BatchOption) *BatchOptimizer {
	b := &BatchOptimizer{
		optimizer:   optimizer,
		concurrency: DefaultBatchConcurrency,
		rateLimiter: rate.NewLimiter(rate.Every(DefaultBatchInterval), DefaultBatchBurst),
		logger:      utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run optimizes items and returns one result per item, in input order.
// Failures are reported per item and never stop the rest of the batch.
func (b *BatchOptimizer) Run(ctx context.Context, items []BatchItem) []BatchResult {
	batchID := utils.NewBatchID()
	results := make([]BatchResult, len(items))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			results[i] = BatchResult{Name: item.Name, Prompt: item.Prompt}
			if err := b.rateLimiter.Wait(ctx); err != nil {
				results[i].Err = fmt.Errorf("rate limiter: %w", err)
				return nil
			}
			variants, traj, err := b.optimizer.ApplyWithTrajectory(ctx, item.Prompt, item.Context)
			results[i].Variants = variants
			results[i].Trajectory = traj
			results[i].Err = err
			if err != nil {
				b.logger.Warn("Batch item failed", "batch_id", batchID, "name", item.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	b.logger.Info("Batch finished", "batch_id", batchID, "items", len(items))
	return results
}
