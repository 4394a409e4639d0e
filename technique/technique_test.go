package technique

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/scoring"
)

func TestNames(t *testing.T) {
	assert.True(t, NameFeedbackIteration.Valid())
	assert.True(t, NameFewShot.Valid())
	assert.False(t, Name("chain-of-thought").Valid())

	assert.Equal(t, CategoryIterativeRefinement, CategoryFor(NameFeedbackIteration))
	assert.Equal(t, CategoryExampleBased, CategoryFor(NameFewShot))
}

func TestSortedConstraints(t *testing.T) {
	octx := &OptimizationContext{Constraints: []Constraint{
		{Description: "a", Priority: 1},
		{Description: "b", Priority: 5},
		{Description: "c", Priority: 1, Strict: true},
		{Description: "d", Priority: 5},
	}}

	var got []string
	for _, c := range octx.SortedConstraints() {
		got = append(got, c.Description)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, got)
	assert.Equal(t, "a", octx.Constraints[0].Description, "input must not be reordered")

	var empty *OptimizationContext
	assert.Nil(t, empty.SortedConstraints())
	assert.False(t, empty.HasExamples())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{"zero variants", func(c *Config) { c.MaxVariants = 0 }, "MaxVariants"},
		{"too many variants", func(c *Config) { c.MaxVariants = 21 }, "MaxVariants"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "Temperature"},
		{"hot temperature", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)

			var terr *Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, KindInvalidConfig, terr.Kind)
			assert.Equal(t, tt.field, terr.Field)
		})
	}
}

func TestIntOption(t *testing.T) {
	cfg := Config{Options: map[string]any{"a": 4, "b": 7.0, "c": "x"}}
	assert.Equal(t, 4, cfg.IntOption("a", 1))
	assert.Equal(t, 7, cfg.IntOption("b", 1))
	assert.Equal(t, 1, cfg.IntOption("c", 1))
	assert.Equal(t, 1, cfg.IntOption("missing", 1))
}

func TestFromProviderError(t *testing.T) {
	timeout := FromProviderError(providers.NewError(providers.ErrorKindTimeout, "slow", nil))
	assert.Equal(t, KindTimeout, timeout.Kind)
	assert.True(t, timeout.Retryable)

	rate := FromProviderError(providers.NewError(providers.ErrorKindRateLimit, "429", nil))
	assert.Equal(t, KindProvider, rate.Kind)
	assert.True(t, rate.Retryable)

	auth := FromProviderError(providers.NewError(providers.ErrorKindAuthentication, "401", nil))
	assert.Equal(t, KindProvider, auth.Kind)
	assert.False(t, auth.Retryable)

	assert.Equal(t, KindTimeout, FromProviderError(context.DeadlineExceeded).Kind)
	assert.Nil(t, FromProviderError(nil))

	cfgErr := NewConfigError("examples", "required", nil)
	assert.Same(t, cfgErr, FromProviderError(cfgErr))
	assert.Equal(t, KindInvalidConfig, KindOf(cfgErr))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Contains(t, cfgErr.Error(), "examples")
}

func TestExtractJSON(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(ExtractJSON(`  {"a":1} `)))
	assert.JSONEq(t, `[1,2]`, string(ExtractJSON("Here you go:\n```json\n[1,2]\n```\nthanks")))
	assert.JSONEq(t, `{"b":true}`, string(ExtractJSON("```\nnot json\n```\n```\n{\"b\":true}\n```")))
	assert.Nil(t, ExtractJSON("no json here"))
	assert.Nil(t, ExtractJSON(""))
}

func TestTruncateToTokenBudget(t *testing.T) {
	short := "keep me"
	assert.Equal(t, short, TruncateToTokenBudget(short, 50, 4))

	long := strings.Repeat("a", 1000)
	got := TruncateToTokenBudget(long, 10, 4)
	assert.Equal(t, strings.Repeat("a", 38)+"...", got)

	assert.Equal(t, strings.Repeat("a", 38)+"...", TruncateToTokenBudget(long, 10, 0))
	assert.Equal(t, "", TruncateToTokenBudget(long, 0, 4))

	runes := strings.Repeat("é", 1000)
	assert.Equal(t, strings.Repeat("é", 38)+"...", TruncateToTokenBudget(runes, 10, 4))
}

func TestCalculateImprovement(t *testing.T) {
	assert.InDelta(t, 50.0, CalculateImprovement(0.5, 0.75), 1e-9)
	assert.InDelta(t, -50.0, CalculateImprovement(0.8, 0.4), 1e-9)
	assert.Equal(t, 100.0, CalculateImprovement(0, 0.3))
	assert.Equal(t, 0.0, CalculateImprovement(0, 0))
}

func TestAggregate(t *testing.T) {
	scores := []float64{0.2, 0.8, 0.5}
	assert.InDelta(t, 0.5, Aggregate(scores, AggregationMean), 1e-9)
	assert.InDelta(t, 0.5, Aggregate(scores, AggregationMedian), 1e-9)
	assert.InDelta(t, 0.2, Aggregate(scores, AggregationMin), 1e-9)
	assert.InDelta(t, 0.8, Aggregate(scores, AggregationMax), 1e-9)
	assert.InDelta(t, 0.5, Aggregate(scores, Aggregation("bogus")), 1e-9)
	assert.InDelta(t, 2.5, Aggregate([]float64{4, 1, 3, 2}, AggregationMedian), 1e-9)
	assert.Equal(t, 0.0, Aggregate(nil, AggregationMax))
	assert.Equal(t, []float64{0.2, 0.8, 0.5}, scores)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(3))
	assert.Equal(t, 0.4, Clamp01(0.4))
}

func TestInvokerNoProvider(t *testing.T) {
	var inv Invoker
	assert.False(t, inv.HasProvider())

	res := inv.Complete(context.Background(), providers.NewUserRequest("hi"))
	assert.False(t, res.OK())
	require.NotNil(t, res.Err)
	assert.Equal(t, KindProvider, res.Err.Kind)
	assert.Equal(t, "", res.Content())
}

func TestInvokerRecoversPanic(t *testing.T) {
	mock := providers.NewMockProvider("mock")
	mock.SetHandler(func(ctx context.Context, req *providers.Request) (*providers.Response, error) {
		panic("boom")
	})
	metrics := NewMetrics()
	inv := Invoker{Provider: mock, Metrics: metrics, Technique: NameFewShot}

	req := providers.NewUserRequest("hi")
	req.Purpose = "rewrite"
	res := inv.Complete(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindProvider, res.Err.Kind)
	assert.Contains(t, res.Err.Error(), "panic")

	snap := metrics.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Failures)
}

func TestInvokerTimeout(t *testing.T) {
	mock := providers.NewMockProvider("mock")
	mock.SetHandler(func(ctx context.Context, req *providers.Request) (*providers.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	metrics := NewMetrics()
	inv := Invoker{Provider: mock, Timeout: 10 * time.Millisecond, Metrics: metrics, Technique: NameFeedbackIteration}

	req := providers.NewUserRequest("hi")
	req.Purpose = "judge"
	res := inv.Complete(context.Background(), req)
	require.NotNil(t, res.Err)
	assert.Equal(t, KindTimeout, res.Err.Kind)
	assert.Equal(t, 10*time.Millisecond, req.Timeout)

	snap := metrics.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1, snap[0].Timeouts)
}

func TestInvokerSuccessRecordsUsage(t *testing.T) {
	mock := providers.NewMockProvider("mock")
	mock.SetMockResponse("rewritten prompt")
	metrics := NewMetrics()
	inv := Invoker{Provider: mock, Metrics: metrics, Technique: NameFeedbackIteration}

	for _, purpose := range []string{"feedback", "rewrite", "rewrite"} {
		req := providers.NewUserRequest("hi")
		req.Purpose = purpose
		res := inv.Complete(context.Background(), req)
		require.True(t, res.OK())
		assert.Equal(t, "rewritten prompt", res.Content())
	}

	snap := metrics.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "feedback", snap[0].Purpose)
	assert.Equal(t, 1, snap[0].Calls)
	assert.Equal(t, "rewrite", snap[1].Purpose)
	assert.Equal(t, 2, snap[1].Calls)
	assert.Greater(t, snap[1].OutputTokens, 0)

	metrics.Reset()
	assert.Empty(t, metrics.Snapshot())
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCall(NameFewShot, "x", CompletionResult{}, time.Second)
		m.Reset()
	})
	assert.Nil(t, m.Snapshot())
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordCall(NameFewShot, "rewrite", CompletionResult{Response: providers.TextResponse("ok")}, time.Millisecond)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 50, snap[0].Calls)
	assert.Equal(t, time.Millisecond, snap[0].AverageLatency())
}

func TestEvaluateVariantsRecordedJudge(t *testing.T) {
	original := "Summarize the report"
	variants := []PromptVariant{
		{Content: "Summarize the report in 3 bullet points.", Score: 0.4, Original: original, OriginalScore: 0.6},
		{Content: "You must summarize the report as JSON.", Score: 0.9, Original: original, OriginalScore: 0.6},
		{Content: "Summarize the quarterly report.", Score: 0.6, Original: original, OriginalScore: 0.6},
	}

	res := EvaluateVariants(variants, RecordedJudge, AggregationMedian)
	require.NotNil(t, res.Best)
	require.Len(t, res.Variants, 3)

	assert.Equal(t, variants[1].Content, res.Best.Content)
	assert.Equal(t, 0.9, res.Variants[0].Breakdown.Overall)
	assert.Equal(t, 0.6, res.Variants[1].Breakdown.Overall)
	assert.Equal(t, 0.4, res.Variants[2].Breakdown.Overall)

	assert.Equal(t, 3, res.Metrics.VariantsEvaluated)
	assert.InDelta(t, 0.6333, res.Metrics.AverageScore, 1e-3)
	assert.InDelta(t, 0.6, res.Metrics.AggregateScore, 1e-9)
	assert.Equal(t, AggregationMedian, res.Metrics.Aggregation)
	assert.InDelta(t, 50.0, res.Metrics.ImprovementOverOriginal, 1e-9)
	assert.NotEmpty(t, res.Recommendations)
	assert.Contains(t, res.Recommendations[0], "improves on the original")

	// Breakdown dimensions come from the scoring engine.
	s := scoring.Score(variants[1].Content)
	assert.InDelta(t, float64(s.Clarity)/100, res.Best.Breakdown.Clarity, 1e-9)
	assert.InDelta(t, float64(s.Completeness)/100, res.Best.Breakdown.TaskAlignment, 1e-9)
}

func TestEvaluateVariantsDeterministic(t *testing.T) {
	variants := []PromptVariant{
		{Content: "Write a haiku about autumn leaves."},
		{Content: "Do stuff with it."},
	}
	first := EvaluateVariants(variants, HeuristicJudge, AggregationMean)
	second := EvaluateVariants(variants, HeuristicJudge, AggregationMean)

	require.Len(t, first.Variants, 2)
	for i := range first.Variants {
		assert.Equal(t, first.Variants[i].Breakdown, second.Variants[i].Breakdown)
	}
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.InDelta(t, float64(scoring.Score(first.Best.Content).Overall)/100, first.Best.Breakdown.Overall, 1e-9)
	assert.Equal(t, 0.0, first.Metrics.ImprovementOverOriginal)
}

func TestEvaluateVariantsEmpty(t *testing.T) {
	res := EvaluateVariants(nil, nil, "")
	assert.Nil(t, res.Best)
	assert.Empty(t, res.Variants)
	assert.Equal(t, 0, res.Metrics.VariantsEvaluated)
	assert.Equal(t, AggregationMean, res.Metrics.Aggregation)
	require.Len(t, res.Recommendations, 1)
}

func TestEvaluateVariantsNoImprovement(t *testing.T) {
	variants := []PromptVariant{{Content: "x", Score: 0.3, Original: "y", OriginalScore: 0.5}}
	res := EvaluateVariants(variants, RecordedJudge, AggregationMean)
	assert.InDelta(t, -40.0, res.Metrics.ImprovementOverOriginal, 1e-9)
	assert.Contains(t, res.Recommendations[0], "No variant improved")
}

type stubTechnique struct {
	meta       Metadata
	applicable bool
}

func (s stubTechnique) Metadata() Metadata { return s.meta }

func (s stubTechnique) Apply(ctx context.Context, prompt string, octx *OptimizationContext) ([]PromptVariant, error) {
	return []PromptVariant{{Content: prompt}}, nil
}

func (s stubTechnique) Evaluate(ctx context.Context, variants []PromptVariant) (*EvaluationResult, error) {
	return EvaluateVariants(variants, HeuristicJudge, AggregationMean), nil
}

func (s stubTechnique) IsApplicable(octx *OptimizationContext) bool { return s.applicable }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	feedback := stubTechnique{meta: Metadata{Name: NameFeedbackIteration, Priority: 100}, applicable: true}
	fewShot := stubTechnique{meta: Metadata{Name: NameFewShot, Priority: 50}, applicable: true}

	require.NoError(t, r.Register(fewShot))
	require.NoError(t, r.Register(feedback))
	assert.Error(t, r.Register(nil))
	err := r.Register(stubTechnique{meta: Metadata{Name: "unknown"}})
	assert.Equal(t, KindInvalidConfig, KindOf(err))

	assert.Equal(t, []Name{NameFeedbackIteration, NameFewShot}, r.Names())

	got, ok := r.Get(NameFewShot)
	require.True(t, ok)
	assert.Equal(t, NameFewShot, got.Metadata().Name)
	_, ok = r.Get("missing")
	assert.False(t, ok)

	applicable := r.Applicable(nil)
	require.Len(t, applicable, 2)
	assert.Equal(t, NameFeedbackIteration, applicable[0].Metadata().Name)

	require.NoError(t, r.Register(stubTechnique{meta: fewShot.meta, applicable: false}))
	applicable = r.Applicable(nil)
	require.Len(t, applicable, 1)
}
