// Package fewshot implements an example-driven technique: it shows the model
// caller-supplied before/after rewrites and asks for new rewrites in the same
// spirit.
package fewshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/tokens"
	"github.com/teilomillet/promptopt/utils"
)

const (
	DefaultPriority    = 50
	DefaultMaxExamples = 3

	// OptionMaxExamples is the Config.Options key bounding how many examples
	// are shown to the model.
	OptionMaxExamples = "max_examples"

	// ExampleTokenBudget bounds each side of a rendered example.
	ExampleTokenBudget = 300

	purposeRewrite = "rewrite"
)

const systemPrompt = "You are an expert prompt engineer. You improve prompts by following the pattern shown in examples. " +
	"Always answer with a single JSON object that matches the given schema."

// rewrite is one rewritten prompt as returned by the model.
type rewrite struct {
	Prompt    string `json:"prompt" jsonschema:"required,description=The complete rewritten prompt"`
	Reasoning string `json:"reasoning,omitempty" jsonschema:"description=Which example patterns were applied and why"`
}

type rewriteSet struct {
	Variants []rewrite `json:"variants" jsonschema:"required,minItems=1,description=Distinct rewrites of the prompt"`
}

// responseSchema is the JSON schema of rewriteSet, embedded in every request.
var responseSchema = func() string {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	out, err := json.MarshalIndent(r.Reflect(&rewriteSet{}), "", "  ")
	if err != nil {
		panic(fmt.Errorf("fewshot: encode response schema: %w", err))
	}
	return string(out)
}()

// Option configures a Technique.
type Option func(*Technique)

// WithConfig replaces the technique configuration.
func WithConfig(cfg technique.Config) Option {
	return func(t *Technique) {
		t.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger utils.Logger) Option {
	return func(t *Technique) {
		t.logger = logger
	}
}

// WithMetrics records provider calls into m.
func WithMetrics(m *technique.Metrics) Option {
	return func(t *Technique) {
		t.metrics = m
	}
}

// Technique is the few-shot technique.
type Technique struct {
	provider providers.Provider
	config   technique.Config
	logger   utils.Logger
	metrics  *technique.Metrics
	invoker  technique.Invoker
}

var _ technique.Technique = (*Technique)(nil)

// New creates a few-shot technique backed by provider.
func New(provider providers.Provider, opts ...Option) *Technique {
	t := &Technique{
		provider: provider,
		config:   technique.DefaultConfig(),
		logger:   utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = utils.NewNopLogger()
	}
	t.invoker = technique.Invoker{
		Provider:  provider,
		Timeout:   t.config.Timeout,
		Logger:    t.logger,
		Metrics:   t.metrics,
		Technique: technique.NameFewShot,
	}
	return t
}

func (t *Technique) Metadata() technique.Metadata {
	return technique.Metadata{
		Name:        technique.NameFewShot,
		Category:    technique.CategoryExampleBased,
		Priority:    DefaultPriority,
		Description: "Rewrites the prompt by following caller-supplied before/after examples.",
	}
}

// IsApplicable requires at least one example.
func (t *Technique) IsApplicable(octx *technique.OptimizationContext) bool {
	return octx.HasExamples()
}

// Apply asks the model for up to MaxVariants rewrites guided by the examples.
// When the model fails or answers with unusable output, a single variant
// made of the prompt followed by the examples is returned instead.
func (t *Technique) Apply(ctx context.Context, prompt string, octx *technique.OptimizationContext) ([]technique.PromptVariant, error) {
	if err := t.config.Validate(); err != nil {
		return nil, err
	}
	if !t.invoker.HasProvider() {
		return nil, technique.NewNoProviderError()
	}
	if !octx.HasExamples() {
		return nil, technique.NewConfigError("examples", "the few-shot technique needs at least one example", nil)
	}

	examples := SelectExamples(octx.Examples, octx.DomainHints, t.config.IntOption(OptionMaxExamples, DefaultMaxExamples))
	model := t.model()
	req := &providers.Request{
		Model:        model,
		SystemPrompt: systemPrompt,
		Messages:     []providers.Message{{Role: providers.RoleUser, Content: buildRequest(prompt, examples, octx, t.config.MaxVariants)}},
		Temperature:  t.config.Temperature,
		JSONMode:     true,
		Purpose:      purposeRewrite,
	}

	base := technique.PromptVariant{
		Technique:     technique.CategoryExampleBased,
		Model:         model,
		Original:      prompt,
		OriginalScore: technique.HeuristicJudge(technique.PromptVariant{Content: prompt}),
	}

	result := t.invoker.Complete(ctx, req)
	if !result.OK() {
		t.logger.Warn("Few-shot request failed, using templated variant", "kind", result.Err.Kind)
		return []technique.PromptVariant{t.variant(base, Render(prompt, examples), "")}, nil
	}

	rewrites := parseRewrites(result.Content(), t.config.MaxVariants)
	if len(rewrites) == 0 {
		t.logger.Warn("Few-shot response had no usable rewrites, using templated variant")
		return []technique.PromptVariant{t.variant(base, Render(prompt, examples), "")}, nil
	}

	out := make([]technique.PromptVariant, 0, len(rewrites))
	for _, rw := range rewrites {
		out = append(out, t.variant(base, rw.Prompt, rw.Reasoning))
	}
	t.logger.Debug("Few-shot variants generated", "count", len(out), "examples", len(examples))
	return out, nil
}

// Evaluate ranks variants by their heuristic score.
func (t *Technique) Evaluate(_ context.Context, variants []technique.PromptVariant) (*technique.EvaluationResult, error) {
	return technique.EvaluateVariants(variants, technique.HeuristicJudge, technique.AggregationMean), nil
}

func (t *Technique) variant(base technique.PromptVariant, content, reasoning string) technique.PromptVariant {
	v := base
	v.Content = content
	v.Score = technique.HeuristicJudge(v)
	if t.config.IncludeReasoning {
		v.Reasoning = reasoning
	}
	return v
}

func (t *Technique) model() string {
	if t.config.Model != "" {
		return t.config.Model
	}
	if m := providers.DefaultModel(t.provider); m != "" {
		return m
	}
	return "default"
}

// SelectExamples returns up to limit examples, those sharing more tags with
// hints first and caller order otherwise. Both sides of every returned
// example are truncated to ExampleTokenBudget.
func SelectExamples(examples []technique.Example, hints []string, limit int) []technique.Example {
	if limit <= 0 {
		limit = DefaultMaxExamples
	}
	wanted := make(map[string]bool, len(hints))
	for _, h := range hints {
		wanted[strings.ToLower(strings.TrimSpace(h))] = true
	}
	overlap := func(ex technique.Example) int {
		n := 0
		for _, tag := range ex.Tags {
			if wanted[strings.ToLower(strings.TrimSpace(tag))] {
				n++
			}
		}
		return n
	}

	ranked := append([]technique.Example(nil), examples...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return overlap(ranked[i]) > overlap(ranked[j])
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Before = technique.TruncateToTokenBudget(ranked[i].Before, ExampleTokenBudget, tokens.DefaultCharsPerToken)
		ranked[i].After = technique.TruncateToTokenBudget(ranked[i].After, ExampleTokenBudget, tokens.DefaultCharsPerToken)
	}
	return ranked
}

// Render appends examples to prompt as input/output demonstrations.
func Render(prompt string, examples []technique.Example) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nExamples:\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "\nExample %d:\nInput: %s\nOutput: %s\n", i+1, ex.Before, ex.After)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildRequest(prompt string, examples []technique.Example, octx *technique.OptimizationContext, n int) string {
	var b strings.Builder
	b.WriteString("The following examples show prompts before and after improvement:\n")
	for i, ex := range examples {
		fmt.Fprintf(&b, "\nExample %d\nBefore: %s\nAfter: %s\n", i+1, ex.Before, ex.After)
	}
	if constraints := octx.SortedConstraints(); len(constraints) > 0 {
		b.WriteString("\nEvery rewrite must respect these constraints:\n")
		for _, c := range constraints {
			fmt.Fprintf(&b, "- %s", c.Description)
			if c.Value != "" {
				fmt.Fprintf(&b, " (%s)", c.Value)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nApply the same kind of improvements to this prompt and produce %d distinct rewrites:\n", n)
	fmt.Fprintf(&b, "\"\"\"\n%s\n\"\"\"\n", prompt)
	fmt.Fprintf(&b, "\nAnswer with JSON matching this schema:\n%s\n", responseSchema)
	return b.String()
}

// parseRewrites decodes the model reply, dropping empty and duplicate
// prompts, and keeps at most limit rewrites.
func parseRewrites(content string, limit int) []rewrite {
	raw := technique.ExtractJSON(content)
	if raw == nil {
		return nil
	}
	var set rewriteSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil
	}

	seen := make(map[string]bool, len(set.Variants))
	out := make([]rewrite, 0, len(set.Variants))
	for _, rw := range set.Variants {
		rw.Prompt = strings.TrimSpace(rw.Prompt)
		if rw.Prompt == "" || seen[rw.Prompt] {
			continue
		}
		seen[rw.Prompt] = true
		out = append(out, rw)
		if len(out) == limit {
			break
		}
	}
	return out
}
