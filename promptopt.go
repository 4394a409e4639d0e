package promptopt

import (
	"context"

	"github.com/teilomillet/promptopt/config"
	"github.com/teilomillet/promptopt/fewshot"
	"github.com/teilomillet/promptopt/optimizer"
	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/scoring"
	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

// Score returns the deterministic quality scores of prompt.
func Score(prompt string) scoring.ScoreSet {
	return scoring.Score(prompt)
}

// NewProvider builds the OpenAI-compatible provider described by cfg.
func NewProvider(cfg *Config, logger utils.Logger) *providers.OpenAIProvider {
	return providers.NewOpenAIProvider(cfg.BaseURL, cfg.APIKey(),
		providers.WithOpenAIModel(cfg.Model),
		providers.WithOpenAIPricing(cfg.Pricing()),
		providers.WithOpenAILogger(logger),
	)
}

// NewRegistry registers every technique, configured from cfg and backed by provider.
func NewRegistry(cfg *Config, provider providers.Provider, logger utils.Logger, metrics *technique.Metrics) (*technique.Registry, error) {
	optCfg := cfg.OptimizerConfig()
	registry := technique.NewRegistry()

	feedback := optimizer.NewFeedbackOptimizer(provider,
		optimizer.WithConfig(optCfg),
		optimizer.WithLogger(logger),
		optimizer.WithMetrics(metrics),
		optimizer.WithDebugManager(utils.NewDebugManager(logger, cfg.DebugOptions())),
	)
	if err := registry.Register(feedback); err != nil {
		return nil, err
	}

	examples := fewshot.New(provider,
		fewshot.WithConfig(optCfg.Config),
		fewshot.WithLogger(logger),
		fewshot.WithMetrics(metrics),
	)
	if err := registry.Register(examples); err != nil {
		return nil, err
	}
	return registry, nil
}

// Optimize runs the feedback optimizer on prompt with configuration read from
// the environment and adjusted by opts.
func Optimize(ctx context.Context, prompt string, octx *technique.OptimizationContext, opts ...ConfigOption) ([]technique.PromptVariant, *optimizer.Trajectory, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	config.ApplyOptions(cfg, opts...)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := cfg.NewLogger()
	opt := optimizer.NewFeedbackOptimizer(NewProvider(cfg, logger),
		optimizer.WithConfig(cfg.OptimizerConfig()),
		optimizer.WithLogger(logger),
		optimizer.WithDebugManager(utils.NewDebugManager(logger, cfg.DebugOptions())),
	)
	return opt.ApplyWithTrajectory(ctx, prompt, octx)
}
