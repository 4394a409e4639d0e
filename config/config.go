package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/teilomillet/promptopt/optimizer"
	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

var validate = validator.New()

// Config holds provider and optimizer settings, read from the environment by
// LoadConfig or built with NewConfig and ConfigOption setters.
type Config struct {
	Provider    string         `env:"LLM_PROVIDER" envDefault:"openai" validate:"required"`
	Model       string         `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL     string         `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1" validate:"required,url"`
	Temperature float64        `env:"LLM_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	Timeout     time.Duration  `env:"LLM_TIMEOUT" envDefault:"30s" validate:"gte=0s"`
	LogLevel    utils.LogLevel `env:"LLM_LOG_LEVEL" envDefault:"WARN"`
	APIKeys     map[string]string

	// Prices per million tokens, used to fill Response.Cost.
	InputPricePerMillion  float64 `env:"LLM_INPUT_PRICE_PER_MILLION" envDefault:"0" validate:"gte=0"`
	OutputPricePerMillion float64 `env:"LLM_OUTPUT_PRICE_PER_MILLION" envDefault:"0" validate:"gte=0"`

	MaxVariants             int     `env:"OPTIMIZER_MAX_VARIANTS" envDefault:"3" validate:"min=1,max=20"`
	IncludeReasoning        bool    `env:"OPTIMIZER_INCLUDE_REASONING" envDefault:"true"`
	MaxIterations           int     `env:"OPTIMIZER_MAX_ITERATIONS" envDefault:"5" validate:"min=1,max=100"`
	MinImprovementThreshold float64 `env:"OPTIMIZER_MIN_IMPROVEMENT" envDefault:"0.02" validate:"gte=0,lte=1"`
	OptimizerModel          string  `env:"OPTIMIZER_MODEL"`
	ScoreAggregation        string  `env:"OPTIMIZER_SCORE_AGGREGATION" envDefault:"mean" validate:"oneof=mean median min max"`
	HistorySize             int     `env:"OPTIMIZER_HISTORY_SIZE" envDefault:"5" validate:"min=1,max=50"`
	OptimizerTemperature    float64 `env:"OPTIMIZER_TEMPERATURE" envDefault:"0.8" validate:"gte=0,lte=2"`

	Debug    bool   `env:"OPTIMIZER_DEBUG" envDefault:"false"`
	DebugDir string `env:"OPTIMIZER_DEBUG_DIR" envDefault:"debug_output"`

	// Logger overrides the logger built from LogLevel.
	Logger utils.Logger
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	loadAPIKeys(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAPIKeys collects every <PROVIDER>_API_KEY variable, keyed by lower-case provider.
func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

type ConfigOption func(*Config)

// NewConfig returns the default configuration without reading the environment.
func NewConfig() *Config {
	return &Config{
		Provider:                "openai",
		Model:                   providers.DefaultOpenAIModel,
		BaseURL:                 providers.DefaultOpenAIBaseURL,
		Temperature:             technique.DefaultTemperature,
		Timeout:                 technique.DefaultTimeout,
		LogLevel:                utils.LogLevelWarn,
		APIKeys:                 make(map[string]string),
		MaxVariants:             technique.DefaultMaxVariants,
		IncludeReasoning:        technique.DefaultIncludeReasoning,
		MaxIterations:           optimizer.DefaultMaxIterations,
		MinImprovementThreshold: optimizer.DefaultMinImprovementThreshold,
		ScoreAggregation:        string(optimizer.DefaultScoreAggregation),
		HistorySize:             optimizer.DefaultHistorySize,
		OptimizerTemperature:    optimizer.DefaultOptimizerTemperature,
		DebugDir:                "debug_output",
	}
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// APIKey returns the key configured for the current provider.
func (c *Config) APIKey() string {
	return c.APIKeys[strings.ToLower(c.Provider)]
}

// NewLogger returns Logger when set, otherwise a logger at LogLevel.
func (c *Config) NewLogger() utils.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return utils.NewLogger(c.LogLevel)
}

// Pricing returns the configured price list.
func (c *Config) Pricing() providers.Pricing {
	return providers.Pricing{
		InputPerMillion:  c.InputPricePerMillion,
		OutputPerMillion: c.OutputPricePerMillion,
	}
}

// OptimizerConfig maps the configuration onto the feedback optimizer's settings.
func (c *Config) OptimizerConfig() optimizer.Config {
	cfg := optimizer.DefaultConfig()
	cfg.MaxVariants = c.MaxVariants
	cfg.Temperature = c.Temperature
	cfg.Timeout = c.Timeout
	cfg.IncludeReasoning = c.IncludeReasoning
	cfg.Model = c.Model
	cfg.MaxIterations = c.MaxIterations
	cfg.MinImprovementThreshold = c.MinImprovementThreshold
	cfg.OptimizerModel = c.OptimizerModel
	cfg.ScoreAggregation = technique.Aggregation(c.ScoreAggregation)
	cfg.HistorySize = c.HistorySize
	cfg.OptimizerTemperature = c.OptimizerTemperature
	return cfg
}

// DebugOptions returns the debug manager settings.
func (c *Config) DebugOptions() utils.DebugOptions {
	return utils.DebugOptions{
		Enabled:      c.Debug,
		OutputDir:    c.DebugDir,
		SaveToFile:   c.Debug,
		LogPrompts:   c.Debug,
		LogResponses: c.Debug,
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetBaseURL(baseURL string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

func SetTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[strings.ToLower(c.Provider)] = apiKey
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// SetLogger sets a custom logger, used instead of one built from LogLevel.
func SetLogger(logger utils.Logger) ConfigOption {
	return func(c *Config) {
		c.Logger = logger
	}
}

func SetPricing(inputPerMillion, outputPerMillion float64) ConfigOption {
	return func(c *Config) {
		c.InputPricePerMillion = inputPerMillion
		c.OutputPricePerMillion = outputPerMillion
	}
}

func SetMaxVariants(n int) ConfigOption {
	return func(c *Config) {
		c.MaxVariants = n
	}
}

func SetMaxIterations(n int) ConfigOption {
	return func(c *Config) {
		c.MaxIterations = n
	}
}

func SetMinImprovementThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.MinImprovementThreshold = threshold
	}
}

func SetOptimizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.OptimizerModel = model
	}
}

func SetScoreAggregation(aggregation technique.Aggregation) ConfigOption {
	return func(c *Config) {
		c.ScoreAggregation = string(aggregation)
	}
}

func SetHistorySize(n int) ConfigOption {
	return func(c *Config) {
		c.HistorySize = n
	}
}

func SetOptimizerTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.OptimizerTemperature = temperature
	}
}

// SetDebug enables debug output written to dir.
func SetDebug(dir string) ConfigOption {
	return func(c *Config) {
		c.Debug = true
		if dir != "" {
			c.DebugDir = dir
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
