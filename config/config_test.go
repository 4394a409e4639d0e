package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptopt/config"
	"github.com/teilomillet/promptopt/technique"
	"github.com/teilomillet/promptopt/utils"
)

// testLogger captures log messages for testing
type testLogger struct {
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "DEBUG: "+msg)
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "INFO: "+msg)
}

func (l *testLogger) Warn(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "WARN: "+msg)
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.messages = append(l.messages, "ERROR: "+msg)
}

func (l *testLogger) SetLevel(level utils.LogLevel) {}

func TestSetLogger(t *testing.T) {
	customLogger := &testLogger{}

	cfg := config.NewConfig()
	config.ApplyOptions(cfg, config.SetLogger(customLogger))

	assert.Equal(t, customLogger, cfg.Logger)
	assert.Equal(t, customLogger, cfg.NewLogger())
}

func TestNewLoggerFromLevel(t *testing.T) {
	cfg := config.NewConfig()
	logger := cfg.NewLogger()
	assert.IsType(t, &utils.DefaultLogger{}, logger)
}

func TestNewConfigIsValid(t *testing.T) {
	cfg := config.NewConfig()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.OptimizerConfig().Validate())
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("LLM_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPTIMIZER_MAX_ITERATIONS", "7")
	t.Setenv("OPTIMIZER_SCORE_AGGREGATION", "median")
	t.Setenv("OPTIMIZER_MODEL", "gpt-4o-mini")
	t.Setenv("OPTIMIZER_DEBUG", "true")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, utils.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.True(t, cfg.DebugOptions().Enabled)

	opt := cfg.OptimizerConfig()
	assert.Equal(t, 7, opt.MaxIterations)
	assert.Equal(t, technique.AggregationMedian, opt.ScoreAggregation)
	assert.Equal(t, "gpt-4o-mini", opt.OptimizerModel)
	assert.Equal(t, "gpt-4o", opt.Model)
	assert.Equal(t, 5*time.Second, opt.Timeout)
	assert.InDelta(t, 0.02, opt.MinImprovementThreshold, 1e-9)
	assert.Equal(t, 5, opt.HistorySize)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("OPTIMIZER_SCORE_AGGREGATION", "mode")
	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsUnparsableValues(t *testing.T) {
	t.Setenv("OPTIMIZER_MAX_ITERATIONS", "many")
	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	cfg := config.NewConfig()
	config.ApplyOptions(cfg,
		config.SetProvider("OpenAI"),
		config.SetAPIKey("key"),
		config.SetModel("m"),
		config.SetBaseURL("http://example.com/v1"),
		config.SetTemperature(0.2),
		config.SetTimeout(time.Second),
		config.SetLogLevel(utils.LogLevelInfo),
		config.SetPricing(0.15, 0.6),
		config.SetMaxVariants(2),
		config.SetMaxIterations(3),
		config.SetMinImprovementThreshold(0.05),
		config.SetOptimizerModel("opt"),
		config.SetScoreAggregation(technique.AggregationMax),
		config.SetHistorySize(4),
		config.SetOptimizerTemperature(1.1),
		config.SetDebug(t.TempDir()),
	)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "key", cfg.APIKey())
	assert.Equal(t, 0.6, cfg.Pricing().OutputPerMillion)
	assert.True(t, cfg.Debug)

	opt := cfg.OptimizerConfig()
	assert.Equal(t, 2, opt.MaxVariants)
	assert.Equal(t, 3, opt.MaxIterations)
	assert.Equal(t, technique.AggregationMax, opt.ScoreAggregation)
	assert.Equal(t, 4, opt.HistorySize)
	assert.Equal(t, 1.1, opt.OptimizerTemperature)
	assert.Equal(t, 0.2, opt.Temperature)

	config.ApplyOptions(cfg, config.SetMaxIterations(0))
	assert.Error(t, cfg.Validate())
}

func TestLoggerInterface(t *testing.T) {
	var _ utils.Logger = &testLogger{}
	var _ utils.Logger = utils.NewNopLogger()
	var _ utils.Logger = utils.NewLogger(utils.LogLevelInfo)
}
