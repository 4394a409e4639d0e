// Package promptopt scores prompts and improves them with pluggable
// optimization techniques. This file re-exports configuration types and
// functions from the config package.
package promptopt

import (
	"github.com/teilomillet/promptopt/config"
	"github.com/teilomillet/promptopt/utils"
)

// Re-export core configuration types for easier access
type (
	// Config holds provider and optimizer settings. See config.Config.
	//
	// Example usage:
	//   cfg := NewConfig()
	//   ApplyOptions(cfg, SetModel("gpt-4o"), SetMaxIterations(8))
	Config = config.Config

	// ConfigOption modifies a Config.
	ConfigOption = config.ConfigOption

	// LogLevel defines the verbosity of logging output.
	LogLevel = utils.LogLevel
)

// Re-export core configuration functions
var (
	// LoadConfig reads the configuration from LLM_* and OPTIMIZER_*
	// environment variables and collects *_API_KEY variables.
	LoadConfig = config.LoadConfig

	NewConfig    = config.NewConfig
	ApplyOptions = config.ApplyOptions

	SetProvider                = config.SetProvider
	SetModel                   = config.SetModel
	SetBaseURL                 = config.SetBaseURL
	SetAPIKey                  = config.SetAPIKey
	SetTemperature             = config.SetTemperature
	SetTimeout                 = config.SetTimeout
	SetLogLevel                = config.SetLogLevel
	SetLogger                  = config.SetLogger
	SetPricing                 = config.SetPricing
	SetMaxVariants             = config.SetMaxVariants
	SetMaxIterations           = config.SetMaxIterations
	SetMinImprovementThreshold = config.SetMinImprovementThreshold
	SetOptimizerModel          = config.SetOptimizerModel
	SetScoreAggregation        = config.SetScoreAggregation
	SetHistorySize             = config.SetHistorySize
	SetOptimizerTemperature    = config.SetOptimizerTemperature
	SetDebug                   = config.SetDebug
)

// Log levels
const (
	LogLevelOff   = utils.LogLevelOff
	LogLevelError = utils.LogLevelError
	LogLevelWarn  = utils.LogLevelWarn
	LogLevelInfo  = utils.LogLevelInfo
	LogLevelDebug = utils.LogLevelDebug
)
