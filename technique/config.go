package technique

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Default technique configuration values.
const (
	DefaultMaxVariants      = 3
	DefaultTemperature      = 0.7
	DefaultTimeout          = 30 * time.Second
	DefaultIncludeReasoning = true
)

// validate is the shared validator instance used across the package.
var validate = validator.New()

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	return validate.Struct(s)
}

// Config is the configuration every technique accepts.
type Config struct {
	MaxVariants      int            `json:"max_variants" validate:"min=1,max=20"`
	Temperature      float64        `json:"temperature" validate:"gte=0,lte=2"`
	Timeout          time.Duration  `json:"timeout" validate:"gte=0s"`
	IncludeReasoning bool           `json:"include_reasoning"`
	Model            string         `json:"model,omitempty"`
	Options          map[string]any `json:"options,omitempty"`
}

// DefaultConfig returns the default technique configuration.
func DefaultConfig() Config {
	return Config{
		MaxVariants:      DefaultMaxVariants,
		Temperature:      DefaultTemperature,
		Timeout:          DefaultTimeout,
		IncludeReasoning: DefaultIncludeReasoning,
	}
}

// Validate reports an INVALID_CONFIG error naming the first offending field.
func (c Config) Validate() error {
	return asConfigError(Validate(c))
}

// IntOption returns Options[key] as an int, or def when absent or not numeric.
func (c Config) IntOption(key string, def int) int {
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// asConfigError converts validator errors into a technique *Error.
func asConfigError(err error) error {
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return NewConfigError(first.Field(),
			fmt.Sprintf("failed %q constraint (value %v)", first.Tag(), first.Value()), err)
	}
	return NewConfigError("", "invalid configuration", err)
}

// ValidateConfig validates any tagged configuration struct and reports
// failures as INVALID_CONFIG errors.
func ValidateConfig(s any) error {
	return asConfigError(Validate(s))
}
