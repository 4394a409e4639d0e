// Package providers defines the Completion Provider contract consumed by every
// optimization technique, together with a mock implementation for tests and an
// adapter for OpenAI-compatible chat completion endpoints.
package providers

import "context"

// Provider executes a single model-inference call.
//
// Implementations must be safe for concurrent use: independent optimization
// runs may share one provider.
type Provider interface {
	// Complete sends req and returns the model output. Failures should be
	// reported as *Error so callers can branch on Retryable.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// EstimateTokens returns the provider's token count for text.
	EstimateTokens(text string) int
}

// ModelNamer is implemented by providers that have a default model, used when
// a technique is not configured with one.
type ModelNamer interface {
	DefaultModel() string
}

// DefaultModel returns p's default model, or "" if p does not expose one.
func DefaultModel(p Provider) string {
	if namer, ok := p.(ModelNamer); ok {
		return namer.DefaultModel()
	}
	return ""
}
