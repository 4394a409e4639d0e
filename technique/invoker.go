package technique

import (
	"context"
	"fmt"
	"time"

	"github.com/teilomillet/promptopt/providers"
	"github.com/teilomillet/promptopt/tokens"
	"github.com/teilomillet/promptopt/utils"
)

// CompletionResult is the tagged outcome of a provider call: exactly one of
// Response and Err is set.
type CompletionResult struct {
	Response *providers.Response
	Err      *Error
}

// OK reports whether the call succeeded.
func (r CompletionResult) OK() bool {
	return r.Err == nil && r.Response != nil
}

// Content returns the response text, or "" on failure.
func (r CompletionResult) Content() string {
	if r.Response == nil {
		return ""
	}
	return r.Response.Content
}

// Invoker wraps a provider so that every failure, including panics, comes
// back as a CompletionResult. The zero Invoker has no provider.
type Invoker struct {
	Provider providers.Provider
	Timeout  time.Duration
	Logger   utils.Logger
	Metrics  *Metrics
	// Technique labels metrics and log lines.
	Technique Name
}

// HasProvider reports whether a provider is configured.
func (inv Invoker) HasProvider() bool {
	return inv.Provider != nil
}

// Complete sends req with the configured per-request timeout.
func (inv Invoker) Complete(ctx context.Context, req *providers.Request) (result CompletionResult) {
	logger := inv.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if inv.Provider == nil {
		return CompletionResult{Err: NewNoProviderError()}
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
		if req.Timeout == 0 {
			req.Timeout = inv.Timeout
		}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Provider panicked", "technique", inv.Technique, "purpose", req.Purpose, "panic", r)
			result = CompletionResult{Err: &Error{
				Kind:    KindProvider,
				Message: "provider panicked",
				Err:     fmt.Errorf("panic: %v", r),
			}}
		}
		inv.Metrics.RecordCall(inv.Technique, req.Purpose, result, time.Since(start))
	}()

	resp, err := inv.Provider.Complete(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = providers.NewError(providers.KindOf(ctx.Err()), "request deadline exceeded", ctx.Err())
	}
	if err != nil {
		terr := FromProviderError(err)
		logger.Warn("Completion failed", "technique", inv.Technique, "purpose", req.Purpose,
			"kind", terr.Kind, "retryable", terr.Retryable, "error", err)
		return CompletionResult{Err: terr}
	}
	if resp == nil {
		return CompletionResult{Err: &Error{Kind: KindProvider, Message: "provider returned no response"}}
	}
	return CompletionResult{Response: resp}
}

// EstimateTokens uses the provider's estimate, or the shared heuristic when
// there is no provider or it reports nothing.
func (inv Invoker) EstimateTokens(text string) int {
	if inv.Provider != nil {
		if n := inv.Provider.EstimateTokens(text); n > 0 || text == "" {
			return n
		}
	}
	return tokens.Estimate(text)
}
