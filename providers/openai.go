package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/teilomillet/promptopt/tokens"
	"github.com/teilomillet/promptopt/utils"
)

var tracer = otel.GetTracerProvider().Tracer("promptopt/providers")

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-4o-mini"
)

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithOpenAIModel sets the model used when a request does not name one.
func WithOpenAIModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.model = model
	}
}

// WithOpenAIHTTPClient sets the HTTP client used for requests.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.httpClient = client
	}
}

// WithOpenAIPricing sets the price list used to fill Response.Cost.
func WithOpenAIPricing(pricing Pricing) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.pricing = pricing
	}
}

// WithOpenAILogger sets the provider logger.
func WithOpenAILogger(logger utils.Logger) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.logger = logger
	}
}

// OpenAIProvider talks to any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	model      string
	pricing    Pricing
	counter    *tokens.Counter
	logger     utils.Logger
}

// NewOpenAIProvider creates a provider for baseURL (e.g. "https://api.openai.com/v1").
func NewOpenAIProvider(baseURL, apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	p := &OpenAIProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   DefaultOpenAIModel,
		logger:  utils.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = p.baseURL
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	p.client = openai.NewClientWithConfig(cfg)
	p.counter = tokens.NewCounter(p.model, p.logger)
	return p
}

func (p *OpenAIProvider) DefaultModel() string { return p.model }

// EstimateTokens counts tokens with the model's tiktoken encoding when available.
func (p *OpenAIProvider) EstimateTokens(text string) int {
	return p.counter.Count(text)
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	chatReq := p.chatRequest(req)

	ctx, span := tracer.Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", chatReq.Model),
		attribute.String("llm.purpose", req.Purpose),
		attribute.Int("llm.request.max_tokens", chatReq.MaxTokens),
		attribute.Int("llm.request.messages", len(chatReq.Messages)),
		attribute.Bool("llm.request.json_mode", req.JSONMode),
	)

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	latency := time.Since(start)
	if err != nil {
		perr := classifyOpenAIError(err)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Error())
		p.logger.Warn("Chat completion failed", "model", chatReq.Model, "purpose", req.Purpose, "kind", perr.Kind, "error", err)
		return nil, perr
	}

	out := &Response{
		FinishReason: FinishReasonNone,
		Usage:        NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Latency:      latency,
	}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Content = choice.Message.Content
		out.FinishReason = finishReason(choice.FinishReason)
	}
	out.Cost = p.pricing.CostOf(out.Usage)

	span.SetAttributes(
		attribute.Int("llm.usage.input_tokens", out.Usage.InputTokens),
		attribute.Int("llm.usage.output_tokens", out.Usage.OutputTokens),
		attribute.String("llm.response.finish_reason", string(out.FinishReason)),
		attribute.Int("llm.response.content_length", len(out.Content)),
	)
	p.logger.Debug("Chat completion succeeded", "model", chatReq.Model, "purpose", req.Purpose, "latency", latency)

	if out.FinishReason == FinishReasonContentFilter {
		return out, NewError(ErrorKindContentFiltered, "response blocked by content filter", nil)
	}
	return out, nil
}

func (p *OpenAIProvider) chatRequest(req *Request) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		Stop:        req.Stop,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	return chatReq
}

func finishReason(r openai.FinishReason) FinishReason {
	switch r {
	case openai.FinishReasonStop:
		return FinishReasonStop
	case openai.FinishReasonLength:
		return FinishReasonLength
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return FinishReasonToolCalls
	case openai.FinishReasonContentFilter:
		return FinishReasonContentFilter
	default:
		return FinishReasonNone
	}
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := KindForStatus(apiErr.HTTPStatusCode)
		if code, ok := apiErr.Code.(string); ok {
			switch code {
			case "context_length_exceeded":
				kind = ErrorKindContextLengthExceeded
			case "content_filter":
				kind = ErrorKindContentFiltered
			case "model_not_found":
				kind = ErrorKindModelNotFound
			case "invalid_api_key":
				kind = ErrorKindAuthentication
			}
		}
		return &Error{Kind: kind, Message: apiErr.Message, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		kind := KindForStatus(reqErr.HTTPStatusCode)
		if reqErr.HTTPStatusCode == 0 {
			kind = ErrorKindNetworkError
		}
		return &Error{Kind: kind, Message: "request failed", StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	return &Error{Kind: KindOf(err), Message: "chat completion failed", Err: err}
}
