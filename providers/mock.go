package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/teilomillet/promptopt/tokens"
)

// ErrMockResponsesExhausted is returned when a non-looping response queue runs dry.
var ErrMockResponsesExhausted = errors.New("mock responses exhausted")

// MockHandler computes the response for a request. It takes precedence over
// queued responses when set.
type MockHandler func(ctx context.Context, req *Request) (*Response, error)

// MockProvider implements Provider for testing purposes. It is safe for concurrent use.
type MockProvider struct {
	mu            sync.Mutex
	model         string
	responseText  string
	err           error
	responses     []string
	currentIndex  int
	loopResponses bool
	handler       MockHandler
	requests      []*Request
}

// NewMockProvider creates a new mock provider instance for testing.
func NewMockProvider(model string) *MockProvider {
	return &MockProvider{
		model:        model,
		responseText: "This is a mock response",
	}
}

// SetMockResponse configures the default response text.
func (p *MockProvider) SetMockResponse(response string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseText = response
}

// SetMockError makes every call fail with err. Pass nil to clear it.
func (p *MockProvider) SetMockError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// SetResponses configures a list of responses to be returned in sequence.
func (p *MockProvider) SetResponses(responses []string, loop bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
	p.currentIndex = 0
	p.loopResponses = loop
}

// SetHandler routes every call through h.
func (p *MockProvider) SetHandler(h MockHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// Requests returns a copy of the requests received so far.
func (p *MockProvider) Requests() []*Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Request(nil), p.requests...)
}

// CallCount returns the number of Complete calls.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *MockProvider) DefaultModel() string { return p.model }

func (p *MockProvider) EstimateTokens(text string) int {
	return tokens.Estimate(text)
}

func (p *MockProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	handler := p.handler
	mockErr := p.err
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, NewError(KindOf(err), "request cancelled", err)
	}
	if mockErr != nil {
		return nil, mockErr
	}
	if handler != nil {
		return handler(ctx, req)
	}

	text, err := p.nextResponse()
	if err != nil {
		return nil, NewError(ErrorKindUnknown, "mock provider", err)
	}
	return TextResponse(text), nil
}

func (p *MockProvider) nextResponse() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.responses) == 0 {
		return p.responseText, nil
	}
	if p.currentIndex >= len(p.responses) {
		if !p.loopResponses {
			return "", ErrMockResponsesExhausted
		}
		p.currentIndex = 0
	}
	response := p.responses[p.currentIndex]
	p.currentIndex++
	return response, nil
}

// TextResponse builds a successful response carrying text, with usage estimated from it.
func TextResponse(text string) *Response {
	return &Response{
		Content:      text,
		FinishReason: FinishReasonStop,
		Usage:        NewUsage(0, tokens.Estimate(text)),
	}
}
