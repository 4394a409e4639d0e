package providers

import "time"

// Role tags a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a vendor-neutral completion request.
type Request struct {
	Model        string        `json:"model,omitempty"`
	Messages     []Message     `json:"messages"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
	MaxTokens    int           `json:"max_tokens,omitempty"`
	Temperature  float64       `json:"temperature"`
	TopP         float64       `json:"top_p,omitempty"`
	Stop         []string      `json:"stop,omitempty"`
	JSONMode     bool          `json:"json_mode,omitempty"`
	Timeout      time.Duration `json:"-"`

	// Purpose labels the call for logs, traces and metrics (e.g. "feedback").
	// It is never sent to the model.
	Purpose string `json:"-"`
}

// NewUserRequest builds a request with a single user message.
func NewUserRequest(content string) *Request {
	return &Request{Messages: []Message{{Role: RoleUser, Content: content}}}
}

// FinishReason reports why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
	FinishReasonNone          FinishReason = ""
)

// Usage is the token accounting for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// NewUsage fills TotalTokens from input and output.
func NewUsage(input, output int) Usage {
	return Usage{InputTokens: input, OutputTokens: output, TotalTokens: input + output}
}

// Cost is the monetary cost of one call.
type Cost struct {
	Input    float64 `json:"input"`
	Output   float64 `json:"output"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
}

// Pricing is a per-million-token price list used to derive Cost.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	Currency         string
}

// CostOf prices usage. A zero Pricing yields a zero Cost.
func (p Pricing) CostOf(u Usage) Cost {
	in := float64(u.InputTokens) * p.InputPerMillion / 1e6
	out := float64(u.OutputTokens) * p.OutputPerMillion / 1e6
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return Cost{Input: in, Output: out, Total: in + out, Currency: currency}
}

// Response is the result of a completion call.
type Response struct {
	Content      string        `json:"content"`
	FinishReason FinishReason  `json:"finish_reason"`
	Usage        Usage         `json:"usage"`
	Cost         Cost          `json:"cost"`
	Latency      time.Duration `json:"latency"`
}
