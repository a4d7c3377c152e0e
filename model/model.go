// Package model defines the provider-agnostic language model abstraction and
// the normalized request/response structures exchanged with it. Concrete
// adapters live in the subpackages (openai, anthropic); tests use MockModel.
package model

import (
	"context"
	"sync"
)

// Chat roles used in normalized messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a function invocation requested by the model. Arguments hold
// the raw JSON string as produced by the provider.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single normalized chat message.
//
// Role "tool" carries a tool execution result back to the model: Text holds
// the result and ToolCallID references the originating call. Role
// "assistant" may carry ToolCalls alongside (or instead of) Text.
type Message struct {
	Role       string     `json:"role"`
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// FunctionDefinition describes a callable function exposed to the model.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDefinition wraps a function definition in the provider-neutral tool shape.
type ToolDefinition struct {
	Function FunctionDefinition `json:"function"`
}

// Request is a normalized generation request.
type Request struct {
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage reports token consumption for a single generation.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Response is a normalized generation result. A response may contain text,
// tool calls, or both.
type Response struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        TokenUsage `json:"usage"`
}

// HasToolCalls reports whether the model requested any tool invocations.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Info describes a model implementation for logging and capability checks.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the interface implemented by all language model adapters.
type Model interface {
	// Generate produces a single completion for the given request.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns metadata describing the model implementation.
	Info() Info
}

// MockModel is a scripted Model for tests and offline development. Each call
// to Generate pops the next queued response; when the queue is exhausted it
// repeats the last one (or a static fallback if none were queued). Requests
// are recorded for assertions.
type MockModel struct {
	mu        sync.Mutex
	responses []*Response
	requests  []Request
	err       error
}

// NewMockModel creates a MockModel that replays the given responses in order.
func NewMockModel(responses ...*Response) *MockModel {
	return &MockModel{responses: responses}
}

// FailWith makes every subsequent Generate call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Generate implements Model.
func (m *MockModel) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}

	if len(m.responses) == 0 {
		return &Response{Text: "mock response", FinishReason: "stop"}, nil
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}

	return resp, nil
}

// Requests returns a copy of all recorded requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}
