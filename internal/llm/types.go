package llm

import (
	"context"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
)

// ToolSpec declares a capability function to the reasoning backend.
type ToolSpec struct {
	Name        string
	Description string

	// Parameters is a JSON-schema object describing the argument shape.
	Parameters map[string]any
}

// Request is a single completion request.
type Request struct {
	// Model is the resolved model name for this call.
	Model string

	// Temperature is the sampling temperature. Ignored for reasoning
	// models that reject the parameter.
	Temperature float64

	// Messages is the ordered conversation to complete.
	Messages []conversation.Message

	// Tools are the capability schemas the backend may call.
	Tools []ToolSpec
}

// Response is the backend's answer: textual content plus zero or more
// tool-call requests.
type Response struct {
	Content   string
	ToolCalls []conversation.ToolCallRequest
}

// Backend is the reasoning-backend collaborator.
type Backend interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, req Request) (*Response, error)

// Complete implements Backend.
func (f BackendFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}
