package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
)

// OpenAIBackend binds the langchaingo OpenAI client to the Backend contract.
type OpenAIBackend struct {
	model llms.Model
}

// NewOpenAIBackend creates the production backend. apiKey may be empty, in
// which case the provider falls back to its own environment handling.
func NewOpenAIBackend(apiKey string) (*OpenAIBackend, error) {
	opts := []openai.Option{}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIBackend{model: model}, nil
}

// NewBackendFromModel wraps an existing langchaingo model. Used in tests.
func NewBackendFromModel(model llms.Model) *OpenAIBackend {
	return &OpenAIBackend{model: model}
}

// Complete implements Backend.
func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		mc, err := toMessageContent(msg)
		if err != nil {
			return nil, err
		}
		content = append(content, mc)
	}

	opts := []llms.CallOption{llms.WithModel(req.Model)}
	if !IsReasoningModel(req.Model) {
		opts = append(opts, llms.WithTemperature(req.Temperature))
	}
	if len(req.Tools) > 0 {
		tools := make([]llms.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		opts = append(opts, llms.WithTools(tools))
	}

	resp, err := b.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("backend returned no choices")
	}

	choice := resp.Choices[0]
	out := &Response{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args := map[string]any{}
		if tc.FunctionCall.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to decode arguments for tool %s: %w", tc.FunctionCall.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, conversation.ToolCallRequest{
			ID:   tc.ID,
			Name: tc.FunctionCall.Name,
			Args: args,
		})
	}
	return out, nil
}

func toMessageContent(msg conversation.Message) (llms.MessageContent, error) {
	switch msg.Role {
	case conversation.RoleSystem:
		return llms.TextParts(llms.ChatMessageTypeSystem, msg.Content), nil

	case conversation.RoleUser:
		return llms.TextParts(llms.ChatMessageTypeHuman, msg.Content), nil

	case conversation.RoleAssistant, conversation.RoleSupervisor:
		mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if msg.Content != "" {
			mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
		}
		for _, call := range msg.ToolCalls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return llms.MessageContent{}, fmt.Errorf("failed to encode arguments for tool %s: %w", call.Name, err)
			}
			mc.Parts = append(mc.Parts, llms.ToolCall{
				ID:   call.ID,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		return mc, nil

	case conversation.RoleTool:
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				},
			},
		}, nil

	default:
		return llms.MessageContent{}, fmt.Errorf("unsupported message role %q", msg.Role)
	}
}
