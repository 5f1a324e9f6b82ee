package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
	"github.com/fyrsmithlabs/orchestrd/internal/tools"
)

// scriptedClient returns each response in order, then repeats the last.
func scriptedClient(responses ...*llm.Response) *llm.Client {
	i := 0
	backend := llm.BackendFunc(func(_ context.Context, _ llm.Request) (*llm.Response, error) {
		resp := responses[i]
		if i < len(responses)-1 {
			i++
		}
		return resp, nil
	})
	return llm.NewClient(backend, llm.NewRetryer(nil), llm.ModelSelector{}, nil)
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(tools.Config{Workspace: t.TempDir()}, nil)
	require.NoError(t, err)
	reg.Register(tools.Tool{
		Name:        "echo",
		Description: "echo the input back",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			s, _ := args["text"].(string)
			return "echo: " + s, nil
		},
	})
	reg.Register(tools.Tool{
		Name:        "boom",
		Description: "always fails",
		Parameters:  map[string]any{"type": "object"},
		Mutating:    true,
		Handler: func(_ context.Context, _ map[string]any) (string, error) {
			return "", errors.New("disk full")
		},
	})
	return reg
}

func plainStage(toolNames ...string) *Stage {
	return &Stage{
		Name:        "scratch",
		Role:        llm.RoleCoding,
		ToolNames:   toolNames,
		Instruction: func(_ *session.State) string { return "do the work" },
		Finalize:    func(res *Result) session.Update { return session.Update{Messages: res.Messages} },
	}
}

func call(id, name string, args map[string]any) conversation.ToolCallRequest {
	return conversation.ToolCallRequest{ID: id, Name: name, Args: args}
}

func TestLoop_NoToolCallsTerminatesImmediately(t *testing.T) {
	client := scriptedClient(&llm.Response{Content: "final answer"})
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.NoError(t, err)
	assert.Equal(t, "final answer", res.Content)
	assert.Zero(t, res.Rounds)
	assert.False(t, res.RoundCapped)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, conversation.RoleAssistant, res.Messages[0].Role)
}

func TestLoop_OneResultPerRequestInOrder(t *testing.T) {
	client := scriptedClient(
		&llm.Response{Content: "working", ToolCalls: []conversation.ToolCallRequest{
			call("c1", "echo", map[string]any{"text": "one"}),
			call("c2", "echo", map[string]any{"text": "two"}),
		}},
		&llm.Response{Content: "done"},
	)
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, "done", res.Content)

	// assistant, tool c1, tool c2, assistant
	require.Len(t, res.Messages, 4)
	assert.Equal(t, conversation.RoleTool, res.Messages[1].Role)
	assert.Equal(t, "c1", res.Messages[1].ToolCallID)
	assert.Equal(t, "echo: one", res.Messages[1].Content)
	assert.Equal(t, "c2", res.Messages[2].ToolCallID)
	assert.Equal(t, "echo: two", res.Messages[2].Content)
	assert.Equal(t, []string{"echo: one", "echo: two"}, res.ToolOutputs)
}

func TestLoop_HandlerErrorBecomesResultText(t *testing.T) {
	client := scriptedClient(
		&llm.Response{ToolCalls: []conversation.ToolCallRequest{call("c1", "boom", nil)}},
		&llm.Response{Content: "recovered"},
	)
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("boom"), session.New("task"))
	require.NoError(t, err)
	assert.Equal(t, "recovered", res.Content)
	require.Len(t, res.Messages, 3)
	assert.Equal(t, "Error: disk full", res.Messages[1].Content)
	assert.Equal(t, 1, res.MutatingCalls)
}

func TestLoop_UnknownToolBecomesResultText(t *testing.T) {
	client := scriptedClient(
		&llm.Response{ToolCalls: []conversation.ToolCallRequest{call("c1", "teleport", nil)}},
		&llm.Response{Content: "ok"},
	)
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.NoError(t, err)
	assert.Contains(t, res.Messages[1].Content, `unknown tool "teleport"`)
	assert.Zero(t, res.MutatingCalls)
}

func TestLoop_RoundCapStopsRunawayBackend(t *testing.T) {
	// Backend requests a tool call forever.
	client := scriptedClient(&llm.Response{
		Content:   "still going",
		ToolCalls: []conversation.ToolCallRequest{call("c", "echo", map[string]any{"text": "again"})},
	})
	loop := NewLoop(client, testRegistry(t), 3, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.NoError(t, err)
	assert.True(t, res.RoundCapped)
	assert.Equal(t, 3, res.Rounds)
}

func TestLoop_RoundCapAnswersPendingToolCalls(t *testing.T) {
	// Backend requests a fresh tool call every round, so the call pending
	// when the cap fires was never executed.
	n := 0
	backend := llm.BackendFunc(func(_ context.Context, _ llm.Request) (*llm.Response, error) {
		n++
		return &llm.Response{
			Content:   "still going",
			ToolCalls: []conversation.ToolCallRequest{call(fmt.Sprintf("c%d", n), "echo", map[string]any{"text": "again"})},
		}, nil
	})
	client := llm.NewClient(backend, llm.NewRetryer(nil), llm.ModelSelector{}, nil)
	loop := NewLoop(client, testRegistry(t), 1, nil, nil)

	res, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.NoError(t, err)
	assert.True(t, res.RoundCapped)

	// assistant(c1), tool c1, assistant(c2), tool c2 (not executed)
	require.Len(t, res.Messages, 4)
	last := res.Messages[3]
	assert.Equal(t, conversation.RoleTool, last.Role)
	assert.Equal(t, "c2", last.ToolCallID)
	assert.Contains(t, last.Content, "round limit reached")

	// Every requested call must be answered, or replaying the history
	// through the backend fails on the dangling tool_calls.
	answered := make(map[string]bool)
	for _, m := range res.Messages {
		if m.Role == conversation.RoleTool {
			answered[m.ToolCallID] = true
		}
	}
	for _, m := range res.Messages {
		for _, tc := range m.ToolCalls {
			assert.True(t, answered[tc.ID], "tool call %s has no result", tc.ID)
		}
	}
}

func TestLoop_RecordsWrittenFiles(t *testing.T) {
	client := scriptedClient(
		&llm.Response{ToolCalls: []conversation.ToolCallRequest{
			call("c1", tools.ToolWriteArtifact, map[string]any{"filename": "app.py", "content": "print('hi')"}),
		}},
		&llm.Response{Content: "wrote the file"},
	)
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	res, err := loop.Run(context.Background(), plainStage(tools.ToolWriteArtifact), session.New("task"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"app.py": "print('hi')"}, res.Files)
	assert.Equal(t, 1, res.MutatingCalls)
}

func TestLoop_UnknownStageToolIsWiringError(t *testing.T) {
	client := scriptedClient(&llm.Response{Content: "unused"})
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	_, err := loop.Run(context.Background(), plainStage("no_such_tool"), session.New("task"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_tool")
}

func TestLoop_BackendErrorPropagates(t *testing.T) {
	backend := llm.BackendFunc(func(_ context.Context, _ llm.Request) (*llm.Response, error) {
		return nil, fmt.Errorf("401 invalid api key")
	})
	client := llm.NewClient(backend, llm.NewRetryer(nil), llm.ModelSelector{}, nil)
	loop := NewLoop(client, testRegistry(t), 0, nil, nil)

	_, err := loop.Run(context.Background(), plainStage("echo"), session.New("task"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scratch")
}
