package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/progress"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
	"github.com/fyrsmithlabs/orchestrd/internal/tools"
)

// DefaultMaxRounds bounds backend/tool round-trips inside one stage call.
// The outer iteration cap bounds supervisor steps, not rounds within a
// stage, so a runaway backend needs its own limit.
const DefaultMaxRounds = 25

// Result is what one stage execution produced.
type Result struct {
	// Messages are the new history entries, in order: assistant messages
	// and one ToolResult message per requested call.
	Messages []conversation.Message

	// Content is the final response text, the stage's textual artifact.
	Content string

	// Files maps filenames to content written via write_artifact.
	Files map[string]string

	// ToolOutputs collects every capability result text, in invocation
	// order.
	ToolOutputs []string

	// Rounds is the number of tool rounds executed.
	Rounds int

	// MutatingCalls counts invocations of state-mutating capabilities.
	MutatingCalls int

	// RoundCapped is set when the loop stopped at the round cap with
	// tool calls still pending.
	RoundCapped bool
}

// Loop runs the ask-then-act pattern on behalf of a stage.
type Loop struct {
	client    *llm.Client
	registry  *tools.Registry
	maxRounds int
	reporter  progress.Reporter
	logger    *logging.Logger
}

// NewLoop creates a loop. maxRounds <= 0 selects DefaultMaxRounds.
func NewLoop(client *llm.Client, registry *tools.Registry, maxRounds int, reporter progress.Reporter, logger *logging.Logger) *Loop {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loop{
		client:    client,
		registry:  registry,
		maxRounds: maxRounds,
		reporter:  reporter,
		logger:    logger,
	}
}

// Run executes stage against a read-only view of the session state. The
// returned Result carries everything to merge; Run itself mutates nothing.
func (l *Loop) Run(ctx context.Context, stage *Stage, st *session.State) (*Result, error) {
	instruction := stage.Instruction(st)
	base := make([]conversation.Message, 0, len(st.Messages)+1)
	base = append(base, conversation.System(instruction))
	base = append(base, st.Messages...)

	toolset, err := l.registry.Select(stage.ToolNames)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
	}
	byName := make(map[string]tools.Tool, len(toolset))
	specs := make([]llm.ToolSpec, 0, len(toolset))
	for _, t := range toolset {
		byName[t.Name] = t
		specs = append(specs, t.Spec())
	}

	result := &Result{Files: make(map[string]string)}

	resp, err := l.complete(ctx, stage, base, specs, 0)
	if err != nil {
		return nil, err
	}
	result.Messages = append(result.Messages, conversation.Assistant(resp.Content, resp.ToolCalls...))

	for len(resp.ToolCalls) > 0 {
		if result.Rounds >= l.maxRounds {
			result.RoundCapped = true
			l.logger.Warn("tool round cap reached, ending stage",
				zap.String("stage", stage.Name),
				zap.Int("rounds", result.Rounds),
			)
			// Answer the pending calls so the assistant message already in
			// the history never carries unanswered tool_calls; backends
			// reject replayed histories with dangling requests.
			for _, call := range resp.ToolCalls {
				result.Messages = append(result.Messages, conversation.ToolResponse(conversation.ToolResult{
					CallID:  call.ID,
					Name:    call.Name,
					Content: "Error: tool round limit reached, call not executed",
				}))
			}
			break
		}
		result.Rounds++

		// One ToolResult per request, in request order. Failures become
		// result text so the backend can react to them.
		for _, call := range resp.ToolCalls {
			l.reporter.ToolCall(call.Name, call.Args)
			content := l.invoke(ctx, byName, call)
			result.ToolOutputs = append(result.ToolOutputs, content)

			if t, ok := byName[call.Name]; ok && t.Mutating {
				result.MutatingCalls++
			}
			if call.Name == tools.ToolWriteArtifact {
				if filename, ok := call.Args["filename"].(string); ok && filename != "" {
					fileContent, _ := call.Args["content"].(string)
					result.Files[filename] = fileContent
				}
			}

			result.Messages = append(result.Messages, conversation.ToolResponse(conversation.ToolResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: content,
			}))
		}

		history := make([]conversation.Message, 0, len(base)+len(result.Messages))
		history = append(history, base...)
		history = append(history, result.Messages...)

		resp, err = l.complete(ctx, stage, history, specs, result.Rounds)
		if err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, conversation.Assistant(resp.Content, resp.ToolCalls...))
	}

	result.Content = resp.Content
	return result, nil
}

func (l *Loop) complete(ctx context.Context, stage *Stage, messages []conversation.Message, specs []llm.ToolSpec, round int) (*llm.Response, error) {
	label := stage.Name + " thinking"
	if round > 0 {
		label = fmt.Sprintf("%s (tool round %d)", label, round)
	}
	stop := l.reporter.Thinking(label)
	defer stop()

	resp, err := l.client.Complete(ctx, stage.Role, stage.Temperature, messages, specs)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage.Name, err)
	}
	return resp, nil
}

func (l *Loop) invoke(ctx context.Context, byName map[string]tools.Tool, call conversation.ToolCallRequest) string {
	t, ok := byName[call.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}
	out, err := t.Handler(ctx, call.Args)
	if err != nil {
		l.logger.Debug("tool invocation failed",
			zap.String("tool", call.Name),
			zap.Error(err),
		)
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}
