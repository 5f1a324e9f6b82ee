package conversation

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem     Role = "system"
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleTool       Role = "tool"
	RoleSupervisor Role = "supervisor"
)

// ToolCallRequest is a structured request from the reasoning backend to
// invoke a named capability function.
type ToolCallRequest struct {
	// ID correlates the request with its ToolResult.
	ID string `json:"id"`

	// Name is the capability function to invoke.
	Name string `json:"name"`

	// Args holds the decoded argument mapping.
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the outcome of a single capability invocation.
type ToolResult struct {
	// CallID matches the ID of exactly one ToolCallRequest.
	CallID string `json:"call_id"`

	// Name is the capability that produced the result.
	Name string `json:"name"`

	// Content is the raw result text. Invocation failures are captured
	// here rather than raised.
	Content string `json:"content"`
}

// Message is a single entry in the conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`

	// ToolCalls are present on assistant messages that request
	// capability invocations, in request order.
	ToolCalls []ToolCallRequest `json:"tool_calls,omitempty"`

	// ToolCallID is set on tool-role messages and matches the
	// originating request.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// System returns a system-role message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user-role message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant-role message.
func Assistant(content string, calls ...ToolCallRequest) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResponse wraps a ToolResult as a tool-role message.
func ToolResponse(res ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Name:       res.Name,
		Content:    res.Content,
		ToolCallID: res.CallID,
	}
}

// SupervisorNote returns the supervisor's routing announcement message.
func SupervisorNote(content string) Message {
	return Message{Role: RoleSupervisor, Name: "supervisor", Content: content}
}
