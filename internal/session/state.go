package session

import (
	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
)

// Well-known artifact keys.
const (
	ArtifactRequirements = "requirements"
	ArtifactDesign       = "design"
	ArtifactMonitoring   = "monitoring"
	ArtifactTestResults  = "test_results"
)

// State is the record threaded through every step of a session.
type State struct {
	// Messages is the append-only conversation history.
	Messages []conversation.Message `json:"messages"`

	// Artifacts maps artifact names to their textual content
	// (requirements, design, monitoring config, test results).
	Artifacts map[string]string `json:"artifacts"`

	// CodeFiles maps filenames to generated file content.
	CodeFiles map[string]string `json:"code_files"`

	// TestsPassing reports whether the last validation round passed.
	TestsPassing bool `json:"tests_passing"`

	// Iterations counts supervisor decisions. It is monotonically
	// non-decreasing and incremented only through supervisor updates.
	Iterations int `json:"iterations"`

	// Phase is the stage currently (or last) active, or "finished".
	Phase string `json:"phase"`

	// Prompt is the original task description, immutable after start.
	Prompt string `json:"prompt"`
}

// New creates the empty state for a fresh session.
func New(prompt string) *State {
	return &State{
		Messages:  []conversation.Message{conversation.User(prompt)},
		Artifacts: make(map[string]string),
		CodeFiles: make(map[string]string),
		Phase:     "start",
		Prompt:    prompt,
	}
}

// Clone returns a deep copy. Checkpoints store clones so later steps cannot
// alter history already persisted.
func (s *State) Clone() *State {
	c := &State{
		Messages:     make([]conversation.Message, len(s.Messages)),
		Artifacts:    make(map[string]string, len(s.Artifacts)),
		CodeFiles:    make(map[string]string, len(s.CodeFiles)),
		TestsPassing: s.TestsPassing,
		Iterations:   s.Iterations,
		Phase:        s.Phase,
		Prompt:       s.Prompt,
	}
	copy(c.Messages, s.Messages)
	for i, m := range s.Messages {
		if len(m.ToolCalls) > 0 {
			calls := make([]conversation.ToolCallRequest, len(m.ToolCalls))
			copy(calls, m.ToolCalls)
			c.Messages[i].ToolCalls = calls
		}
	}
	for k, v := range s.Artifacts {
		c.Artifacts[k] = v
	}
	for k, v := range s.CodeFiles {
		c.CodeFiles[k] = v
	}
	return c
}

// HasArtifact reports whether a named artifact exists and is non-empty.
func (s *State) HasArtifact(name string) bool {
	return s.Artifacts[name] != ""
}

// Update describes the changes a stage or the supervisor wants applied to
// the shared state.
type Update struct {
	// Messages are appended to the history in order.
	Messages []conversation.Message

	// Artifacts are overwritten per key; keys absent here are kept.
	Artifacts map[string]string

	// CodeFiles are overwritten per filename; files absent here are kept.
	CodeFiles map[string]string

	// TestsPassing, when non-nil, replaces the validation flag.
	TestsPassing *bool

	// Phase, when non-empty, replaces the current phase marker.
	Phase string

	// IterationDelta is added to the iteration counter. Only supervisor
	// updates carry a non-zero delta.
	IterationDelta int
}

// Apply merges an update into the state. History is append-only; artifact
// and code-file entries are overwritten per key, never dropped.
func (s *State) Apply(u Update) {
	s.Messages = append(s.Messages, u.Messages...)
	for k, v := range u.Artifacts {
		s.Artifacts[k] = v
	}
	for k, v := range u.CodeFiles {
		s.CodeFiles[k] = v
	}
	if u.TestsPassing != nil {
		s.TestsPassing = *u.TestsPassing
	}
	if u.Phase != "" {
		s.Phase = u.Phase
	}
	s.Iterations += u.IterationDelta
}

// Bool is a convenience helper for Update.TestsPassing.
func Bool(v bool) *bool { return &v }
