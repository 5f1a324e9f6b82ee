package tools

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
)

// Canonical capability names.
const (
	ToolWriteArtifact = "write_artifact"
	ToolReadArtifact  = "read_artifact"
	ToolListArtifacts = "list_artifacts"
	ToolRunCommand    = "run_command"
	ToolRunTests      = "run_tests"
)

// Handler executes a capability with decoded arguments. The returned string
// is the ToolResult content; a returned error is also captured as result
// text by the loop, never raised.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a registered capability function.
type Tool struct {
	Name        string
	Description string

	// Parameters is the JSON-schema argument declaration sent to the
	// backend.
	Parameters map[string]any

	// Mutating marks capabilities that alter external state; the loop
	// counts these for reporting.
	Mutating bool

	Handler Handler
}

// Spec returns the declaration handed to the reasoning backend.
func (t Tool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Config configures the built-in capability set.
type Config struct {
	// Workspace is the directory all artifact paths resolve under.
	Workspace string

	// TestCommand is what run_tests executes.
	TestCommand string

	// CommandTimeout caps run_command/run_tests when the backend does
	// not supply a timeout argument.
	CommandTimeout time.Duration
}

// Registry holds the capability functions available to stages.
type Registry struct {
	tools  map[string]Tool
	logger *logging.Logger
}

// NewRegistry creates a registry with the built-in capabilities rooted at
// cfg.Workspace.
func NewRegistry(cfg Config, logger *logging.Logger) (*Registry, error) {
	if cfg.Workspace == "" {
		return nil, fmt.Errorf("workspace directory is required")
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 120 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}

	ws := &workspace{root: cfg.Workspace}
	r.Register(writeArtifactTool(ws))
	r.Register(readArtifactTool(ws))
	r.Register(listArtifactsTool(ws))
	r.Register(runCommandTool(ws, cfg.CommandTimeout))
	r.Register(runTestsTool(ws, cfg.TestCommand, cfg.CommandTimeout))

	return r, nil
}

// Register adds or replaces a tool.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Select returns the named subset, preserving the given order. Unknown
// names are an error: a stage asking for a capability that does not exist
// is a wiring bug, not a runtime condition.
func (r *Registry) Select(names []string) ([]Tool, error) {
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Argument decoding helpers. Backend arguments arrive as JSON-decoded maps,
// so numbers are float64.

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func secondsArg(args map[string]any, key string, fallback time.Duration) time.Duration {
	switch v := args[key].(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case int:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return fallback
}
