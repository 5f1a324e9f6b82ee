package tools

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	reg, _ := newTestRegistry(t)

	out, err := invoke(t, reg, ToolRunCommand, map[string]any{"command": "echo hello"})
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Exit status: 0")
}

func TestRunCommand_NonZeroExitIsResultNotError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	reg, _ := newTestRegistry(t)

	out, err := invoke(t, reg, ToolRunCommand, map[string]any{"command": "exit 3"})
	require.NoError(t, err)
	assert.Contains(t, out, "Exit status: 3")
}

func TestRunCommand_RunsInsideWorkspace(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	reg, dir := newTestRegistry(t)

	out, err := invoke(t, reg, ToolRunCommand, map[string]any{"command": "pwd"})
	require.NoError(t, err)
	assert.Contains(t, out, dir)
}

func TestRunCommand_TimeoutMarker(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	reg, _ := newTestRegistry(t)

	start := time.Now()
	out, err := invoke(t, reg, ToolRunCommand, map[string]any{
		"command": "sleep 5",
		"timeout": 1,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Error: command timed out after"), "got %q", out)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunTests_ScopedToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	dir := t.TempDir()
	// Echo back what would run so the composed command is observable.
	reg, err := NewRegistry(Config{Workspace: dir, TestCommand: "echo pytest"}, nil)
	require.NoError(t, err)

	out, err := invoke(t, reg, ToolRunTests, map[string]any{"test_path": "tests/unit"})
	require.NoError(t, err)
	assert.Contains(t, out, "pytest tests/unit")

	out, err = invoke(t, reg, ToolRunTests, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "pytest")
	assert.NotContains(t, out, "pytest .")
}
