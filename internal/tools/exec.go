package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// maxCommandTimeout caps whatever the backend asks for.
const maxCommandTimeout = 10 * time.Minute

// runShell executes command under sh -c inside the workspace with a hard
// wall-clock timeout, returning combined output plus exit status, or a
// distinct timed-out marker.
func runShell(ctx context.Context, ws *workspace, command string, timeout time.Duration) (string, error) {
	if timeout > maxCommandTimeout {
		timeout = maxCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = ws.root

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Sprintf("Error: command timed out after %s", timeout), nil
	}

	var sb strings.Builder
	sb.Write(out)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return "", fmt.Errorf("failed to run command: %w", err)
		}
	}
	fmt.Fprintf(&sb, "\n\nExit status: %d", exitCode)
	return sb.String(), nil
}

func runCommandTool(ws *workspace, defaultTimeout time.Duration) Tool {
	return Tool{
		Name:        ToolRunCommand,
		Description: "Run a shell command in the project workspace. Use sparingly.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"command": map[string]any{
					"type":        "string",
					"description": "The shell command to execute.",
				},
				"timeout": map[string]any{
					"type":        "integer",
					"description": "Maximum seconds to wait before the command is killed.",
				},
			},
			"required": []string{"command"},
		},
		Mutating: true,
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			command := stringArg(args, "command", "")
			if command == "" {
				return "", fmt.Errorf("command is required")
			}
			timeout := secondsArg(args, "timeout", defaultTimeout)
			return runShell(ctx, ws, command, timeout)
		},
	}
}

func runTestsTool(ws *workspace, testCommand string, defaultTimeout time.Duration) Tool {
	return Tool{
		Name:        ToolRunTests,
		Description: "Run the project's test suite, optionally scoped to a path.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"test_path": map[string]any{
					"type":        "string",
					"description": "Relative path to a test file or directory. Defaults to the whole suite.",
				},
				"timeout": map[string]any{
					"type":        "integer",
					"description": "Maximum seconds to wait for tests to complete.",
				},
			},
		},
		Mutating: true,
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			target := stringArg(args, "test_path", ".")
			if _, err := ws.resolve(target); err != nil {
				return "", err
			}
			timeout := secondsArg(args, "timeout", defaultTimeout)

			command := testCommand
			if target != "." && target != "" {
				command = fmt.Sprintf("%s %s", testCommand, target)
			}
			return runShell(ctx, ws, command, timeout)
		},
	}
}
