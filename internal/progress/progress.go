// Package progress renders real-time execution feedback for interactive
// runs: stage banners, tool-call lines, routing decisions, and a spinner
// while the reasoning backend is thinking.
//
// Reporters share no session state; they only receive copies of what to
// print. The controller and loop accept the Reporter interface so
// non-interactive callers can pass Nop.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Reporter receives execution progress events.
type Reporter interface {
	// StageStart announces a stage beginning execution.
	StageStart(stage string)

	// StageDone announces stage completion.
	StageDone(stage string, elapsed time.Duration, filesWritten int)

	// ToolCall announces a capability invocation.
	ToolCall(name string, args map[string]any)

	// Thinking starts a waiting indicator for a backend call and returns
	// the function that stops it. The stop function must be called before
	// the step returns, on success or failure.
	Thinking(label string) (stop func())

	// Decision announces a supervisor routing decision.
	Decision(step, cap int, next, reason string)
}

// Nop discards all progress events.
type Nop struct{}

func (Nop) StageStart(string)                    {}
func (Nop) StageDone(string, time.Duration, int) {}
func (Nop) ToolCall(string, map[string]any)      {}
func (Nop) Thinking(string) func()               { return func() {} }
func (Nop) Decision(int, int, string, string)    {}

var (
	styleGrey   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleCyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleBold   = lipgloss.NewStyle().Bold(true)
)

// Console renders progress to a terminal.
type Console struct {
	out io.Writer
}

// NewConsole creates a console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) StageStart(stage string) {
	label := strings.ToUpper(strings.ReplaceAll(stage, "_", " "))
	sep := strings.Repeat("─", 60)
	fmt.Fprintf(c.out, "\n┌%s┐\n", sep)
	fmt.Fprintf(c.out, "│ %s │\n", styleBold.Render(center(label, 58)))
	fmt.Fprintf(c.out, "└%s┘\n", sep)
}

func (c *Console) StageDone(stage string, elapsed time.Duration, filesWritten int) {
	parts := []string{fmt.Sprintf("%.1fs", elapsed.Seconds())}
	if filesWritten > 0 {
		parts = append(parts, fmt.Sprintf("%d files written", filesWritten))
	}
	fmt.Fprintf(c.out, "  %s\n\n", styleGreen.Render(fmt.Sprintf("✓ %s complete (%s)", stage, strings.Join(parts, ", "))))
}

func (c *Console) ToolCall(name string, args map[string]any) {
	switch name {
	case "write_artifact":
		fname, _ := args["filename"].(string)
		content, _ := args["content"].(string)
		fmt.Fprintf(c.out, "  %s  %s (%d bytes)\n", styleGreen.Render("✎ write"), fname, len(content))
	case "read_artifact":
		fname, _ := args["filename"].(string)
		fmt.Fprintf(c.out, "  %s   %s\n", styleCyan.Render("◉ read"), fname)
	case "list_artifacts":
		dir, _ := args["directory"].(string)
		if dir == "" {
			dir = "."
		}
		fmt.Fprintf(c.out, "  %s   %s/\n", styleCyan.Render("◎ list"), dir)
	case "run_command":
		cmd, _ := args["command"].(string)
		if len(cmd) > 80 {
			cmd = cmd[:80]
		}
		fmt.Fprintf(c.out, "  %s    %s\n", styleYellow.Render("▶ run"), cmd)
	case "run_tests":
		fmt.Fprintf(c.out, "  %s   running tests...\n", styleYellow.Render("▶ test"))
	default:
		fmt.Fprintf(c.out, "  %s\n", styleGrey.Render("⚙ "+name))
	}
}

func (c *Console) Thinking(label string) func() {
	sp := newSpinner(c.out, label)
	sp.start()
	return sp.stop
}

func (c *Console) Decision(step, cap int, next, reason string) {
	fmt.Fprintf(c.out, "\n%s %s\n", styleCyan.Render(fmt.Sprintf("▸ Supervisor [%d/%d]:", step, cap)), styleBold.Render(next))
	fmt.Fprintf(c.out, "  %s\n", styleGrey.Render(reason))
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	right := width - len(s) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}
