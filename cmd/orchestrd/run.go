package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/agent"
	"github.com/fyrsmithlabs/orchestrd/internal/checkpoint"
	"github.com/fyrsmithlabs/orchestrd/internal/config"
	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/orchestrator"
	"github.com/fyrsmithlabs/orchestrd/internal/progress"
	"github.com/fyrsmithlabs/orchestrd/internal/project"
	"github.com/fyrsmithlabs/orchestrd/internal/session"
	"github.com/fyrsmithlabs/orchestrd/internal/supervisor"
	"github.com/fyrsmithlabs/orchestrd/internal/telemetry"
	"github.com/fyrsmithlabs/orchestrd/internal/tools"
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var projectFlag string

var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run a task through the pipeline",
	Long: `Run an engineering task through the supervised pipeline.

The task prompt can be given as an argument or entered interactively.
When the pipeline reaches a stage listed in orchestrator.interrupt_before
(code generation by default), it pauses for review: continue as-is, give
feedback that the remaining stages will see, or quit and resume later.

Examples:
  # Interactive: choose a project, then type the task
  orchestrd run

  # One-shot into a fresh project
  orchestrd run "Build a URL shortener with a REST API"

  # Continue inside an existing project
  orchestrd run --project url-shortener "Add rate limiting"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&projectFlag, "project", "", "existing project workspace to run in")
}

// initRuntime loads config, builds the logger, and starts telemetry. The
// returned cleanup flushes both and must be deferred.
func initRuntime(ctx context.Context) (*config.Config, *logging.Logger, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}
	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
		logger.Sync() //nolint:errcheck
	}
	return cfg, logger, cleanup, nil
}

// newBackendClient wires the OpenAI backend, retry policy, and model
// selection from config.
func newBackendClient(cfg *config.Config, logger *logging.Logger) (*llm.Client, error) {
	if cfg.Models.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set OPENAI_API_KEY or models.api_key")
	}
	backend, err := llm.NewOpenAIBackend(cfg.Models.APIKey)
	if err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	retryer := llm.NewRetryer(logger,
		llm.WithMaxAttempts(cfg.Retry.MaxAttempts),
		llm.WithBaseDelay(cfg.Retry.BaseDelay.Duration()),
	)
	models := llm.ModelSelector{Global: cfg.Models.Default, Roles: cfg.Models.Roles}
	return llm.NewClient(backend, retryer, models, logger), nil
}

// checkpointDir is where a workspace keeps its session checkpoints.
func checkpointDir(ws *project.Workspace) string {
	return filepath.Join(ws.Path, ".orchestrd", "checkpoints")
}

// buildController assembles the full pipeline for one workspace.
func buildController(cfg *config.Config, client *llm.Client, ws *project.Workspace, reporter progress.Reporter, logger *logging.Logger) (*orchestrator.Controller, error) {
	registry, err := tools.NewRegistry(tools.Config{
		Workspace:      ws.Path,
		TestCommand:    cfg.Tools.TestCommand,
		CommandTimeout: cfg.Tools.CommandTimeout.Duration(),
	}, logger)
	if err != nil {
		return nil, err
	}
	loop := agent.NewLoop(client, registry, cfg.Orchestrator.MaxToolRounds, reporter, logger)
	sup := supervisor.New(client, supervisor.DefaultMilestones(), agent.StageNames(), cfg.Orchestrator.MaxIterations, logger)
	store, err := checkpoint.NewFileStore(checkpointDir(ws))
	if err != nil {
		return nil, err
	}
	return orchestrator.New(sup, agent.Pipeline(), loop, store, cfg.Orchestrator.InterruptBefore, reporter, logger)
}

// driveSession runs the review menu until the session finishes or the user
// quits, then prints the summary.
func driveSession(ctx context.Context, out io.Writer, reader *bufio.Reader, ctrl *orchestrator.Controller, snap *orchestrator.Snapshot, ws *project.Workspace) error {
	var err error
	for snap.Suspended() {
		snap, err = reviewAndResume(ctx, out, reader, ctrl, snap)
		if err != nil {
			return err
		}
		if snap == nil {
			fmt.Fprintln(out, warnStyle.Render("Session suspended.")+" Resume later with: orchestrd resume "+ws.Name)
			return nil
		}
	}
	printSummary(out, ws, snap)
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, cleanup, err := initRuntime(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	models := client.Models()
	printBanner(out)
	printModels(out, models)

	manager, err := project.NewManager(cfg.Orchestrator.ProjectsRoot, client, logger)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	prompt := ""
	if len(args) == 1 {
		prompt = strings.TrimSpace(args[0])
	}

	ws, seed, err := chooseWorkspace(ctx, out, reader, manager, prompt)
	if err != nil {
		return err
	}
	if prompt == "" {
		fmt.Fprint(out, headingStyle.Render("Task")+": ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read task: %w", err)
		}
		prompt = strings.TrimSpace(line)
	}
	if prompt == "" {
		return fmt.Errorf("no task given")
	}
	if ws == nil {
		if ws, err = manager.Create(ctx, prompt); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "%s %s\n\n", faintStyle.Render("Workspace:"), ws.Path)

	ctrl, err := buildController(cfg, client, ws, progress.NewConsole(out), logger)
	if err != nil {
		return err
	}

	snap, err := ctrl.Start(ctx, buildPrompt(prompt, seed), seed)
	if err != nil {
		return err
	}
	return driveSession(ctx, out, reader, ctrl, snap, ws)
}

// chooseWorkspace picks a workspace: the --project flag wins, a non-empty
// prompt argument means a fresh workspace, and otherwise the user chooses
// interactively. seed is non-nil when continuing an existing project.
func chooseWorkspace(ctx context.Context, out io.Writer, reader *bufio.Reader, manager *project.Manager, prompt string) (*project.Workspace, map[string]string, error) {
	if projectFlag != "" {
		ws, err := manager.Get(ctx, projectFlag)
		if err != nil {
			return nil, nil, err
		}
		seed, err := manager.LoadFiles(ctx, ws.Name)
		if err != nil {
			return nil, nil, err
		}
		return ws, seed, nil
	}
	if prompt != "" {
		return nil, nil, nil
	}

	existing, err := manager.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(existing) == 0 {
		return nil, nil, nil
	}

	fmt.Fprintln(out, headingStyle.Render("Projects"))
	for i, ws := range existing {
		fmt.Fprintf(out, "  %2d. %s %s\n", i+1, ws.Name,
			faintStyle.Render(ws.ModifiedAt.Format("2006-01-02 15:04")))
	}
	fmt.Fprint(out, "Number to continue a project, or Enter for a new one: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("read choice: %w", err)
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		return nil, nil, nil
	}
	var n int
	if _, err := fmt.Sscanf(choice, "%d", &n); err != nil || n < 1 || n > len(existing) {
		return nil, nil, fmt.Errorf("invalid choice %q", choice)
	}
	ws := existing[n-1]
	seed, err := manager.LoadFiles(ctx, ws.Name)
	if err != nil {
		return nil, nil, err
	}
	return &ws, seed, nil
}

// reviewAndResume runs the design-review menu for a suspended session.
// A nil snapshot with nil error means the user quit.
func reviewAndResume(ctx context.Context, out io.Writer, reader *bufio.Reader, ctrl *orchestrator.Controller, snap *orchestrator.Snapshot) (*orchestrator.Snapshot, error) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("── Paused before %s ──", snap.PendingStage)))
	if design := snap.State.Artifacts[session.ArtifactDesign]; design != "" {
		fmt.Fprintln(out, headingStyle.Render("Design"))
		fmt.Fprintln(out, design)
	}

	for {
		fmt.Fprint(out, "[c]ontinue  [f]eedback  [v]iew state  [q]uit: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read choice: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "c", "":
			return ctrl.Resume(ctx, snap.SessionID, nil)
		case "f":
			fmt.Fprintln(out, "Feedback (end with an empty line):")
			var lines []string
			for {
				fb, err := reader.ReadString('\n')
				if err != nil {
					return nil, fmt.Errorf("read feedback: %w", err)
				}
				fb = strings.TrimRight(fb, "\n")
				if fb == "" {
					break
				}
				lines = append(lines, fb)
			}
			feedback := strings.TrimSpace(strings.Join(lines, "\n"))
			if feedback == "" {
				return ctrl.Resume(ctx, snap.SessionID, nil)
			}
			patch := []conversation.Message{
				conversation.User("Reviewer feedback on the design, apply it in the remaining stages:\n" + feedback),
			}
			return ctrl.Resume(ctx, snap.SessionID, patch)
		case "v":
			printState(out, snap.State)
		case "q":
			return nil, nil
		default:
			fmt.Fprintln(out, "Unknown choice.")
		}
	}
}

func buildPrompt(prompt string, seed map[string]string) string {
	if len(seed) == 0 {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nThe project workspace already contains these files:\n")
	for _, name := range sortedNames(seed) {
		fmt.Fprintf(&sb, "  - %s\n", name)
	}
	sb.WriteString("Build on the existing work instead of starting from scratch.")
	return sb.String()
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func printBanner(out io.Writer) {
	fmt.Fprintln(out, bannerStyle.Render("orchestrd"), faintStyle.Render("· supervised engineering pipeline"))
	fmt.Fprintln(out)
}

func printState(out io.Writer, st *session.State) {
	fmt.Fprintln(out, headingStyle.Render("State"))
	fmt.Fprintf(out, "  phase:       %s\n", st.Phase)
	fmt.Fprintf(out, "  iterations:  %d\n", st.Iterations)
	fmt.Fprintf(out, "  tests pass:  %v\n", st.TestsPassing)
	fmt.Fprintf(out, "  artifacts:   %s\n", strings.Join(sortedNames(st.Artifacts), ", "))
	fmt.Fprintf(out, "  code files:  %s\n", strings.Join(sortedNames(st.CodeFiles), ", "))
}

func printSummary(out io.Writer, ws *project.Workspace, snap *orchestrator.Snapshot) {
	st := snap.State
	fmt.Fprintln(out)
	fmt.Fprintln(out, okStyle.Render("── Session complete ──"))
	fmt.Fprintf(out, "  iterations:  %d\n", st.Iterations)
	if st.TestsPassing {
		fmt.Fprintf(out, "  tests:       %s\n", okStyle.Render("passing"))
	} else {
		fmt.Fprintf(out, "  tests:       %s\n", warnStyle.Render("not passing"))
	}
	fmt.Fprintf(out, "  artifacts:   %s\n", strings.Join(sortedNames(st.Artifacts), ", "))
	fmt.Fprintf(out, "  code files:  %d\n", len(st.CodeFiles))
	fmt.Fprintf(out, "  workspace:   %s\n", ws.Path)
}
