package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/orchestrd/internal/checkpoint"
	"github.com/fyrsmithlabs/orchestrd/internal/orchestrator"
	"github.com/fyrsmithlabs/orchestrd/internal/progress"
	"github.com/fyrsmithlabs/orchestrd/internal/project"
)

var sessionFlag string

var resumeCmd = &cobra.Command{
	Use:   "resume <project>",
	Short: "Resume a suspended session in a project workspace",
	Long: `Resume a session from its latest checkpoint. Without --session the most
recently suspended session in the workspace is picked; a session that
already finished just prints its summary.

Examples:
  orchestrd resume url-shortener
  orchestrd resume url-shortener --session 2f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&sessionFlag, "session", "", "session ID to resume (default: most recently suspended)")
}

func runResume(cmd *cobra.Command, args []string) error {
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

	manager, err := project.NewManager(cfg.Orchestrator.ProjectsRoot, client, logger)
	if err != nil {
		return err
	}
	ws, err := manager.Get(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out)

	ctrl, err := buildController(cfg, client, ws, progress.NewConsole(out), logger)
	if err != nil {
		return err
	}

	cp, err := pickSession(ctx, ctrl.Store(), sessionFlag)
	if err != nil {
		return fmt.Errorf("workspace %s: %w", ws.Name, err)
	}
	fmt.Fprintf(out, "%s %s (v%d, phase %s)\n\n",
		faintStyle.Render("Resuming session:"), cp.SessionID, cp.Version, cp.State.Phase)

	reader := bufio.NewReader(cmd.InOrStdin())

	if cp.PendingStage != "" {
		// Re-enter the review menu exactly where the run left off.
		snap := &orchestrator.Snapshot{
			SessionID:    cp.SessionID,
			State:        cp.State,
			PendingStage: cp.PendingStage,
			Version:      cp.Version,
		}
		return driveSession(ctx, out, reader, ctrl, snap, ws)
	}

	snap, err := ctrl.Resume(ctx, cp.SessionID, nil)
	if err != nil {
		return err
	}
	return driveSession(ctx, out, reader, ctrl, snap, ws)
}

// pickSession resolves which session to resume: an explicit ID, else the
// most recently suspended session, else the most recent session of any
// state.
func pickSession(ctx context.Context, store checkpoint.Store, sessionID string) (*checkpoint.Checkpoint, error) {
	if sessionID != "" {
		return store.GetLatest(ctx, sessionID)
	}

	ids, err := store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no sessions to resume")
	}

	var suspended, latest *checkpoint.Checkpoint
	for _, id := range ids {
		cp, err := store.GetLatest(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest == nil || cp.CreatedAt.After(latest.CreatedAt) {
			latest = cp
		}
		if cp.PendingStage != "" && (suspended == nil || cp.CreatedAt.After(suspended.CreatedAt)) {
			suspended = cp
		}
	}
	if suspended != nil {
		return suspended, nil
	}
	return latest, nil
}
