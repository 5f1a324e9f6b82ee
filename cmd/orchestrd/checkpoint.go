package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/orchestrd/internal/checkpoint"
	"github.com/fyrsmithlabs/orchestrd/internal/config"
	"github.com/fyrsmithlabs/orchestrd/internal/project"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect session checkpoints",
}

var checkpointListCmd = &cobra.Command{
	Use:   "list <project>",
	Short: "List checkpoints recorded for a project workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointList,
}

func init() {
	checkpointCmd.AddCommand(checkpointListCmd)
}

func runCheckpointList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Listing only reads the filesystem, no backend or logger needed.
	manager, err := project.NewManager(cfg.Orchestrator.ProjectsRoot, nil, nil)
	if err != nil {
		return err
	}
	ws, err := manager.Get(ctx, args[0])
	if err != nil {
		return err
	}

	store, err := checkpoint.NewFileStore(checkpointDir(ws))
	if err != nil {
		return err
	}
	ids, err := store.Sessions(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintf(out, "No checkpoints in workspace %q.\n", ws.Name)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tVERSION\tCREATED\tPHASE\tITER\tPENDING")
	for _, id := range ids {
		cps, err := store.List(ctx, id)
		if err != nil {
			return err
		}
		for _, cp := range cps {
			pending := cp.PendingStage
			if pending == "" {
				pending = "-"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%s\n",
				cp.SessionID, cp.Version, cp.CreatedAt.Format("2006-01-02 15:04:05"),
				cp.State.Phase, cp.State.Iterations, pending)
		}
	}
	return w.Flush()
}
