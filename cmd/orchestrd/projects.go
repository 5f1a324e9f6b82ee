package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/orchestrd/internal/config"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
	"github.com/fyrsmithlabs/orchestrd/internal/project"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List project workspaces",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		manager, err := project.NewManager(cfg.Orchestrator.ProjectsRoot, nil, logging.NewNop())
		if err != nil {
			return err
		}
		workspaces, err := manager.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(workspaces) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No projects under %s\n", cfg.Orchestrator.ProjectsRoot)
			return nil
		}
		for _, ws := range workspaces {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				ws.ModifiedAt.Format("2006-01-02 15:04"), ws.Name)
		}
		return nil
	},
}
