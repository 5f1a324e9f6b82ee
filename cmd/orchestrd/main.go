// Package main implements the orchestrd CLI: an interactive multi-stage
// engineering pipeline driven by a reasoning backend.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath overrides the default config file location.
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "orchestrd",
	Short: "Supervised multi-stage engineering pipeline",
	Long: `orchestrd runs an engineering task through a supervised pipeline of
specialist stages: requirements, system design, coding, testing, and
monitoring. A supervisor routes between stages until every milestone is
met, and the pipeline pauses for review before code generation.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/orchestrd/config.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(projectsCmd)
}
