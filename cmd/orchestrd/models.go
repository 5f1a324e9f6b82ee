package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/orchestrd/internal/config"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Show the model assigned to each role",
	Long: `Show the reasoning model each pipeline role resolves to, and where
the assignment came from: a per-role override (models.roles.<role> or
ORCHESTRD_MODELS_ROLES_<ROLE>), the global override (models.default), or
the built-in default.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		printModels(cmd.OutOrStdout(), llm.ModelSelector{
			Global: cfg.Models.Default,
			Roles:  cfg.Models.Roles,
		})
		return nil
	},
}

func printModels(out io.Writer, models llm.ModelSelector) {
	fmt.Fprintln(out, headingStyle.Render("Models"))
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	for _, role := range llm.AllRoles() {
		model, source := models.Resolve(role)
		fmt.Fprintf(w, "  %s\t%s\t%s\n", role, model, faintStyle.Render("("+string(source)+")"))
	}
	w.Flush() //nolint:errcheck
	fmt.Fprintln(out)
}
