package cli

import (
	"github.com/spf13/cobra"

	"github.com/mitgor/openclawpack/internal/workflow"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show project state as a structured summary",
	Long: `Read the project's .planning/ directory and print a structured summary.
Runs entirely locally; no claude binary is needed.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("project-dir", "", "Project directory (default: current directory)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	projectDir, err := cmd.Flags().GetString("project-dir")
	if err != nil {
		return err
	}

	engine := workflow.NewEngine(workflow.EngineOptions{
		ProjectDir: projectDir,
		Logger:     settings.logger,
	})
	return settings.finish(cmd, engine.Status(settings.bus))
}
