package cli

import (
	"github.com/spf13/cobra"
)

var newProjectCmd = &cobra.Command{
	Use:   "new-project <idea>",
	Short: "Create a GSD project from an idea",
	Long: `Create a GSD project by running /gsd:new-project --auto through Claude
Code. The idea is plain text, or a path to a file whose contents become
the idea.`,
	Args: cobra.ExactArgs(1),
	RunE: runNewProject,
}

func init() {
	addWorkflowFlags(newProjectCmd)
}

func runNewProject(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	engine, err := engineFromFlags(cmd, settings.logger)
	if err != nil {
		return err
	}
	opts, err := commandOptionsFromFlags(cmd, settings.bus)
	if err != nil {
		return err
	}

	return settings.finish(cmd, engine.NewProject(cmd.Context(), args[0], opts))
}
