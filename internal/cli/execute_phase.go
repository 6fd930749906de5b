package cli

import (
	"github.com/spf13/cobra"
)

var executePhaseCmd = &cobra.Command{
	Use:   "execute-phase <phase>",
	Short: "Execute a GSD phase non-interactively",
	Long: `Run /gsd:execute-phase for the given phase number through Claude Code,
approving checkpoints and wave continuations automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runExecutePhase,
}

func init() {
	addWorkflowFlags(executePhaseCmd)
}

func runExecutePhase(cmd *cobra.Command, args []string) error {
	phase, err := parsePhase(args[0])
	if err != nil {
		return err
	}
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

	return settings.finish(cmd, engine.ExecutePhase(cmd.Context(), phase, opts))
}
