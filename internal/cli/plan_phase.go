package cli

import (
	"github.com/spf13/cobra"
)

var planPhaseCmd = &cobra.Command{
	Use:   "plan-phase <phase>",
	Short: "Plan a GSD phase non-interactively",
	Long: `Run /gsd:plan-phase for the given phase number through Claude Code,
answering top-level confirmation questions automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanPhase,
}

func init() {
	addWorkflowFlags(planPhaseCmd)
}

func runPlanPhase(cmd *cobra.Command, args []string) error {
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

	return settings.finish(cmd, engine.PlanPhase(cmd.Context(), phase, opts))
}
