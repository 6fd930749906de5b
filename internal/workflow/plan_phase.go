package workflow

import (
	"context"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
)

// PlanPhaseDefaults answers the top-level GSD questions during planning.
// Most plan-phase work happens in subagents that run without
// AskUserQuestion; only top-level confirmations need answers.
var PlanPhaseDefaults = answers.Policy{
	"context": "Skip",
	"confirm": "Yes",
	"approve": "Yes",
	"proceed": "Yes",
}

// PlanPhase runs /gsd:plan-phase for the given phase number.
func (e *Engine) PlanPhase(ctx context.Context, phase int, opts CommandOptions) *output.Result {
	result := e.runPhaseCommand(ctx, "gsd:plan-phase", phase, PlanPhaseDefaults, opts)
	if result.Success {
		emit(opts.Bus, events.TypePlanComplete, map[string]any{
			"command": "plan_phase",
			"phase":   phase,
		})
	} else {
		emit(opts.Bus, events.TypeError, map[string]any{
			"command": "plan_phase",
			"phase":   phase,
			"errors":  result.Errors,
		})
	}
	return result
}
