package workflow

import (
	"context"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
)

// ExecutePhaseDefaults answers checkpoint, wave-continuation, and decision
// questions during execution. GSD --auto mode already approves most
// checkpoints itself; the policy covers prompts that bypass auto mode.
var ExecutePhaseDefaults = answers.Policy{
	"approve":    "approved",
	"approved":   "approved",
	"checkpoint": "approved",
	"continue":   "Yes",
	"proceed":    "Yes",
	"select":     "option-a",
}

// ExecutePhase runs /gsd:execute-phase for the given phase number.
func (e *Engine) ExecutePhase(ctx context.Context, phase int, opts CommandOptions) *output.Result {
	result := e.runPhaseCommand(ctx, "gsd:execute-phase", phase, ExecutePhaseDefaults, opts)
	if result.Success {
		emit(opts.Bus, events.TypePhaseComplete, map[string]any{
			"command": "execute_phase",
			"phase":   phase,
		})
	} else {
		emit(opts.Bus, events.TypeError, map[string]any{
			"command": "execute_phase",
			"phase":   phase,
			"errors":  result.Errors,
		})
	}
	return result
}
