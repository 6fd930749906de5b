package workflow

import (
	"context"
	"strconv"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
)

// CommandOptions carries the per-invocation knobs shared by the command
// methods.
type CommandOptions struct {
	// AnswerOverrides is merged over the command's default answer policy;
	// caller entries win on collision.
	AnswerOverrides answers.Policy

	// ResumeSessionID continues an earlier Claude session.
	ResumeSessionID string

	// Bus receives lifecycle events. Nil skips emission.
	Bus *events.Bus
}

// emit publishes on the bus when one is attached.
func emit(bus *events.Bus, t events.Type, data map[string]any) {
	if bus != nil {
		bus.Emit(t, data)
	}
}

// runPhaseCommand runs a phase-numbered GSD command with merged answers and
// folds transport errors into the envelope.
func (e *Engine) runPhaseCommand(ctx context.Context, command string, phase int, defaults answers.Policy, opts CommandOptions) *output.Result {
	result, err := e.RunCommand(ctx, command, Request{
		Args:            strconv.Itoa(phase),
		Policy:          answers.Merge(defaults, opts.AnswerOverrides),
		ResumeSessionID: opts.ResumeSessionID,
	})
	if err != nil {
		return output.Error(err.Error(), 0)
	}
	return result
}
