package workflow

import (
	"time"

	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
	"github.com/mitgor/openclawpack/internal/state"
)

// Status reads the project's planning state locally. No subprocess is
// spawned, so status works without a claude binary installed.
func (e *Engine) Status(bus *events.Bus) *output.Result {
	start := time.Now()
	summary, err := state.Summary(e.workingDir())
	duration := time.Since(start).Milliseconds()

	var result *output.Result
	if err != nil {
		result = output.Error(err.Error(), duration)
	} else {
		result = output.Ok(summary, "", nil, duration)
	}

	if result.Success {
		emit(bus, events.TypeProgressUpdate, map[string]any{
			"command": "get_status",
			"status":  "complete",
		})
	} else {
		emit(bus, events.TypeError, map[string]any{
			"command": "get_status",
			"errors":  result.Errors,
		})
	}
	return result
}
