package workflow

import (
	"context"
	"fmt"
	"os"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
)

// NewProjectDefaults answers the GSD config questions asked while creating
// a project. Keys match question text case-insensitively by substring.
var NewProjectDefaults = answers.Policy{
	"depth":           "3",
	"parallelization": "Yes",
	"git":             "Yes",
	"research":        "Standard",
	"plan check":      "Yes",
	"verif":           "Yes",
	"model":           "quality",
}

// NewProject creates a GSD project from an idea. The idea is plain text,
// or a path to a readable file whose contents become the idea.
func (e *Engine) NewProject(ctx context.Context, idea string, opts CommandOptions) *output.Result {
	result := e.newProject(ctx, idea, opts)
	if result.Success {
		emit(opts.Bus, events.TypeProgressUpdate, map[string]any{
			"command": "create_project",
			"status":  "complete",
		})
	} else {
		emit(opts.Bus, events.TypeError, map[string]any{
			"command": "create_project",
			"errors":  result.Errors,
		})
	}
	return result
}

func (e *Engine) newProject(ctx context.Context, idea string, opts CommandOptions) *output.Result {
	ideaText, err := readIdea(idea)
	if err != nil {
		return output.Error(err.Error(), 0)
	}

	result, err := e.RunCommand(ctx, "gsd:new-project", Request{
		Policy:          answers.Merge(NewProjectDefaults, opts.AnswerOverrides),
		PromptOverride:  "/gsd:new-project --auto\n\n" + ideaText,
		ResumeSessionID: opts.ResumeSessionID,
	})
	if err != nil {
		return output.Error(err.Error(), 0)
	}
	return result
}

// readIdea returns the contents of idea when it names a regular file,
// otherwise idea itself as literal text.
func readIdea(idea string) (string, error) {
	info, err := os.Stat(idea)
	if err != nil || !info.Mode().IsRegular() {
		return idea, nil
	}
	data, err := os.ReadFile(idea)
	if err != nil {
		return "", fmt.Errorf("failed to read idea file %s: %w", idea, err)
	}
	return string(data), nil
}
