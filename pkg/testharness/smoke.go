package testharness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/mitgor/openclawpack/internal/fixture"
	"github.com/mitgor/openclawpack/internal/fsutil"
	"github.com/mitgor/openclawpack/internal/output"
)

// Scenario defines a deterministic end-to-end flow: one openclawpack
// invocation against a scripted claude session.
type Scenario struct {
	Name string
	// Args is the openclawpack command line.
	Args []string
	// Script is replayed by the claude stand-in. Scenarios without a
	// script never spawn a session.
	Script *fixture.Script
	// PlanningFiles seeds .planning/ in the workspace.
	PlanningFiles map[string]string
}

var (
	// ScenarioPlanPhase exercises the happy path: one session, one result,
	// and an event log entry for the completed plan.
	ScenarioPlanPhase = Scenario{
		Name: "plan-phase-success",
		Args: []string{"plan-phase", "2", "--event-log", "events.ndjson"},
		Script: &fixture.Script{
			SessionID: "smoke-plan",
			Steps: []fixture.Step{
				{Type: fixture.StepSystem},
				{Type: fixture.StepAssistant, Text: "Planning phase 2."},
				{Type: fixture.StepResult, Result: "Phase 2 planned."},
			},
		},
	}

	// ScenarioNewProjectQuestions validates the question round trip over
	// real subprocess pipes: the fixture asks, the gate answers.
	ScenarioNewProjectQuestions = Scenario{
		Name: "new-project-questions",
		Args: []string{"new-project", "a tiny todo app"},
		Script: &fixture.Script{
			SessionID: "smoke-new-project",
			Steps: []fixture.Step{
				{Type: fixture.StepSystem},
				{Type: fixture.StepAskQuestion, Question: "Choose a depth level", Header: "Depth", Options: []string{"1", "2", "3"}},
				{Type: fixture.StepAssistant, Text: "Initializing the project."},
				{Type: fixture.StepResult, Result: "Project initialized."},
			},
		},
	}

	// ScenarioAgentFailure validates that an agent-reported error surfaces
	// as a failed envelope and a non-zero exit.
	ScenarioAgentFailure = Scenario{
		Name: "execute-phase-failure",
		Args: []string{"execute-phase", "1"},
		Script: &fixture.Script{
			SessionID: "smoke-execute",
			Steps: []fixture.Step{
				{Type: fixture.StepResult, Result: "Verification failed twice.", IsError: true},
			},
		},
	}

	// ScenarioStatus reads workspace state without spawning a session.
	ScenarioStatus = Scenario{
		Name: "status-local",
		Args: []string{"status"},
		PlanningFiles: map[string]string{
			"STATE.md":   "# State\n\nPhase: 1 of 2 (Foundation)\nPlan: 1 of 3\n",
			"PROJECT.md": "# Project\n\nSmoke test project.\n",
		},
	}
)

// SmokeOptions configures RunSmoke.
type SmokeOptions struct {
	Scenario     Scenario
	CLIBinary    string
	ClaudeBinary string
	WorkspaceDir string
	Env          map[string]string
}

// SmokeResult captures the outcome of a smoke scenario.
type SmokeResult struct {
	Scenario  Scenario
	Workspace string
	Stdout    string
	Stderr    string
	RunErr    error
	// Envelope is the parsed result from stdout, nil when stdout held none.
	Envelope *output.Result
}

// RunSmoke executes a smoke scenario using the provided binaries.
func RunSmoke(ctx context.Context, opts SmokeOptions) (*SmokeResult, error) {
	if opts.CLIBinary == "" {
		return nil, fmt.Errorf("openclawpack binary path is required")
	}
	if opts.Scenario.Script != nil && opts.ClaudeBinary == "" {
		return nil, fmt.Errorf("claude fixture binary path is required for scripted scenarios")
	}

	workspace, err := prepareWorkspace(opts.Scenario, opts.WorkspaceDir)
	if err != nil {
		return nil, err
	}

	// Duplicate env keys are fine: the child keeps the last value it sees.
	env := os.Environ()
	for k, v := range opts.Env {
		env = append(env, k+"="+v)
	}
	if opts.Scenario.Script != nil {
		scriptPath := filepath.Join(workspace, "claude-fixture.json")
		if err := fsutil.AtomicWriteJSON(scriptPath, opts.Scenario.Script); err != nil {
			return nil, fmt.Errorf("write fixture script: %w", err)
		}
		env = append(env, "CLAUDE_FIXTURE="+scriptPath)
		// The fixture directory goes first on PATH so its claude binary
		// wins resolution.
		env = append(env, "PATH="+filepath.Dir(opts.ClaudeBinary)+string(os.PathListSeparator)+os.Getenv("PATH"))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, opts.CLIBinary, opts.Scenario.Args...)
	cmd.Dir = workspace
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = env

	runErr := cmd.Run()

	result := &SmokeResult{
		Scenario:  opts.Scenario,
		Workspace: workspace,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		RunErr:    runErr,
	}
	var envelope output.Result
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err == nil {
		result.Envelope = &envelope
	}
	return result, nil
}

// prepareWorkspace creates the scenario workspace and seeds its planning
// files.
func prepareWorkspace(scenario Scenario, dir string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "openclawpack-smoke-")
		if err != nil {
			return "", fmt.Errorf("create workspace: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create workspace directory: %w", err)
	}

	for name, content := range scenario.PlanningFiles {
		path := filepath.Join(dir, ".planning", name)
		if err := fsutil.AtomicWrite(path, []byte(content)); err != nil {
			return "", fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return dir, nil
}

// DetectRepoRoot walks up from the working directory until it finds go.mod.
func DetectRepoRoot() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("determine working directory: %w", err)
	}
	for dir := start; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		if filepath.Dir(dir) == dir {
			return "", fmt.Errorf("no go.mod above %s", start)
		}
	}
}
