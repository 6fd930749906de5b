// Package workflow turns high-level GSD commands into unattended Claude
// Code sessions.
//
// The Engine owns prompt construction, per-command timeout resolution, and
// answer-policy wiring; the command methods (NewProject, PlanPhase,
// ExecutePhase, Status) layer default answer policies and lifecycle events
// on top of it. Every failure crossing out of a command method travels
// inside the result envelope, never as a raw error.
package workflow

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/output"
	"github.com/mitgor/openclawpack/internal/transport"
)

// fallbackTimeout bounds commands without a DefaultTimeouts entry.
const fallbackTimeout = 600 * time.Second

// DefaultTimeouts maps GSD commands to their wall-clock budgets.
// Execute-phase runs longest because it fans out subagent waves.
var DefaultTimeouts = map[string]time.Duration{
	"gsd:new-project":   900 * time.Second,
	"gsd:plan-phase":    600 * time.Second,
	"gsd:execute-phase": 1200 * time.Second,
}

// systemPromptAppend steers every session away from interactive questions.
const systemPromptAppend = "Execute the following command non-interactively. " +
	"Do not ask unnecessary clarifying questions."

// Sessions load settings from the project only, never the user's global
// configuration.
var settingSources = []string{"project"}

// sessionTransport is the slice of the Claude Code transport the engine
// drives.
type sessionTransport interface {
	Run(ctx context.Context, prompt string, opts ...transport.RunOption) (*output.Result, error)
}

// Engine translates command parameters into GSD skill invocations.
//
// Engine state is read-only after construction and each run owns its own
// subprocess, so one engine may serve concurrent runs.
type Engine struct {
	projectDir string
	timeout    time.Duration
	logger     *slog.Logger

	// newTransport builds the session transport for one run. Tests
	// substitute a scripted implementation here.
	newTransport func(transport.Config) sessionTransport
}

// EngineOptions configures a new Engine.
type EngineOptions struct {
	// ProjectDir is the working directory for Claude subprocesses.
	// Empty means the current directory at run time.
	ProjectDir string

	// Timeout overrides the per-command default budgets for every run
	// when positive.
	Timeout time.Duration

	// Logger receives workflow diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// NewEngine creates an engine with the given options.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		projectDir: opts.ProjectDir,
		timeout:    opts.Timeout,
		logger:     logger,
		newTransport: func(cfg transport.Config) sessionTransport {
			return transport.New(cfg)
		},
	}
}

// Request describes one GSD command invocation.
type Request struct {
	// Args is appended to the constructed prompt when non-empty.
	Args string

	// Policy answers AskUserQuestion prompts during the run. Nil attaches
	// no permission gate at all.
	Policy answers.Policy

	// PromptOverride replaces the constructed "/command args" prompt
	// entirely when non-empty.
	PromptOverride string

	// ResumeSessionID continues an earlier Claude session.
	ResumeSessionID string
}

// RunCommand executes a GSD command through the Claude Code transport.
//
// The prompt is "/<command>", plus one space and Args when present, unless
// the request overrides it. The timeout is the engine override when set,
// else the command's DefaultTimeouts entry, else 600s. Transport errors
// propagate unchanged; the command methods own the error-to-envelope
// conversion.
func (e *Engine) RunCommand(ctx context.Context, command string, req Request) (*output.Result, error) {
	prompt := req.PromptOverride
	if prompt == "" {
		prompt = "/" + command
		if req.Args != "" {
			prompt += " " + req.Args
		}
	}

	cfg := transport.Config{
		Dir:                e.workingDir(),
		Timeout:            e.effectiveTimeout(command),
		AppendSystemPrompt: systemPromptAppend,
		SettingSources:     settingSources,
		ResumeSessionID:    req.ResumeSessionID,
		Logger:             e.logger,
	}
	if req.Policy != nil {
		cfg.Handler = answers.NewPermissionGate(req.Policy, e.logger)
	}

	e.logger.Debug("running gsd command",
		"command", command,
		"dir", cfg.Dir,
		"timeout", cfg.Timeout,
		"answers", len(req.Policy))

	return e.newTransport(cfg).Run(ctx, prompt)
}

// RunCommandBlocking is RunCommand for callers without a context. Each call
// gets its own isolated run, so concurrent blocking callers are safe.
func (e *Engine) RunCommandBlocking(command string, req Request) (*output.Result, error) {
	return e.RunCommand(context.Background(), command, req)
}

// effectiveTimeout resolves the wall-clock budget for one command.
func (e *Engine) effectiveTimeout(command string) time.Duration {
	if e.timeout > 0 {
		return e.timeout
	}
	if d, ok := DefaultTimeouts[command]; ok {
		return d
	}
	return fallbackTimeout
}

// workingDir resolves the subprocess working directory.
func (e *Engine) workingDir() string {
	if e.projectDir != "" {
		return e.projectDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
