package transport

import (
	"log/slog"
	"time"

	"github.com/mitgor/openclawpack/internal/claude"
)

// DefaultTimeout bounds a run when no other timeout is configured.
const DefaultTimeout = 5 * time.Minute

// PermissionModeBypass skips all interactive permission prompts.
const PermissionModeBypass = "bypassPermissions"

// Config holds the adapter defaults applied to every run.
type Config struct {
	// Dir is the working directory for the subprocess. Empty uses the
	// current directory.
	Dir string

	// Timeout is the wall-clock budget for a whole run, covering the
	// entire message stream. Zero means DefaultTimeout.
	Timeout time.Duration

	// AllowedTools restricts the tool set. Nil allows the CLI default.
	AllowedTools []string

	// AppendSystemPrompt extends the CLI's built-in system prompt.
	AppendSystemPrompt string

	// SettingSources selects which settings files the CLI loads.
	SettingSources []string

	// BinaryPath overrides PATH resolution of the claude binary.
	BinaryPath string

	// PermissionMode is the CLI permission mode. Empty means
	// PermissionModeBypass.
	PermissionMode string

	// MaxTurns caps conversation turns. Zero leaves the CLI default.
	MaxTurns int

	// ResumeSessionID continues an earlier session instead of starting
	// fresh. Empty starts a new session.
	ResumeSessionID string

	// Handler answers the CLI's permission and hook control requests.
	// Nil attaches no handler at all.
	Handler claude.ControlHandler

	// Logger receives transport diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PermissionMode == "" {
		c.PermissionMode = PermissionModeBypass
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// RunOption overrides adapter defaults for a single run.
type RunOption func(*Config)

// WithDir overrides the working directory for this run.
func WithDir(dir string) RunOption {
	return func(rc *Config) {
		rc.Dir = dir
	}
}

// WithTimeout overrides the wall-clock budget for this run.
func WithTimeout(d time.Duration) RunOption {
	return func(rc *Config) {
		rc.Timeout = d
	}
}

// WithAllowedTools restricts the tool set for this run.
func WithAllowedTools(tools ...string) RunOption {
	return func(rc *Config) {
		rc.AllowedTools = tools
	}
}

// WithAppendSystemPrompt extends the system prompt for this run.
func WithAppendSystemPrompt(s string) RunOption {
	return func(rc *Config) {
		rc.AppendSystemPrompt = s
	}
}

// WithSettingSources selects the settings files loaded for this run.
func WithSettingSources(sources ...string) RunOption {
	return func(rc *Config) {
		rc.SettingSources = sources
	}
}

// WithPermissionMode overrides the permission mode for this run.
func WithPermissionMode(mode string) RunOption {
	return func(rc *Config) {
		rc.PermissionMode = mode
	}
}

// WithHandler attaches a control handler answering the CLI's permission and
// hook requests during this run.
func WithHandler(h claude.ControlHandler) RunOption {
	return func(rc *Config) {
		rc.Handler = h
	}
}

// WithMaxTurns caps conversation turns for this run.
func WithMaxTurns(n int) RunOption {
	return func(rc *Config) {
		rc.MaxTurns = n
	}
}

// WithResume continues an earlier session instead of starting fresh.
func WithResume(sessionID string) RunOption {
	return func(rc *Config) {
		rc.ResumeSessionID = sessionID
	}
}
