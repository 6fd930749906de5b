// Package transport adapts the claude runtime client into openclawpack's
// stable surface: prompts in, Result envelopes out, and every native failure
// translated into the package's typed errors at this single boundary.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mitgor/openclawpack/internal/claude"
	"github.com/mitgor/openclawpack/internal/output"
	"github.com/mitgor/openclawpack/internal/protocol"
	"github.com/mitgor/openclawpack/internal/transcript"
)

// stopGrace bounds subprocess cleanup after a run is abandoned.
const stopGrace = 10 * time.Second

// runner is the slice of the claude client the adapter drives. The factory
// indirection defers loading the runtime until the first Run and lets tests
// substitute a scripted session.
type runner interface {
	Start(ctx context.Context, prompt string) error
	Messages() <-chan *protocol.Message
	Wait(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Transport runs prompts through the Claude Code CLI.
//
// A Transport holds only read-only configuration; every Run owns its own
// subprocess and state, so concurrent Run and RunBlocking calls on one
// instance are safe.
type Transport struct {
	config    Config
	logger    *slog.Logger
	formatter *transcript.Formatter
	newRunner func(claude.Options) runner
}

// New creates a transport with the given defaults.
func New(config Config) *Transport {
	cfg := config.withDefaults()
	return &Transport{
		config:    cfg,
		logger:    cfg.Logger,
		formatter: transcript.NewFormatter(),
		newRunner: func(opts claude.Options) runner {
			return claude.NewClient(opts)
		},
	}
}

// Run executes one prompt to completion and returns its result envelope.
//
// The configured timeout is one wall-clock deadline over the entire message
// stream. The last result message in the stream is authoritative; a stream
// that ends without one is a ProcessError, never a silent success.
func (t *Transport) Run(ctx context.Context, prompt string, opts ...RunOption) (*output.Result, error) {
	rc := t.resolveRun(opts...)

	t.logger.Debug("starting run",
		"dir", rc.Dir,
		"timeout", rc.Timeout,
		"permission_mode", rc.PermissionMode)

	client := t.newRunner(claude.Options{
		BinaryPath:         rc.BinaryPath,
		Dir:                rc.Dir,
		PermissionMode:     rc.PermissionMode,
		AppendSystemPrompt: rc.AppendSystemPrompt,
		AllowedTools:       rc.AllowedTools,
		SettingSources:     rc.SettingSources,
		MaxTurns:           rc.MaxTurns,
		ResumeSessionID:    rc.ResumeSessionID,
		Handler:            rc.Handler,
		Logger:             t.logger,
	})

	runCtx, cancel := context.WithTimeout(ctx, rc.Timeout)
	defer cancel()

	if err := client.Start(runCtx, prompt); err != nil {
		return nil, t.translate(err, rc.Timeout)
	}

	var result *protocol.Message
stream:
	for {
		select {
		case <-runCtx.Done():
			stopCtx, stopCancel := context.WithTimeout(context.Background(), stopGrace)
			client.Stop(stopCtx)
			stopCancel()
			return nil, t.translate(runCtx.Err(), rc.Timeout)

		case msg, ok := <-client.Messages():
			if !ok {
				break stream
			}
			t.logger.Debug("session", "transcript", t.formatter.FormatMessage(msg))
			if msg.Type == protocol.MessageTypeResult {
				result = msg
			}
		}
	}

	if err := client.Wait(runCtx); err != nil {
		return nil, t.translate(err, rc.Timeout)
	}

	if result == nil {
		return nil, &ProcessError{Message: "no result message received from Claude Code"}
	}

	t.logger.Debug("run complete",
		"session_id", result.SessionID,
		"is_error", result.IsError,
		"duration_ms", result.DurationMS)

	return envelope(result), nil
}

// RunBlocking is Run for synchronous callers. Each call gets its own
// isolated run, so concurrent blocking callers cannot deadlock or corrupt
// one another's envelopes.
func (t *Transport) RunBlocking(prompt string, opts ...RunOption) (*output.Result, error) {
	return t.Run(context.Background(), prompt, opts...)
}

func (t *Transport) resolveRun(opts ...RunOption) Config {
	rc := t.config
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.Timeout <= 0 {
		rc.Timeout = DefaultTimeout
	}
	return rc
}

// translate maps a native failure onto the error taxonomy. No claude error
// type crosses above this point.
func (t *Transport) translate(err error, timeout time.Duration) error {
	var exitErr *claude.ExitError
	var decodeErr *claude.DecodeError

	switch {
	case err == nil:
		return nil

	case errors.Is(err, context.Canceled):
		// Caller's own cancellation, not a transport failure
		return err

	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{
			Message: fmt.Sprintf("Claude Code subprocess timed out after %gs", timeout.Seconds()),
			Timeout: timeout,
		}

	case errors.Is(err, claude.ErrNotFound):
		t.logger.Debug("translating native failure", "error", err)
		return &CLINotFoundError{}

	case errors.As(err, &exitErr):
		code := exitErr.Code
		return &ProcessError{ExitCode: &code, Stderr: exitErr.Stderr}

	case errors.As(err, &decodeErr):
		return &DecodeError{RawOutput: string(decodeErr.Line)}

	case errors.Is(err, claude.ErrConnectionLost):
		t.logger.Debug("translating native failure", "error", err)
		return &ConnectionLostError{}

	default:
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
}

// envelope converts the terminal result message into the outcome envelope.
func envelope(msg *protocol.Message) *output.Result {
	if msg.IsError {
		res := output.Error(msg.ResultText(), msg.DurationMS)
		res.SessionID = msg.SessionID
		res.Usage = msg.Usage
		return res
	}
	return output.Ok(msg.Result, msg.SessionID, msg.Usage, msg.DurationMS)
}
