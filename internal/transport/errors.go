package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrTransport is the base sentinel wrapped by every transport failure.
// errors.Is(err, ErrTransport) catches any variant generically; errors.As
// isolates a specific one.
var ErrTransport = errors.New("transport operation failed")

// CLINotFoundError indicates the Claude Code CLI is not installed or not on
// PATH.
type CLINotFoundError struct {
	Message string
}

func (e *CLINotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Claude Code CLI not found. Install with: npm install -g @anthropic-ai/claude-code"
}

func (e *CLINotFoundError) Unwrap() error { return ErrTransport }

// ProcessError indicates the subprocess terminated abnormally or ended its
// stream without a terminal result. ExitCode is nil when no exit status is
// known.
type ProcessError struct {
	Message  string
	ExitCode *int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Claude Code subprocess failed"
	}
	parts := []string{msg}
	if e.ExitCode != nil {
		parts = append(parts, fmt.Sprintf("exit_code=%d", *e.ExitCode))
	}
	if e.Stderr != "" {
		parts = append(parts, fmt.Sprintf("stderr=%q", e.Stderr))
	}
	return strings.Join(parts, " | ")
}

func (e *ProcessError) Unwrap() error { return ErrTransport }

// TimeoutError indicates the wall-clock deadline elapsed before a terminal
// result arrived. Timeout carries the configured deadline.
type TimeoutError struct {
	Message string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Claude Code subprocess timed out"
	}
	if e.Timeout > 0 {
		return fmt.Sprintf("%s | timeout_seconds=%g", msg, e.Timeout.Seconds())
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return ErrTransport }

// rawOutputPreview bounds how much malformed output an error message carries.
const rawOutputPreview = 200

// DecodeError indicates subprocess output that could not be parsed as
// stream-json. RawOutput holds the offending text, truncated in the rendered
// message.
type DecodeError struct {
	Message   string
	RawOutput string
}

func (e *DecodeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Failed to decode JSON from Claude Code output"
	}
	if e.RawOutput == "" {
		return msg
	}
	preview := e.RawOutput
	if runes := []rune(preview); len(runes) > rawOutputPreview {
		preview = string(runes[:rawOutputPreview]) + "..."
	}
	return fmt.Sprintf("%s | raw_output=%q", msg, preview)
}

func (e *DecodeError) Unwrap() error { return ErrTransport }

// ConnectionLostError indicates the channel to the subprocess broke before
// the session completed.
type ConnectionLostError struct {
	Message string
}

func (e *ConnectionLostError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Connection to Claude Code subprocess lost"
}

func (e *ConnectionLostError) Unwrap() error { return ErrTransport }
