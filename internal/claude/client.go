// Package claude runs the Claude Code CLI as a subprocess and speaks its
// stream-json protocol over pipes. It owns process lifecycle, the stdout
// message pump, and the control channel; callers consume parsed messages
// and answer control requests through a ControlHandler.
package claude

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mitgor/openclawpack/internal/ndjson"
	"github.com/mitgor/openclawpack/internal/protocol"
)

// DefaultBinary is the CLI binary resolved on PATH when no explicit path is given.
const DefaultBinary = "claude"

// stderrTailLines bounds how much stderr is retained for error context.
const stderrTailLines = 50

// ControlHandler answers the CLI's mid-session control requests.
type ControlHandler interface {
	// HookConfig declares hook callbacks for the initialize handshake.
	// An empty map registers no hooks.
	HookConfig() map[string]any
	// CanUseTool decides whether a tool invocation proceeds, optionally
	// rewriting its input.
	CanUseTool(toolName string, input map[string]any) protocol.PermissionDecision
	// HookCallback runs the identified hook and returns its output object.
	HookCallback(callbackID string, input map[string]any) map[string]any
}

// Options configure a session subprocess.
type Options struct {
	// BinaryPath overrides PATH resolution of the claude binary.
	BinaryPath string
	// Dir is the working directory for the subprocess.
	Dir string
	// Env adds variables on top of the inherited environment.
	Env map[string]string
	// PermissionMode is passed as --permission-mode when non-empty.
	PermissionMode string
	// AppendSystemPrompt extends the CLI's built-in system prompt.
	AppendSystemPrompt string
	// AllowedTools restricts the tool set when non-empty.
	AllowedTools []string
	// SettingSources selects which settings files the CLI loads.
	SettingSources []string
	// MaxTurns caps conversation turns when positive.
	MaxTurns int
	// ResumeSessionID continues an earlier session when non-empty.
	ResumeSessionID string
	// Handler answers control requests. When nil, no hooks are registered
	// and stdin closes right after the prompt.
	Handler ControlHandler
	// Logger receives client diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// ResolveBinary locates the claude binary. An explicit path must exist; an
// empty path is resolved on PATH. Failures wrap ErrNotFound.
func ResolveBinary(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return path, nil
	}
	resolved, err := exec.LookPath(DefaultBinary)
	if err != nil {
		return "", fmt.Errorf("%w: %q not on PATH", ErrNotFound, DefaultBinary)
	}
	return resolved, nil
}

// buildArgs assembles the CLI argument list for one session.
func buildArgs(opts Options) []string {
	args := []string{
		"-p",
		"--verbose",
		"--output-format", "stream-json",
		"--input-format", "stream-json",
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", opts.PermissionMode)
	}
	if opts.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.AppendSystemPrompt)
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.SettingSources) > 0 {
		args = append(args, "--setting-sources", strings.Join(opts.SettingSources, ","))
	}
	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.ResumeSessionID != "" {
		args = append(args, "--resume", opts.ResumeSessionID)
	}
	return args
}

// Client manages a single claude subprocess
type Client struct {
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	process     *exec.Cmd
	stdin       io.WriteCloser
	stdinClosed bool
	running     bool
	pumpErr     error
	exitErr     error
	exitDone    chan struct{}

	writeMu sync.Mutex
	encoder *ndjson.Encoder

	decoder  *ndjson.Decoder
	messages chan *protocol.Message

	tailMu sync.Mutex
	tail   []string
}

// NewClient creates a client for one session. Start launches the subprocess.
func NewClient(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		opts:     opts,
		logger:   logger,
		messages: make(chan *protocol.Message, 100),
	}
}

// Start launches the subprocess and sends the prompt as the opening user turn.
func (c *Client) Start(ctx context.Context, prompt string) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("claude: session already running")
	}
	c.mu.Unlock()

	binary, err := ResolveBinary(c.opts.BinaryPath)
	if err != nil {
		return err
	}

	args := buildArgs(c.opts)
	c.logger.Debug("starting claude", "binary", binary, "args", args, "dir", c.opts.Dir)

	proc := exec.CommandContext(ctx, binary, args...)
	proc.Dir = c.opts.Dir

	// Inherit parent environment first, then add custom vars
	proc.Env = os.Environ()
	for k, v := range c.opts.Env {
		proc.Env = append(proc.Env, fmt.Sprintf("%s=%s", k, v))
	}

	stdin, err := proc.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := proc.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := proc.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := proc.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("failed to start claude: %w", err)
	}

	c.mu.Lock()
	c.process = proc
	c.stdin = stdin
	c.stdinClosed = false
	c.running = true
	c.exitDone = make(chan struct{})
	c.mu.Unlock()

	c.writeMu.Lock()
	c.encoder = ndjson.NewEncoder(stdin, c.logger)
	c.writeMu.Unlock()
	c.decoder = ndjson.NewDecoder(stdout, c.logger)

	c.logger.Debug("claude started", "pid", proc.Process.Pid)

	go c.readStdout(ctx)
	go c.readStderr(stderr)
	go c.waitForExit()

	if c.opts.Handler != nil {
		hooks := c.opts.Handler.HookConfig()
		init := protocol.NewInitializeRequest(uuid.New().String(), hooks)
		if err := c.send(init); err != nil {
			return fmt.Errorf("failed to send initialize request: %w", err)
		}
	}

	if err := c.send(protocol.NewUserMessage(prompt)); err != nil {
		return fmt.Errorf("failed to send prompt: %w", err)
	}

	// Without a handler no control responses will ever be written, so the
	// input side can close as soon as the prompt is on the wire.
	if c.opts.Handler == nil {
		c.closeStdin()
	}

	return nil
}

// Messages returns the stream of parsed output messages. The channel closes
// when stdout ends or the pump hits an unrecoverable decode failure; Wait
// reports which.
func (c *Client) Messages() <-chan *protocol.Message {
	return c.messages
}

// Wait blocks until the subprocess exits and returns the session's terminal
// error: a decode failure from the pump, an ExitError for a non-zero exit,
// or nil for a clean finish.
func (c *Client) Wait(ctx context.Context) error {
	c.mu.Lock()
	exitDone := c.exitDone
	c.mu.Unlock()

	if exitDone == nil {
		return fmt.Errorf("claude: session not started")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-exitDone:
	}

	c.mu.Lock()
	pumpErr := c.pumpErr
	exitErr := c.exitErr
	c.mu.Unlock()

	if pumpErr != nil {
		return pumpErr
	}
	if exitErr != nil {
		var ee *exec.ExitError
		if errors.As(exitErr, &ee) {
			return &ExitError{Code: ee.ExitCode(), Stderr: c.StderrTail()}
		}
		return fmt.Errorf("%w: %v", ErrConnectionLost, exitErr)
	}
	return nil
}

// Stop closes stdin and waits for the process to exit, killing it after a
// grace period.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	proc := c.process
	exitDone := c.exitDone
	c.mu.Unlock()

	c.logger.Debug("stopping claude")
	c.closeStdin()

	select {
	case <-ctx.Done():
		if proc.Process != nil {
			proc.Process.Kill()
		}
		return ctx.Err()
	case <-exitDone:
		return nil
	case <-time.After(5 * time.Second):
		c.logger.Warn("claude did not stop gracefully, killing")
		if proc.Process != nil {
			proc.Process.Kill()
		}
		<-exitDone
		return nil
	}
}

// IsRunning reports whether the subprocess is still alive.
func (c *Client) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// StderrTail returns the retained tail of the subprocess's stderr.
func (c *Client) StderrTail() string {
	c.tailMu.Lock()
	defer c.tailMu.Unlock()
	return strings.Join(c.tail, "\n")
}

func (c *Client) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	closed := c.stdinClosed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: stdin closed", ErrConnectionLost)
	}
	return c.encoder.Encode(v)
}

func (c *Client) closeStdin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdinClosed || c.stdin == nil {
		return
	}
	c.stdinClosed = true
	c.stdin.Close()
}

func (c *Client) readStdout(ctx context.Context) {
	defer close(c.messages)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.decoder.DecodeRaw()
		if err == io.EOF {
			c.logger.Debug("claude stdout closed")
			return
		}
		if err != nil {
			c.mu.Lock()
			c.pumpErr = fmt.Errorf("%w: reading stdout: %v", ErrConnectionLost, err)
			c.mu.Unlock()
			return
		}

		msg, err := protocol.Parse(line)
		if err != nil {
			c.logger.Error("unparseable output line", "line", c.decoder.LineNum(), "error", err)
			c.mu.Lock()
			c.pumpErr = &DecodeError{Line: line, Err: err}
			c.mu.Unlock()
			return
		}

		switch msg.Type {
		case protocol.MessageTypeControlRequest:
			c.handleControlRequest(msg)

		case protocol.MessageTypeControlResponse:
			c.logger.Debug("control response received", "line", c.decoder.LineNum())

		case protocol.MessageTypeResult:
			select {
			case c.messages <- msg:
			case <-ctx.Done():
				return
			}
			// Print mode emits one result as the session's final message;
			// no further turns or control traffic follow it.
			c.closeStdin()

		default:
			select {
			case c.messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Client) handleControlRequest(msg *protocol.Message) {
	req := msg.Request
	if req == nil {
		c.respond(protocol.NewControlError(msg.RequestID, "control_request missing body"))
		return
	}

	c.logger.Debug("control request",
		"request_id", msg.RequestID,
		"subtype", req.Subtype,
		"tool_name", req.ToolName)

	handler := c.opts.Handler

	switch req.Subtype {
	case protocol.SubtypeCanUseTool:
		if handler == nil {
			c.logger.Warn("no control handler, allowing tool", "tool_name", req.ToolName)
			c.respond(protocol.NewControlResponse(msg.RequestID, protocol.AllowTool(nil)))
			return
		}
		decision := handler.CanUseTool(req.ToolName, req.Input)
		c.respond(protocol.NewControlResponse(msg.RequestID, decision))

	case protocol.SubtypeHookCallback:
		output := map[string]any{}
		if handler != nil {
			if out := handler.HookCallback(req.CallbackID, req.Input); out != nil {
				output = out
			}
		}
		c.respond(protocol.NewControlResponse(msg.RequestID, output))

	default:
		c.respond(protocol.NewControlError(msg.RequestID, fmt.Sprintf("unhandled subtype: %s", req.Subtype)))
	}
}

func (c *Client) respond(resp protocol.ControlResponse) {
	if err := c.send(resp); err != nil {
		c.logger.Warn("failed to send control response",
			"request_id", resp.Response.RequestID,
			"error", err)
	}
}

func (c *Client) readStderr(stderr io.ReadCloser) {
	scanner := bufio.NewScanner(stderr)
	// Tolerate long lines
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		c.logger.Debug("claude stderr", "line", line)

		c.tailMu.Lock()
		c.tail = append(c.tail, line)
		if len(c.tail) > stderrTailLines {
			c.tail = c.tail[len(c.tail)-stderrTailLines:]
		}
		c.tailMu.Unlock()
	}
}

func (c *Client) waitForExit() {
	err := c.process.Wait()

	c.mu.Lock()
	c.exitErr = err
	c.running = false
	exitDone := c.exitDone
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("claude exited", "error", err)
	} else {
		c.logger.Debug("claude exited cleanly")
	}

	close(exitDone)
}
