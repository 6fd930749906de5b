// Command claude-fixture is a scripted stand-in for the Claude Code CLI.
// It accepts the real binary's invocation unchanged, replays the script
// named by the CLAUDE_FIXTURE environment variable over stream-json, and
// keeps stdout free of anything but protocol lines. Install it on PATH as
// "claude" (or point a transport's BinaryPath at it) to run sessions
// hermetically.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mitgor/openclawpack/internal/fixture"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fixturePath := strings.TrimSpace(os.Getenv("CLAUDE_FIXTURE"))
	if fixturePath == "" {
		fmt.Fprintln(os.Stderr, "fixture script must be provided via the CLAUDE_FIXTURE environment variable")
		os.Exit(2)
	}

	script, err := fixture.Load(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load fixture: %v\n", err)
		os.Exit(1)
	}

	level, err := fixture.ParseLogLevel(os.Getenv("CLAUDE_FIXTURE_LOG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	// The caller passes the real CLI's flags; the fixture takes its
	// configuration from the environment instead of parsing them.
	logger.Debug("claude fixture starting", "script", fixturePath, "args", os.Args[1:])

	session, err := fixture.NewSession(script, logger)
	if err != nil {
		logger.Error("failed to create fixture session", "error", err)
		os.Exit(1)
	}

	code, err := session.Run(ctx, os.Stdin, os.Stdout)
	if err != nil {
		logger.Error("fixture session failed", "error", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}
