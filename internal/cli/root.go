// Package cli implements the openclawpack command surface.
//
// Every command prints one result envelope on stdout (indented JSON by
// default, text lines with --output text) and exits 1 when the envelope
// carries success=false. Diagnostics go to stderr so stdout stays
// machine-parseable.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mitgor/openclawpack/internal/answers"
	"github.com/mitgor/openclawpack/internal/events"
	"github.com/mitgor/openclawpack/internal/output"
	"github.com/mitgor/openclawpack/internal/workflow"
)

// Version is stamped at release time via -ldflags.
var Version = "0.1.0"

// ErrCommandFailed marks a failed envelope that was already printed; main
// converts it to exit code 1 without printing anything else.
var ErrCommandFailed = errors.New("command failed")

var rootCmd = &cobra.Command{
	Use:   "openclawpack",
	Short: "AI agent control over the GSD framework via Claude Code",
	Long: `openclawpack drives GSD workflow commands through unattended Claude Code
sessions: it constructs the skill prompt, answers interactive questions
from a configurable policy, and prints one structured result envelope per
invocation.

--version, status, and the projects commands never touch the claude
binary; only the workflow commands spawn subprocesses.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().String("output", "json", "Output format: json or text")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output; the exit code reports the outcome")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log subprocess detail to stderr")
	rootCmd.PersistentFlags().String("event-log", "", "Append lifecycle events to this NDJSON file")

	rootCmd.AddCommand(newProjectCmd)
	rootCmd.AddCommand(planPhaseCmd)
	rootCmd.AddCommand(executePhaseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(projectsCmd)
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// runSettings is the resolved view of the persistent flags for one
// invocation.
type runSettings struct {
	format string
	quiet  bool
	logger *slog.Logger
	bus    *events.Bus
	sink   *events.LogSink
}

// resolveSettings reads the persistent flags and builds the logger and the
// optional event bus with its NDJSON sink.
func resolveSettings(cmd *cobra.Command) (*runSettings, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	if format != "json" && format != "text" {
		return nil, fmt.Errorf("invalid output format %q (want json or text)", format)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	eventLog, err := cmd.Flags().GetString("event-log")
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logWriter := io.Writer(cmd.ErrOrStderr())
	if quiet {
		logWriter = io.Discard
	}

	s := &runSettings{
		format: format,
		quiet:  quiet,
		logger: slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level})),
	}

	if eventLog != "" {
		sink, err := events.NewLogSink(eventLog, s.logger)
		if err != nil {
			return nil, err
		}
		s.sink = sink
		s.bus = events.NewBus(s.logger)
		sink.SubscribeAll(s.bus)
	}
	return s, nil
}

// close releases the event sink when one was opened.
func (s *runSettings) close() {
	if s.sink != nil {
		s.sink.Close()
	}
}

// finish prints the envelope and converts a failed one into the exit-code
// sentinel.
func (s *runSettings) finish(cmd *cobra.Command, result *output.Result) error {
	if !s.quiet {
		rendered := ""
		if s.format == "text" {
			rendered = result.FormatText()
		} else {
			jsonText, err := result.ToJSON()
			if err != nil {
				return err
			}
			rendered = jsonText + "\n"
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
	}
	if !result.Success {
		return ErrCommandFailed
	}
	return nil
}

// addWorkflowFlags registers the flags shared by the subprocess-backed
// commands.
func addWorkflowFlags(cmd *cobra.Command) {
	cmd.Flags().String("project-dir", "", "Project directory (default: current directory)")
	cmd.Flags().Float64("timeout", 0, "Timeout in seconds (default: per-command)")
	cmd.Flags().StringArray("answer", nil, "Override a default answer as key=value (repeatable)")
	cmd.Flags().String("resume", "", "Resume a previous Claude session by ID")
}

// engineFromFlags builds the workflow engine for a subprocess-backed
// command.
func engineFromFlags(cmd *cobra.Command, logger *slog.Logger) (*workflow.Engine, error) {
	projectDir, err := cmd.Flags().GetString("project-dir")
	if err != nil {
		return nil, err
	}
	seconds, err := cmd.Flags().GetFloat64("timeout")
	if err != nil {
		return nil, err
	}
	if seconds < 0 {
		return nil, fmt.Errorf("timeout must be positive, got %g", seconds)
	}
	return workflow.NewEngine(workflow.EngineOptions{
		ProjectDir: projectDir,
		Timeout:    time.Duration(seconds * float64(time.Second)),
		Logger:     logger,
	}), nil
}

// commandOptionsFromFlags resolves the answer overrides, resume ID, and
// event bus for a workflow command.
func commandOptionsFromFlags(cmd *cobra.Command, bus *events.Bus) (workflow.CommandOptions, error) {
	overrides, err := parseAnswerFlags(cmd)
	if err != nil {
		return workflow.CommandOptions{}, err
	}
	resume, err := cmd.Flags().GetString("resume")
	if err != nil {
		return workflow.CommandOptions{}, err
	}
	return workflow.CommandOptions{
		AnswerOverrides: overrides,
		ResumeSessionID: resume,
		Bus:             bus,
	}, nil
}

// parseAnswerFlags turns repeated --answer key=value flags into a policy.
func parseAnswerFlags(cmd *cobra.Command) (answers.Policy, error) {
	raw, err := cmd.Flags().GetStringArray("answer")
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	policy := make(answers.Policy, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --answer %q (want key=value)", pair)
		}
		policy[key] = value
	}
	return policy, nil
}

// parsePhase validates a phase-number argument.
func parsePhase(arg string) (int, error) {
	phase, err := strconv.Atoi(arg)
	if err != nil || phase < 1 {
		return 0, fmt.Errorf("invalid phase number %q", arg)
	}
	return phase, nil
}
