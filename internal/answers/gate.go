package answers

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/mitgor/openclawpack/internal/protocol"
)

// PermissionGate answers the runtime's control requests from a fixed policy.
// It allows every tool unconditionally except AskUserQuestion, whose input it
// rewrites with resolved answers so the session never blocks on a human.
//
// The gate registers a no-op PreToolUse hook alongside the permission
// callback: the runtime only routes can_use_tool requests when at least one
// hook is configured, so the two travel as a unit.
type PermissionGate struct {
	policy Policy
	logger *slog.Logger
	hookID string
}

// NewPermissionGate builds a gate over an immutable policy snapshot. A nil
// logger falls back to slog.Default().
func NewPermissionGate(policy Policy, logger *slog.Logger) *PermissionGate {
	if logger == nil {
		logger = slog.Default()
	}
	snapshot := make(Policy, len(policy))
	for key, value := range policy {
		snapshot[key] = value
	}
	return &PermissionGate{
		policy: snapshot,
		logger: logger,
		hookID: "hook_" + uuid.New().String(),
	}
}

// HookConfig declares the no-op PreToolUse hook for the initialize
// handshake. The empty matcher applies it to every tool.
func (g *PermissionGate) HookConfig() map[string]any {
	return map[string]any{
		"PreToolUse": []any{
			map[string]any{
				"matcher":         "",
				"hookCallbackIds": []any{g.hookID},
			},
		},
	}
}

// CanUseTool allows every tool. For AskUserQuestion it resolves each
// question against the policy and replaces the tool input with
// {questions, answers} keyed by original question text.
func (g *PermissionGate) CanUseTool(toolName string, input map[string]any) protocol.PermissionDecision {
	if toolName != protocol.ToolAskUserQuestion {
		return protocol.AllowTool(nil)
	}

	questions := ParseQuestions(input)
	resolved := make(map[string]string, len(questions))
	for _, q := range questions {
		answer, kind := Resolve(q, g.policy)
		resolved[q.Text] = answer
		switch kind {
		case MatchFallback:
			if len(q.Options) > 0 {
				g.logger.Warn("unmatched question, using first option",
					"question", q.Text, "answer", answer)
			} else {
				g.logger.Warn("unmatched question with no options, using empty string",
					"question", q.Text)
			}
		default:
			g.logger.Debug("answered question",
				"question", q.Text, "answer", answer, "match", kind.String())
		}
	}

	raw, ok := input["questions"]
	if !ok {
		raw = []any{}
	}
	return protocol.AllowTool(map[string]any{
		"questions": raw,
		"answers":   resolved,
	})
}

// HookCallback is the registered no-op hook. An empty output object tells
// the runtime to proceed normally.
func (g *PermissionGate) HookCallback(callbackID string, input map[string]any) map[string]any {
	return map[string]any{}
}
