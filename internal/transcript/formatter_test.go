package transcript

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mitgor/openclawpack/internal/protocol"
)

func TestFormatMessage_System(t *testing.T) {
	tests := []struct {
		name     string
		msg      *protocol.Message
		expected string
	}{
		{
			name: "init",
			msg: &protocol.Message{
				Type:    protocol.MessageTypeSystem,
				Subtype: "init",
			},
			expected: "[system] init",
		},
		{
			name: "without subtype",
			msg: &protocol.Message{
				Type: protocol.MessageTypeSystem,
			},
			expected: "[system]",
		},
	}

	formatter := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, formatter.FormatMessage(tt.msg))
		})
	}
}

func TestFormatMessage_Assistant(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "single text block",
			body:     `{"role":"assistant","content":[{"type":"text","text":"Planning the phase."}]}`,
			expected: "[assistant] Planning the phase.",
		},
		{
			name:     "multi-line text keeps the first line",
			body:     `{"role":"assistant","content":[{"type":"text","text":"Step one.\nStep two."}]}`,
			expected: "[assistant] Step one.",
		},
		{
			name:     "tool use only",
			body:     `{"role":"assistant","content":[{"type":"tool_use","name":"Read"}]}`,
			expected: "[assistant] (no text)",
		},
		{
			name:     "malformed body",
			body:     `"not an object"`,
			expected: "[assistant] (no text)",
		},
	}

	formatter := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &protocol.Message{
				Type:    protocol.MessageTypeAssistant,
				Message: json.RawMessage(tt.body),
			}
			require.Equal(t, tt.expected, formatter.FormatMessage(msg))
		})
	}
}

func TestFormatMessage_Result(t *testing.T) {
	tests := []struct {
		name     string
		msg      *protocol.Message
		expected string
	}{
		{
			name: "success",
			msg: &protocol.Message{
				Type:       protocol.MessageTypeResult,
				Subtype:    "success",
				NumTurns:   2,
				DurationMS: 1500,
			},
			expected: "[result] success: 2 turns in 1.5s",
		},
		{
			name: "fast success",
			msg: &protocol.Message{
				Type:       protocol.MessageTypeResult,
				Subtype:    "success",
				NumTurns:   1,
				DurationMS: 80,
			},
			expected: "[result] success: 1 turns in 80ms",
		},
		{
			name: "error with text",
			msg: &protocol.Message{
				Type:       protocol.MessageTypeResult,
				Subtype:    "error_during_execution",
				IsError:    true,
				Result:     "Verification failed",
				DurationMS: 2000,
			},
			expected: "[result] error after 2.0s: Verification failed",
		},
		{
			name: "error without text falls back to the subtype",
			msg: &protocol.Message{
				Type:       protocol.MessageTypeResult,
				Subtype:    "error_during_execution",
				IsError:    true,
				DurationMS: 1000,
			},
			expected: "[result] error after 1.0s: error_during_execution",
		},
	}

	formatter := NewFormatter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, formatter.FormatMessage(tt.msg))
		})
	}
}

func TestFormatMessage_ControlRequest(t *testing.T) {
	formatter := NewFormatter()

	msg := &protocol.Message{
		Type:      protocol.MessageTypeControlRequest,
		RequestID: "req-1",
		Request: &protocol.ControlRequest{
			Subtype:  protocol.SubtypeCanUseTool,
			ToolName: protocol.ToolAskUserQuestion,
		},
	}
	require.Equal(t, "[control] can_use_tool: AskUserQuestion", formatter.FormatMessage(msg))

	bare := &protocol.Message{Type: protocol.MessageTypeControlRequest}
	require.Equal(t, "[control] request", formatter.FormatMessage(bare))
}

func TestFormatMessage_OtherTypes(t *testing.T) {
	formatter := NewFormatter()

	msg := &protocol.Message{Type: protocol.MessageTypeStreamEvent}
	require.Equal(t, "[stream_event]", formatter.FormatMessage(msg))
}

func TestAssistantText(t *testing.T) {
	msg := &protocol.Message{
		Type: protocol.MessageTypeAssistant,
		Message: json.RawMessage(`{"role":"assistant","content":[` +
			`{"type":"text","text":"First."},` +
			`{"type":"tool_use","name":"Bash"},` +
			`{"type":"text","text":"Second."}]}`),
	}
	require.Equal(t, "First.\nSecond.", AssistantText(msg))

	empty := &protocol.Message{Type: protocol.MessageTypeAssistant}
	require.Equal(t, "", AssistantText(empty))
}
