// Package protocol defines the stream-json message vocabulary spoken by the
// Claude Code CLI over stdin/stdout. Every line is one JSON object with a
// "type" discriminator.
package protocol

import (
	"encoding/json"
	"fmt"
)

// MessageType is the envelope discriminator on every stream-json line
type MessageType string

const (
	MessageTypeSystem          MessageType = "system"
	MessageTypeAssistant       MessageType = "assistant"
	MessageTypeUser            MessageType = "user"
	MessageTypeResult          MessageType = "result"
	MessageTypeStreamEvent     MessageType = "stream_event"
	MessageTypeControlRequest  MessageType = "control_request"
	MessageTypeControlResponse MessageType = "control_response"
)

// Control request subtypes
const (
	SubtypeCanUseTool   = "can_use_tool"
	SubtypeHookCallback = "hook_callback"
	SubtypeInitialize   = "initialize"
	SubtypeInterrupt    = "interrupt"
)

// ToolAskUserQuestion is the tool the agent invokes to pause a session with
// questions for the operator.
const ToolAskUserQuestion = "AskUserQuestion"

// Message is one parsed line of CLI output. The struct is a union over all
// message types; which fields are populated depends on Type.
type Message struct {
	Type      MessageType `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	SessionID string      `json:"session_id,omitempty"`

	// Assistant/user message payload, passed through unexamined
	Message json.RawMessage `json:"message,omitempty"`

	// Result message fields
	IsError      bool           `json:"is_error,omitempty"`
	Result       any            `json:"result,omitempty"`
	DurationMS   int64          `json:"duration_ms,omitempty"`
	NumTurns     int            `json:"num_turns,omitempty"`
	TotalCostUSD float64        `json:"total_cost_usd,omitempty"`
	Usage        map[string]any `json:"usage,omitempty"`

	// Control request fields
	RequestID string          `json:"request_id,omitempty"`
	Request   *ControlRequest `json:"request,omitempty"`

	// Control response body
	Response *ControlResponseBody `json:"response,omitempty"`

	// Raw holds the original line for diagnostics. Never serialized.
	Raw []byte `json:"-"`
}

// ResultText returns the result payload as a string when it is one.
func (m *Message) ResultText() string {
	if s, ok := m.Result.(string); ok {
		return s
	}
	return ""
}

// ControlRequest is the body of a control_request message from the CLI.
type ControlRequest struct {
	Subtype   string         `json:"subtype"`
	ToolName  string         `json:"tool_name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`

	// Hook callback fields
	CallbackID string `json:"callback_id,omitempty"`
	HookName   string `json:"hook_name,omitempty"`
}

// Parse decodes one stream-json line, keeping the raw bytes for diagnostics.
// The caller owns classification of malformed lines; Parse reports what is
// wrong without policy.
func Parse(line []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("invalid stream-json line: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("stream-json line missing 'type' field")
	}
	msg.Raw = line
	return &msg, nil
}
