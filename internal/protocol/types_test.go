package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseResultMessage(t *testing.T) {
	line := []byte(`{"type":"result","subtype":"success","is_error":false,` +
		`"result":"Phase 2 planned","session_id":"sess-42",` +
		`"duration_ms":12345,"num_turns":7,"total_cost_usd":0.42,` +
		`"usage":{"input_tokens":100,"output_tokens":200}}`)

	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("failed to parse result message: %v", err)
	}

	if msg.Type != MessageTypeResult {
		t.Errorf("got type %s, want result", msg.Type)
	}
	if msg.IsError {
		t.Error("is_error should be false")
	}
	if msg.ResultText() != "Phase 2 planned" {
		t.Errorf("got result %q", msg.ResultText())
	}
	if msg.SessionID != "sess-42" {
		t.Errorf("got session_id %s, want sess-42", msg.SessionID)
	}
	if msg.DurationMS != 12345 {
		t.Errorf("got duration_ms %d, want 12345", msg.DurationMS)
	}
	if msg.NumTurns != 7 {
		t.Errorf("got num_turns %d, want 7", msg.NumTurns)
	}
	if msg.Usage["input_tokens"] != float64(100) {
		t.Errorf("got usage input_tokens %v, want 100", msg.Usage["input_tokens"])
	}
	if string(msg.Raw) != string(line) {
		t.Error("raw bytes not retained")
	}
}

func TestParseControlRequest(t *testing.T) {
	line := []byte(`{"type":"control_request","request_id":"req-7","request":` +
		`{"subtype":"can_use_tool","tool_name":"AskUserQuestion",` +
		`"input":{"questions":[{"question":"Research depth?","options":[{"label":"3"}]}]},` +
		`"tool_use_id":"toolu_01"}}`)

	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("failed to parse control request: %v", err)
	}

	if msg.Type != MessageTypeControlRequest {
		t.Errorf("got type %s, want control_request", msg.Type)
	}
	if msg.RequestID != "req-7" {
		t.Errorf("got request_id %s, want req-7", msg.RequestID)
	}
	if msg.Request == nil {
		t.Fatal("request body missing")
	}
	if msg.Request.Subtype != SubtypeCanUseTool {
		t.Errorf("got subtype %s, want can_use_tool", msg.Request.Subtype)
	}
	if msg.Request.ToolName != ToolAskUserQuestion {
		t.Errorf("got tool_name %s", msg.Request.ToolName)
	}
	if _, ok := msg.Request.Input["questions"]; !ok {
		t.Error("input questions missing")
	}
}

func TestParseControlResponse(t *testing.T) {
	line := []byte(`{"type":"control_response","response":` +
		`{"subtype":"success","request_id":"req-3",` +
		`"response":{"behavior":"allow","updatedInput":{"answers":{"depth":"3"}}}}}`)

	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("failed to parse control response: %v", err)
	}

	if msg.Type != MessageTypeControlResponse {
		t.Errorf("got type %s, want control_response", msg.Type)
	}
	if msg.Response == nil {
		t.Fatal("response body missing")
	}
	if msg.Response.RequestID != "req-3" {
		t.Errorf("got request_id %s, want req-3", msg.Response.RequestID)
	}
	if msg.Response.Subtype != "success" {
		t.Errorf("got subtype %s, want success", msg.Response.Subtype)
	}
	decision, ok := msg.Response.Response.(map[string]any)
	if !ok {
		t.Fatalf("decision payload is %T, want map", msg.Response.Response)
	}
	if decision["behavior"] != "allow" {
		t.Errorf("got behavior %v, want allow", decision["behavior"])
	}
}

func TestParseAssistantMessagePassthrough(t *testing.T) {
	line := []byte(`{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"working on it"}]},"session_id":"sess-1"}`)

	msg, err := Parse(line)
	if err != nil {
		t.Fatalf("failed to parse assistant message: %v", err)
	}

	if msg.Type != MessageTypeAssistant {
		t.Errorf("got type %s, want assistant", msg.Type)
	}

	// Payload carried through raw, not interpreted
	var payload map[string]any
	if err := json.Unmarshal(msg.Message, &payload); err != nil {
		t.Fatalf("message payload not valid JSON: %v", err)
	}
	if payload["role"] != "assistant" {
		t.Errorf("got role %v", payload["role"])
	}
}

func TestParseMissingType(t *testing.T) {
	_, err := Parse([]byte(`{"session_id":"sess-1"}`))
	if err == nil {
		t.Fatal("expected error for missing type, got nil")
	}
	if !strings.Contains(err.Error(), "type") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestParseMalformedLine(t *testing.T) {
	_, err := Parse([]byte("not json"))
	if err == nil {
		t.Fatal("expected error for malformed line, got nil")
	}
}

func TestUserMessageSerialization(t *testing.T) {
	um := NewUserMessage("/gsd:execute-phase 3")

	data, err := json.Marshal(um)
	if err != nil {
		t.Fatalf("failed to marshal user message: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	want := map[string]any{
		"type": "user",
		"message": map[string]any{
			"role":    "user",
			"content": "/gsd:execute-phase 3",
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("user message mismatch (-want +got):\n%s", diff)
	}
}

func TestControlResponseSerialization(t *testing.T) {
	resp := NewControlResponse("req-9", AllowTool(map[string]any{"answers": map[string]any{"depth": "3"}}))

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal control response: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	// request_id is nested inside the response body
	want := map[string]any{
		"type": "control_response",
		"response": map[string]any{
			"subtype":    "success",
			"request_id": "req-9",
			"response": map[string]any{
				"behavior": "allow",
				"updatedInput": map[string]any{
					"answers": map[string]any{"depth": "3"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("control response mismatch (-want +got):\n%s", diff)
	}
}

func TestControlErrorSerialization(t *testing.T) {
	resp := NewControlError("req-10", "unhandled subtype: fancy_new_thing")

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to marshal control error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	body, ok := decoded["response"].(map[string]any)
	if !ok {
		t.Fatalf("response body is %T, want map", decoded["response"])
	}
	if body["subtype"] != "error" {
		t.Errorf("got subtype %v, want error", body["subtype"])
	}
	if body["error"] != "unhandled subtype: fancy_new_thing" {
		t.Errorf("got error %v", body["error"])
	}
	if body["request_id"] != "req-10" {
		t.Errorf("got request_id %v, want req-10", body["request_id"])
	}
}

func TestDenyToolDecision(t *testing.T) {
	d := DenyTool("tool not permitted")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("failed to marshal decision: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if decoded["behavior"] != "deny" {
		t.Errorf("got behavior %v, want deny", decoded["behavior"])
	}
	if decoded["message"] != "tool not permitted" {
		t.Errorf("got message %v", decoded["message"])
	}
	if _, present := decoded["updatedInput"]; present {
		t.Error("deny decision should not carry updatedInput")
	}
}
