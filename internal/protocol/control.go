package protocol

// Outgoing message shapes written to the CLI's stdin.

// Permission behaviors for can_use_tool responses
const (
	BehaviorAllow = "allow"
	BehaviorDeny  = "deny"
)

// UserMessage is a user turn sent to the CLI.
type UserMessage struct {
	Type    MessageType     `json:"type"`
	Message UserMessageBody `json:"message"`
}

// UserMessageBody carries the conversational content of a user turn.
type UserMessageBody struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage builds a user turn for the given prompt text.
func NewUserMessage(content string) UserMessage {
	return UserMessage{
		Type: MessageTypeUser,
		Message: UserMessageBody{
			Role:    "user",
			Content: content,
		},
	}
}

// ControlResponse is the reply envelope for a control_request. The request_id
// lives inside the response body, not at the top level.
type ControlResponse struct {
	Type     MessageType         `json:"type"`
	Response ControlResponseBody `json:"response"`
}

// ControlResponseBody is the inner payload of a control response.
type ControlResponseBody struct {
	Subtype   string `json:"subtype"`
	RequestID string `json:"request_id"`
	Response  any    `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewControlResponse builds a success reply carrying the given payload.
func NewControlResponse(requestID string, payload any) ControlResponse {
	return ControlResponse{
		Type: MessageTypeControlResponse,
		Response: ControlResponseBody{
			Subtype:   "success",
			RequestID: requestID,
			Response:  payload,
		},
	}
}

// NewControlError builds an error reply for an unfulfillable control request.
func NewControlError(requestID string, message string) ControlResponse {
	return ControlResponse{
		Type: MessageTypeControlResponse,
		Response: ControlResponseBody{
			Subtype:   "error",
			RequestID: requestID,
			Error:     message,
		},
	}
}

// ControlRequestMessage is a client-initiated control request, such as the
// initialize handshake that declares hook callbacks.
type ControlRequestMessage struct {
	Type      MessageType    `json:"type"`
	RequestID string         `json:"request_id"`
	Request   map[string]any `json:"request"`
}

// NewInitializeRequest builds the initialize handshake. A non-empty hooks map
// declares hook callbacks the CLI should route back over the control channel.
func NewInitializeRequest(requestID string, hooks map[string]any) ControlRequestMessage {
	request := map[string]any{
		"subtype": SubtypeInitialize,
	}
	if len(hooks) > 0 {
		request["hooks"] = hooks
	}
	return ControlRequestMessage{
		Type:      MessageTypeControlRequest,
		RequestID: requestID,
		Request:   request,
	}
}

// PermissionDecision is the can_use_tool response payload. UpdatedInput uses
// camelCase on the wire, unlike the rest of the protocol.
type PermissionDecision struct {
	Behavior     string         `json:"behavior"`
	UpdatedInput map[string]any `json:"updatedInput,omitempty"`
	Message      string         `json:"message,omitempty"`
}

// AllowTool permits the tool call, optionally rewriting its input.
func AllowTool(updatedInput map[string]any) PermissionDecision {
	return PermissionDecision{
		Behavior:     BehaviorAllow,
		UpdatedInput: updatedInput,
	}
}

// DenyTool rejects the tool call with an explanatory message.
func DenyTool(message string) PermissionDecision {
	return PermissionDecision{
		Behavior: BehaviorDeny,
		Message:  message,
	}
}
