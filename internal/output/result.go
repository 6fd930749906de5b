// Package output defines the result envelope every openclawpack operation
// returns: {success, result, errors, session_id, usage, duration_ms}.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the standard outcome envelope. It is never partially filled: a
// failed result has a nil payload and at least one error string.
type Result struct {
	Success    bool           `json:"success"`
	Result     any            `json:"result"`
	Errors     []string       `json:"errors"`
	SessionID  string         `json:"session_id"`
	Usage      map[string]any `json:"usage"`
	DurationMS int64          `json:"duration_ms"`
}

// Ok builds a success envelope.
func Ok(result any, sessionID string, usage map[string]any, durationMS int64) *Result {
	return &Result{
		Success:    true,
		Result:     result,
		Errors:     []string{},
		SessionID:  sessionID,
		Usage:      usage,
		DurationMS: durationMS,
	}
}

// Error builds a failure envelope from a message.
func Error(message string, durationMS int64) *Result {
	return &Result{
		Success:    false,
		Errors:     []string{message},
		DurationMS: durationMS,
	}
}

// ToJSON renders the envelope as indented JSON.
func (r *Result) ToJSON() (string, error) {
	if r.Errors == nil {
		r.Errors = []string{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// FormatText renders the envelope as human-readable lines.
func (r *Result) FormatText() string {
	var b strings.Builder

	if r.Success {
		b.WriteString("status: success\n")
	} else {
		b.WriteString("status: failed\n")
	}

	if r.Result != nil {
		switch v := r.Result.(type) {
		case string:
			fmt.Fprintf(&b, "result: %s\n", v)
		default:
			if data, err := json.MarshalIndent(v, "", "  "); err == nil {
				fmt.Fprintf(&b, "result:\n%s\n", data)
			} else {
				fmt.Fprintf(&b, "result: %v\n", v)
			}
		}
	}

	for _, e := range r.Errors {
		fmt.Fprintf(&b, "error: %s\n", e)
	}

	if r.SessionID != "" {
		fmt.Fprintf(&b, "session: %s\n", r.SessionID)
	}
	if r.DurationMS > 0 {
		fmt.Fprintf(&b, "duration: %dms\n", r.DurationMS)
	}

	return b.String()
}
