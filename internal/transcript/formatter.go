// Package transcript renders stream-json messages as one-line console text.
// The transport logs each rendered line at debug level, so a verbose run
// reads as a live session transcript.
package transcript

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitgor/openclawpack/internal/protocol"
)

// Formatter formats protocol messages for console output
type Formatter struct{}

// NewFormatter creates a new transcript formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatMessage formats one stream-json message for console display
func (f *Formatter) FormatMessage(msg *protocol.Message) string {
	switch msg.Type {
	case protocol.MessageTypeSystem:
		if msg.Subtype != "" {
			return fmt.Sprintf("[system] %s", msg.Subtype)
		}
		return "[system]"

	case protocol.MessageTypeAssistant:
		if text := AssistantText(msg); text != "" {
			return fmt.Sprintf("[assistant] %s", firstLine(text))
		}
		return "[assistant] (no text)"

	case protocol.MessageTypeResult:
		return f.formatResult(msg)

	case protocol.MessageTypeControlRequest:
		if msg.Request != nil && msg.Request.ToolName != "" {
			return fmt.Sprintf("[control] %s: %s", msg.Request.Subtype, msg.Request.ToolName)
		}
		return "[control] request"

	default:
		return fmt.Sprintf("[%s]", msg.Type)
	}
}

func (f *Formatter) formatResult(msg *protocol.Message) string {
	duration := f.formatDuration(msg.DurationMS)

	if msg.IsError {
		details := firstLine(msg.ResultText())
		if details == "" {
			details = msg.Subtype
		}
		return fmt.Sprintf("[result] error after %s: %s", duration, details)
	}

	return fmt.Sprintf("[result] success: %d turns in %s", msg.NumTurns, duration)
}

// formatDuration formats a millisecond count in a human-readable format
func (f *Formatter) formatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

// AssistantText returns the concatenated text blocks of an assistant
// message. Non-text blocks are skipped; a malformed body yields "".
func AssistantText(msg *protocol.Message) string {
	if len(msg.Message) == 0 {
		return ""
	}

	var body struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(msg.Message, &body); err != nil {
		return ""
	}

	var parts []string
	for _, block := range body.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// firstLine returns the first line of s, trimmed.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
