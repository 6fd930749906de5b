package fixture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mitgor/openclawpack/internal/ndjson"
	"github.com/mitgor/openclawpack/internal/protocol"
)

// DefaultSessionID stamps messages when the script does not pick its own.
const DefaultSessionID = "fixture-session"

// Session replays one script over a stream-json exchange.
type Session struct {
	script *Script
	logger *slog.Logger

	startedAt time.Time
	turns     int
	decisions []map[string]any
}

// NewSession constructs a session for the given script.
func NewSession(script *Script, logger *slog.Logger) (*Session, error) {
	if script == nil || len(script.Steps) == 0 {
		return nil, errors.New("script is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		script: script,
		logger: logger,
	}, nil
}

// Decisions returns the can_use_tool decisions received for ask_question
// steps, in arrival order.
func (s *Session) Decisions() []map[string]any {
	return s.decisions
}

// Run waits for the opening user turn on stdin, then replays the script to
// stdout. The returned code is the process exit status to report.
func (s *Session) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (int, error) {
	encoder := ndjson.NewEncoder(stdout, s.logger)
	decoder := ndjson.NewDecoder(stdin, s.logger)
	s.startedAt = time.Now()

	prompt, err := s.awaitPrompt(encoder, decoder)
	if err != nil {
		return 1, err
	}
	s.logger.Debug("prompt received", "prompt", prompt)

	for idx, step := range s.script.Steps {
		if step.DelayMS > 0 {
			select {
			case <-ctx.Done():
				return 1, ctx.Err()
			case <-time.After(time.Duration(step.DelayMS) * time.Millisecond):
			}
		}

		var err error
		switch step.Type {
		case StepSystem:
			err = s.sendSystem(encoder)
		case StepAssistant:
			err = s.sendAssistant(encoder, step.Text)
		case StepAskQuestion:
			err = s.askQuestion(step, encoder, decoder)
		case StepGarbage:
			_, err = io.WriteString(stdout, step.Line+"\n")
		case StepHang:
			s.logger.Debug("hanging until cancelled")
			<-ctx.Done()
			return 1, ctx.Err()
		case StepExit:
			s.logger.Debug("exiting by script", "code", step.Code)
			return step.Code, nil
		case StepResult:
			if err := s.sendResult(encoder, step); err != nil {
				return 1, fmt.Errorf("step %d (%s): %w", idx+1, step.Type, err)
			}
			return 0, nil
		}
		if err != nil {
			return 1, fmt.Errorf("step %d (%s): %w", idx+1, step.Type, err)
		}
	}

	return 0, nil
}

// awaitPrompt consumes stdin until the opening user turn arrives,
// acknowledging any control requests sent ahead of it.
func (s *Session) awaitPrompt(encoder *ndjson.Encoder, decoder *ndjson.Decoder) (string, error) {
	for {
		msg, err := s.next(decoder)
		if err == io.EOF {
			return "", errors.New("stdin closed before the opening user turn")
		}
		if err != nil {
			return "", err
		}

		switch msg.Type {
		case protocol.MessageTypeControlRequest:
			subtype := ""
			if msg.Request != nil {
				subtype = msg.Request.Subtype
			}
			s.logger.Debug("acknowledging control request",
				"request_id", msg.RequestID, "subtype", subtype)
			if err := encoder.Encode(protocol.NewControlResponse(msg.RequestID, map[string]any{})); err != nil {
				return "", err
			}

		case protocol.MessageTypeUser:
			var body protocol.UserMessageBody
			if len(msg.Message) > 0 {
				if err := json.Unmarshal(msg.Message, &body); err != nil {
					return "", fmt.Errorf("malformed user turn: %w", err)
				}
			}
			s.turns++
			return body.Content, nil

		default:
			s.logger.Warn("ignoring message before the user turn", "type", msg.Type)
		}
	}
}

func (s *Session) sendSystem(encoder *ndjson.Encoder) error {
	return encoder.Encode(protocol.Message{
		Type:      protocol.MessageTypeSystem,
		Subtype:   "init",
		SessionID: s.sessionID(),
	})
}

type assistantTextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type assistantBody struct {
	Role    string               `json:"role"`
	Content []assistantTextBlock `json:"content"`
}

func (s *Session) sendAssistant(encoder *ndjson.Encoder, text string) error {
	body, err := json.Marshal(assistantBody{
		Role:    "assistant",
		Content: []assistantTextBlock{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("marshal assistant body: %w", err)
	}
	s.turns++
	return encoder.Encode(protocol.Message{
		Type:      protocol.MessageTypeAssistant,
		SessionID: s.sessionID(),
		Message:   body,
	})
}

// askQuestion raises a can_use_tool request for AskUserQuestion and blocks
// until the matching control response arrives.
func (s *Session) askQuestion(step Step, encoder *ndjson.Encoder, decoder *ndjson.Decoder) error {
	requestID := uuid.New().String()

	options := make([]any, 0, len(step.Options))
	for _, label := range step.Options {
		options = append(options, map[string]any{"label": label})
	}
	question := map[string]any{
		"question":    step.Question,
		"header":      step.Header,
		"options":     options,
		"multiSelect": false,
	}

	req := protocol.ControlRequestMessage{
		Type:      protocol.MessageTypeControlRequest,
		RequestID: requestID,
		Request: map[string]any{
			"subtype":   protocol.SubtypeCanUseTool,
			"tool_name": protocol.ToolAskUserQuestion,
			"input":     map[string]any{"questions": []any{question}},
		},
	}
	if err := encoder.Encode(req); err != nil {
		return fmt.Errorf("send question: %w", err)
	}

	for {
		msg, err := s.next(decoder)
		if err == io.EOF {
			return errors.New("stdin closed while a question was pending")
		}
		if err != nil {
			return err
		}
		if msg.Type != protocol.MessageTypeControlResponse || msg.Response == nil {
			s.logger.Warn("ignoring message while a question is pending", "type", msg.Type)
			continue
		}
		if msg.Response.RequestID != requestID {
			s.logger.Warn("control response for unknown request",
				"request_id", msg.Response.RequestID)
			continue
		}
		if msg.Response.Subtype == "error" {
			return fmt.Errorf("question rejected: %s", msg.Response.Error)
		}

		decision, _ := msg.Response.Response.(map[string]any)
		s.decisions = append(s.decisions, decision)
		s.logger.Debug("question answered",
			"question", step.Question, "behavior", decision["behavior"])
		return nil
	}
}

func (s *Session) sendResult(encoder *ndjson.Encoder, step Step) error {
	subtype := "success"
	if step.IsError {
		subtype = "error_during_execution"
	}
	return encoder.Encode(protocol.Message{
		Type:       protocol.MessageTypeResult,
		Subtype:    subtype,
		SessionID:  s.sessionID(),
		IsError:    step.IsError,
		Result:     step.Result,
		DurationMS: time.Since(s.startedAt).Milliseconds(),
		NumTurns:   s.turns,
		Usage: map[string]any{
			"input_tokens":  25,
			"output_tokens": 50,
		},
	})
}

func (s *Session) next(decoder *ndjson.Decoder) (*protocol.Message, error) {
	line, err := decoder.DecodeRaw()
	if err != nil {
		return nil, err
	}
	msg, err := protocol.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", decoder.LineNum(), err)
	}
	return msg, nil
}

func (s *Session) sessionID() string {
	if s.script.SessionID != "" {
		return s.script.SessionID
	}
	return DefaultSessionID
}
