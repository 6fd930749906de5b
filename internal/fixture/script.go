// Package fixture is a scripted stand-in for the Claude Code CLI. A script
// describes one stream-json session step by step: which messages appear on
// stdout, which questions interrupt the run, and how the process terminates.
// Tests install cmd/claude-fixture as the claude binary to exercise the full
// subprocess path without a real model.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
)

// Step types understood by the replay loop.
const (
	StepSystem      = "system"
	StepAssistant   = "assistant"
	StepAskQuestion = "ask_question"
	StepResult      = "result"
	StepGarbage     = "garbage"
	StepHang        = "hang"
	StepExit        = "exit"
)

// Script describes one scripted session.
type Script struct {
	// SessionID stamps every emitted message. Empty selects DefaultSessionID.
	SessionID string `json:"session_id,omitempty"`
	Steps     []Step `json:"steps"`
}

// Step is one scripted action. Type selects which of the other fields apply.
type Step struct {
	Type string `json:"type"`

	// DelayMS pauses before the step runs.
	DelayMS int `json:"delay_ms,omitempty"`

	// Text is the utterance for assistant steps.
	Text string `json:"text,omitempty"`

	// Question, Header and Options shape an ask_question interruption.
	Question string   `json:"question,omitempty"`
	Header   string   `json:"header,omitempty"`
	Options  []string `json:"options,omitempty"`

	// Result and IsError shape the terminal result message.
	Result  string `json:"result,omitempty"`
	IsError bool   `json:"is_error,omitempty"`

	// Line is written verbatim for garbage steps.
	Line string `json:"line,omitempty"`

	// Code is the process exit status for exit steps.
	Code int `json:"code,omitempty"`
}

// Load reads a script from the provided path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	var script Script
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script JSON: %w", err)
	}

	if err := script.Validate(); err != nil {
		return nil, err
	}

	return &script, nil
}

// Validate checks that every step can be replayed.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("script has no steps defined")
	}
	for idx, step := range s.Steps {
		switch step.Type {
		case StepSystem, StepAssistant, StepResult, StepHang, StepExit:
		case StepAskQuestion:
			if step.Question == "" {
				return fmt.Errorf("step %d: ask_question requires a question", idx+1)
			}
		case StepGarbage:
			if step.Line == "" {
				return fmt.Errorf("step %d: garbage requires a line", idx+1)
			}
		default:
			return fmt.Errorf("step %d: unknown type %q", idx+1, step.Type)
		}
	}
	return nil
}
