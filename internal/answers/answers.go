// Package answers resolves interactive questions against a canned answer
// policy so a session can run unattended.
package answers

import (
	"sort"
	"strings"
)

// Policy maps a question pattern to its canned answer. A key matches either
// the full question text or a case-insensitive substring of it. For
// multiple-choice questions the value should be an option label; multi-select
// answers join labels with ", ".
type Policy map[string]string

// Merge overlays the caller's entries onto built-in defaults. Caller entries
// win on key collision. Both inputs are left untouched.
func Merge(defaults, overrides Policy) Policy {
	merged := make(Policy, len(defaults)+len(overrides))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// Question is one interactive prompt surfaced by the session. No options
// means free-text input.
type Question struct {
	Text    string
	Options []string
}

// MatchKind reports how Resolve found an answer. A fallback means the policy
// under-specifies the interaction and callers should surface that.
type MatchKind int

const (
	MatchExact MatchKind = iota
	MatchSubstring
	MatchFallback
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	case MatchFallback:
		return "fallback"
	}
	return "unknown"
}

// Resolve picks the answer for one question. Priority order:
//
//  1. Exact: the question text is literally a policy key.
//  2. Substring: some policy key, lowercased, occurs in the lowercased
//     question text. Keys are tried in sorted order so the result is
//     deterministic when several keys match.
//  3. Fallback: the first option's label, or "" for free text.
//
// Every question yields some answer; Resolve never fails.
func Resolve(q Question, policy Policy) (string, MatchKind) {
	if answer, ok := policy[q.Text]; ok {
		return answer, MatchExact
	}

	questionLower := strings.ToLower(q.Text)
	keys := make([]string, 0, len(policy))
	for key := range policy {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.Contains(questionLower, strings.ToLower(key)) {
			return policy[key], MatchSubstring
		}
	}

	if len(q.Options) > 0 {
		return q.Options[0], MatchFallback
	}
	return "", MatchFallback
}

// ParseQuestions extracts the question list from an AskUserQuestion tool
// input. Entries that are not objects are skipped; missing fields come back
// as zero values so Resolve can still fall back.
func ParseQuestions(input map[string]any) []Question {
	raw, _ := input["questions"].([]any)
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		q := Question{Text: stringField(obj, "question")}
		if opts, ok := obj["options"].([]any); ok {
			for _, opt := range opts {
				optObj, ok := opt.(map[string]any)
				if !ok {
					continue
				}
				q.Options = append(q.Options, stringField(optObj, "label"))
			}
		}
		questions = append(questions, q)
	}
	return questions
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
