package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	path := writeScript(t, `{
		"session_id": "sess-42",
		"steps": [
			{"type": "system"},
			{"type": "assistant", "text": "Working through the phase."},
			{"type": "ask_question", "question": "Choose a depth level", "header": "Depth", "options": ["1", "2", "3"]},
			{"type": "result", "result": "Phase complete."}
		]
	}`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.SessionID != "sess-42" {
		t.Errorf("got session_id %q, want sess-42", s.SessionID)
	}
	if len(s.Steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(s.Steps))
	}
	if s.Steps[2].Question != "Choose a depth level" {
		t.Errorf("got question %q", s.Steps[2].Question)
	}
	if len(s.Steps[2].Options) != 3 || s.Steps[2].Options[2] != "3" {
		t.Errorf("got options %v", s.Steps[2].Options)
	}
	if s.Steps[3].Result != "Phase complete." {
		t.Errorf("got result %q", s.Steps[3].Result)
	}
}

func TestLoadScriptValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"no steps", `{"steps": []}`, "no steps defined"},
		{"unknown type", `{"steps": [{"type": "explode"}]}`, `unknown type "explode"`},
		{"question missing", `{"steps": [{"type": "ask_question"}]}`, "requires a question"},
		{"garbage missing", `{"steps": [{"type": "garbage"}]}`, "requires a line"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeScript(t, tc.content))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadScriptMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestLoadScriptMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := Load(writeScript(t, "not json"))
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
	if !strings.Contains(err.Error(), "parse script JSON") {
		t.Errorf("error %q does not name the parse failure", err)
	}
}
