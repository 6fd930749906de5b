package claude

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the claude binary could not be located.
	ErrNotFound = errors.New("claude: binary not found")
	// ErrConnectionLost indicates the subprocess channel broke before the
	// session finished.
	ErrConnectionLost = errors.New("claude: connection to subprocess lost")
)

// ExitError reports a subprocess that terminated with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("claude: process exited with code %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("claude: process exited with code %d", e.Code)
}

// DecodeError reports a stdout line that could not be parsed as stream-json.
// Line holds the offending raw bytes.
type DecodeError struct {
	Line []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("claude: malformed stream-json output: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
