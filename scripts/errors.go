package scripts

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ScriptError reports a failed external process: a command line tool run by
// Runner or a summarizer worker.
type ScriptError struct {
	Op      string
	Command string
	PID     int    // zero when the process never started
	Stderr  string // trailing stderr output, when captured
	Err     error
	Message string
}

func (e *ScriptError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.PID > 0 {
		fmt.Fprintf(&b, " [%s pid %d]", e.Command, e.PID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (%v)", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func newScriptError(op string, err error, message string) *ScriptError {
	return &ScriptError{
		Op:      op,
		Err:     err,
		Message: message,
	}
}

// StderrOf returns the stderr output carried by the first ScriptError in
// err's chain.
func StderrOf(err error) string {
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		return scriptErr.Stderr
	}
	return ""
}
