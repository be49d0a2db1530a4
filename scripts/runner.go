package scripts

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Runner executes external command line tools such as yt-dlp.
type Runner struct {
	Environment []string
	logger      *logrus.Logger
}

func NewRunner(env []string) *Runner {
	return &Runner{
		Environment: env,
		logger:      logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used for command diagnostics.
func (r *Runner) WithLogger(logger *logrus.Logger) *Runner {
	r.logger = logger
	return r
}

// Run executes name with args and returns its stdout. On failure the error
// carries the command's stderr.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	const op = "Runner.Run"
	logger := r.logger.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
		"dir":     dir,
	})

	logger.Debug("Executing command")

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), r.Environment...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrOutput := stderr.String()
		logger.WithFields(logrus.Fields{
			"error":  err,
			"stderr": stderrOutput,
		}).Error("Command execution failed")
		scriptErr := newScriptError(op, errors.Wrap(err, filepath.Base(name)), "command execution failed")
		scriptErr.Command = name
		scriptErr.Stderr = strings.TrimSpace(stderrOutput)
		if cmd.Process != nil {
			scriptErr.PID = cmd.Process.Pid
		}
		return nil, scriptErr
	}

	return stdout.Bytes(), nil
}
