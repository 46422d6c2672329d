package npmaudit

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	ErrToolNotInstalled    = errors.New("npm is not installed or not found in PATH")
	ErrNoProject           = errors.New("no package.json found in current directory")
	ErrRegistryUnreachable = errors.New("network error: could not reach npm registry")
	ErrUnparseableOutput   = errors.New("failed to parse npm audit output")
	ErrAuditFailed         = errors.New("npm audit failed")
)

// CommandError reports a command that could not be started or exited non-zero.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// classifyFailure maps a failed audit that produced no report onto one of the
// error kinds. Checks run in priority order.
func classifyFailure(err error) error {
	msg := err.Error()

	switch {
	case isMissingExecutable(err, msg):
		return ErrToolNotInstalled
	case strings.Contains(msg, "package.json"):
		return ErrNoProject
	case strings.Contains(msg, "ENOTFOUND") || strings.Contains(msg, "network"):
		return ErrRegistryUnreachable
	default:
		return fmt.Errorf("%w: %s", ErrAuditFailed, msg)
	}
}

func isMissingExecutable(err error, msg string) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode < 0 && errors.Is(err, fs.ErrNotExist) {
		return true
	}

	// npm reports its own missing files as ENOENT too, those name the manifest
	return strings.Contains(msg, "ENOENT") && !strings.Contains(msg, "package.json")
}
