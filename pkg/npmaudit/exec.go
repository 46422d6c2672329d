package npmaudit

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

const (
	// DefaultMaxOutput bounds the captured stdout of a single npm call.
	DefaultMaxOutput = 64 << 20

	maxStderr = 1 << 20
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout    []byte
	Stderr    []byte
	ExitCode  int
	Truncated bool
}

// Runner executes an external command in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct {
	MaxOutput int
}

func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	limit := r.MaxOutput
	if limit <= 0 {
		limit = DefaultMaxOutput
	}

	stdout := &cappedBuffer{limit: limit}
	stderr := &cappedBuffer{limit: maxStderr}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()

	res := Result{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		Truncated: stdout.truncated,
	}

	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	} else {
		// never started
		res.ExitCode = -1
	}

	return res, &CommandError{
		Cmd:      strings.Join(append([]string{name}, args...), " "),
		ExitCode: res.ExitCode,
		Stderr:   string(res.Stderr),
		Err:      err,
	}
}

// cappedBuffer keeps the first limit bytes and silently drops the rest, so
// the child never sees a broken pipe.
type cappedBuffer struct {
	bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.Buffer.Len()
	if room <= 0 {
		b.truncated = len(p) > 0 || b.truncated
		return len(p), nil
	}
	if len(p) > room {
		b.Buffer.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.Buffer.Write(p)
}
