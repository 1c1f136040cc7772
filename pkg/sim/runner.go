package sim

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/edp1096/spicerun/internal/consts"
)

// Command is one simulator invocation.
type Command struct {
	Path string
	Args []string
}

// Output is what a finished process left behind. ExitCode is -1 when the
// process did not exit normally.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes simulator processes.
type Runner interface {
	LookPath(name string) (string, error)
	// Run waits for the process. A nonzero exit is reported in Output, not
	// as an error; errors mean the process could not run to completion.
	Run(ctx context.Context, cmd Command) (Output, error)
}

// ExecRunner runs real processes with os/exec.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output after the process is
	// killed, in case a child still holds the pipes. Zero means
	// consts.WaitDelay.
	WaitDelay time.Duration
}

func (ExecRunner) LookPath(name string) (string, error) { return exec.LookPath(name) }

func (r ExecRunner) Run(ctx context.Context, c Command) (Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = consts.WaitDelay
	}

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: -1}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}
	// A clean exit stands even if the deadline passed while it was exiting.
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return out, err
	}
	return out, nil
}
