package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edp1096/spicerun/pkg/netlist"
	"github.com/edp1096/spicerun/pkg/rawfile"
)

var (
	ErrToolUnavailable = errors.New("simulator executable not found")
	ErrTimeout         = errors.New("simulation timed out")
	ErrNoResult        = errors.New("simulator produced no result file")
)

// TimeoutError reports a run killed at the deadline. No partial result is
// returned with it.
type TimeoutError struct {
	Timeout time.Duration
	Err     error // context error that ended the run
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("simulation exceeded timeout of %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Err}
}

// ProcessError reports a simulator exit that left no rawfile behind.
type ProcessError struct {
	ExitCode   int
	Stdout     string
	Stderr     string
	Diagnostic string // first error line the simulator printed, if any
	Err        error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("ngspice exited with code %d", e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Code is a coarse error category for logs and exit status.
type Code string

const (
	CodeUnknown            Code = "unknown"
	CodeToolUnavailable    Code = "tool_unavailable"
	CodeTimeout            Code = "timeout"
	CodeMalformedDirective Code = "malformed_directive"
	CodeCorruptResult      Code = "corrupt_result"
	CodeNoResult           Code = "no_result"
	CodeCanceled           Code = "canceled"
)

// Classify maps err to a Code using sentinel errors only.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, ErrToolUnavailable):
		return CodeToolUnavailable
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	case errors.Is(err, netlist.ErrMalformedDirective):
		return CodeMalformedDirective
	case errors.Is(err, rawfile.ErrCorrupt),
		errors.Is(err, rawfile.ErrMissingField),
		errors.Is(err, rawfile.ErrNoVariables):
		return CodeCorruptResult
	case errors.Is(err, ErrNoResult):
		return CodeNoResult
	default:
		return CodeUnknown
	}
}
