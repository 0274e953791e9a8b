package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by idleak commands.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitInvalidArgs     = 2
	ExitCollectorsFail  = 3
	ExitPersistenceFail = 4
)

// CommandError is returned by commands that failed with a specific exit code.
type CommandError struct {
	ExitCode    int
	CommonError string
	Result      interface{}
	cause       error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.cause
}

// NewCommandError creates a CommandError wrapping err. result is whatever was computed before
// the failure so that callers can still inspect it.
func NewCommandError(result interface{}, err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Result:      result,
		cause:       err,
	}
}

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return ExitFailure
}

// CollectorError records the failure of one collector.
type CollectorError struct {
	Collector string
	Err       error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector %q failed: %v", e.Collector, e.Err)
}

func (e *CollectorError) Unwrap() error {
	return e.Err
}

// Sentinel errors shared by collectors.
var (
	ErrNotFound     = errors.New("target not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrNoRepository = errors.New("no repository configured")
)
