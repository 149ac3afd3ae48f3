package cli

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	ExitOK               = 0
	ExitUsage            = 1
	ExitNotDirectory     = 2
	ExitExcludeUnread    = 3
	ExitExcludeMalformed = 4
	ExitDifferences      = 5
	ExitInterrupted      = 130
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitUsage
}
