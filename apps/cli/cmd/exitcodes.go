package cmd

import "strconv"

// Exit codes for the hittest CLI
const (
	// ExitSuccess indicates every assertion held
	ExitSuccess = 0

	// ExitAssertionFailure indicates a status or assertion check failed
	ExitAssertionFailure = 1

	// ExitEncodeError indicates params or uploads could not be encoded
	ExitEncodeError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status " + strconv.Itoa(e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
