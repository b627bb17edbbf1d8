package cli

// CommandError signals a command failure with a specific exit code.
// Commands return it after printing their diagnostics, so main decides how
// to exit instead of commands calling os.Exit.
type CommandError struct {
	exitCode int
}

// NewCommandError creates a CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

func (e *CommandError) Error() string {
	return "command failed"
}

// ExitCode returns the exit code of the failure.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// Exit codes.
const (
	ExitFailure  = 1
	ExitMismatch = 2
	ExitLocked   = 3
)
