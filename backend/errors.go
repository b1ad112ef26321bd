package backend

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError represents a failed external command invocation
type CommandError struct {
	Command string   // The command that was executed
	Args    []string // The arguments passed to the command
	Output  string   // The combined stdout/stderr
	Err     error    // The underlying error
}

// Error implements the error interface
func (e *CommandError) Error() string {
	fullCmd := e.Command
	if len(e.Args) > 0 {
		fullCmd += " " + strings.Join(e.Args, " ")
	}

	if e.Output == "" {
		return fmt.Sprintf("command failed: '%s': %v", fullCmd, e.Err)
	}

	return fmt.Sprintf("command failed: '%s': %v\nOutput: %s",
		fullCmd, e.Err, formatCommandOutput(e.Output))
}

// Unwrap returns the underlying error
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError
func NewCommandError(command string, args []string, output string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Args:    args,
		Output:  output,
		Err:     err,
	}
}

// ExitCode extracts the subprocess exit status from an error chain.
// Returns -1 when the chain carries no exit status.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
