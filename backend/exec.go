// Package backend drives the two external provisioning systems: the
// orchestration CLI creating the wormhole node and the declarative
// infrastructure tool creating the stargate node.
package backend

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// CommandExecutor defines an interface for executing external commands
type CommandExecutor interface {
	// Execute runs a command and returns its combined output
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// ExecuteInDir runs a command in a specific directory and returns its combined output
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// NativeExecutor implements CommandExecutor by executing commands on the host.
// ExtraEnv entries are appended to the inherited environment, which is how the
// provider credentials reach the infrastructure subprocess.
type NativeExecutor struct {
	ExtraEnv []string
}

// Execute implements CommandExecutor.Execute
func (e *NativeExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	return e.run(ctx, "", name, args...)
}

// ExecuteInDir implements CommandExecutor.ExecuteInDir
func (e *NativeExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	return e.run(ctx, dir, name, args...)
}

func (e *NativeExecutor) run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(e.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), e.ExtraEnv...)
	}
	return cmd.CombinedOutput()
}

// runCommand executes a command and wraps failures in a CommandError
func runCommand(executor CommandExecutor, ctx context.Context, name string, args ...string) ([]byte, error) {
	output, err := executor.Execute(ctx, name, args...)
	if err != nil {
		return output, NewCommandError(name, args, string(output), err)
	}
	return output, nil
}

// runCommandInDir executes a command in a directory and wraps failures in a CommandError
func runCommandInDir(executor CommandExecutor, ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	output, err := executor.ExecuteInDir(ctx, dir, name, args...)
	if err != nil {
		return output, NewCommandError(name, args, string(output), err)
	}
	return output, nil
}

// formatCommandOutput formats command output for error messages
func formatCommandOutput(output string) string {
	if output == "" {
		return "<no output>"
	}

	output = strings.TrimSpace(output)
	if len(output) > 1000 {
		output = output[:1000] + "... [output truncated]"
	}

	if strings.Contains(output, "\n") {
		lines := strings.Split(output, "\n")
		for i, line := range lines {
			lines[i] = "  | " + line
		}
		return "\n" + strings.Join(lines, "\n")
	}

	return output
}
