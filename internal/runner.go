package internal

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// CommandRunner runs an external program and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name with args. A program missing from PATH yields an error
// matching ErrToolMissing.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	LogDebug("exec: %s %v", name, args)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		return out, fmt.Errorf("%w: %s: %w", ErrToolMissing, name, err)
	}
	return out, err
}
