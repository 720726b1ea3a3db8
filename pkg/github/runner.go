package github

import (
	"context"
	"os/exec"
)

// Runner executes git with the given arguments in a work directory.
// Implementations return combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
