package utils

import (
	"context"
	"os/exec"
	"strings"
)

// RunCommand executes a command and returns its trimmed combined stdout and stderr.
// The command is not run through a shell.
func RunCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// HasCommand reports whether name resolves on PATH.
func HasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
